package middleware

import (
	"net/http"
	"strconv"

	"github.com/kabro/accesscore/pkg/httputil"
	"github.com/kabro/accesscore/pkg/observability"
)

// PrincipalHeader identifies the calling principal. It is set by the
// authenticating edge proxy; this service trusts it as-is.
const PrincipalHeader = "X-Principal-Id"

// Principal extracts the calling principal's id from the request header and
// attaches it to the context. Requests without the header pass through
// unauthenticated; handlers that need a principal use RequirePrincipal.
func Principal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(PrincipalHeader)
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		principalID, err := strconv.ParseInt(header, 10, 64)
		if err != nil {
			httputil.WriteBadRequest(w, "invalid principal id header")
			return
		}

		ctx := observability.WithPrincipalID(r.Context(), principalID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePrincipal rejects requests that carry no principal.
func RequirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := observability.GetPrincipalID(r.Context()); !ok {
			httputil.WriteUnauthorized(w, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
