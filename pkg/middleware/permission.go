package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/kabro/accesscore/pkg/catalog"
	"github.com/kabro/accesscore/pkg/decision"
	"github.com/kabro/accesscore/pkg/httputil"
	"github.com/kabro/accesscore/pkg/observability"
)

// Authorizer is the decision surface the permission guard consults.
type Authorizer interface {
	Check(ctx context.Context, req decision.Request) *decision.Decision
}

// OrgHeader carries the organization scope for routes without an {org_id}
// path variable.
const OrgHeader = "X-Org-Id"

// RequirePermission guards a handler behind a capability check. The calling
// principal comes from the request context; the organization scope from the
// {org_id} path variable when the route has one, else from the X-Org-Id
// header. Denials produce a generic 403 with the deny reason kept out of
// the response.
func RequirePermission(authorizer Authorizer, capability catalog.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principalID, ok := observability.GetPrincipalID(r.Context())
			if !ok {
				httputil.WriteUnauthorized(w, "authentication required")
				return
			}

			req := decision.Request{
				PrincipalID: principalID,
				Capability:  capability,
				ResourceID:  r.URL.Path,
			}
			if orgID, ok := orgScope(r); ok {
				req.OrganizationID = &orgID
			}

			d := authorizer.Check(r.Context(), req)
			if !d.Allowed {
				httputil.WriteForbidden(w, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func orgScope(r *http.Request) (int64, bool) {
	str, err := httputil.ParsePathString(r, "org_id")
	if err != nil {
		if str = r.Header.Get(OrgHeader); str == "" {
			return 0, false
		}
	}
	orgID, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return 0, false
	}
	return orgID, true
}
