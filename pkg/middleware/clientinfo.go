package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/kabro/accesscore/pkg/observability"
)

// ForwardedForHeader carries the client chain when the service sits
// behind a proxy; the first address is the originating client.
const ForwardedForHeader = "X-Forwarded-For"

// ClientInfo attaches the client IP and user agent to the context so
// audit entries can record where a request came from.
func ClientInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := observability.WithClientInfo(r.Context(), clientIP(r), r.UserAgent())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get(ForwardedForHeader); forwarded != "" {
		if first, _, ok := strings.Cut(forwarded, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(forwarded)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
