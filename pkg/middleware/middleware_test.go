package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kabro/accesscore/pkg/catalog"
	"github.com/kabro/accesscore/pkg/decision"
	"github.com/kabro/accesscore/pkg/observability"
)

func TestRequestIDGeneratesWhenMissing(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = observability.GetRequestID(r.Context())
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
}

func TestRequestIDKeepsCallerValue(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = observability.GetRequestID(r.Context())
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set(RequestIDHeader, "upstream-id")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "upstream-id", seen)
	assert.Equal(t, "upstream-id", w.Header().Get(RequestIDHeader))
}

func TestPrincipalParsesHeader(t *testing.T) {
	var seen int64
	var found bool
	handler := Principal(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, found = observability.GetPrincipalID(r.Context())
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set(PrincipalHeader, "42")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.True(t, found)
	assert.Equal(t, int64(42), seen)
}

func TestPrincipalRejectsMalformedHeader(t *testing.T) {
	handler := Principal(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set(PrincipalHeader, "not-a-number")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPrincipalPassesThroughWhenAbsent(t *testing.T) {
	var found bool
	handler := Principal(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, found = observability.GetPrincipalID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

	assert.False(t, found)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequirePrincipal(t *testing.T) {
	handler := RequirePrincipal(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("rejects unauthenticated request", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("passes authenticated request", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		req = req.WithContext(observability.WithPrincipalID(req.Context(), 7))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

// stubAuthorizer records the request and returns a fixed decision.
type stubAuthorizer struct {
	allowed bool
	lastReq decision.Request
}

func (s *stubAuthorizer) Check(ctx context.Context, req decision.Request) *decision.Decision {
	s.lastReq = req
	return &decision.Decision{Allowed: s.allowed}
}

func TestRequirePermissionAllows(t *testing.T) {
	authorizer := &stubAuthorizer{allowed: true}
	guard := RequirePermission(authorizer, catalog.PermViewAuditLogs)

	handler := guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/v1/audit", nil)
	req = req.WithContext(observability.WithPrincipalID(req.Context(), 42))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(42), authorizer.lastReq.PrincipalID)
	assert.Equal(t, catalog.PermViewAuditLogs, authorizer.lastReq.Capability)
	assert.Nil(t, authorizer.lastReq.OrganizationID)
}

func TestRequirePermissionDeniesWithGenericBody(t *testing.T) {
	guard := RequirePermission(&stubAuthorizer{allowed: false}, catalog.PermManageMembers)

	handler := guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest("POST", "/v1/orgs/3/members", nil)
	req = req.WithContext(observability.WithPrincipalID(req.Context(), 42))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "insufficient permissions")
	assert.NotContains(t, w.Body.String(), "NOT_A_MEMBER")
}

func TestRequirePermissionExtractsOrgScope(t *testing.T) {
	authorizer := &stubAuthorizer{allowed: true}
	guard := RequirePermission(authorizer, catalog.PermManageMembers)

	router := mux.NewRouter()
	router.Handle("/v1/orgs/{org_id}/members", guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest("POST", "/v1/orgs/3/members", nil)
	req = req.WithContext(observability.WithPrincipalID(req.Context(), 42))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, authorizer.lastReq.OrganizationID)
	assert.Equal(t, int64(3), *authorizer.lastReq.OrganizationID)
}

func TestClientInfoFromForwardedFor(t *testing.T) {
	var gotIP, gotUA string
	handler := ClientInfo(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIP, gotUA = observability.GetClientInfo(r.Context())
	}))

	req := httptest.NewRequest("GET", "/v1/decisions", nil)
	req.Header.Set(ForwardedForHeader, "203.0.113.7, 10.0.0.1")
	req.Header.Set("User-Agent", "curl/8.5")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "203.0.113.7", gotIP)
	assert.Equal(t, "curl/8.5", gotUA)
}

func TestClientInfoFallsBackToRemoteAddr(t *testing.T) {
	var gotIP string
	handler := ClientInfo(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIP, _ = observability.GetClientInfo(r.Context())
	}))

	req := httptest.NewRequest("GET", "/v1/decisions", nil)
	req.RemoteAddr = "192.0.2.4:51234"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "192.0.2.4", gotIP)
}

func TestRequirePermissionOrgScopeFromHeader(t *testing.T) {
	authorizer := &stubAuthorizer{allowed: true}
	guard := RequirePermission(authorizer, catalog.PermViewProject)

	handler := guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/v1/projects", nil)
	req.Header.Set(OrgHeader, "9")
	req = req.WithContext(observability.WithPrincipalID(req.Context(), 42))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, authorizer.lastReq.OrganizationID)
	assert.Equal(t, int64(9), *authorizer.lastReq.OrganizationID)
}

func TestRequirePermissionRejectsUnauthenticated(t *testing.T) {
	guard := RequirePermission(&stubAuthorizer{allowed: true}, catalog.PermViewProject)

	handler := guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/v1/projects", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestChainAppliesInOrder(t *testing.T) {
	var order []string
	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := Chain(tag("outer"), tag("inner"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/test", nil))

	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestLoggingEmitsStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	log := observability.NewLogger(observability.InfoLevel, &buf)

	handler := Logging(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest("POST", "/v1/delegations", nil)
	req = req.WithContext(observability.WithRequestID(req.Context(), "req-9"))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	line := buf.String()
	assert.Contains(t, line, "request completed")
	assert.Contains(t, line, "/v1/delegations")
	assert.Contains(t, line, "req-9")
	assert.Contains(t, line, "201")
}

func TestRecoveryConvertsPanic(t *testing.T) {
	var buf bytes.Buffer
	log := observability.NewLogger(observability.ErrorLevel, &buf)

	handler := Recovery(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, buf.String(), "handler panicked")
}
