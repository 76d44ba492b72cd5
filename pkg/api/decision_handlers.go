package api

import (
	"net/http"
	"strconv"

	"github.com/kabro/accesscore/pkg/catalog"
	"github.com/kabro/accesscore/pkg/decision"
	"github.com/kabro/accesscore/pkg/httputil"
)

type checkRequest struct {
	PrincipalID    int64  `json:"principal_id"`
	OrganizationID *int64 `json:"organization_id,omitempty"`
	Capability     string `json:"capability"`
	ResourceID     string `json:"resource_id,omitempty"`
}

func (req checkRequest) toDecisionRequest() decision.Request {
	return decision.Request{
		PrincipalID:    req.PrincipalID,
		OrganizationID: req.OrganizationID,
		Capability:     catalog.Permission(req.Capability),
		ResourceID:     req.ResourceID,
	}
}

// handleCheck evaluates a single access check.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.PrincipalID == 0 {
		httputil.WriteBadRequest(w, "principal_id is required")
		return
	}
	if req.Capability == "" {
		httputil.WriteBadRequest(w, "capability is required")
		return
	}

	d := s.engine.Check(r.Context(), req.toDecisionRequest())
	httputil.WriteSuccess(w, d)
}

type batchCheckRequest struct {
	Checks []checkRequest `json:"checks"`
}

type batchCheckResponse struct {
	Decisions []*decision.Decision `json:"decisions"`
}

const maxBatchSize = 100

// handleCheckBatch evaluates several access checks in one call. Each check
// is evaluated and audited independently.
func (s *Server) handleCheckBatch(w http.ResponseWriter, r *http.Request) {
	var req batchCheckRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if len(req.Checks) == 0 {
		httputil.WriteBadRequest(w, "checks is required")
		return
	}
	if len(req.Checks) > maxBatchSize {
		httputil.WriteBadRequest(w, "too many checks in one batch")
		return
	}

	resp := batchCheckResponse{Decisions: make([]*decision.Decision, 0, len(req.Checks))}
	for _, check := range req.Checks {
		resp.Decisions = append(resp.Decisions, s.engine.Check(r.Context(), check.toDecisionRequest()))
	}
	httputil.WriteSuccess(w, resp)
}

type effectivePermissionsResponse struct {
	PrincipalID    int64    `json:"principal_id"`
	OrganizationID *int64   `json:"organization_id,omitempty"`
	Permissions    []string `json:"permissions"`
}

// handleEffectivePermissions returns the resolved permission set for a
// principal. Principals may inspect themselves; anyone else needs the
// system administration capability.
func (s *Server) handleEffectivePermissions(w http.ResponseWriter, r *http.Request) {
	principalID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if caller(r) != principalID {
		d := s.engine.Check(r.Context(), decision.Request{
			PrincipalID: caller(r),
			Capability:  catalog.PermSystemAdmin,
		})
		if !d.Allowed {
			httputil.WriteForbidden(w, "insufficient permissions")
			return
		}
	}

	var orgID int64
	if str := r.URL.Query().Get("org_id"); str != "" {
		parsed, err := strconv.ParseInt(str, 10, 64)
		if err != nil {
			httputil.WriteBadRequest(w, "invalid org_id")
			return
		}
		orgID = parsed
	}

	permissions, err := s.engine.EffectivePermissions(r.Context(), principalID, orgID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	resp := effectivePermissionsResponse{
		PrincipalID: principalID,
		Permissions: make([]string, 0, permissions.Len()),
	}
	if orgID != 0 {
		resp.OrganizationID = &orgID
	}
	for _, p := range permissions.Slice() {
		resp.Permissions = append(resp.Permissions, string(p))
	}
	httputil.WriteSuccess(w, resp)
}
