package api

import (
	"net/http"
	"time"

	"github.com/kabro/accesscore/pkg/catalog"
	"github.com/kabro/accesscore/pkg/decision"
	"github.com/kabro/accesscore/pkg/delegation"
	"github.com/kabro/accesscore/pkg/httputil"
)

type createDelegationRequest struct {
	ToPrincipalID int64      `json:"to_principal_id"`
	Permissions   []string   `json:"permissions"`
	Reason        string     `json:"reason"`
	ValidFrom     *time.Time `json:"valid_from,omitempty"`
	// Omitted valid_until means the delegation never expires.
	ValidUntil *time.Time `json:"valid_until,omitempty"`
}

// handleCreateDelegation creates a delegation from the caller to another
// principal. The service rejects permissions the caller does not hold.
func (s *Server) handleCreateDelegation(w http.ResponseWriter, r *http.Request) {
	orgID, ok := httputil.ParsePathInt64OrError(w, r, "org_id")
	if !ok {
		return
	}

	var req createDelegationRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.ToPrincipalID == 0 {
		httputil.WriteBadRequest(w, "to_principal_id is required")
		return
	}

	permissions := make([]catalog.Permission, 0, len(req.Permissions))
	for _, p := range req.Permissions {
		permissions = append(permissions, catalog.Permission(p))
	}

	createReq := delegation.CreateRequest{
		OrganizationID:  orgID,
		FromPrincipalID: caller(r),
		ToPrincipalID:   req.ToPrincipalID,
		Permissions:     permissions,
		Reason:          req.Reason,
		ValidUntil:      req.ValidUntil,
	}
	if req.ValidFrom != nil {
		createReq.ValidFrom = *req.ValidFrom
	}

	d, err := s.delegations.Create(r.Context(), createReq)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, d)
}

// handleListDelegations lists an organization's delegations, newest first.
func (s *Server) handleListDelegations(w http.ResponseWriter, r *http.Request) {
	orgID, ok := httputil.ParsePathInt64OrError(w, r, "org_id")
	if !ok {
		return
	}
	limit, err := httputil.ParseQueryInt(r, "limit", 50)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	offset, err := httputil.ParseQueryInt(r, "offset", 0)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	delegations, err := s.delegations.Store().ListForOrg(r.Context(), orgID, limit, offset)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, delegations)
}

// handleGetDelegation fetches a delegation by its public id.
func (s *Server) handleGetDelegation(w http.ResponseWriter, r *http.Request) {
	delegationID, ok := httputil.ParsePathStringOrError(w, r, "delegation_id")
	if !ok {
		return
	}

	d, err := s.delegations.Store().Get(r.Context(), delegationID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, d)
}

type revokeDelegationRequest struct {
	Reason string `json:"reason"`
}

// handleRevokeDelegation revokes a delegation. Only the grantor or a
// platform administrator may revoke.
func (s *Server) handleRevokeDelegation(w http.ResponseWriter, r *http.Request) {
	delegationID, ok := httputil.ParsePathStringOrError(w, r, "delegation_id")
	if !ok {
		return
	}

	var req revokeDelegationRequest
	if r.Body != nil && r.ContentLength > 0 {
		if !httputil.ParseJSONOrError(w, r, &req) {
			return
		}
	}

	d, err := s.delegations.Store().Get(r.Context(), delegationID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	if d.FromPrincipalID != caller(r) {
		verdict := s.engine.Check(r.Context(), decision.Request{
			PrincipalID: caller(r),
			Capability:  catalog.PermSystemAdmin,
		})
		if !verdict.Allowed {
			httputil.WriteForbidden(w, "insufficient permissions")
			return
		}
	}

	if err := s.delegations.Revoke(r.Context(), caller(r), delegationID, req.Reason); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}
