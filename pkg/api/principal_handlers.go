package api

import (
	"net/http"

	"github.com/kabro/accesscore/pkg/catalog"
	"github.com/kabro/accesscore/pkg/httputil"
)

type registerRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// handleRegister registers a new principal.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Email == "" {
		httputil.WriteBadRequest(w, "email is required")
		return
	}

	principal, err := s.identity.Register(r.Context(), req.Email, req.FullName)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, principal)
}

// handleGetPrincipal fetches a principal by id.
func (s *Server) handleGetPrincipal(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	principal, err := s.identity.Store().GetByID(r.Context(), id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, principal)
}

// handleListPrincipals lists principals with pagination.
func (s *Server) handleListPrincipals(w http.ResponseWriter, r *http.Request) {
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

	principals, err := s.identity.Store().List(r.Context(), limit, offset)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, principals)
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

// handleChangeRole changes a principal's platform role.
func (s *Server) handleChangeRole(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req changeRoleRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	err := s.identity.ChangePlatformRole(r.Context(), caller(r), id, catalog.PlatformRole(req.Role))
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

type freezeRequest struct {
	Reason string `json:"reason"`
}

// handleFreeze freezes a principal's account.
func (s *Server) handleFreeze(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req freezeRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Reason == "" {
		httputil.WriteBadRequest(w, "reason is required")
		return
	}

	if err := s.identity.Freeze(r.Context(), caller(r), id, req.Reason); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// handleUnfreeze unfreezes a principal's account.
func (s *Server) handleUnfreeze(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if err := s.identity.Unfreeze(r.Context(), caller(r), id); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}
