package api

import (
	"net/http"

	"github.com/kabro/accesscore/pkg/catalog"
	"github.com/kabro/accesscore/pkg/httputil"
)

type createOrgRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// handleCreateOrg creates an organization with the caller as its owner.
func (s *Server) handleCreateOrg(w http.ResponseWriter, r *http.Request) {
	var req createOrgRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Name == "" {
		httputil.WriteBadRequest(w, "name is required")
		return
	}

	org, err := s.orgs.CreateOrganization(r.Context(), caller(r), req.Name, req.Description)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, org)
}

// handleListOrgs lists the caller's organizations.
func (s *Server) handleListOrgs(w http.ResponseWriter, r *http.Request) {
	organizations, err := s.orgs.Store().ListOrganizationsFor(r.Context(), caller(r))
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, organizations)
}

// handleGetOrg fetches an organization by id.
func (s *Server) handleGetOrg(w http.ResponseWriter, r *http.Request) {
	orgID, ok := httputil.ParsePathInt64OrError(w, r, "org_id")
	if !ok {
		return
	}

	org, err := s.orgs.Store().GetOrganization(r.Context(), orgID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, org)
}

type updateOrgRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// handleUpdateOrg updates an organization's name and description.
func (s *Server) handleUpdateOrg(w http.ResponseWriter, r *http.Request) {
	orgID, ok := httputil.ParsePathInt64OrError(w, r, "org_id")
	if !ok {
		return
	}

	var req updateOrgRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Name == "" {
		httputil.WriteBadRequest(w, "name is required")
		return
	}

	if err := s.orgs.Store().UpdateOrganization(r.Context(), orgID, req.Name, req.Description); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// handleListMembers lists an organization's active members.
func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	orgID, ok := httputil.ParsePathInt64OrError(w, r, "org_id")
	if !ok {
		return
	}

	members, err := s.orgs.Store().ListMembers(r.Context(), orgID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, members)
}

type addMemberRequest struct {
	PrincipalID int64  `json:"principal_id"`
	Role        string `json:"role"`
}

// handleAddMember adds a principal to an organization.
func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	orgID, ok := httputil.ParsePathInt64OrError(w, r, "org_id")
	if !ok {
		return
	}

	var req addMemberRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.PrincipalID == 0 {
		httputil.WriteBadRequest(w, "principal_id is required")
		return
	}

	membership, err := s.orgs.AddMember(r.Context(), caller(r), orgID, req.PrincipalID, catalog.OrgRole(req.Role))
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, membership)
}

type updateMemberRoleRequest struct {
	Role string `json:"role"`
}

// handleUpdateMemberRole changes a member's organization role.
func (s *Server) handleUpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	orgID, ok := httputil.ParsePathInt64OrError(w, r, "org_id")
	if !ok {
		return
	}
	principalID, ok := httputil.ParsePathInt64OrError(w, r, "principal_id")
	if !ok {
		return
	}

	var req updateMemberRoleRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	err := s.orgs.UpdateMemberRole(r.Context(), caller(r), orgID, principalID, catalog.OrgRole(req.Role))
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

type setSpecializedRolesRequest struct {
	Roles []string `json:"roles"`
}

// handleSetSpecializedRoles replaces a member's specialized roles.
func (s *Server) handleSetSpecializedRoles(w http.ResponseWriter, r *http.Request) {
	orgID, ok := httputil.ParsePathInt64OrError(w, r, "org_id")
	if !ok {
		return
	}
	principalID, ok := httputil.ParsePathInt64OrError(w, r, "principal_id")
	if !ok {
		return
	}

	var req setSpecializedRolesRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	roles := make([]catalog.SpecializedRole, 0, len(req.Roles))
	for _, role := range req.Roles {
		roles = append(roles, catalog.SpecializedRole(role))
	}

	err := s.orgs.SetSpecializedRoles(r.Context(), caller(r), orgID, principalID, roles)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// handleRemoveMember removes a member from an organization.
func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	orgID, ok := httputil.ParsePathInt64OrError(w, r, "org_id")
	if !ok {
		return
	}
	principalID, ok := httputil.ParsePathInt64OrError(w, r, "principal_id")
	if !ok {
		return
	}

	if err := s.orgs.RemoveMember(r.Context(), caller(r), orgID, principalID); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

type createInvitationRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// handleCreateInvitation invites an email address into an organization.
func (s *Server) handleCreateInvitation(w http.ResponseWriter, r *http.Request) {
	orgID, ok := httputil.ParsePathInt64OrError(w, r, "org_id")
	if !ok {
		return
	}

	var req createInvitationRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Email == "" {
		httputil.WriteBadRequest(w, "email is required")
		return
	}

	invitation, err := s.orgs.Invite(r.Context(), caller(r), orgID, req.Email, catalog.OrgRole(req.Role))
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, invitation)
}

// handleListInvitations lists an organization's pending invitations.
func (s *Server) handleListInvitations(w http.ResponseWriter, r *http.Request) {
	orgID, ok := httputil.ParsePathInt64OrError(w, r, "org_id")
	if !ok {
		return
	}

	invitations, err := s.orgs.Store().ListInvitations(r.Context(), orgID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, invitations)
}

// handleRevokeInvitation revokes a pending invitation.
func (s *Server) handleRevokeInvitation(w http.ResponseWriter, r *http.Request) {
	orgID, ok := httputil.ParsePathInt64OrError(w, r, "org_id")
	if !ok {
		return
	}
	inviteID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if err := s.orgs.RevokeInvite(r.Context(), caller(r), orgID, inviteID); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// handleAcceptInvitation accepts an invitation token on behalf of the caller.
func (s *Server) handleAcceptInvitation(w http.ResponseWriter, r *http.Request) {
	token, ok := httputil.ParsePathStringOrError(w, r, "token")
	if !ok {
		return
	}

	membership, err := s.orgs.AcceptInvite(r.Context(), caller(r), token)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, membership)
}
