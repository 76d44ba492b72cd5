package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/kabro/accesscore/pkg/audit"
	"github.com/kabro/accesscore/pkg/catalog"
	"github.com/kabro/accesscore/pkg/decision"
	"github.com/kabro/accesscore/pkg/delegation"
	"github.com/kabro/accesscore/pkg/identity"
	"github.com/kabro/accesscore/pkg/middleware"
	"github.com/kabro/accesscore/pkg/observability"
	"github.com/kabro/accesscore/pkg/orgs"
)

// AuditReader is the read surface of the audit trail exposed over HTTP.
type AuditReader interface {
	Search(ctx context.Context, filter audit.SearchFilter) ([]*audit.Entry, error)
	GetStats(ctx context.Context, startTime, endTime *time.Time) (*audit.Stats, error)
}

// Deps carries the services the server exposes.
type Deps struct {
	Identity    *identity.Service
	Orgs        *orgs.Service
	Delegations *delegation.Service
	Engine      *decision.Engine
	Audit       AuditReader

	Log     *observability.Logger
	Metrics *observability.Metrics
}

// Server is the HTTP API server.
type Server struct {
	router *mux.Router

	identity    *identity.Service
	orgs        *orgs.Service
	delegations *delegation.Service
	engine      *decision.Engine
	audit       AuditReader

	log *observability.Logger
}

// NewServer creates the API server and registers all routes.
func NewServer(deps Deps) *Server {
	s := &Server{
		router:      mux.NewRouter(),
		identity:    deps.Identity,
		orgs:        deps.Orgs,
		delegations: deps.Delegations,
		engine:      deps.Engine,
		audit:       deps.Audit,
		log:         deps.Log,
	}

	s.router.Use(
		middleware.RequestID,
		middleware.ClientInfo,
		middleware.Recovery(s.log),
		middleware.Logging(s.log),
		middleware.Principal,
	)
	if deps.Metrics != nil {
		s.router.Use(middleware.Metrics(deps.Metrics))
	}

	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	v1 := s.router.PathPrefix("/v1").Subrouter()

	// Decisions
	v1.HandleFunc("/decisions", s.handleCheck).Methods("POST")
	v1.HandleFunc("/decisions/batch", s.handleCheckBatch).Methods("POST")

	// Principals
	v1.HandleFunc("/principals", s.handleRegister).Methods("POST")
	v1.Handle("/principals",
		s.guard(catalog.PermSystemAdmin)(http.HandlerFunc(s.handleListPrincipals))).Methods("GET")
	v1.Handle("/principals/{id}",
		s.authenticated(s.handleGetPrincipal)).Methods("GET")
	v1.Handle("/principals/{id}/permissions",
		s.authenticated(s.handleEffectivePermissions)).Methods("GET")
	v1.Handle("/principals/{id}/role",
		s.guard(catalog.PermManageRoles)(http.HandlerFunc(s.handleChangeRole))).Methods("PUT")
	v1.Handle("/principals/{id}/freeze",
		s.guard(catalog.PermFreezeAccount)(http.HandlerFunc(s.handleFreeze))).Methods("POST")
	v1.Handle("/principals/{id}/unfreeze",
		s.guard(catalog.PermFreezeAccount)(http.HandlerFunc(s.handleUnfreeze))).Methods("POST")

	// Organizations
	v1.Handle("/orgs", s.authenticated(s.handleCreateOrg)).Methods("POST")
	v1.Handle("/orgs", s.authenticated(s.handleListOrgs)).Methods("GET")
	v1.Handle("/orgs/{org_id}", s.authenticated(s.handleGetOrg)).Methods("GET")
	v1.Handle("/orgs/{org_id}",
		s.guard(catalog.PermManageMembers)(http.HandlerFunc(s.handleUpdateOrg))).Methods("PUT")

	// Members
	v1.Handle("/orgs/{org_id}/members",
		s.guard(catalog.PermViewProject)(http.HandlerFunc(s.handleListMembers))).Methods("GET")
	v1.Handle("/orgs/{org_id}/members",
		s.guard(catalog.PermManageMembers)(http.HandlerFunc(s.handleAddMember))).Methods("POST")
	v1.Handle("/orgs/{org_id}/members/{principal_id}/role",
		s.guard(catalog.PermAssignRoles)(http.HandlerFunc(s.handleUpdateMemberRole))).Methods("PUT")
	v1.Handle("/orgs/{org_id}/members/{principal_id}/specialized-roles",
		s.guard(catalog.PermAssignRoles)(http.HandlerFunc(s.handleSetSpecializedRoles))).Methods("PUT")
	v1.Handle("/orgs/{org_id}/members/{principal_id}",
		s.guard(catalog.PermManageMembers)(http.HandlerFunc(s.handleRemoveMember))).Methods("DELETE")

	// Invitations
	v1.Handle("/orgs/{org_id}/invitations",
		s.guard(catalog.PermInviteUsers)(http.HandlerFunc(s.handleCreateInvitation))).Methods("POST")
	v1.Handle("/orgs/{org_id}/invitations",
		s.guard(catalog.PermInviteUsers)(http.HandlerFunc(s.handleListInvitations))).Methods("GET")
	v1.Handle("/orgs/{org_id}/invitations/{id}",
		s.guard(catalog.PermInviteUsers)(http.HandlerFunc(s.handleRevokeInvitation))).Methods("DELETE")
	v1.Handle("/invitations/{token}/accept",
		s.authenticated(s.handleAcceptInvitation)).Methods("POST")

	// Delegations
	v1.Handle("/orgs/{org_id}/delegations",
		s.authenticated(s.handleCreateDelegation)).Methods("POST")
	v1.Handle("/orgs/{org_id}/delegations",
		s.guard(catalog.PermManageMembers)(http.HandlerFunc(s.handleListDelegations))).Methods("GET")
	v1.Handle("/delegations/{delegation_id}",
		s.authenticated(s.handleGetDelegation)).Methods("GET")
	v1.Handle("/delegations/{delegation_id}",
		s.authenticated(s.handleRevokeDelegation)).Methods("DELETE")

	// Audit trail
	v1.Handle("/audit",
		s.guard(catalog.PermViewAuditLogs)(http.HandlerFunc(s.handleSearchAudit))).Methods("GET")
	v1.Handle("/audit/stats",
		s.guard(catalog.PermViewAuditLogs)(http.HandlerFunc(s.handleAuditStats))).Methods("GET")
}

func (s *Server) guard(capability catalog.Permission) func(http.Handler) http.Handler {
	return middleware.RequirePermission(s.engine, capability)
}

func (s *Server) authenticated(handler http.HandlerFunc) http.Handler {
	return middleware.RequirePrincipal(handler)
}

// caller returns the authenticated principal id. Routes built with
// authenticated or guard always have one.
func caller(r *http.Request) int64 {
	principalID, _ := observability.GetPrincipalID(r.Context())
	return principalID
}
