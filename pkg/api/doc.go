// Package api provides the HTTP surface of the access core service.
//
// # Overview
//
// The server exposes REST endpoints for access decisions, principal
// administration, organization membership, delegations, and the audit trail.
// Every state-changing endpoint is guarded by the decision engine itself, so
// the service enforces its own permission model.
//
// # Endpoints
//
// Decisions:
//
//	POST /v1/decisions             Evaluate a single access check
//	POST /v1/decisions/batch       Evaluate several checks in one call
//	GET  /v1/principals/{id}/permissions   Effective permission introspection
//
// Principals:
//
//	POST /v1/principals                    Register a principal
//	GET  /v1/principals/{id}               Fetch a principal
//	PUT  /v1/principals/{id}/role          Change platform role
//	POST /v1/principals/{id}/freeze        Freeze an account
//	POST /v1/principals/{id}/unfreeze      Unfreeze an account
//
// Organizations, memberships, invitations, and delegations follow the same
// /v1/orgs/{org_id}/... layout; see routes in server.go.
//
// # Related Packages
//
//   - pkg/decision: Decision engine backing POST /v1/decisions and the guards
//   - pkg/middleware: Request identity and permission middleware
//   - pkg/httputil: Response and request helpers
package api
