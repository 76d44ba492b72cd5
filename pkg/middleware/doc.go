// Package middleware provides HTTP middleware for request identity,
// structured request logging, metrics, and permission enforcement.
//
// # Overview
//
// Middleware is composed with Chain and applied to the router as a whole or
// to individual routes:
//
//	router.Use(
//		middleware.RequestID,
//		middleware.Logging(logger),
//		middleware.Metrics(metrics),
//		middleware.Principal,
//	)
//
// Permission enforcement wraps individual handlers:
//
//	guard := middleware.RequirePermission(engine, catalog.PermViewAuditLogs)
//	router.Handle("/v1/audit", guard(auditHandler))
//
// Denials are reported as a generic 403; the deny reason stays in the audit
// trail and is never exposed to the caller.
//
// # Related Packages
//
//   - pkg/decision: The access decision engine guards consult
//   - pkg/observability: Context propagation for request and principal ids
package middleware
