// Package audit provides append-only audit logging for authorization
// decisions and administrative actions.
//
// Every entry records the acting principal (nil for system actions), the
// organization context, an action code, the affected resource, a severity,
// and client metadata. Entries are written once and never mutated; denied
// access decisions are recorded at CRITICAL severity while grants are INFO,
// so denial volume stands out as a cheap security signal.
//
// Loggers implement the Logger interface. DBLogger persists to Postgres,
// ConsoleLogger emits JSON lines to a writer, and MultiLogger fans out to
// several sinks while tolerating individual sink failure. FailSafe wraps any
// logger so that a sink outage can never block the caller's primary action.
package audit
