// Package decision is the access decision point. Every capability
// check flows through Engine.Check, which resolves the caller's
// effective permissions and returns an allow or deny verdict.
//
// The engine fails closed: an unknown principal, a frozen account, a
// store failure or a timeout all produce a deny. Each check emits
// exactly one audit entry regardless of outcome.
package decision
