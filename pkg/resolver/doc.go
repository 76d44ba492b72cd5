// Package resolver computes the effective permission set of a
// principal from its platform role, organization membership and active
// delegations. Resolution is a pure function of its inputs and a
// clock; it performs no I/O.
package resolver
