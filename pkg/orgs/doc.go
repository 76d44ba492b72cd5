// Package orgs manages organizations, memberships and invitations.
//
// A principal holds at most one active membership per organization.
// Each membership carries exactly one organization role plus any
// number of specialized roles. Every organization must keep at least
// one active ORG_OWNER; operations that would remove the last owner
// are rejected.
package orgs
