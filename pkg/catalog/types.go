package catalog

import "sort"

// Permission is an atomic, named right to perform one class of action.
type Permission string

const (
	// Project permissions
	PermCreateProject Permission = "CREATE_PROJECT"
	PermEditProject   Permission = "EDIT_PROJECT"
	PermDeleteProject Permission = "DELETE_PROJECT"
	PermViewProject   Permission = "VIEW_PROJECT"
	PermSubmitForMRV  Permission = "SUBMIT_FOR_MRV"

	// Data intake permissions
	PermUploadData Permission = "UPLOAD_DATA"
	PermViewData   Permission = "VIEW_DATA"
	PermDeleteData Permission = "DELETE_DATA"

	// MRV permissions
	PermAssessMRV   Permission = "ASSESS_MRV"
	PermViewMRV     Permission = "VIEW_MRV"
	PermApproveMRV  Permission = "APPROVE_MRV"
	PermOverrideMRV Permission = "OVERRIDE_MRV"

	// Registry permissions
	PermIssueCredits Permission = "ISSUE_CREDITS"
	PermViewRegistry Permission = "VIEW_REGISTRY"
	PermLockBatch    Permission = "LOCK_BATCH"

	// Marketplace permissions
	PermListCredits  Permission = "LIST_CREDITS"
	PermCreateOrder  Permission = "CREATE_ORDER"
	PermViewListings Permission = "VIEW_LISTINGS"

	// Retirement permissions
	PermRetireCredits  Permission = "RETIRE_CREDITS"
	PermViewRetirement Permission = "VIEW_RETIREMENT"

	// ESG permissions
	PermCreateESGReport Permission = "CREATE_ESG_REPORT"
	PermViewESGReport   Permission = "VIEW_ESG_REPORT"

	// Organization permissions
	PermManageMembers Permission = "MANAGE_MEMBERS"
	PermInviteUsers   Permission = "INVITE_USERS"
	PermAssignRoles   Permission = "ASSIGN_ROLES"

	// API/Integration permissions
	PermManageAPIKeys  Permission = "MANAGE_API_KEYS"
	PermManageWebhooks Permission = "MANAGE_WEBHOOKS"

	// Admin permissions
	PermSystemAdmin   Permission = "SYSTEM_ADMIN"
	PermViewAuditLogs Permission = "VIEW_AUDIT_LOGS"
	PermManageRoles   Permission = "MANAGE_ROLES"
	PermFreezeAccount Permission = "FREEZE_ACCOUNT"
)

// PlatformRole is a global role independent of any organization.
type PlatformRole string

const (
	PlatformAdmin      PlatformRole = "ADMIN"
	PlatformRegulator  PlatformRole = "REGULATOR"
	PlatformValidator  PlatformRole = "VALIDATOR"
	PlatformNormalUser PlatformRole = "NORMAL_USER"
)

// OrgRole is a role scoped to one organization.
type OrgRole string

const (
	OrgRoleOwner     OrgRole = "ORG_OWNER"
	OrgRoleManager   OrgRole = "ORG_MANAGER"
	OrgRoleMember    OrgRole = "ORG_MEMBER"
	OrgRoleDeveloper OrgRole = "DEVELOPER"
	OrgRoleBuyer     OrgRole = "BUYER"
)

// SpecializedRole is a non-exclusive cross-cutting role that can be held
// alongside an organization role.
type SpecializedRole string

const (
	SpecializedValidator SpecializedRole = "VALIDATOR"
	SpecializedBuyer     SpecializedRole = "BUYER"
	SpecializedDeveloper SpecializedRole = "DEVELOPER"
)

// Set is an unordered collection of permissions.
type Set map[Permission]struct{}

// NewSet creates a set from the given permissions.
func NewSet(perms ...Permission) Set {
	s := make(Set, len(perms))
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

// Contains reports whether p is in the set.
func (s Set) Contains(p Permission) bool {
	_, ok := s[p]
	return ok
}

// Add inserts p into the set.
func (s Set) Add(p Permission) {
	s[p] = struct{}{}
}

// AddAll inserts every permission from other into the set.
func (s Set) AddAll(other Set) {
	for p := range other {
		s[p] = struct{}{}
	}
}

// IsSubsetOf reports whether every permission in s is also in other.
func (s Set) IsSubsetOf(other Set) bool {
	for p := range s {
		if !other.Contains(p) {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the set.
func (s Set) Clone() Set {
	c := make(Set, len(s))
	for p := range s {
		c[p] = struct{}{}
	}
	return c
}

// Slice returns the permissions in lexical order.
func (s Set) Slice() []Permission {
	out := make([]Permission, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len returns the number of permissions in the set.
func (s Set) Len() int {
	return len(s)
}
