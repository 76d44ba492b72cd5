package catalog

// allPermissions enumerates every permission identifier the platform knows.
var allPermissions = []Permission{
	PermCreateProject, PermEditProject, PermDeleteProject, PermViewProject, PermSubmitForMRV,
	PermUploadData, PermViewData, PermDeleteData,
	PermAssessMRV, PermViewMRV, PermApproveMRV, PermOverrideMRV,
	PermIssueCredits, PermViewRegistry, PermLockBatch,
	PermListCredits, PermCreateOrder, PermViewListings,
	PermRetireCredits, PermViewRetirement,
	PermCreateESGReport, PermViewESGReport,
	PermManageMembers, PermInviteUsers, PermAssignRoles,
	PermManageAPIKeys, PermManageWebhooks,
	PermSystemAdmin, PermViewAuditLogs, PermManageRoles, PermFreezeAccount,
}

// rolePermissions is the static role-to-permission table. Role names are
// shared across the platform, organization, and specialized axes where the
// original system reuses them (VALIDATOR, BUYER, DEVELOPER).
var rolePermissions = map[string][]Permission{
	string(PlatformAdmin): allPermissions,

	string(PlatformRegulator): {
		PermViewProject,
		PermViewData,
		PermViewMRV,
		PermApproveMRV,
		PermOverrideMRV,
		PermViewRegistry,
		PermLockBatch,
		PermViewListings,
		PermViewRetirement,
		PermViewESGReport,
		PermViewAuditLogs,
	},

	string(OrgRoleOwner): {
		PermCreateProject,
		PermEditProject,
		PermDeleteProject,
		PermViewProject,
		PermSubmitForMRV,
		PermUploadData,
		PermViewData,
		PermDeleteData,
		PermViewMRV,
		PermIssueCredits,
		PermViewRegistry,
		PermListCredits,
		PermCreateOrder,
		PermViewListings,
		PermRetireCredits,
		PermViewRetirement,
		PermCreateESGReport,
		PermViewESGReport,
		PermManageMembers,
		PermInviteUsers,
		PermAssignRoles,
		PermManageAPIKeys,
		PermManageWebhooks,
		PermViewAuditLogs,
	},

	string(OrgRoleManager): {
		PermCreateProject,
		PermEditProject,
		PermViewProject,
		PermSubmitForMRV,
		PermUploadData,
		PermViewData,
		PermViewMRV,
		PermIssueCredits,
		PermViewRegistry,
		PermListCredits,
		PermCreateOrder,
		PermViewListings,
		PermRetireCredits,
		PermViewRetirement,
		PermCreateESGReport,
		PermViewESGReport,
		PermViewAuditLogs,
	},

	string(OrgRoleMember): {
		PermViewProject,
		PermUploadData,
		PermViewData,
		PermViewMRV,
		PermViewRegistry,
		PermViewListings,
		PermViewRetirement,
		PermViewESGReport,
	},

	string(SpecializedValidator): {
		PermViewMRV,
		PermAssessMRV,
		PermViewProject,
	},

	string(SpecializedBuyer): {
		PermViewListings,
		PermCreateOrder,
		PermRetireCredits,
		PermViewRetirement,
	},

	string(SpecializedDeveloper): {
		PermViewProject,
		PermViewData,
		PermViewRegistry,
		PermManageAPIKeys,
		PermManageWebhooks,
	},
}

// PermissionsFor returns the default permission set granted by a role name.
// Unknown roles return the empty set so an unmapped or misspelled role never
// grants anything. NORMAL_USER is intentionally absent from the table.
func PermissionsFor(role string) Set {
	perms, ok := rolePermissions[role]
	if !ok {
		return NewSet()
	}
	return NewSet(perms...)
}

// UniversalSet returns a set holding every known permission.
func UniversalSet() Set {
	return NewSet(allPermissions...)
}

// ValidPermission reports whether p is a known permission identifier.
func ValidPermission(p Permission) bool {
	return UniversalSet().Contains(p)
}

// ValidPlatformRole reports whether r is a known platform role.
func ValidPlatformRole(r PlatformRole) bool {
	switch r {
	case PlatformAdmin, PlatformRegulator, PlatformValidator, PlatformNormalUser:
		return true
	}
	return false
}

// ValidOrgRole reports whether r is a known organization role.
func ValidOrgRole(r OrgRole) bool {
	switch r {
	case OrgRoleOwner, OrgRoleManager, OrgRoleMember, OrgRoleDeveloper, OrgRoleBuyer:
		return true
	}
	return false
}

// ValidSpecializedRole reports whether r is a known specialized role.
func ValidSpecializedRole(r SpecializedRole) bool {
	switch r {
	case SpecializedValidator, SpecializedBuyer, SpecializedDeveloper:
		return true
	}
	return false
}
