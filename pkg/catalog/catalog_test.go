package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPermissionsForUnknownRoleFailsClosed(t *testing.T) {
	assert.Equal(t, 0, PermissionsFor("NO_SUCH_ROLE").Len())
	assert.Equal(t, 0, PermissionsFor("").Len())
	// NORMAL_USER carries no standing permissions of its own.
	assert.Equal(t, 0, PermissionsFor(string(PlatformNormalUser)).Len())
}

func TestAdminReceivesUniversalSet(t *testing.T) {
	admin := PermissionsFor(string(PlatformAdmin))
	universal := UniversalSet()

	assert.Equal(t, universal.Len(), admin.Len())
	assert.True(t, admin.IsSubsetOf(universal))
	assert.True(t, universal.IsSubsetOf(admin))
}

func TestRegulatorIsReadOverrideLockOnly(t *testing.T) {
	reg := PermissionsFor(string(PlatformRegulator))

	for _, p := range []Permission{
		PermViewProject, PermViewData, PermViewMRV, PermApproveMRV,
		PermOverrideMRV, PermViewRegistry, PermLockBatch, PermViewListings,
		PermViewRetirement, PermViewESGReport, PermViewAuditLogs,
	} {
		assert.True(t, reg.Contains(p), "regulator should hold %s", p)
	}

	// No write capabilities leak into the regulator set.
	for _, p := range []Permission{
		PermCreateProject, PermEditProject, PermDeleteProject,
		PermIssueCredits, PermRetireCredits, PermManageMembers,
	} {
		assert.False(t, reg.Contains(p), "regulator must not hold %s", p)
	}
}

func TestOrgRoleHierarchy(t *testing.T) {
	owner := PermissionsFor(string(OrgRoleOwner))
	manager := PermissionsFor(string(OrgRoleManager))
	member := PermissionsFor(string(OrgRoleMember))

	assert.True(t, member.IsSubsetOf(manager))
	assert.True(t, manager.IsSubsetOf(owner))

	assert.True(t, owner.Contains(PermManageMembers))
	assert.False(t, manager.Contains(PermManageMembers))
	assert.False(t, member.Contains(PermCreateProject))
}

func TestSpecializedRoles(t *testing.T) {
	validator := PermissionsFor(string(SpecializedValidator))
	assert.True(t, validator.Contains(PermAssessMRV))
	assert.Equal(t, 3, validator.Len())

	// ORG_MEMBER alone cannot assess MRV; the specialized role adds it.
	member := PermissionsFor(string(OrgRoleMember))
	assert.False(t, member.Contains(PermAssessMRV))

	buyer := PermissionsFor(string(SpecializedBuyer))
	assert.True(t, buyer.Contains(PermRetireCredits))
	assert.False(t, buyer.Contains(PermListCredits))
}

func TestSetOperations(t *testing.T) {
	s := NewSet(PermViewProject)
	s.Add(PermViewData)
	s.AddAll(NewSet(PermViewData, PermViewMRV))

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []Permission{PermViewData, PermViewMRV, PermViewProject}, s.Slice())

	clone := s.Clone()
	clone.Add(PermViewRegistry)
	assert.Equal(t, 3, s.Len(), "clone must not alias the original")

	assert.True(t, NewSet().IsSubsetOf(s))
	assert.False(t, NewSet(PermLockBatch).IsSubsetOf(s))
}

func TestRoleValidators(t *testing.T) {
	assert.True(t, ValidPlatformRole(PlatformRegulator))
	assert.False(t, ValidPlatformRole(PlatformRole("SUPERUSER")))

	assert.True(t, ValidOrgRole(OrgRoleBuyer))
	assert.False(t, ValidOrgRole(OrgRole("OWNER")))

	assert.True(t, ValidSpecializedRole(SpecializedDeveloper))
	assert.False(t, ValidSpecializedRole(SpecializedRole("AUDITOR")))

	assert.True(t, ValidPermission(PermRetireCredits))
	assert.False(t, ValidPermission(Permission("DO_ANYTHING")))
}
