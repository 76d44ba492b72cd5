package decision

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kabro/accesscore/pkg/audit"
	"github.com/kabro/accesscore/pkg/catalog"
	"github.com/kabro/accesscore/pkg/delegation"
	"github.com/kabro/accesscore/pkg/identity"
	"github.com/kabro/accesscore/pkg/orgs"
)

type stubPrincipals struct {
	byID map[int64]*identity.Principal
	err  error
}

func (s *stubPrincipals) GetByID(ctx context.Context, id int64) (*identity.Principal, error) {
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.byID[id]
	if !ok {
		return nil, identity.ErrNotFound
	}
	return p, nil
}

type stubMemberships struct {
	byKey map[[2]int64]*orgs.Membership
	err   error
}

func (s *stubMemberships) GetMembership(ctx context.Context, orgID, principalID int64) (*orgs.Membership, error) {
	if s.err != nil {
		return nil, s.err
	}
	m, ok := s.byKey[[2]int64{orgID, principalID}]
	if !ok {
		return nil, orgs.ErrMembershipNotFound
	}
	return m, nil
}

type stubDelegations struct {
	active []*delegation.Delegation
	err    error
}

func (s *stubDelegations) ListActiveFor(ctx context.Context, principalID, orgID int64, now time.Time) ([]*delegation.Delegation, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.active, nil
}

type recordingLogger struct {
	entries []*audit.Entry
}

func (r *recordingLogger) Record(ctx context.Context, entry *audit.Entry) error {
	audit.Stamp(ctx, entry)
	r.entries = append(r.entries, entry)
	return nil
}

func (r *recordingLogger) Close() error { return nil }

type fixture struct {
	engine      *Engine
	principals  *stubPrincipals
	memberships *stubMemberships
	delegations *stubDelegations
	audit       *recordingLogger
}

func newFixture() *fixture {
	f := &fixture{
		principals:  &stubPrincipals{byID: map[int64]*identity.Principal{}},
		memberships: &stubMemberships{byKey: map[[2]int64]*orgs.Membership{}},
		delegations: &stubDelegations{},
		audit:       &recordingLogger{},
	}
	f.engine = NewEngine(f.principals, f.memberships, f.delegations, f.audit, nil)
	return f
}

func (f *fixture) addPrincipal(id int64, role catalog.PlatformRole) *identity.Principal {
	p := &identity.Principal{ID: id, PlatformRole: role}
	f.principals.byID[id] = p
	return p
}

func (f *fixture) addMembership(orgID, principalID int64, role catalog.OrgRole, specialized ...catalog.SpecializedRole) {
	f.memberships.byKey[[2]int64{orgID, principalID}] = &orgs.Membership{
		OrganizationID:   orgID,
		PrincipalID:      principalID,
		OrgRole:          role,
		SpecializedRoles: specialized,
		IsActive:         true,
	}
}

func orgRef(id int64) *int64 { return &id }

func TestUnknownPrincipalIsDenied(t *testing.T) {
	f := newFixture()

	d := f.engine.Check(context.Background(), Request{PrincipalID: 42, Capability: catalog.PermViewProject})
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonUnknownPrincipal, d.Reason)
}

func TestUnknownCapabilityIsDenied(t *testing.T) {
	f := newFixture()
	f.addPrincipal(1, catalog.PlatformAdmin)

	d := f.engine.Check(context.Background(), Request{PrincipalID: 1, Capability: "DO_ANYTHING"})
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonUnknownCapability, d.Reason)
}

func TestFrozenAccountIsDeniedEverything(t *testing.T) {
	f := newFixture()
	admin := f.addPrincipal(1, catalog.PlatformAdmin)
	admin.IsFrozen = true

	d := f.engine.Check(context.Background(), Request{PrincipalID: 1, Capability: catalog.PermViewProject})
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonAccountFrozen, d.Reason)
}

func TestAdminOverrideAllowsEverything(t *testing.T) {
	f := newFixture()
	f.addPrincipal(1, catalog.PlatformAdmin)

	d := f.engine.Check(context.Background(), Request{PrincipalID: 1, Capability: catalog.PermFreezeAccount})
	assert.True(t, d.Allowed)
	assert.Equal(t, ReasonAdminOverride, d.Reason)

	// Admin needs no membership even for org-scoped checks.
	d = f.engine.Check(context.Background(), Request{PrincipalID: 1, OrganizationID: orgRef(7), Capability: catalog.PermDeleteProject})
	assert.True(t, d.Allowed)
}

func TestDefaultDeny(t *testing.T) {
	f := newFixture()
	f.addPrincipal(1, catalog.PlatformNormalUser)

	d := f.engine.Check(context.Background(), Request{PrincipalID: 1, Capability: catalog.PermViewProject})
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonPermissionNotGranted, d.Reason)
}

func TestNonMemberIsDeniedOrgCapabilities(t *testing.T) {
	f := newFixture()
	f.addPrincipal(1, catalog.PlatformNormalUser)

	d := f.engine.Check(context.Background(), Request{PrincipalID: 1, OrganizationID: orgRef(1), Capability: catalog.PermViewProject})
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonNotAMember, d.Reason)
}

func TestRegulatorReadsWithoutMembership(t *testing.T) {
	f := newFixture()
	f.addPrincipal(1, catalog.PlatformRegulator)

	// The regulator's platform role carries the capability on its own,
	// so missing membership does not block it.
	d := f.engine.Check(context.Background(), Request{PrincipalID: 1, OrganizationID: orgRef(1), Capability: catalog.PermViewAuditLogs})
	assert.True(t, d.Allowed)
	assert.Equal(t, ReasonGranted, d.Reason)

	// Capabilities outside the platform role still require standing.
	d = f.engine.Check(context.Background(), Request{PrincipalID: 1, OrganizationID: orgRef(1), Capability: catalog.PermCreateProject})
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonNotAMember, d.Reason)
}

func TestMembershipGrantsOrgCapabilities(t *testing.T) {
	f := newFixture()
	f.addPrincipal(1, catalog.PlatformNormalUser)
	f.addMembership(1, 1, catalog.OrgRoleManager)

	d := f.engine.Check(context.Background(), Request{PrincipalID: 1, OrganizationID: orgRef(1), Capability: catalog.PermCreateProject})
	assert.True(t, d.Allowed)
	assert.Equal(t, ReasonGranted, d.Reason)

	d = f.engine.Check(context.Background(), Request{PrincipalID: 1, OrganizationID: orgRef(1), Capability: catalog.PermDeleteProject})
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonPermissionNotGranted, d.Reason)
}

func TestSpecializedRoleGrants(t *testing.T) {
	f := newFixture()
	f.addPrincipal(1, catalog.PlatformNormalUser)
	f.addMembership(1, 1, catalog.OrgRoleMember, catalog.SpecializedValidator)

	d := f.engine.Check(context.Background(), Request{PrincipalID: 1, OrganizationID: orgRef(1), Capability: catalog.PermAssessMRV})
	assert.True(t, d.Allowed)
}

func TestDelegationGrants(t *testing.T) {
	f := newFixture()
	f.addPrincipal(1, catalog.PlatformNormalUser)
	f.addMembership(1, 1, catalog.OrgRoleMember)

	now := time.Now().UTC()
	until := now.Add(time.Hour)
	f.delegations.active = []*delegation.Delegation{{
		Permissions: []catalog.Permission{catalog.PermApproveMRV},
		ValidFrom:   now.Add(-time.Hour),
		ValidUntil:  &until,
		Status:      delegation.StatusActive,
	}}

	d := f.engine.Check(context.Background(), Request{PrincipalID: 1, OrganizationID: orgRef(1), Capability: catalog.PermApproveMRV})
	assert.True(t, d.Allowed)
	assert.Equal(t, ReasonGranted, d.Reason)
}

func TestIndefiniteDelegationGrants(t *testing.T) {
	f := newFixture()
	f.addPrincipal(1, catalog.PlatformNormalUser)
	f.addMembership(1, 1, catalog.OrgRoleMember)

	f.delegations.active = []*delegation.Delegation{{
		Permissions: []catalog.Permission{catalog.PermApproveMRV},
		ValidFrom:   time.Now().UTC().Add(-time.Hour),
		Status:      delegation.StatusActive,
	}}

	d := f.engine.Check(context.Background(), Request{PrincipalID: 1, OrganizationID: orgRef(1), Capability: catalog.PermApproveMRV})
	assert.True(t, d.Allowed)
	assert.Equal(t, ReasonGranted, d.Reason)
}

func TestLapsedDelegationDoesNotGrant(t *testing.T) {
	f := newFixture()
	f.addPrincipal(1, catalog.PlatformNormalUser)
	f.addMembership(1, 1, catalog.OrgRoleMember)

	now := time.Now().UTC()
	until := now.Add(-time.Hour)
	f.delegations.active = []*delegation.Delegation{{
		Permissions: []catalog.Permission{catalog.PermApproveMRV},
		ValidFrom:   now.Add(-2 * time.Hour),
		ValidUntil:  &until,
		Status:      delegation.StatusActive,
	}}

	d := f.engine.Check(context.Background(), Request{PrincipalID: 1, OrganizationID: orgRef(1), Capability: catalog.PermApproveMRV})
	assert.False(t, d.Allowed)
}

func TestStoreFailureDenies(t *testing.T) {
	f := newFixture()
	f.principals.err = errors.New("connection refused")

	d := f.engine.Check(context.Background(), Request{PrincipalID: 1, Capability: catalog.PermViewProject})
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonStoreUnavailable, d.Reason)

	// Uncertainty is audited as a denial at CRITICAL.
	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, audit.ActionAccessDenied, f.audit.entries[0].Action)
	assert.Equal(t, audit.SeverityCritical, f.audit.entries[0].Severity)
}

func TestMembershipStoreFailureDenies(t *testing.T) {
	f := newFixture()
	f.addPrincipal(1, catalog.PlatformNormalUser)
	f.memberships.err = errors.New("timeout")

	d := f.engine.Check(context.Background(), Request{PrincipalID: 1, OrganizationID: orgRef(1), Capability: catalog.PermViewProject})
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonStoreUnavailable, d.Reason)
}

func TestEveryCheckEmitsExactlyOneAuditEntry(t *testing.T) {
	f := newFixture()
	f.addPrincipal(1, catalog.PlatformAdmin)
	f.addPrincipal(2, catalog.PlatformNormalUser)

	f.engine.Check(context.Background(), Request{PrincipalID: 1, Capability: catalog.PermViewProject})
	f.engine.Check(context.Background(), Request{PrincipalID: 2, Capability: catalog.PermViewProject})
	f.engine.Check(context.Background(), Request{PrincipalID: 99, Capability: catalog.PermViewProject})

	require.Len(t, f.audit.entries, 3)

	granted := f.audit.entries[0]
	assert.Equal(t, audit.ActionAccessGranted, granted.Action)
	assert.Equal(t, audit.SeverityInfo, granted.Severity)

	for _, denied := range f.audit.entries[1:] {
		assert.Equal(t, audit.ActionAccessDenied, denied.Action)
		assert.Equal(t, audit.SeverityCritical, denied.Severity)
	}
}

func TestCheckIsIdempotent(t *testing.T) {
	f := newFixture()
	f.addPrincipal(1, catalog.PlatformNormalUser)
	f.addMembership(1, 1, catalog.OrgRoleOwner)

	req := Request{PrincipalID: 1, OrganizationID: orgRef(1), Capability: catalog.PermManageMembers}
	first := f.engine.Check(context.Background(), req)
	second := f.engine.Check(context.Background(), req)

	assert.Equal(t, first.Allowed, second.Allowed)
	assert.Equal(t, first.Reason, second.Reason)
	assert.NotEqual(t, first.DecisionID, second.DecisionID)
}

func TestEffectivePermissions(t *testing.T) {
	f := newFixture()
	f.addPrincipal(1, catalog.PlatformNormalUser)
	f.addMembership(1, 1, catalog.OrgRoleManager)

	set, err := f.engine.EffectivePermissions(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.True(t, set.Contains(catalog.PermCreateProject))
	assert.False(t, set.Contains(catalog.PermManageMembers))

	frozen := f.addPrincipal(2, catalog.PlatformNormalUser)
	frozen.IsFrozen = true
	f.addMembership(1, 2, catalog.OrgRoleOwner)

	set, err = f.engine.EffectivePermissions(context.Background(), 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
}
