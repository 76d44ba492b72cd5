package resolver

import (
	"time"

	"github.com/kabro/accesscore/pkg/catalog"
	"github.com/kabro/accesscore/pkg/delegation"
	"github.com/kabro/accesscore/pkg/identity"
	"github.com/kabro/accesscore/pkg/orgs"
)

// Resolve computes the effective permission set at the given instant.
//
// ADMIN principals hold every permission regardless of membership or
// delegations. For everyone else the set is the union of the platform
// role's permissions, the organization role's permissions, each
// specialized role's permissions and the verbatim permission lists of
// delegations active at now. Unknown role names contribute nothing.
//
// membership may be nil when the principal has no standing in the
// organization; delegations are ignored unless in-window and ACTIVE.
func Resolve(p *identity.Principal, membership *orgs.Membership, delegations []*delegation.Delegation, now time.Time) catalog.Set {
	if p == nil {
		return catalog.NewSet()
	}
	if p.PlatformRole == catalog.PlatformAdmin {
		return catalog.UniversalSet()
	}

	set := catalog.PermissionsFor(string(p.PlatformRole))

	if membership != nil && membership.IsActive {
		set.AddAll(catalog.PermissionsFor(string(membership.OrgRole)))
		for _, role := range membership.SpecializedRoles {
			set.AddAll(catalog.PermissionsFor(string(role)))
		}
	}

	for _, d := range delegations {
		if d == nil || !d.ActiveAt(now) {
			continue
		}
		for _, perm := range d.Permissions {
			if catalog.ValidPermission(perm) {
				set.Add(perm)
			}
		}
	}

	return set
}
