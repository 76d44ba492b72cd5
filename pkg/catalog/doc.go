// Package catalog defines the fixed permission identifiers of the Kabro
// platform and the static role-to-permission mapping for the three role axes:
// platform roles, organization roles, and specialized roles.
//
// The catalog is data, not code. Adjusting what a role grants means editing
// the rolePermissions table; the resolver and decision engine never need to
// change. Lookups fail closed: an unknown role maps to the empty set.
//
// Example:
//
//	perms := catalog.PermissionsFor(string(catalog.OrgRoleOwner))
//	if perms.Contains(catalog.PermRetireCredits) {
//		// ...
//	}
package catalog
