package decision

import (
	"time"

	"github.com/kabro/accesscore/pkg/catalog"
)

// Reason explains a verdict. Reasons are internal; API responses never
// expose why a check was denied.
type Reason string

const (
	// ReasonGranted indicates the capability was held via roles or
	// delegations.
	ReasonGranted Reason = "GRANTED"
	// ReasonAdminOverride indicates an ADMIN allow-all short circuit.
	ReasonAdminOverride Reason = "ADMIN_OVERRIDE"

	// ReasonUnknownPrincipal indicates the principal does not exist.
	ReasonUnknownPrincipal Reason = "UNKNOWN_PRINCIPAL"
	// ReasonUnknownCapability indicates an unrecognized capability name.
	ReasonUnknownCapability Reason = "UNKNOWN_CAPABILITY"
	// ReasonAccountFrozen indicates the principal is frozen.
	ReasonAccountFrozen Reason = "ACCOUNT_FROZEN"
	// ReasonNotAMember indicates the check was org-scoped and the
	// principal has no standing there.
	ReasonNotAMember Reason = "NOT_A_MEMBER"
	// ReasonPermissionNotGranted indicates no role or delegation
	// confers the capability.
	ReasonPermissionNotGranted Reason = "PERMISSION_NOT_GRANTED"
	// ReasonStoreUnavailable indicates resolution could not complete.
	ReasonStoreUnavailable Reason = "STORE_UNAVAILABLE"
)

// Request asks whether a principal may exercise a capability,
// optionally scoped to an organization.
type Request struct {
	PrincipalID    int64              `json:"principal_id"`
	OrganizationID *int64             `json:"organization_id,omitempty"`
	Capability     catalog.Permission `json:"capability"`
	ResourceID     string             `json:"resource_id,omitempty"`
}

// Decision is the verdict for a single request.
type Decision struct {
	DecisionID  string             `json:"decision_id"`
	Allowed     bool               `json:"allowed"`
	Reason      Reason             `json:"-"`
	PrincipalID int64              `json:"principal_id"`
	Capability  catalog.Permission `json:"capability"`
	EvaluatedAt time.Time          `json:"evaluated_at"`
}
