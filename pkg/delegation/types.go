package delegation

import (
	"errors"
	"time"

	"github.com/kabro/accesscore/pkg/catalog"
)

// Status is the lifecycle state of a delegation.
type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusRevoked Status = "REVOKED"
	StatusExpired Status = "EXPIRED"
)

// Delegation is a grant of specific permissions from one principal to
// another within an organization, bounded by a validity window. A nil
// ValidUntil means the delegation never expires on its own and ends
// only by revocation.
type Delegation struct {
	ID           int64  `json:"id"`
	DelegationID string `json:"delegation_id"`

	OrganizationID  int64 `json:"organization_id"`
	FromPrincipalID int64 `json:"from_principal_id"`
	ToPrincipalID   int64 `json:"to_principal_id"`

	Permissions []catalog.Permission `json:"permissions"`
	Reason      string               `json:"reason"`

	ValidFrom  time.Time  `json:"valid_from"`
	ValidUntil *time.Time `json:"valid_until"`

	Status       Status     `json:"status"`
	RevokedBy    *int64     `json:"revoked_by,omitempty"`
	RevokeReason string     `json:"revoke_reason,omitempty"`
	RevokedAt    *time.Time `json:"revoked_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ActiveAt reports whether the delegation confers permissions at the
// given instant. Status alone is not enough; the window is evaluated
// on every read so an overdue ACTIVE row confers nothing.
func (d *Delegation) ActiveAt(now time.Time) bool {
	if d.Status != StatusActive || now.Before(d.ValidFrom) {
		return false
	}
	return d.ValidUntil == nil || now.Before(*d.ValidUntil)
}

var (
	// ErrNotFound indicates the delegation does not exist.
	ErrNotFound = errors.New("delegation not found")
	// ErrAlreadyTerminal indicates a revoke on a delegation that is
	// already revoked or expired.
	ErrAlreadyTerminal = errors.New("delegation already revoked or expired")
	// ErrInvalidWindow indicates a validity window that is empty or
	// entirely in the past.
	ErrInvalidWindow = errors.New("invalid validity window")
	// ErrInvalidPermission indicates an unknown permission name.
	ErrInvalidPermission = errors.New("invalid permission")
	// ErrEmptyPermissions indicates a delegation with no permissions.
	ErrEmptyPermissions = errors.New("delegation must carry at least one permission")
	// ErrEmptyReason indicates a delegation created without a reason.
	ErrEmptyReason = errors.New("delegation must carry a reason")
	// ErrSelfDelegation indicates grantor and grantee are the same.
	ErrSelfDelegation = errors.New("cannot delegate to yourself")
	// ErrInsufficientAuthority indicates the grantor does not hold all
	// the permissions being delegated.
	ErrInsufficientAuthority = errors.New("grantor lacks delegated permissions")
)
