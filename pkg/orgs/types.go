package orgs

import (
	"errors"
	"time"

	"github.com/kabro/accesscore/pkg/catalog"
)

// Organization is a tenant holding projects and members.
type Organization struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	OwnerID     *int64    `json:"owner_id,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Membership binds a principal to an organization with one org role
// and zero or more specialized roles.
type Membership struct {
	ID               int64                     `json:"id"`
	OrganizationID   int64                     `json:"organization_id"`
	PrincipalID      int64                     `json:"principal_id"`
	OrgRole          catalog.OrgRole           `json:"org_role"`
	SpecializedRoles []catalog.SpecializedRole `json:"specialized_roles"`
	IsActive         bool                      `json:"is_active"`
	InvitedBy        *int64                    `json:"invited_by,omitempty"`
	JoinedAt         time.Time                 `json:"joined_at"`
	LeftAt           *time.Time                `json:"left_at,omitempty"`
	CreatedAt        time.Time                 `json:"created_at"`
	UpdatedAt        time.Time                 `json:"updated_at"`
}

// Invitation is a pending offer to join an organization.
type Invitation struct {
	ID             int64           `json:"id"`
	OrganizationID int64           `json:"organization_id"`
	Email          string          `json:"email"`
	OrgRole        catalog.OrgRole `json:"org_role"`
	Token          string          `json:"token,omitempty"`
	InvitedBy      int64           `json:"invited_by"`
	InvitedAt      time.Time       `json:"invited_at"`
	ExpiresAt      time.Time       `json:"expires_at"`
	AcceptedAt     *time.Time      `json:"accepted_at,omitempty"`
	AcceptedBy     *int64          `json:"accepted_by,omitempty"`
}

var (
	// ErrOrgNotFound indicates the organization does not exist.
	ErrOrgNotFound = errors.New("organization not found")
	// ErrMembershipNotFound indicates no active membership exists.
	ErrMembershipNotFound = errors.New("membership not found")
	// ErrAlreadyMember indicates the principal already holds an active
	// membership in the organization.
	ErrAlreadyMember = errors.New("already an active member")
	// ErrLastOwner indicates the operation would leave the organization
	// without an active ORG_OWNER.
	ErrLastOwner = errors.New("organization must keep at least one active owner")
	// ErrInvalidRole indicates an unknown organization or specialized role.
	ErrInvalidRole = errors.New("invalid role")
	// ErrInviteNotFound indicates the invitation token is unknown.
	ErrInviteNotFound = errors.New("invitation not found")
	// ErrInviteExpired indicates the invitation is past its expiry.
	ErrInviteExpired = errors.New("invitation expired")
	// ErrInviteAccepted indicates the invitation was already accepted.
	ErrInviteAccepted = errors.New("invitation already accepted")
)
