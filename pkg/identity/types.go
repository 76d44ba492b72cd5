package identity

import (
	"errors"
	"time"

	"github.com/kabro/accesscore/pkg/catalog"
)

// Principal is a platform account. Exactly one platform role is held
// at a time; organization-scoped roles live in the orgs package.
type Principal struct {
	ID           int64                `json:"id"`
	Email        string               `json:"email"`
	FullName     string               `json:"full_name"`
	PlatformRole catalog.PlatformRole `json:"platform_role"`
	IsFrozen     bool                 `json:"is_frozen"`
	FreezeReason string               `json:"freeze_reason,omitempty"`
	FrozenAt     *time.Time           `json:"frozen_at,omitempty"`
	IsVerified   bool                 `json:"is_verified"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

var (
	// ErrNotFound indicates the principal does not exist.
	ErrNotFound = errors.New("principal not found")
	// ErrEmailTaken indicates another principal already uses the email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrAlreadyFrozen indicates a freeze on an already frozen account.
	ErrAlreadyFrozen = errors.New("principal already frozen")
	// ErrNotFrozen indicates an unfreeze on an account that is not frozen.
	ErrNotFrozen = errors.New("principal not frozen")
	// ErrInvalidRole indicates an unknown platform role name.
	ErrInvalidRole = errors.New("invalid platform role")
)
