package identity

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kabro/accesscore/pkg/audit"
	"github.com/kabro/accesscore/pkg/catalog"
)

// Service wraps the store with audit emission for administrative
// operations. Authorization of the acting principal happens upstream;
// the service records who did what.
type Service struct {
	store *Store
	audit audit.Logger
}

// NewService creates an identity service.
func NewService(store *Store, auditLog audit.Logger) *Service {
	if auditLog == nil {
		auditLog = audit.NopLogger()
	}
	return &Service{store: store, audit: auditLog}
}

// Store exposes the underlying store for read paths.
func (s *Service) Store() *Store {
	return s.store
}

// Register creates a new principal.
func (s *Service) Register(ctx context.Context, email, fullName string) (*Principal, error) {
	p := &Principal{
		Email:    email,
		FullName: fullName,
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ChangePlatformRole replaces the target's platform role and records
// the change.
func (s *Service) ChangePlatformRole(ctx context.Context, actorID, principalID int64, role catalog.PlatformRole) error {
	before, err := s.store.GetByID(ctx, principalID)
	if err != nil {
		return err
	}

	if err := s.store.SetPlatformRole(ctx, principalID, role); err != nil {
		return err
	}

	s.audit.Record(ctx, &audit.Entry{
		ActorID:      &actorID,
		Action:       audit.ActionRoleChange,
		ResourceType: audit.ResourcePrincipal,
		ResourceID:   strconv.FormatInt(principalID, 10),
		Severity:     audit.SeverityWarning,
		Description:  fmt.Sprintf("platform role changed from %s to %s", before.PlatformRole, role),
		Metadata: map[string]interface{}{
			"previous_role": string(before.PlatformRole),
			"new_role":      string(role),
		},
	})
	return nil
}

// Freeze suspends the target account with a reason.
func (s *Service) Freeze(ctx context.Context, actorID, principalID int64, reason string) error {
	if err := s.store.Freeze(ctx, principalID, reason); err != nil {
		return err
	}

	s.audit.Record(ctx, &audit.Entry{
		ActorID:      &actorID,
		Action:       audit.ActionFreeze,
		ResourceType: audit.ResourcePrincipal,
		ResourceID:   strconv.FormatInt(principalID, 10),
		Severity:     audit.SeverityCritical,
		Description:  "account frozen: " + reason,
		Metadata: map[string]interface{}{
			"reason": reason,
		},
	})
	return nil
}

// Unfreeze lifts a freeze on the target account.
func (s *Service) Unfreeze(ctx context.Context, actorID, principalID int64) error {
	if err := s.store.Unfreeze(ctx, principalID); err != nil {
		return err
	}

	s.audit.Record(ctx, &audit.Entry{
		ActorID:      &actorID,
		Action:       audit.ActionUnfreeze,
		ResourceType: audit.ResourcePrincipal,
		ResourceID:   strconv.FormatInt(principalID, 10),
		Severity:     audit.SeverityWarning,
		Description:  "account unfrozen",
	})
	return nil
}
