package delegation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kabro/accesscore/pkg/audit"
	"github.com/kabro/accesscore/pkg/catalog"
	"github.com/kabro/accesscore/pkg/observability"
)

// Authority reports the effective permission set a principal holds in
// an organization. The decision engine implements this.
type Authority interface {
	EffectivePermissions(ctx context.Context, principalID, orgID int64) (catalog.Set, error)
}

// Service validates and records delegations.
type Service struct {
	store     *Store
	authority Authority
	audit     audit.Logger
	metrics   *observability.Metrics
}

// NewService creates a delegation service.
func NewService(store *Store, authority Authority, auditLog audit.Logger) *Service {
	if auditLog == nil {
		auditLog = audit.NopLogger()
	}
	return &Service{store: store, authority: authority, audit: auditLog}
}

// WithMetrics attaches delegation lifecycle metrics.
func (s *Service) WithMetrics(m *observability.Metrics) *Service {
	s.metrics = m
	return s
}

// Store exposes the underlying store for read paths.
func (s *Service) Store() *Store {
	return s.store
}

// CreateRequest carries the parameters for a new delegation. A nil
// ValidUntil creates an indefinite delegation.
type CreateRequest struct {
	OrganizationID  int64
	FromPrincipalID int64
	ToPrincipalID   int64
	Permissions     []catalog.Permission
	Reason          string
	ValidFrom       time.Time
	ValidUntil      *time.Time
}

// Create validates the request against the grantor's effective
// permissions and records the delegation. A grantor can only delegate
// permissions it currently holds.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Delegation, error) {
	if req.FromPrincipalID == req.ToPrincipalID {
		return nil, ErrSelfDelegation
	}
	if len(req.Permissions) == 0 {
		return nil, ErrEmptyPermissions
	}
	if !permissionsValid(req.Permissions) {
		return nil, ErrInvalidPermission
	}
	if strings.TrimSpace(req.Reason) == "" {
		return nil, ErrEmptyReason
	}

	now := time.Now().UTC()
	if req.ValidFrom.IsZero() {
		req.ValidFrom = now
	}
	if req.ValidUntil != nil && (!req.ValidUntil.After(req.ValidFrom) || !req.ValidUntil.After(now)) {
		return nil, ErrInvalidWindow
	}

	held, err := s.authority.EffectivePermissions(ctx, req.FromPrincipalID, req.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve grantor permissions: %w", err)
	}
	requested := catalog.NewSet(req.Permissions...)
	if !requested.IsSubsetOf(held) {
		return nil, ErrInsufficientAuthority
	}

	d := &Delegation{
		OrganizationID:  req.OrganizationID,
		FromPrincipalID: req.FromPrincipalID,
		ToPrincipalID:   req.ToPrincipalID,
		Permissions:     req.Permissions,
		Reason:          req.Reason,
		ValidFrom:       req.ValidFrom,
		ValidUntil:      req.ValidUntil,
	}
	if err := s.store.Create(ctx, d); err != nil {
		return nil, err
	}

	names := make([]string, len(d.Permissions))
	for i, p := range d.Permissions {
		names[i] = string(p)
	}
	s.audit.Record(ctx, &audit.Entry{
		ActorID:        &req.FromPrincipalID,
		OrganizationID: &req.OrganizationID,
		Action:         audit.ActionDelegationCreate,
		ResourceType:   audit.ResourceDelegation,
		ResourceID:     d.DelegationID,
		Description:    fmt.Sprintf("delegated %d permissions to principal %d", len(names), req.ToPrincipalID),
		Metadata: map[string]interface{}{
			"to_principal_id": req.ToPrincipalID,
			"permissions":     names,
			"reason":          req.Reason,
			"valid_from":      d.ValidFrom,
			"valid_until":     d.ValidUntil,
		},
	})
	if s.metrics != nil {
		s.metrics.ObserveDelegationCreated(string(d.Status))
	}
	return d, nil
}

// Revoke terminates an ACTIVE delegation and records who ended it and
// why. Revocation is terminal.
func (s *Service) Revoke(ctx context.Context, actorID int64, delegationID, reason string) error {
	if err := s.store.Revoke(ctx, delegationID, actorID, reason); err != nil {
		return err
	}

	d, err := s.store.Get(ctx, delegationID)
	if err != nil {
		return err
	}

	s.audit.Record(ctx, &audit.Entry{
		ActorID:        &actorID,
		OrganizationID: &d.OrganizationID,
		Action:         audit.ActionDelegationRevoke,
		ResourceType:   audit.ResourceDelegation,
		ResourceID:     delegationID,
		Severity:       audit.SeverityWarning,
		Description:    "delegation revoked: " + reason,
		Metadata: map[string]interface{}{
			"to_principal_id": d.ToPrincipalID,
			"reason":          reason,
		},
	})
	if s.metrics != nil {
		s.metrics.ObserveDelegationRevoked()
	}
	return nil
}
