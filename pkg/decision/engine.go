package decision

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/kabro/accesscore/pkg/audit"
	"github.com/kabro/accesscore/pkg/catalog"
	"github.com/kabro/accesscore/pkg/delegation"
	"github.com/kabro/accesscore/pkg/identity"
	"github.com/kabro/accesscore/pkg/observability"
	"github.com/kabro/accesscore/pkg/orgs"
	"github.com/kabro/accesscore/pkg/resolver"
)

// DefaultTimeout bounds a single check's store access.
const DefaultTimeout = 2 * time.Second

// PrincipalStore loads principals.
type PrincipalStore interface {
	GetByID(ctx context.Context, id int64) (*identity.Principal, error)
}

// MembershipStore loads active memberships.
type MembershipStore interface {
	GetMembership(ctx context.Context, orgID, principalID int64) (*orgs.Membership, error)
}

// DelegationStore loads delegations active at an instant.
type DelegationStore interface {
	ListActiveFor(ctx context.Context, principalID, orgID int64, now time.Time) ([]*delegation.Delegation, error)
}

// Engine evaluates capability checks.
type Engine struct {
	principals  PrincipalStore
	memberships MembershipStore
	delegations DelegationStore

	audit   audit.Logger
	log     *observability.Logger
	metrics *observability.Metrics
	timeout time.Duration

	now func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout overrides the per-check store timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithMetrics attaches decision metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates a decision engine.
func NewEngine(principals PrincipalStore, memberships MembershipStore, delegations DelegationStore, auditLog audit.Logger, log *observability.Logger, opts ...Option) *Engine {
	if auditLog == nil {
		auditLog = audit.NopLogger()
	}
	e := &Engine{
		principals:  principals,
		memberships: memberships,
		delegations: delegations,
		audit:       auditLog,
		log:         log,
		timeout:     DefaultTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Check evaluates a single capability request. It never returns an
// error: any uncertainty becomes a deny.
func (e *Engine) Check(ctx context.Context, req Request) *Decision {
	start := e.now()
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	d := e.evaluate(ctx, req)
	d.DecisionID = uuid.NewString()
	d.PrincipalID = req.PrincipalID
	d.Capability = req.Capability
	d.EvaluatedAt = start.UTC()

	e.record(ctx, req, d)
	if e.metrics != nil {
		e.metrics.ObserveDecision(d.Allowed, string(d.Reason), time.Since(start))
	}
	return d
}

func (e *Engine) evaluate(ctx context.Context, req Request) *Decision {
	if !catalog.ValidPermission(req.Capability) {
		return &Decision{Allowed: false, Reason: ReasonUnknownCapability}
	}

	p, err := e.principals.GetByID(ctx, req.PrincipalID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return &Decision{Allowed: false, Reason: ReasonUnknownPrincipal}
		}
		return e.unavailable(err, "principal lookup failed")
	}

	// Freeze beats everything, including ADMIN.
	if p.IsFrozen {
		return &Decision{Allowed: false, Reason: ReasonAccountFrozen}
	}

	if p.PlatformRole == catalog.PlatformAdmin {
		return &Decision{Allowed: true, Reason: ReasonAdminOverride}
	}

	var membership *orgs.Membership
	var active []*delegation.Delegation

	if req.OrganizationID != nil {
		orgID := *req.OrganizationID
		membership, err = e.memberships.GetMembership(ctx, orgID, req.PrincipalID)
		if err != nil && !errors.Is(err, orgs.ErrMembershipNotFound) {
			return e.unavailable(err, "membership lookup failed")
		}

		if membership == nil {
			// A non-member can still exercise capabilities its platform
			// role carries on its own; everything else requires standing.
			if !catalog.PermissionsFor(string(p.PlatformRole)).Contains(req.Capability) {
				return &Decision{Allowed: false, Reason: ReasonNotAMember}
			}
		} else {
			active, err = e.delegations.ListActiveFor(ctx, req.PrincipalID, orgID, e.now().UTC())
			if err != nil {
				return e.unavailable(err, "delegation lookup failed")
			}
		}
	}

	set := resolver.Resolve(p, membership, active, e.now().UTC())
	if set.Contains(req.Capability) {
		return &Decision{Allowed: true, Reason: ReasonGranted}
	}
	return &Decision{Allowed: false, Reason: ReasonPermissionNotGranted}
}

func (e *Engine) unavailable(err error, msg string) *Decision {
	if e.log != nil {
		e.log.WithError(err).Error(msg + "; denying")
	}
	return &Decision{Allowed: false, Reason: ReasonStoreUnavailable}
}

// record emits the single audit entry for this check.
func (e *Engine) record(ctx context.Context, req Request, d *Decision) {
	entry := &audit.Entry{
		EntryID:        d.DecisionID,
		ActorID:        &req.PrincipalID,
		OrganizationID: req.OrganizationID,
		ResourceType:   audit.ResourceCapability,
		ResourceID:     string(req.Capability),
		Metadata: map[string]interface{}{
			"reason": string(d.Reason),
		},
	}
	if req.ResourceID != "" {
		entry.Metadata["resource_id"] = req.ResourceID
	}

	if d.Allowed {
		entry.Action = audit.ActionAccessGranted
		entry.Severity = audit.SeverityInfo
		entry.Description = "capability " + string(req.Capability) + " granted"
	} else {
		entry.Action = audit.ActionAccessDenied
		entry.Severity = audit.SeverityCritical
		entry.Description = "capability " + string(req.Capability) + " denied"
	}

	e.audit.Record(ctx, entry)

	if e.log != nil {
		e.log.WithFields(map[string]interface{}{
			"principal_id": strconv.FormatInt(req.PrincipalID, 10),
			"capability":   string(req.Capability),
			"allowed":      d.Allowed,
			"reason":       string(d.Reason),
		}).Debug("access decision")
	}
}

// EffectivePermissions resolves the full permission set a principal
// holds in an organization. It backs delegation authority checks and
// the introspection API.
func (e *Engine) EffectivePermissions(ctx context.Context, principalID, orgID int64) (catalog.Set, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	p, err := e.principals.GetByID(ctx, principalID)
	if err != nil {
		return nil, err
	}
	if p.IsFrozen {
		return catalog.NewSet(), nil
	}

	membership, err := e.memberships.GetMembership(ctx, orgID, principalID)
	if err != nil && !errors.Is(err, orgs.ErrMembershipNotFound) {
		return nil, err
	}

	var active []*delegation.Delegation
	if membership != nil {
		active, err = e.delegations.ListActiveFor(ctx, principalID, orgID, e.now().UTC())
		if err != nil {
			return nil, err
		}
	}

	return resolver.Resolve(p, membership, active, e.now().UTC()), nil
}
