package delegation

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kabro/accesscore/pkg/catalog"
	"github.com/kabro/accesscore/pkg/storage"
)

// Store handles delegation persistence.
type Store struct {
	db *sql.DB
}

// NewStore creates a new delegation store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrations returns the delegations schema.
func Migrations() storage.MigrationSet {
	return storage.MigrationSet{
		Component: "delegation",
		Migrations: []storage.Migration{
			{
				Version:     1,
				Description: "Create delegations table",
				SQL: `
					CREATE TABLE IF NOT EXISTS delegations (
						id BIGSERIAL PRIMARY KEY,
						delegation_id UUID NOT NULL UNIQUE,
						organization_id BIGINT NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
						from_principal_id BIGINT NOT NULL REFERENCES principals(id) ON DELETE CASCADE,
						to_principal_id BIGINT NOT NULL REFERENCES principals(id) ON DELETE CASCADE,
						permissions JSONB NOT NULL,
						reason TEXT NOT NULL,
						valid_from TIMESTAMP NOT NULL,
						valid_until TIMESTAMP,
						status VARCHAR(20) NOT NULL DEFAULT 'ACTIVE',
						revoked_by BIGINT REFERENCES principals(id) ON DELETE SET NULL,
						revoke_reason TEXT,
						revoked_at TIMESTAMP,
						created_at TIMESTAMP NOT NULL DEFAULT NOW(),
						updated_at TIMESTAMP NOT NULL DEFAULT NOW()
					);

					CREATE INDEX idx_delegations_to_principal ON delegations(to_principal_id, organization_id, status);
					CREATE INDEX idx_delegations_from_principal ON delegations(from_principal_id);
					CREATE INDEX idx_delegations_valid_until ON delegations(valid_until);
				`,
			},
		},
	}
}

// Create inserts a new delegation in ACTIVE state.
func (s *Store) Create(ctx context.Context, d *Delegation) error {
	if d.DelegationID == "" {
		d.DelegationID = uuid.NewString()
	}
	d.Status = StatusActive

	permissionsJSON, err := json.Marshal(d.Permissions)
	if err != nil {
		return fmt.Errorf("failed to marshal permissions: %w", err)
	}

	query := `
		INSERT INTO delegations (delegation_id, organization_id, from_principal_id, to_principal_id, permissions, reason, valid_from, valid_until, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		RETURNING id
	`

	now := time.Now().UTC()
	err = s.db.QueryRowContext(ctx, query,
		d.DelegationID, d.OrganizationID, d.FromPrincipalID, d.ToPrincipalID,
		string(permissionsJSON), d.Reason, d.ValidFrom, d.ValidUntil, string(d.Status), now,
	).Scan(&d.ID)
	if err != nil {
		return fmt.Errorf("failed to create delegation: %w", err)
	}

	d.CreatedAt = now
	d.UpdatedAt = now
	return nil
}

const delegationColumns = `id, delegation_id, organization_id, from_principal_id, to_principal_id, permissions, reason, valid_from, valid_until, status, revoked_by, revoke_reason, revoked_at, created_at, updated_at`

// Get retrieves a delegation by its public identifier.
func (s *Store) Get(ctx context.Context, delegationID string) (*Delegation, error) {
	query := `SELECT ` + delegationColumns + ` FROM delegations WHERE delegation_id = $1`
	d, err := scanDelegation(s.db.QueryRowContext(ctx, query, delegationID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return d, err
}

// ListActiveFor returns delegations conferring permissions on the
// principal in the organization at the given instant. Rows whose
// window has lapsed are excluded even if still marked ACTIVE; a NULL
// valid_until never lapses.
func (s *Store) ListActiveFor(ctx context.Context, principalID, orgID int64, now time.Time) ([]*Delegation, error) {
	query := `
		SELECT ` + delegationColumns + `
		FROM delegations
		WHERE to_principal_id = $1 AND organization_id = $2 AND status = $3
		  AND valid_from <= $4 AND (valid_until IS NULL OR valid_until > $4)
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, principalID, orgID, string(StatusActive), now)
	if err != nil {
		return nil, fmt.Errorf("failed to list active delegations: %w", err)
	}
	defer rows.Close()
	return collectDelegations(rows)
}

// ListGrantedBy returns delegations created by the principal in the
// organization, newest first.
func (s *Store) ListGrantedBy(ctx context.Context, principalID, orgID int64) ([]*Delegation, error) {
	query := `
		SELECT ` + delegationColumns + `
		FROM delegations
		WHERE from_principal_id = $1 AND organization_id = $2
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, principalID, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list delegations: %w", err)
	}
	defer rows.Close()
	return collectDelegations(rows)
}

// ListForOrg returns all delegations in an organization, newest first.
func (s *Store) ListForOrg(ctx context.Context, orgID int64, limit, offset int) ([]*Delegation, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `
		SELECT ` + delegationColumns + `
		FROM delegations
		WHERE organization_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := s.db.QueryContext(ctx, query, orgID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list delegations: %w", err)
	}
	defer rows.Close()
	return collectDelegations(rows)
}

// Revoke transitions an ACTIVE delegation to REVOKED. The update is a
// compare-and-set on status so a concurrent revoke or expiry wins
// exactly once.
func (s *Store) Revoke(ctx context.Context, delegationID string, revokedBy int64, reason string) error {
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		UPDATE delegations
		SET status = $1, revoked_by = $2, revoke_reason = $3, revoked_at = $4, updated_at = $4
		WHERE delegation_id = $5 AND status = $6
	`, string(StatusRevoked), revokedBy, reason, now, delegationID, string(StatusActive))
	if err != nil {
		return fmt.Errorf("failed to revoke delegation: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check revoke result: %w", err)
	}
	if affected == 0 {
		if _, err := s.Get(ctx, delegationID); err != nil {
			return err
		}
		return ErrAlreadyTerminal
	}
	return nil
}

// MarkExpired transitions overdue ACTIVE rows to EXPIRED and returns
// how many were updated. Resolution never depends on this sweep; it
// only keeps listings tidy.
func (s *Store) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE delegations
		SET status = $1, updated_at = $2
		WHERE status = $3 AND valid_until IS NOT NULL AND valid_until <= $2
	`, string(StatusExpired), now, string(StatusActive))
	if err != nil {
		return 0, fmt.Errorf("failed to mark expired delegations: %w", err)
	}
	return result.RowsAffected()
}

func collectDelegations(rows *sql.Rows) ([]*Delegation, error) {
	var delegations []*Delegation
	for rows.Next() {
		d, err := scanDelegation(rows)
		if err != nil {
			return nil, err
		}
		delegations = append(delegations, d)
	}
	return delegations, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDelegation(row rowScanner) (*Delegation, error) {
	var d Delegation
	var permissionsJSON string
	var status string
	var validUntil sql.NullTime
	var revokedBy sql.NullInt64
	var revokeReason sql.NullString
	var revokedAt sql.NullTime

	err := row.Scan(
		&d.ID, &d.DelegationID, &d.OrganizationID, &d.FromPrincipalID, &d.ToPrincipalID,
		&permissionsJSON, &d.Reason, &d.ValidFrom, &validUntil, &status,
		&revokedBy, &revokeReason, &revokedAt, &d.CreatedAt, &d.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan delegation: %w", err)
	}

	d.Status = Status(status)
	if err := json.Unmarshal([]byte(permissionsJSON), &d.Permissions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal permissions: %w", err)
	}
	if validUntil.Valid {
		t := validUntil.Time
		d.ValidUntil = &t
	}
	if revokedBy.Valid {
		id := revokedBy.Int64
		d.RevokedBy = &id
	}
	if revokeReason.Valid {
		d.RevokeReason = revokeReason.String
	}
	if revokedAt.Valid {
		t := revokedAt.Time
		d.RevokedAt = &t
	}
	return &d, nil
}

// permissionsValid reports whether every name is a known permission.
func permissionsValid(permissions []catalog.Permission) bool {
	for _, p := range permissions {
		if !catalog.ValidPermission(p) {
			return false
		}
	}
	return true
}
