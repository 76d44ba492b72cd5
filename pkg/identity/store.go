package identity

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kabro/accesscore/pkg/catalog"
	"github.com/kabro/accesscore/pkg/storage"
)

// Store handles principal persistence.
type Store struct {
	db *sql.DB
}

// NewStore creates a new principal store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrations returns the principals schema.
func Migrations() storage.MigrationSet {
	return storage.MigrationSet{
		Component: "identity",
		Migrations: []storage.Migration{
			{
				Version:     1,
				Description: "Create principals table",
				SQL: `
					CREATE TABLE IF NOT EXISTS principals (
						id BIGSERIAL PRIMARY KEY,
						email VARCHAR(255) NOT NULL UNIQUE,
						full_name VARCHAR(255) NOT NULL,
						platform_role VARCHAR(50) NOT NULL DEFAULT 'NORMAL_USER',
						is_frozen BOOLEAN NOT NULL DEFAULT FALSE,
						freeze_reason TEXT,
						frozen_at TIMESTAMP,
						is_verified BOOLEAN NOT NULL DEFAULT FALSE,
						created_at TIMESTAMP NOT NULL DEFAULT NOW(),
						updated_at TIMESTAMP NOT NULL DEFAULT NOW()
					);

					CREATE INDEX idx_principals_email ON principals(email);
					CREATE INDEX idx_principals_platform_role ON principals(platform_role);
					CREATE INDEX idx_principals_is_frozen ON principals(is_frozen);
				`,
			},
		},
	}
}

// Create inserts a new principal. The platform role defaults to
// NORMAL_USER when unset.
func (s *Store) Create(ctx context.Context, p *Principal) error {
	if p.PlatformRole == "" {
		p.PlatformRole = catalog.PlatformNormalUser
	}
	if !catalog.ValidPlatformRole(p.PlatformRole) {
		return ErrInvalidRole
	}

	if existing, err := s.GetByEmail(ctx, p.Email); err == nil && existing != nil {
		return ErrEmailTaken
	}

	query := `
		INSERT INTO principals (email, full_name, platform_role, is_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	now := time.Now().UTC()
	err := s.db.QueryRowContext(ctx, query,
		p.Email,
		p.FullName,
		string(p.PlatformRole),
		p.IsVerified,
		now,
		now,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to create principal: %w", err)
	}

	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

const principalColumns = `id, email, full_name, platform_role, is_frozen, freeze_reason, frozen_at, is_verified, created_at, updated_at`

// GetByID retrieves a principal by ID.
func (s *Store) GetByID(ctx context.Context, id int64) (*Principal, error) {
	query := `SELECT ` + principalColumns + ` FROM principals WHERE id = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a principal by email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*Principal, error) {
	query := `SELECT ` + principalColumns + ` FROM principals WHERE email = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, email))
}

// SetPlatformRole replaces the principal's platform role.
func (s *Store) SetPlatformRole(ctx context.Context, id int64, role catalog.PlatformRole) error {
	if !catalog.ValidPlatformRole(role) {
		return ErrInvalidRole
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE principals SET platform_role = $1, updated_at = $2 WHERE id = $3`,
		string(role), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to set platform role: %w", err)
	}
	return requireRow(result, ErrNotFound)
}

// SetVerified marks the principal's email as verified.
func (s *Store) SetVerified(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE principals SET is_verified = TRUE, updated_at = $1 WHERE id = $2`,
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to set verified: %w", err)
	}
	return requireRow(result, ErrNotFound)
}

// Freeze suspends the account. Freezing an already frozen account
// returns ErrAlreadyFrozen.
func (s *Store) Freeze(ctx context.Context, id int64, reason string) error {
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		UPDATE principals
		SET is_frozen = TRUE, freeze_reason = $1, frozen_at = $2, updated_at = $2
		WHERE id = $3 AND is_frozen = FALSE
	`, reason, now, id)
	if err != nil {
		return fmt.Errorf("failed to freeze principal: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check freeze result: %w", err)
	}
	if affected == 0 {
		if _, err := s.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrAlreadyFrozen
	}
	return nil
}

// Unfreeze lifts a freeze. Unfreezing an account that is not frozen
// returns ErrNotFrozen.
func (s *Store) Unfreeze(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE principals
		SET is_frozen = FALSE, freeze_reason = NULL, frozen_at = NULL, updated_at = $1
		WHERE id = $2 AND is_frozen = TRUE
	`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to unfreeze principal: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check unfreeze result: %w", err)
	}
	if affected == 0 {
		if _, err := s.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrNotFrozen
	}
	return nil
}

// List returns principals ordered by ID.
func (s *Store) List(ctx context.Context, limit, offset int) ([]*Principal, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `SELECT ` + principalColumns + ` FROM principals ORDER BY id LIMIT $1 OFFSET $2`
	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list principals: %w", err)
	}
	defer rows.Close()

	var principals []*Principal
	for rows.Next() {
		p, err := s.scanRow(rows)
		if err != nil {
			return nil, err
		}
		principals = append(principals, p)
	}
	return principals, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *Store) scanOne(row *sql.Row) (*Principal, error) {
	p, err := s.scanRow(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return p, err
}

func (s *Store) scanRow(row rowScanner) (*Principal, error) {
	var p Principal
	var role string
	var freezeReason sql.NullString
	var frozenAt sql.NullTime

	err := row.Scan(
		&p.ID,
		&p.Email,
		&p.FullName,
		&role,
		&p.IsFrozen,
		&freezeReason,
		&frozenAt,
		&p.IsVerified,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan principal: %w", err)
	}

	p.PlatformRole = catalog.PlatformRole(role)
	if freezeReason.Valid {
		p.FreezeReason = freezeReason.String
	}
	if frozenAt.Valid {
		t := frozenAt.Time
		p.FrozenAt = &t
	}
	return &p, nil
}

func requireRow(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
