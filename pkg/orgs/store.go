package orgs

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Store handles organization persistence.
type Store struct {
	db *sql.DB
}

// NewStore creates a new organization store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// CreateOrganization inserts a new organization. The slug is derived
// from the name when unset.
func (s *Store) CreateOrganization(ctx context.Context, org *Organization) error {
	if org.Slug == "" {
		org.Slug = generateSlug(org.Name)
	}
	org.IsActive = true

	query := `
		INSERT INTO organizations (name, slug, description, owner_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	now := time.Now().UTC()
	err := s.db.QueryRowContext(ctx, query,
		org.Name, org.Slug, org.Description, org.OwnerID, org.IsActive, now, now,
	).Scan(&org.ID)
	if err != nil {
		return fmt.Errorf("failed to create organization: %w", err)
	}

	org.CreatedAt = now
	org.UpdatedAt = now
	return nil
}

const orgColumns = `id, name, slug, description, owner_id, is_active, created_at, updated_at`

// GetOrganization retrieves an organization by ID.
func (s *Store) GetOrganization(ctx context.Context, id int64) (*Organization, error) {
	query := `SELECT ` + orgColumns + ` FROM organizations WHERE id = $1`
	return s.scanOrg(s.db.QueryRowContext(ctx, query, id))
}

// GetOrganizationBySlug retrieves an organization by slug.
func (s *Store) GetOrganizationBySlug(ctx context.Context, slug string) (*Organization, error) {
	query := `SELECT ` + orgColumns + ` FROM organizations WHERE slug = $1`
	return s.scanOrg(s.db.QueryRowContext(ctx, query, slug))
}

// ListOrganizationsFor returns organizations where the principal holds
// an active membership, ordered by name.
func (s *Store) ListOrganizationsFor(ctx context.Context, principalID int64) ([]*Organization, error) {
	query := `
		SELECT o.id, o.name, o.slug, o.description, o.owner_id, o.is_active, o.created_at, o.updated_at
		FROM organizations o
		JOIN org_memberships m ON m.organization_id = o.id
		WHERE m.principal_id = $1 AND m.is_active = TRUE AND o.is_active = TRUE
		ORDER BY o.name ASC
	`
	rows, err := s.db.QueryContext(ctx, query, principalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	var organizations []*Organization
	for rows.Next() {
		var org Organization
		var description sql.NullString
		var ownerID sql.NullInt64
		if err := rows.Scan(
			&org.ID, &org.Name, &org.Slug, &description, &ownerID,
			&org.IsActive, &org.CreatedAt, &org.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		if description.Valid {
			org.Description = description.String
		}
		if ownerID.Valid {
			id := ownerID.Int64
			org.OwnerID = &id
		}
		organizations = append(organizations, &org)
	}
	return organizations, rows.Err()
}

// UpdateOrganization updates the mutable organization fields.
func (s *Store) UpdateOrganization(ctx context.Context, id int64, name, description string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE organizations SET name = $1, description = $2, updated_at = $3 WHERE id = $4`,
		name, description, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update organization: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return ErrOrgNotFound
	}
	return nil
}

func (s *Store) scanOrg(row *sql.Row) (*Organization, error) {
	var org Organization
	var description sql.NullString
	var ownerID sql.NullInt64

	err := row.Scan(
		&org.ID, &org.Name, &org.Slug, &description, &ownerID,
		&org.IsActive, &org.CreatedAt, &org.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrOrgNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	if description.Valid {
		org.Description = description.String
	}
	if ownerID.Valid {
		id := ownerID.Int64
		org.OwnerID = &id
	}
	return &org, nil
}

func generateSlug(name string) string {
	slug := strings.ToLower(name)
	slug = strings.ReplaceAll(slug, " ", "-")
	var b strings.Builder
	for _, r := range slug {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-")
}
