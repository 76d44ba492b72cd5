package orgs

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kabro/accesscore/pkg/catalog"
)

const membershipColumns = `id, organization_id, principal_id, org_role, specialized_roles, is_active, invited_by, joined_at, left_at, created_at, updated_at`

// GetMembership retrieves the active membership of a principal in an
// organization.
func (s *Store) GetMembership(ctx context.Context, orgID, principalID int64) (*Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM org_memberships
		WHERE organization_id = $1 AND principal_id = $2 AND is_active = TRUE
	`
	m, err := scanMembership(s.db.QueryRowContext(ctx, query, orgID, principalID))
	if err == sql.ErrNoRows {
		return nil, ErrMembershipNotFound
	}
	return m, err
}

// ListMembers retrieves all active members of an organization.
func (s *Store) ListMembers(ctx context.Context, orgID int64) ([]*Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM org_memberships
		WHERE organization_id = $1 AND is_active = TRUE
		ORDER BY joined_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// AddMember creates an active membership. Adding a principal who
// already holds an active membership returns ErrAlreadyMember.
func (s *Store) AddMember(ctx context.Context, orgID, principalID int64, role catalog.OrgRole, invitedBy *int64) (*Membership, error) {
	if !catalog.ValidOrgRole(role) {
		return nil, ErrInvalidRole
	}

	if _, err := s.GetMembership(ctx, orgID, principalID); err == nil {
		return nil, ErrAlreadyMember
	}

	query := `
		INSERT INTO org_memberships (organization_id, principal_id, org_role, specialized_roles, is_active, invited_by, joined_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, TRUE, $5, $6, $6, $6)
		RETURNING id
	`

	now := time.Now().UTC()
	m := &Membership{
		OrganizationID:   orgID,
		PrincipalID:      principalID,
		OrgRole:          role,
		SpecializedRoles: []catalog.SpecializedRole{},
		IsActive:         true,
		InvitedBy:        invitedBy,
		JoinedAt:         now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	err := s.db.QueryRowContext(ctx, query, orgID, principalID, string(role), "[]", invitedBy, now).Scan(&m.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}
	return m, nil
}

// UpdateMemberRole replaces the member's organization role. Demoting
// the last active ORG_OWNER is rejected.
func (s *Store) UpdateMemberRole(ctx context.Context, orgID, principalID int64, role catalog.OrgRole) error {
	if !catalog.ValidOrgRole(role) {
		return ErrInvalidRole
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := lockMemberRole(ctx, tx, orgID, principalID)
	if err != nil {
		return err
	}

	if current == catalog.OrgRoleOwner && role != catalog.OrgRoleOwner {
		if err := requireAnotherOwner(ctx, tx, orgID, principalID); err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE org_memberships
		SET org_role = $1, updated_at = $2
		WHERE organization_id = $3 AND principal_id = $4 AND is_active = TRUE
	`, string(role), time.Now().UTC(), orgID, principalID)
	if err != nil {
		return fmt.Errorf("failed to update member role: %w", err)
	}

	return tx.Commit()
}

// SetSpecializedRoles replaces the member's specialized role set.
func (s *Store) SetSpecializedRoles(ctx context.Context, orgID, principalID int64, roles []catalog.SpecializedRole) error {
	for _, r := range roles {
		if !catalog.ValidSpecializedRole(r) {
			return ErrInvalidRole
		}
	}
	if roles == nil {
		roles = []catalog.SpecializedRole{}
	}

	rolesJSON, err := json.Marshal(roles)
	if err != nil {
		return fmt.Errorf("failed to marshal specialized roles: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE org_memberships
		SET specialized_roles = $1, updated_at = $2
		WHERE organization_id = $3 AND principal_id = $4 AND is_active = TRUE
	`, string(rolesJSON), time.Now().UTC(), orgID, principalID)
	if err != nil {
		return fmt.Errorf("failed to set specialized roles: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return ErrMembershipNotFound
	}
	return nil
}

// DeactivateMember ends the member's active membership. Removing the
// last active ORG_OWNER is rejected.
func (s *Store) DeactivateMember(ctx context.Context, orgID, principalID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := lockMemberRole(ctx, tx, orgID, principalID)
	if err != nil {
		return err
	}

	if current == catalog.OrgRoleOwner {
		if err := requireAnotherOwner(ctx, tx, orgID, principalID); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
		UPDATE org_memberships
		SET is_active = FALSE, left_at = $1, updated_at = $1
		WHERE organization_id = $2 AND principal_id = $3 AND is_active = TRUE
	`, now, orgID, principalID)
	if err != nil {
		return fmt.Errorf("failed to deactivate member: %w", err)
	}

	return tx.Commit()
}

// lockMemberRole reads and row-locks the target's active membership.
func lockMemberRole(ctx context.Context, tx *sql.Tx, orgID, principalID int64) (catalog.OrgRole, error) {
	var role string
	err := tx.QueryRowContext(ctx, `
		SELECT org_role FROM org_memberships
		WHERE organization_id = $1 AND principal_id = $2 AND is_active = TRUE
		FOR UPDATE
	`, orgID, principalID).Scan(&role)
	if err == sql.ErrNoRows {
		return "", ErrMembershipNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get membership: %w", err)
	}
	return catalog.OrgRole(role), nil
}

// requireAnotherOwner locks the organization's active owner rows and
// verifies at least one owner other than the target remains.
func requireAnotherOwner(ctx context.Context, tx *sql.Tx, orgID, principalID int64) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT principal_id FROM org_memberships
		WHERE organization_id = $1 AND org_role = $2 AND is_active = TRUE
		FOR UPDATE
	`, orgID, string(catalog.OrgRoleOwner))
	if err != nil {
		return fmt.Errorf("failed to lock owners: %w", err)
	}
	defer rows.Close()

	others := 0
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("failed to scan owner: %w", err)
		}
		if id != principalID {
			others++
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if others == 0 {
		return ErrLastOwner
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMembership(row rowScanner) (*Membership, error) {
	var m Membership
	var role string
	var specializedJSON string
	var invitedBy sql.NullInt64
	var leftAt sql.NullTime

	err := row.Scan(
		&m.ID, &m.OrganizationID, &m.PrincipalID, &role, &specializedJSON,
		&m.IsActive, &invitedBy, &m.JoinedAt, &leftAt, &m.CreatedAt, &m.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan membership: %w", err)
	}

	m.OrgRole = catalog.OrgRole(role)
	if err := json.Unmarshal([]byte(specializedJSON), &m.SpecializedRoles); err != nil {
		return nil, fmt.Errorf("failed to unmarshal specialized roles: %w", err)
	}
	if invitedBy.Valid {
		id := invitedBy.Int64
		m.InvitedBy = &id
	}
	if leftAt.Valid {
		t := leftAt.Time
		m.LeftAt = &t
	}
	return &m, nil
}
