package orgs

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/kabro/accesscore/pkg/catalog"
)

const invitationTTL = 7 * 24 * time.Hour

// CreateInvitation creates (or refreshes) an invitation for an email
// address. A new token is generated each time.
func (s *Store) CreateInvitation(ctx context.Context, inv *Invitation) error {
	if !catalog.ValidOrgRole(inv.OrgRole) {
		return ErrInvalidRole
	}

	token, err := generateToken()
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}
	inv.Token = token

	if inv.InvitedAt.IsZero() {
		inv.InvitedAt = time.Now().UTC()
	}
	if inv.ExpiresAt.IsZero() {
		inv.ExpiresAt = inv.InvitedAt.Add(invitationTTL)
	}

	query := `
		INSERT INTO org_invitations (organization_id, email, org_role, token, invited_by, invited_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (organization_id, email) DO UPDATE
		SET org_role = EXCLUDED.org_role, token = EXCLUDED.token,
		    invited_at = EXCLUDED.invited_at, expires_at = EXCLUDED.expires_at
		RETURNING id
	`
	err = s.db.QueryRowContext(ctx, query,
		inv.OrganizationID, inv.Email, string(inv.OrgRole), inv.Token,
		inv.InvitedBy, inv.InvitedAt, inv.ExpiresAt,
	).Scan(&inv.ID)
	if err != nil {
		return fmt.Errorf("failed to create invitation: %w", err)
	}
	return nil
}

// GetInvitation retrieves an invitation by token.
func (s *Store) GetInvitation(ctx context.Context, token string) (*Invitation, error) {
	query := `
		SELECT id, organization_id, email, org_role, token, invited_by, invited_at, expires_at, accepted_at, accepted_by
		FROM org_invitations
		WHERE token = $1
	`
	inv := &Invitation{}
	var role string
	var acceptedAt sql.NullTime
	var acceptedBy sql.NullInt64

	err := s.db.QueryRowContext(ctx, query, token).Scan(
		&inv.ID, &inv.OrganizationID, &inv.Email, &role, &inv.Token,
		&inv.InvitedBy, &inv.InvitedAt, &inv.ExpiresAt, &acceptedAt, &acceptedBy,
	)
	if err == sql.ErrNoRows {
		return nil, ErrInviteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}

	inv.OrgRole = catalog.OrgRole(role)
	if acceptedAt.Valid {
		t := acceptedAt.Time
		inv.AcceptedAt = &t
	}
	if acceptedBy.Valid {
		id := acceptedBy.Int64
		inv.AcceptedBy = &id
	}
	return inv, nil
}

// ListInvitations lists pending invitations for an organization.
func (s *Store) ListInvitations(ctx context.Context, orgID int64) ([]*Invitation, error) {
	query := `
		SELECT id, organization_id, email, org_role, token, invited_by, invited_at, expires_at, accepted_at, accepted_by
		FROM org_invitations
		WHERE organization_id = $1 AND accepted_at IS NULL
		ORDER BY invited_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	var invitations []*Invitation
	for rows.Next() {
		inv := &Invitation{}
		var role string
		var acceptedAt sql.NullTime
		var acceptedBy sql.NullInt64
		if err := rows.Scan(
			&inv.ID, &inv.OrganizationID, &inv.Email, &role, &inv.Token,
			&inv.InvitedBy, &inv.InvitedAt, &inv.ExpiresAt, &acceptedAt, &acceptedBy,
		); err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		inv.OrgRole = catalog.OrgRole(role)
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}

// AcceptInvitation marks the invitation accepted and creates the
// membership in one transaction.
func (s *Store) AcceptInvitation(ctx context.Context, token string, principalID int64) (*Membership, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id, orgID int64
	var role string
	var expiresAt time.Time
	var acceptedAt sql.NullTime
	var invitedBy int64

	err = tx.QueryRowContext(ctx, `
		SELECT id, organization_id, org_role, invited_by, expires_at, accepted_at
		FROM org_invitations
		WHERE token = $1
		FOR UPDATE
	`, token).Scan(&id, &orgID, &role, &invitedBy, &expiresAt, &acceptedAt)
	if err == sql.ErrNoRows {
		return nil, ErrInviteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}

	if acceptedAt.Valid {
		return nil, ErrInviteAccepted
	}
	now := time.Now().UTC()
	if now.After(expiresAt) {
		return nil, ErrInviteExpired
	}

	var existing int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM org_memberships
		WHERE organization_id = $1 AND principal_id = $2 AND is_active = TRUE
	`, orgID, principalID).Scan(&existing)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if existing > 0 {
		return nil, ErrAlreadyMember
	}

	m := &Membership{
		OrganizationID:   orgID,
		PrincipalID:      principalID,
		OrgRole:          catalog.OrgRole(role),
		SpecializedRoles: []catalog.SpecializedRole{},
		IsActive:         true,
		InvitedBy:        &invitedBy,
		JoinedAt:         now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO org_memberships (organization_id, principal_id, org_role, specialized_roles, is_active, invited_by, joined_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, TRUE, $5, $6, $6, $6)
		RETURNING id
	`, orgID, principalID, role, "[]", invitedBy, now).Scan(&m.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE org_invitations SET accepted_at = $1, accepted_by = $2 WHERE id = $3`,
		now, principalID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update invitation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return m, nil
}

// RevokeInvitation deletes a pending invitation.
func (s *Store) RevokeInvitation(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM org_invitations WHERE id = $1 AND accepted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("failed to revoke invitation: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check revoke result: %w", err)
	}
	if affected == 0 {
		return ErrInviteNotFound
	}
	return nil
}

// CleanupExpiredInvitations removes pending invitations past expiry.
func (s *Store) CleanupExpiredInvitations(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM org_invitations WHERE expires_at < $1 AND accepted_at IS NULL`,
		time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired invitations: %w", err)
	}
	return result.RowsAffected()
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
