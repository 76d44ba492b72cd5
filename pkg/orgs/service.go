package orgs

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kabro/accesscore/pkg/audit"
	"github.com/kabro/accesscore/pkg/catalog"
)

// Service wraps the store with audit emission. Authorization of the
// acting principal happens upstream.
type Service struct {
	store *Store
	audit audit.Logger
}

// NewService creates an organization service.
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

// CreateOrganization creates an organization and makes the creator its
// first ORG_OWNER.
func (s *Service) CreateOrganization(ctx context.Context, creatorID int64, name, description string) (*Organization, error) {
	org := &Organization{
		Name:        name,
		Description: description,
		OwnerID:     &creatorID,
	}
	if err := s.store.CreateOrganization(ctx, org); err != nil {
		return nil, err
	}

	if _, err := s.store.AddMember(ctx, org.ID, creatorID, catalog.OrgRoleOwner, nil); err != nil {
		return nil, fmt.Errorf("failed to add creator as owner: %w", err)
	}

	s.audit.Record(ctx, &audit.Entry{
		ActorID:        &creatorID,
		OrganizationID: &org.ID,
		Action:         audit.ActionMemberAdd,
		ResourceType:   audit.ResourceOrganization,
		ResourceID:     strconv.FormatInt(org.ID, 10),
		Description:    "organization created; creator added as ORG_OWNER",
	})
	return org, nil
}

// AddMember adds a principal to an organization and records it.
func (s *Service) AddMember(ctx context.Context, actorID, orgID, principalID int64, role catalog.OrgRole) (*Membership, error) {
	m, err := s.store.AddMember(ctx, orgID, principalID, role, &actorID)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &audit.Entry{
		ActorID:        &actorID,
		OrganizationID: &orgID,
		Action:         audit.ActionMemberAdd,
		ResourceType:   audit.ResourceMembership,
		ResourceID:     strconv.FormatInt(m.ID, 10),
		Description:    fmt.Sprintf("principal %d added with role %s", principalID, role),
		Metadata: map[string]interface{}{
			"principal_id": principalID,
			"org_role":     string(role),
		},
	})
	return m, nil
}

// UpdateMemberRole changes a member's organization role and records it.
func (s *Service) UpdateMemberRole(ctx context.Context, actorID, orgID, principalID int64, role catalog.OrgRole) error {
	if err := s.store.UpdateMemberRole(ctx, orgID, principalID, role); err != nil {
		return err
	}

	s.audit.Record(ctx, &audit.Entry{
		ActorID:        &actorID,
		OrganizationID: &orgID,
		Action:         audit.ActionMemberRoleChange,
		ResourceType:   audit.ResourceMembership,
		ResourceID:     strconv.FormatInt(principalID, 10),
		Severity:       audit.SeverityWarning,
		Description:    fmt.Sprintf("principal %d role changed to %s", principalID, role),
		Metadata: map[string]interface{}{
			"principal_id": principalID,
			"org_role":     string(role),
		},
	})
	return nil
}

// SetSpecializedRoles replaces a member's specialized roles and
// records it.
func (s *Service) SetSpecializedRoles(ctx context.Context, actorID, orgID, principalID int64, roles []catalog.SpecializedRole) error {
	if err := s.store.SetSpecializedRoles(ctx, orgID, principalID, roles); err != nil {
		return err
	}

	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	s.audit.Record(ctx, &audit.Entry{
		ActorID:        &actorID,
		OrganizationID: &orgID,
		Action:         audit.ActionMemberRoleChange,
		ResourceType:   audit.ResourceMembership,
		ResourceID:     strconv.FormatInt(principalID, 10),
		Description:    fmt.Sprintf("principal %d specialized roles updated", principalID),
		Metadata: map[string]interface{}{
			"principal_id":      principalID,
			"specialized_roles": names,
		},
	})
	return nil
}

// RemoveMember deactivates a membership and records it.
func (s *Service) RemoveMember(ctx context.Context, actorID, orgID, principalID int64) error {
	if err := s.store.DeactivateMember(ctx, orgID, principalID); err != nil {
		return err
	}

	s.audit.Record(ctx, &audit.Entry{
		ActorID:        &actorID,
		OrganizationID: &orgID,
		Action:         audit.ActionMemberRemove,
		ResourceType:   audit.ResourceMembership,
		ResourceID:     strconv.FormatInt(principalID, 10),
		Severity:       audit.SeverityWarning,
		Description:    fmt.Sprintf("principal %d membership deactivated", principalID),
	})
	return nil
}

// Invite creates an invitation and records it.
func (s *Service) Invite(ctx context.Context, actorID, orgID int64, email string, role catalog.OrgRole) (*Invitation, error) {
	inv := &Invitation{
		OrganizationID: orgID,
		Email:          email,
		OrgRole:        role,
		InvitedBy:      actorID,
	}
	if err := s.store.CreateInvitation(ctx, inv); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &audit.Entry{
		ActorID:        &actorID,
		OrganizationID: &orgID,
		Action:         audit.ActionInviteCreate,
		ResourceType:   audit.ResourceMembership,
		ResourceID:     strconv.FormatInt(inv.ID, 10),
		Description:    fmt.Sprintf("invitation created for %s with role %s", email, role),
		Metadata: map[string]interface{}{
			"email":    email,
			"org_role": string(role),
		},
	})
	return inv, nil
}

// AcceptInvite consumes an invitation token and records the join.
func (s *Service) AcceptInvite(ctx context.Context, principalID int64, token string) (*Membership, error) {
	m, err := s.store.AcceptInvitation(ctx, token, principalID)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &audit.Entry{
		ActorID:        &principalID,
		OrganizationID: &m.OrganizationID,
		Action:         audit.ActionInviteAccept,
		ResourceType:   audit.ResourceMembership,
		ResourceID:     strconv.FormatInt(m.ID, 10),
		Description:    fmt.Sprintf("invitation accepted; joined with role %s", m.OrgRole),
	})
	return m, nil
}

// RevokeInvite deletes a pending invitation and records it.
func (s *Service) RevokeInvite(ctx context.Context, actorID, orgID, inviteID int64) error {
	if err := s.store.RevokeInvitation(ctx, inviteID); err != nil {
		return err
	}

	s.audit.Record(ctx, &audit.Entry{
		ActorID:        &actorID,
		OrganizationID: &orgID,
		Action:         audit.ActionInviteRevoke,
		ResourceType:   audit.ResourceMembership,
		ResourceID:     strconv.FormatInt(inviteID, 10),
		Description:    "invitation revoked",
	})
	return nil
}
