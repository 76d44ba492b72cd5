package orgs

import "github.com/kabro/accesscore/pkg/storage"

// Migrations returns the organizations, memberships and invitations
// schema.
func Migrations() storage.MigrationSet {
	return storage.MigrationSet{
		Component: "orgs",
		Migrations: []storage.Migration{
			{
				Version:     1,
				Description: "Create organizations table",
				SQL: `
					CREATE TABLE IF NOT EXISTS organizations (
						id BIGSERIAL PRIMARY KEY,
						name VARCHAR(255) NOT NULL,
						slug VARCHAR(255) NOT NULL UNIQUE,
						description TEXT,
						owner_id BIGINT REFERENCES principals(id) ON DELETE SET NULL,
						is_active BOOLEAN NOT NULL DEFAULT TRUE,
						created_at TIMESTAMP NOT NULL DEFAULT NOW(),
						updated_at TIMESTAMP NOT NULL DEFAULT NOW()
					);

					CREATE INDEX idx_organizations_slug ON organizations(slug);
					CREATE INDEX idx_organizations_owner_id ON organizations(owner_id);
				`,
			},
			{
				Version:     2,
				Description: "Create org_memberships table",
				SQL: `
					CREATE TABLE IF NOT EXISTS org_memberships (
						id BIGSERIAL PRIMARY KEY,
						organization_id BIGINT NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
						principal_id BIGINT NOT NULL REFERENCES principals(id) ON DELETE CASCADE,
						org_role VARCHAR(50) NOT NULL,
						specialized_roles JSONB NOT NULL DEFAULT '[]',
						is_active BOOLEAN NOT NULL DEFAULT TRUE,
						invited_by BIGINT REFERENCES principals(id) ON DELETE SET NULL,
						joined_at TIMESTAMP NOT NULL DEFAULT NOW(),
						left_at TIMESTAMP,
						created_at TIMESTAMP NOT NULL DEFAULT NOW(),
						updated_at TIMESTAMP NOT NULL DEFAULT NOW()
					);

					CREATE UNIQUE INDEX uniq_org_memberships_active
						ON org_memberships(organization_id, principal_id)
						WHERE is_active;
					CREATE INDEX idx_org_memberships_principal_id ON org_memberships(principal_id);
					CREATE INDEX idx_org_memberships_organization_id ON org_memberships(organization_id);
				`,
			},
			{
				Version:     3,
				Description: "Create org_invitations table",
				SQL: `
					CREATE TABLE IF NOT EXISTS org_invitations (
						id BIGSERIAL PRIMARY KEY,
						organization_id BIGINT NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
						email VARCHAR(255) NOT NULL,
						org_role VARCHAR(50) NOT NULL,
						token VARCHAR(64) NOT NULL UNIQUE,
						invited_by BIGINT NOT NULL REFERENCES principals(id) ON DELETE CASCADE,
						invited_at TIMESTAMP NOT NULL DEFAULT NOW(),
						expires_at TIMESTAMP NOT NULL,
						accepted_at TIMESTAMP,
						accepted_by BIGINT REFERENCES principals(id) ON DELETE SET NULL,
						UNIQUE (organization_id, email)
					);

					CREATE INDEX idx_org_invitations_token ON org_invitations(token);
					CREATE INDEX idx_org_invitations_organization_id ON org_invitations(organization_id);
				`,
			},
		},
	}
}
