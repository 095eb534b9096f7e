package organizations

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salut-annecy/backend/internal/models"
)

// Repository handles organization and membership persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an organizations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const orgColumns = `id, name, primary_owner_id, subscription_tier, siret, created_at, updated_at`

func scanOrg(row interface{ Scan(...any) error }) (*models.Organization, error) {
	var o models.Organization
	err := row.Scan(&o.ID, &o.Name, &o.PrimaryOwnerID, &o.SubscriptionTier, &o.Siret, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Create inserts an organization owned by the given profile. The subscription
// tier is always "free" at creation regardless of caller input. The owner
// existence check and the insert run in one transaction.
func (r *Repository) Create(ctx context.Context, name string, siret *string, ownerProfileID uuid.UUID) (*models.Organization, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var exists uuid.UUID
	if err := tx.QueryRow(ctx, `SELECT id FROM profiles WHERE id = $1`, ownerProfileID).Scan(&exists); err != nil {
		return nil, err
	}

	const q = `INSERT INTO organizations (name, primary_owner_id, subscription_tier, siret)
		VALUES ($1, $2, 'free', $3)
		RETURNING ` + orgColumns
	org, err := scanOrg(tx.QueryRow(ctx, q, name, ownerProfileID, siret))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return org, nil
}

// GetByID returns an organization by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	return scanOrg(r.pool.QueryRow(ctx, `SELECT `+orgColumns+` FROM organizations WHERE id = $1`, id))
}

// Update applies a partial update: nil fields keep their stored value.
// Only name and siret are mutable; the primary owner never changes.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, name, siret *string) (*models.Organization, error) {
	const q = `UPDATE organizations SET
		name       = COALESCE($2, name),
		siret      = COALESCE($3, siret),
		updated_at = NOW()
		WHERE id = $1
		RETURNING ` + orgColumns
	return scanOrg(r.pool.QueryRow(ctx, q, id, name, siret))
}

// Delete removes an organization.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	return err
}

// ListOwnedBy returns organizations where the profile is the primary owner.
func (r *Repository) ListOwnedBy(ctx context.Context, profileID uuid.UUID) ([]*models.Organization, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+orgColumns+` FROM organizations WHERE primary_owner_id = $1 ORDER BY name`, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Organization
	for rows.Next() {
		o, err := scanOrg(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, o)
	}
	return list, rows.Err()
}

// ListMemberOf returns organizations reached through a membership row,
// annotated with the membership role. Not deduplicated against ListOwnedBy:
// an owner who also holds a membership row appears in both lists.
func (r *Repository) ListMemberOf(ctx context.Context, profileID uuid.UUID) ([]*models.MemberOrganization, error) {
	const q = `SELECT o.id, o.name, o.primary_owner_id, o.subscription_tier, o.siret, o.created_at, o.updated_at, m.role
		FROM organizations o
		INNER JOIN organization_members m ON m.organization_id = o.id
		WHERE m.profile_id = $1
		ORDER BY o.name`
	rows, err := r.pool.Query(ctx, q, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.MemberOrganization
	for rows.Next() {
		var mo models.MemberOrganization
		if err := rows.Scan(&mo.ID, &mo.Name, &mo.PrimaryOwnerID, &mo.SubscriptionTier, &mo.Siret, &mo.CreatedAt, &mo.UpdatedAt, &mo.MemberRole); err != nil {
			return nil, err
		}
		list = append(list, &mo)
	}
	return list, rows.Err()
}

// AddMember upserts a membership row. acceptedAt is set immediately; there is
// no invitation handshake. A profile holds at most one row per organization.
func (r *Repository) AddMember(ctx context.Context, orgID, profileID uuid.UUID, role string, invitedBy uuid.UUID) (*models.OrganizationMember, error) {
	const q = `INSERT INTO organization_members (organization_id, profile_id, role, invited_by, accepted_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (organization_id, profile_id) DO UPDATE SET role = EXCLUDED.role, accepted_at = NOW()
		RETURNING id, organization_id, profile_id, role, invited_by, accepted_at, created_at`
	var m models.OrganizationMember
	err := r.pool.QueryRow(ctx, q, orgID, profileID, role, invitedBy).
		Scan(&m.ID, &m.OrganizationID, &m.ProfileID, &m.Role, &m.InvitedBy, &m.AcceptedAt, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// RemoveMember deletes a membership row by ID, scoped to the organization.
// Returns pgx.ErrNoRows when no such membership exists.
func (r *Repository) RemoveMember(ctx context.Context, orgID, memberID uuid.UUID) error {
	const q = `DELETE FROM organization_members WHERE id = $1 AND organization_id = $2 RETURNING id`
	var id uuid.UUID
	return r.pool.QueryRow(ctx, q, memberID, orgID).Scan(&id)
}

// ListMembers returns the membership roster of an organization.
func (r *Repository) ListMembers(ctx context.Context, orgID uuid.UUID) ([]*models.OrganizationMember, error) {
	const q = `SELECT id, organization_id, profile_id, role, invited_by, accepted_at, created_at
		FROM organization_members WHERE organization_id = $1 ORDER BY created_at`
	rows, err := r.pool.Query(ctx, q, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.OrganizationMember
	for rows.Next() {
		var m models.OrganizationMember
		if err := rows.Scan(&m.ID, &m.OrganizationID, &m.ProfileID, &m.Role, &m.InvitedBy, &m.AcceptedAt, &m.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}

// IsMember reports whether the profile holds a membership row in the given
// organization (any role).
func (r *Repository) IsMember(ctx context.Context, orgID, profileID uuid.UUID) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM organization_members WHERE organization_id = $1 AND profile_id = $2)`
	var ok bool
	err := r.pool.QueryRow(ctx, q, orgID, profileID).Scan(&ok)
	return ok, err
}

// HasAdminMembership implements MembershipStore. See the interface for the
// scoping contract: the query intentionally has no organization filter.
func (r *Repository) HasAdminMembership(ctx context.Context, profileID uuid.UUID) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM organization_members WHERE profile_id = $1 AND role = 'admin')`
	var ok bool
	err := r.pool.QueryRow(ctx, q, profileID).Scan(&ok)
	return ok, err
}
