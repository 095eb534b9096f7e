package places

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salut-annecy/backend/internal/models"
)

// Repository handles place persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a places repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const placeColumns = `id, name, description, category, COALESCE(address,''), latitude, longitude,
	organization_id, created_by, status, rejection_reason, created_at, updated_at`

func scanPlace(row interface{ Scan(...any) error }) (*models.Place, error) {
	var p models.Place
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Address, &p.Latitude, &p.Longitude,
		&p.OrganizationID, &p.CreatedBy, &p.Status, &p.RejectionReason, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a place in pending_review status.
func (r *Repository) Create(ctx context.Context, p *models.Place) (*models.Place, error) {
	const q = `INSERT INTO places (name, description, category, address, latitude, longitude, organization_id, created_by)
		VALUES ($1, $2, $3, NULLIF($4,''), $5, $6, $7, $8)
		RETURNING ` + placeColumns
	return scanPlace(r.pool.QueryRow(ctx, q, p.Name, p.Description, p.Category, p.Address,
		p.Latitude, p.Longitude, p.OrganizationID, p.CreatedBy))
}

// GetByID returns a place by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Place, error) {
	return scanPlace(r.pool.QueryRow(ctx, `SELECT `+placeColumns+` FROM places WHERE id = $1`, id))
}

// ListPublished returns published places, optionally filtered by category.
func (r *Repository) ListPublished(ctx context.Context, category string) ([]*models.Place, error) {
	const q = `SELECT ` + placeColumns + ` FROM places
		WHERE status = 'published' AND ($1 = '' OR category = $1)
		ORDER BY name`
	rows, err := r.pool.Query(ctx, q, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Place
	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// ListByStatus returns places in a moderation status (admin console).
func (r *Repository) ListByStatus(ctx context.Context, status models.Status) ([]*models.Place, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+placeColumns+` FROM places WHERE status = $1 ORDER BY created_at`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Place
	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// Update applies a partial update: nil fields keep their stored value.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, name, description, category, address *string, lat, lng *float64) (*models.Place, error) {
	const q = `UPDATE places SET
		name        = COALESCE($2, name),
		description = COALESCE($3, description),
		category    = COALESCE($4, category),
		address     = COALESCE($5, address),
		latitude    = COALESCE($6, latitude),
		longitude   = COALESCE($7, longitude),
		updated_at  = NOW()
		WHERE id = $1
		RETURNING ` + placeColumns
	return scanPlace(r.pool.QueryRow(ctx, q, id, name, description, category, address, lat, lng))
}

// Delete removes a place.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM places WHERE id = $1`, id)
	return err
}

// Approve publishes a place. A previously stored rejection reason is left
// untouched.
func (r *Repository) Approve(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE places SET status = 'published', updated_at = NOW() WHERE id = $1 RETURNING id`
	var got uuid.UUID
	return r.pool.QueryRow(ctx, q, id).Scan(&got)
}

// Reject marks a place rejected, storing the reason verbatim. Published
// places are left alone: there is no transition out of published, so the
// guarded UPDATE matches no row and the caller sees pgx.ErrNoRows.
func (r *Repository) Reject(ctx context.Context, id uuid.UUID, reason string) error {
	const q = `UPDATE places SET status = 'rejected', rejection_reason = $2, updated_at = NOW()
		WHERE id = $1 AND status <> 'published' RETURNING id`
	var got uuid.UUID
	return r.pool.QueryRow(ctx, q, id, reason).Scan(&got)
}

// SetOrganization reassigns a place to an organization (approved claims).
func (r *Repository) SetOrganization(ctx context.Context, id, orgID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE places SET organization_id = $2, updated_at = NOW() WHERE id = $1`, id, orgID)
	return err
}
