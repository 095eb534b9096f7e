package trails

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salut-annecy/backend/internal/models"
)

// Repository handles trail persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a trails repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const trailColumns = `id, name, description, distance_km, elevation_gain_m, difficulty, COALESCE(start_point,''),
	organization_id, created_by, status, rejection_reason, created_at, updated_at`

func scanTrail(row interface{ Scan(...any) error }) (*models.Trail, error) {
	var t models.Trail
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.DistanceKm, &t.ElevationGainM, &t.Difficulty, &t.StartPoint,
		&t.OrganizationID, &t.CreatedBy, &t.Status, &t.RejectionReason, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts a trail in pending_review status.
func (r *Repository) Create(ctx context.Context, t *models.Trail) (*models.Trail, error) {
	const q = `INSERT INTO trails (name, description, distance_km, elevation_gain_m, difficulty, start_point, organization_id, created_by)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6,''), $7, $8)
		RETURNING ` + trailColumns
	return scanTrail(r.pool.QueryRow(ctx, q, t.Name, t.Description, t.DistanceKm, t.ElevationGainM,
		t.Difficulty, t.StartPoint, t.OrganizationID, t.CreatedBy))
}

// GetByID returns a trail by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Trail, error) {
	return scanTrail(r.pool.QueryRow(ctx, `SELECT `+trailColumns+` FROM trails WHERE id = $1`, id))
}

// ListPublished returns published trails, optionally filtered by difficulty.
func (r *Repository) ListPublished(ctx context.Context, difficulty string) ([]*models.Trail, error) {
	const q = `SELECT ` + trailColumns + ` FROM trails
		WHERE status = 'published' AND ($1 = '' OR difficulty = $1)
		ORDER BY name`
	rows, err := r.pool.Query(ctx, q, difficulty)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Trail
	for rows.Next() {
		t, err := scanTrail(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// Update applies a partial update: nil fields keep their stored value.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, name, description, difficulty, startPoint *string, distanceKm *float64, elevationGainM *int) (*models.Trail, error) {
	const q = `UPDATE trails SET
		name             = COALESCE($2, name),
		description      = COALESCE($3, description),
		difficulty       = COALESCE($4, difficulty),
		start_point      = COALESCE($5, start_point),
		distance_km      = COALESCE($6, distance_km),
		elevation_gain_m = COALESCE($7, elevation_gain_m),
		updated_at       = NOW()
		WHERE id = $1
		RETURNING ` + trailColumns
	return scanTrail(r.pool.QueryRow(ctx, q, id, name, description, difficulty, startPoint, distanceKm, elevationGainM))
}

// Delete removes a trail.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM trails WHERE id = $1`, id)
	return err
}
