package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salut-annecy/backend/internal/models"
)

// Repository handles event persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an events repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const eventColumns = `id, title, description, category, COALESCE(venue,''), starts_at, ends_at,
	organization_id, created_by, status, rejection_reason, created_at, updated_at`

func scanEvent(row interface{ Scan(...any) error }) (*models.Event, error) {
	var e models.Event
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Category, &e.Venue, &e.StartsAt, &e.EndsAt,
		&e.OrganizationID, &e.CreatedBy, &e.Status, &e.RejectionReason, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create inserts an event in pending_review status.
func (r *Repository) Create(ctx context.Context, e *models.Event) (*models.Event, error) {
	const q = `INSERT INTO events (title, description, category, venue, starts_at, ends_at, organization_id, created_by)
		VALUES ($1, $2, $3, NULLIF($4,''), $5, $6, $7, $8)
		RETURNING ` + eventColumns
	return scanEvent(r.pool.QueryRow(ctx, q, e.Title, e.Description, e.Category, e.Venue,
		e.StartsAt, e.EndsAt, e.OrganizationID, e.CreatedBy))
}

// GetByID returns an event by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	return scanEvent(r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
}

// ListUpcoming returns published events starting after the given time.
func (r *Repository) ListUpcoming(ctx context.Context, after time.Time, category string) ([]*models.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events
		WHERE status = 'published' AND starts_at >= $1 AND ($2 = '' OR category = $2)
		ORDER BY starts_at`
	rows, err := r.pool.Query(ctx, q, after, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// Update applies a partial update: nil fields keep their stored value.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, title, description, category, venue *string, startsAt, endsAt *time.Time) (*models.Event, error) {
	const q = `UPDATE events SET
		title       = COALESCE($2, title),
		description = COALESCE($3, description),
		category    = COALESCE($4, category),
		venue       = COALESCE($5, venue),
		starts_at   = COALESCE($6, starts_at),
		ends_at     = COALESCE($7, ends_at),
		updated_at  = NOW()
		WHERE id = $1
		RETURNING ` + eventColumns
	return scanEvent(r.pool.QueryRow(ctx, q, id, title, description, category, venue, startsAt, endsAt))
}

// Delete removes an event.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	return err
}
