package liveevents

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salut-annecy/backend/internal/models"
)

// Repository handles live-event persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a live-events repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const liveEventColumns = `id, type, title, COALESCE(location,''), created_by, expires_at, created_at`

func scanLiveEvent(row interface{ Scan(...any) error }) (*models.LiveEvent, error) {
	var e models.LiveEvent
	err := row.Scan(&e.ID, &e.Type, &e.Title, &e.Location, &e.CreatedBy, &e.ExpiresAt, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create inserts a live event.
func (r *Repository) Create(ctx context.Context, e *models.LiveEvent) (*models.LiveEvent, error) {
	const q = `INSERT INTO live_events (type, title, location, created_by, expires_at)
		VALUES ($1, $2, NULLIF($3,''), $4, $5)
		RETURNING ` + liveEventColumns
	return scanLiveEvent(r.pool.QueryRow(ctx, q, e.Type, e.Title, e.Location, e.CreatedBy, e.ExpiresAt))
}

// ListActive returns live events that have not expired, newest first.
func (r *Repository) ListActive(ctx context.Context, now time.Time) ([]*models.LiveEvent, error) {
	const q = `SELECT ` + liveEventColumns + ` FROM live_events
		WHERE expires_at > $1
		ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.LiveEvent
	for rows.Next() {
		e, err := scanLiveEvent(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}
