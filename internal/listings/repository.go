package listings

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salut-annecy/backend/internal/models"
)

// Repository handles classified-listing persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a listings repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const listingColumns = `id, title, description, type, price_cents, salary_range,
	organization_id, created_by, status, rejection_reason, created_at, updated_at`

func scanListing(row interface{ Scan(...any) error }) (*models.Listing, error) {
	var l models.Listing
	err := row.Scan(&l.ID, &l.Title, &l.Description, &l.Type, &l.PriceCents, &l.SalaryRange,
		&l.OrganizationID, &l.CreatedBy, &l.Status, &l.RejectionReason, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Create inserts a listing in pending_review status.
func (r *Repository) Create(ctx context.Context, l *models.Listing) (*models.Listing, error) {
	const q = `INSERT INTO listings (title, description, type, price_cents, salary_range, organization_id, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + listingColumns
	return scanListing(r.pool.QueryRow(ctx, q, l.Title, l.Description, l.Type, l.PriceCents,
		l.SalaryRange, l.OrganizationID, l.CreatedBy))
}

// GetByID returns a listing by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	return scanListing(r.pool.QueryRow(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, id))
}

// ListPublished returns published listings, newest first, optionally filtered
// by type.
func (r *Repository) ListPublished(ctx context.Context, listingType string) ([]*models.Listing, error) {
	const q = `SELECT ` + listingColumns + ` FROM listings
		WHERE status = 'published' AND ($1 = '' OR type = $1)
		ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, listingType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

// Update applies a partial update: nil fields keep their stored value.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, title, description, salaryRange *string, priceCents *int) (*models.Listing, error) {
	const q = `UPDATE listings SET
		title        = COALESCE($2, title),
		description  = COALESCE($3, description),
		salary_range = COALESCE($4, salary_range),
		price_cents  = COALESCE($5, price_cents),
		updated_at   = NOW()
		WHERE id = $1
		RETURNING ` + listingColumns
	return scanListing(r.pool.QueryRow(ctx, q, id, title, description, salaryRange, priceCents))
}

// Delete removes a listing.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM listings WHERE id = $1`, id)
	return err
}
