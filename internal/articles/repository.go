package articles

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salut-annecy/backend/internal/models"
)

// Repository handles article persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an articles repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const articleColumns = `id, title, COALESCE(excerpt,''), body, COALESCE(cover_image_url,''),
	organization_id, created_by, status, rejection_reason, published_at, created_at, updated_at`

func scanArticle(row interface{ Scan(...any) error }) (*models.Article, error) {
	var a models.Article
	err := row.Scan(&a.ID, &a.Title, &a.Excerpt, &a.Body, &a.CoverImageURL,
		&a.OrganizationID, &a.CreatedBy, &a.Status, &a.RejectionReason, &a.PublishedAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts an article in pending_review status.
func (r *Repository) Create(ctx context.Context, a *models.Article) (*models.Article, error) {
	const q = `INSERT INTO articles (title, excerpt, body, cover_image_url, organization_id, created_by)
		VALUES ($1, NULLIF($2,''), $3, NULLIF($4,''), $5, $6)
		RETURNING ` + articleColumns
	return scanArticle(r.pool.QueryRow(ctx, q, a.Title, a.Excerpt, a.Body, a.CoverImageURL,
		a.OrganizationID, a.CreatedBy))
}

// GetByID returns an article by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Article, error) {
	return scanArticle(r.pool.QueryRow(ctx, `SELECT `+articleColumns+` FROM articles WHERE id = $1`, id))
}

// ListPublished returns published articles, most recent first.
func (r *Repository) ListPublished(ctx context.Context) ([]*models.Article, error) {
	const q = `SELECT ` + articleColumns + ` FROM articles
		WHERE status = 'published'
		ORDER BY published_at DESC NULLS LAST, created_at DESC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// Update applies a partial update: nil fields keep their stored value.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, title, excerpt, body, coverImageURL *string) (*models.Article, error) {
	const q = `UPDATE articles SET
		title           = COALESCE($2, title),
		excerpt         = COALESCE($3, excerpt),
		body            = COALESCE($4, body),
		cover_image_url = COALESCE($5, cover_image_url),
		updated_at      = NOW()
		WHERE id = $1
		RETURNING ` + articleColumns
	return scanArticle(r.pool.QueryRow(ctx, q, id, title, excerpt, body, coverImageURL))
}

// Delete removes an article.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM articles WHERE id = $1`, id)
	return err
}
