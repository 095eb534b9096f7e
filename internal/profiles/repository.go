package profiles

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salut-annecy/backend/internal/models"
)

// Repository handles profile persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a profiles repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const profileColumns = `id, user_id, username, display_name, COALESCE(avatar_url,''), COALESCE(bio,''), points, level_id, created_at, updated_at`

func scanProfile(row interface{ Scan(...any) error }) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(&p.ID, &p.UserID, &p.Username, &p.DisplayName, &p.AvatarURL, &p.Bio, &p.Points, &p.LevelID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByUserID returns the profile linked to a user (1:1).
func (r *Repository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	return scanProfile(r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, userID))
}

// GetByID returns a profile by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	return scanProfile(r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id))
}

// GetByUsername returns a profile by username.
func (r *Repository) GetByUsername(ctx context.Context, username string) (*models.Profile, error) {
	return scanProfile(r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE username = $1`, username))
}

// Create inserts a profile for a user inside a transaction: the uniqueness of
// (user_id) and (username) is checked by constraints, and the insert plus the
// read-back are atomic.
func (r *Repository) Create(ctx context.Context, userID uuid.UUID, username, displayName, avatarURL string) (*models.Profile, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const q = `INSERT INTO profiles (user_id, username, display_name, avatar_url)
		VALUES ($1, $2, $3, NULLIF($4,''))
		RETURNING ` + profileColumns
	p, err := scanProfile(tx.QueryRow(ctx, q, userID, username, displayName, avatarURL))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// Update applies a partial update: nil fields keep their stored value.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, displayName, avatarURL, bio *string) (*models.Profile, error) {
	const q = `UPDATE profiles SET
		display_name = COALESCE($2, display_name),
		avatar_url   = COALESCE($3, avatar_url),
		bio          = COALESCE($4, bio),
		updated_at   = NOW()
		WHERE id = $1
		RETURNING ` + profileColumns
	return scanProfile(r.pool.QueryRow(ctx, q, id, displayName, avatarURL, bio))
}

// AddPoints increments a profile's points and bumps the level when a seeded
// threshold is crossed.
func (r *Repository) AddPoints(ctx context.Context, id uuid.UUID, delta int) error {
	const q = `UPDATE profiles SET
		points = points + $2,
		level_id = (SELECT MAX(l.id) FROM levels l WHERE l.min_points <= points + $2),
		updated_at = NOW()
		WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id, delta)
	return err
}
