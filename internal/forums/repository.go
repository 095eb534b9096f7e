package forums

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salut-annecy/backend/internal/models"
)

// Repository handles forum persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a forums repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const threadColumns = `t.id, t.title, t.body, COALESCE(t.category,''), t.created_by,
	(SELECT COUNT(*) FROM forum_replies r WHERE r.thread_id = t.id), t.created_at, t.updated_at`

func scanThread(row interface{ Scan(...any) error }) (*models.ForumThread, error) {
	var t models.ForumThread
	err := row.Scan(&t.ID, &t.Title, &t.Body, &t.Category, &t.CreatedBy, &t.ReplyCount, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

const replyColumns = `r.id, r.thread_id, r.created_by, r.content,
	(SELECT COUNT(*) FROM forum_reply_votes v WHERE v.reply_id = r.id), r.created_at`

func scanReply(row interface{ Scan(...any) error }) (*models.ForumReply, error) {
	var rep models.ForumReply
	err := row.Scan(&rep.ID, &rep.ThreadID, &rep.CreatedBy, &rep.Content, &rep.Votes, &rep.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

// CreateThread inserts a new discussion thread.
func (r *Repository) CreateThread(ctx context.Context, title, body, category string, createdBy uuid.UUID) (*models.ForumThread, error) {
	const q = `INSERT INTO forum_threads AS t (title, body, category, created_by)
		VALUES ($1, $2, NULLIF($3,''), $4)
		RETURNING ` + threadColumns
	return scanThread(r.pool.QueryRow(ctx, q, title, body, category, createdBy))
}

// GetThread returns a thread by ID.
func (r *Repository) GetThread(ctx context.Context, id uuid.UUID) (*models.ForumThread, error) {
	return scanThread(r.pool.QueryRow(ctx, `SELECT `+threadColumns+` FROM forum_threads t WHERE t.id = $1`, id))
}

// ListThreads returns threads, most recently active first, optionally filtered
// by category.
func (r *Repository) ListThreads(ctx context.Context, category string) ([]*models.ForumThread, error) {
	const q = `SELECT ` + threadColumns + ` FROM forum_threads t
		WHERE ($1 = '' OR t.category = $1)
		ORDER BY t.updated_at DESC`
	rows, err := r.pool.Query(ctx, q, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.ForumThread
	for rows.Next() {
		t, err := scanThread(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// DeleteThread removes a thread and, via cascade, its replies.
func (r *Repository) DeleteThread(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM forum_threads WHERE id = $1`, id)
	return err
}

// CreateReply inserts a reply and bumps the thread's activity timestamp.
func (r *Repository) CreateReply(ctx context.Context, threadID, createdBy uuid.UUID, content string) (*models.ForumReply, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const q = `INSERT INTO forum_replies AS r (thread_id, created_by, content)
		VALUES ($1, $2, $3)
		RETURNING ` + replyColumns
	rep, err := scanReply(tx.QueryRow(ctx, q, threadID, createdBy, content))
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `UPDATE forum_threads SET updated_at = NOW() WHERE id = $1`, threadID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return rep, nil
}

// GetReply returns a reply by ID.
func (r *Repository) GetReply(ctx context.Context, id uuid.UUID) (*models.ForumReply, error) {
	return scanReply(r.pool.QueryRow(ctx, `SELECT `+replyColumns+` FROM forum_replies r WHERE r.id = $1`, id))
}

// ListReplies returns a thread's replies oldest first.
func (r *Repository) ListReplies(ctx context.Context, threadID uuid.UUID) ([]*models.ForumReply, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+replyColumns+` FROM forum_replies r WHERE r.thread_id = $1 ORDER BY r.created_at`, threadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.ForumReply
	for rows.Next() {
		rep, err := scanReply(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, rep)
	}
	return list, rows.Err()
}

// DeleteReply removes a reply.
func (r *Repository) DeleteReply(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM forum_replies WHERE id = $1`, id)
	return err
}

// UpvoteReply records one vote per profile. Voting twice is a no-op.
func (r *Repository) UpvoteReply(ctx context.Context, replyID, profileID uuid.UUID) (int, error) {
	const q = `INSERT INTO forum_reply_votes (reply_id, profile_id)
		VALUES ($1, $2)
		ON CONFLICT (reply_id, profile_id) DO NOTHING`
	if _, err := r.pool.Exec(ctx, q, replyID, profileID); err != nil {
		return 0, err
	}
	var votes int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM forum_reply_votes WHERE reply_id = $1`, replyID).Scan(&votes)
	return votes, err
}

// CreateGroup inserts a community group.
func (r *Repository) CreateGroup(ctx context.Context, name, description string, createdBy uuid.UUID) (*models.Group, error) {
	const q = `INSERT INTO groups (name, description, created_by)
		VALUES ($1, NULLIF($2,''), $3)
		RETURNING id, name, COALESCE(description,''), created_by, created_at`
	var g models.Group
	err := r.pool.QueryRow(ctx, q, name, description, createdBy).
		Scan(&g.ID, &g.Name, &g.Description, &g.CreatedBy, &g.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// ListGroups returns all community groups.
func (r *Repository) ListGroups(ctx context.Context) ([]*models.Group, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, COALESCE(description,''), created_by, created_at FROM groups ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Group
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.CreatedBy, &g.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &g)
	}
	return list, rows.Err()
}
