package conversations

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salut-annecy/backend/internal/models"
)

// Repository handles private-messaging persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a conversations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// orderPair returns the two profile IDs in canonical order so that a
// conversation between the same pair always maps to a single row.
func orderPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if a.String() > b.String() {
		return b, a
	}
	return a, b
}

// GetOrCreate returns the conversation between two profiles, creating it on
// first contact.
func (r *Repository) GetOrCreate(ctx context.Context, a, b uuid.UUID) (*models.Conversation, error) {
	pa, pb := orderPair(a, b)
	const q = `INSERT INTO conversations (profile_a, profile_b)
		VALUES ($1, $2)
		ON CONFLICT (profile_a, profile_b) DO UPDATE SET profile_a = EXCLUDED.profile_a
		RETURNING id, profile_a, profile_b, created_at`
	var conv models.Conversation
	err := r.pool.QueryRow(ctx, q, pa, pb).Scan(&conv.ID, &conv.ProfileA, &conv.ProfileB, &conv.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// GetByID returns a conversation by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.pool.QueryRow(ctx, `SELECT id, profile_a, profile_b, created_at FROM conversations WHERE id = $1`, id).
		Scan(&conv.ID, &conv.ProfileA, &conv.ProfileB, &conv.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListForProfile returns all conversations the profile takes part in, most
// recent first.
func (r *Repository) ListForProfile(ctx context.Context, profileID uuid.UUID) ([]*models.Conversation, error) {
	const q = `SELECT id, profile_a, profile_b, created_at FROM conversations
		WHERE profile_a = $1 OR profile_b = $1
		ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Conversation
	for rows.Next() {
		var conv models.Conversation
		if err := rows.Scan(&conv.ID, &conv.ProfileA, &conv.ProfileB, &conv.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &conv)
	}
	return list, rows.Err()
}

// AddMessage appends a message to a conversation.
func (r *Repository) AddMessage(ctx context.Context, conversationID, senderID uuid.UUID, content string) (*models.Message, error) {
	const q = `INSERT INTO messages (conversation_id, sender_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, conversation_id, sender_id, content, created_at`
	var m models.Message
	err := r.pool.QueryRow(ctx, q, conversationID, senderID, content).
		Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMessages returns a conversation's messages oldest first.
func (r *Repository) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]*models.Message, error) {
	const q = `SELECT id, conversation_id, sender_id, content, created_at FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at`
	rows, err := r.pool.Query(ctx, q, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}
