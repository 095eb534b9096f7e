package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is a private two-party message thread. The pair (profile_a,
// profile_b) is stored in a canonical order so lookups are idempotent.
type Conversation struct {
	ID        uuid.UUID `json:"id"`
	ProfileA  uuid.UUID `json:"profile_a"`
	ProfileB  uuid.UUID `json:"profile_b"`
	CreatedAt time.Time `json:"created_at"`
}

// Message is a single message in a conversation.
type Message struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	SenderID       uuid.UUID `json:"sender_id"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}
