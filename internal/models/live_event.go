package models

import (
	"time"

	"github.com/google/uuid"
)

// LiveEvent is a short-lived community announcement (roadworks, pop-up
// market, lost pet) pushed to connected clients and expiring on its own.
type LiveEvent struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Location  string    `json:"location,omitempty"`
	CreatedBy uuid.UUID `json:"created_by"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
