package models

import (
	"time"

	"github.com/google/uuid"
)

// Event is a dated happening (concert, market, festival).
type Event struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Category        string     `json:"category"`
	Venue           string     `json:"venue,omitempty"`
	StartsAt        time.Time  `json:"starts_at"`
	EndsAt          *time.Time `json:"ends_at,omitempty"`
	OrganizationID  *uuid.UUID `json:"organization_id,omitempty"`
	CreatedBy       uuid.UUID  `json:"created_by"`
	Status          Status     `json:"status"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
