package models

import (
	"time"

	"github.com/google/uuid"
)

// Article is an editorial or community magazine piece.
type Article struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	Excerpt         string     `json:"excerpt,omitempty"`
	Body            string     `json:"body"`
	CoverImageURL   string     `json:"cover_image_url,omitempty"`
	OrganizationID  *uuid.UUID `json:"organization_id,omitempty"`
	CreatedBy       uuid.UUID  `json:"created_by"`
	Status          Status     `json:"status"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	PublishedAt     *time.Time `json:"published_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
