package models

import (
	"time"

	"github.com/google/uuid"
)

// Status is the moderation state of a directory entry.
// pending_review -> published | rejected; rejected -> published.
type Status string

const (
	StatusPendingReview Status = "pending_review"
	StatusPublished     Status = "published"
	StatusRejected      Status = "rejected"
)

// Place is a directory entry (restaurant, shop, viewpoint, ...).
type Place struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	Category        string     `json:"category"`
	Address         string     `json:"address,omitempty"`
	Latitude        float64    `json:"latitude"`
	Longitude       float64    `json:"longitude"`
	OrganizationID  *uuid.UUID `json:"organization_id,omitempty"`
	CreatedBy       uuid.UUID  `json:"created_by"`
	Status          Status     `json:"status"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
