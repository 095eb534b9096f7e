package models

import (
	"time"

	"github.com/google/uuid"
)

// Claim and report statuses.
const (
	ClaimPending  = "pending"
	ClaimApproved = "approved"
	ClaimRejected = "rejected"

	ReportOpen     = "open"
	ReportResolved = "resolved"
)

// Claim is a request by an organization to take ownership of a place.
type Claim struct {
	ID             uuid.UUID  `json:"id"`
	PlaceID        uuid.UUID  `json:"place_id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	ProfileID      uuid.UUID  `json:"profile_id"`
	Message        string     `json:"message,omitempty"`
	Status         string     `json:"status"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Report flags a piece of content for moderator review.
type Report struct {
	ID         uuid.UUID  `json:"id"`
	TargetType string     `json:"target_type"` // place, event, article, thread, reply, profile
	TargetID   uuid.UUID  `json:"target_id"`
	ReporterID uuid.UUID  `json:"reporter_id"`
	Reason     string     `json:"reason"`
	Status     string     `json:"status"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
