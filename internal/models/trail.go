package models

import (
	"time"

	"github.com/google/uuid"
)

// Trail is a hike or bike route around the lake and mountains.
type Trail struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	DistanceKm      float64    `json:"distance_km"`
	ElevationGainM  int        `json:"elevation_gain_m"`
	Difficulty      string     `json:"difficulty"` // easy, medium, hard
	StartPoint      string     `json:"start_point,omitempty"`
	OrganizationID  *uuid.UUID `json:"organization_id,omitempty"`
	CreatedBy       uuid.UUID  `json:"created_by"`
	Status          Status     `json:"status"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
