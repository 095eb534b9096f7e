package models

import (
	"time"

	"github.com/google/uuid"
)

// Listing is a classified ad: job offer, housing, second-hand goods.
type Listing struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Type            string     `json:"type"` // emploi, immobilier, bonnes_affaires
	PriceCents      *int       `json:"price_cents,omitempty"`
	SalaryRange     *string    `json:"salary_range,omitempty"`
	OrganizationID  *uuid.UUID `json:"organization_id,omitempty"`
	CreatedBy       uuid.UUID  `json:"created_by"`
	Status          Status     `json:"status"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
