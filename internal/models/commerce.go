package models

import (
	"time"

	"github.com/google/uuid"
)

// Order and booking statuses.
const (
	OrderPending     = "pending"
	OrderConfirmed   = "confirmed"
	OrderCancelled   = "cancelled"
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
)

// Product is a physical good sold by an organization.
type Product struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	PriceCents     int       `json:"price_cents"`
	Currency       string    `json:"currency"`
	Stock          int       `json:"stock"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Service is a bookable offering (table, tour, lesson).
type Service struct {
	ID              uuid.UUID `json:"id"`
	OrganizationID  uuid.UUID `json:"organization_id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	PriceCents      int       `json:"price_cents"`
	Currency        string    `json:"currency"`
	DurationMinutes int       `json:"duration_minutes"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Order is a purchase of a product by a profile.
type Order struct {
	ID         uuid.UUID `json:"id"`
	ProductID  uuid.UUID `json:"product_id"`
	ProfileID  uuid.UUID `json:"profile_id"`
	Quantity   int       `json:"quantity"`
	TotalCents int       `json:"total_cents"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Booking is a reservation of a service slot by a profile.
type Booking struct {
	ID               uuid.UUID `json:"id"`
	ServiceID        uuid.UUID `json:"service_id"`
	ProfileID        uuid.UUID `json:"profile_id"`
	StartsAt         time.Time `json:"starts_at"`
	ConfirmationCode string    `json:"confirmation_code"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
