package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization membership roles.
const (
	MemberRoleViewer = "viewer"
	MemberRoleAdmin  = "admin"
)

// ValidMemberRole reports whether s is an accepted membership role.
func ValidMemberRole(s string) bool {
	return s == MemberRoleViewer || s == MemberRoleAdmin
}

// Organization is a business or association in the directory. Every
// organization has exactly one primary owner profile, fixed at creation.
type Organization struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	PrimaryOwnerID   uuid.UUID `json:"primary_owner_id"`
	SubscriptionTier string    `json:"subscription_tier"`
	Siret            *string   `json:"siret,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// OrganizationMember links a profile to an organization with a role.
// Ownership (primary_owner_id) and membership are tracked independently; an
// owner does not need a membership row.
type OrganizationMember struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	ProfileID      uuid.UUID  `json:"profile_id"`
	Role           string     `json:"role"`
	InvitedBy      *uuid.UUID `json:"invited_by,omitempty"`
	AcceptedAt     *time.Time `json:"accepted_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// MemberOrganization is an organization reached through a membership row,
// annotated with the membership role (for GET /organizations/my).
type MemberOrganization struct {
	Organization
	MemberRole string `json:"member_role"`
}
