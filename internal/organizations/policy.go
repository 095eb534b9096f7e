package organizations

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/salut-annecy/backend/internal/models"
)

// Action is a mutating operation on an organization, checked by Policy.
type Action string

const (
	ActionUpdate       Action = "update"
	ActionDelete       Action = "delete"
	ActionAddMember    Action = "add_member"
	ActionRemoveMember Action = "remove_member"
)

// Policy decision errors. Handlers map these to 404 and 403.
var (
	ErrNotFound  = errors.New("organization not found")
	ErrForbidden = errors.New("not authorized for this organization")
)

// MembershipStore is the roster lookup the policy consults.
type MembershipStore interface {
	// HasAdminMembership reports whether the profile holds an "admin"
	// membership row in any organization. The lookup is not scoped to a
	// target organization: an admin membership anywhere satisfies the
	// admin check everywhere. This is the authoritative contract of the
	// system; changing the scoping changes authorization behavior.
	HasAdminMembership(ctx context.Context, profileID uuid.UUID) (bool, error)
}

// Policy decides whether a profile may perform a mutating action on an
// organization. It is the single authorization check for all organization
// endpoints; handlers must not re-derive these rules inline.
type Policy struct {
	members MembershipStore
}

// NewPolicy creates the organization authorization policy.
func NewPolicy(members MembershipStore) *Policy {
	return &Policy{members: members}
}

// Authorize evaluates the decision procedure in order; first match wins.
//
//  1. Missing organization: ErrNotFound (never ErrForbidden — the caller must
//     be able to distinguish a bad ID from a denied one).
//  2. No profile: ErrForbidden. The no-session case is a 401 upstream.
//  3. Primary owner: allowed for every action.
//  4. Delete: owner only — an "admin" membership never suffices.
//  5. Update / add-member / remove-member: allowed with an admin membership
//     (see MembershipStore for the scoping contract).
func (p *Policy) Authorize(ctx context.Context, profileID uuid.UUID, org *models.Organization, action Action) error {
	if org == nil {
		return ErrNotFound
	}
	if profileID == uuid.Nil {
		return ErrForbidden
	}
	if org.PrimaryOwnerID == profileID {
		return nil
	}
	if action == ActionDelete {
		return ErrForbidden
	}
	ok, err := p.members.HasAdminMembership(ctx, profileID)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	return ErrForbidden
}
