package organizations

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/salut-annecy/backend/internal/models"
)

type fakeMembershipStore struct {
	adminProfiles map[uuid.UUID]bool
	err           error
}

func (f *fakeMembershipStore) HasAdminMembership(_ context.Context, profileID uuid.UUID) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.adminProfiles[profileID], nil
}

func TestAuthorize(t *testing.T) {
	owner := uuid.New()
	adminElsewhere := uuid.New() // holds an "admin" membership in some other org
	viewer := uuid.New()
	org := &models.Organization{ID: uuid.New(), PrimaryOwnerID: owner}

	store := &fakeMembershipStore{adminProfiles: map[uuid.UUID]bool{adminElsewhere: true}}
	policy := NewPolicy(store)
	ctx := context.Background()

	tests := []struct {
		name    string
		profile uuid.UUID
		org     *models.Organization
		action  Action
		want    error
	}{
		{"missing org is not found, not forbidden", owner, nil, ActionUpdate, ErrNotFound},
		{"missing org on delete", owner, nil, ActionDelete, ErrNotFound},
		{"no profile", uuid.Nil, org, ActionUpdate, ErrForbidden},
		{"owner may update", owner, org, ActionUpdate, nil},
		{"owner may delete", owner, org, ActionDelete, nil},
		{"owner may add member", owner, org, ActionAddMember, nil},
		{"owner may remove member", owner, org, ActionRemoveMember, nil},
		{"admin membership anywhere grants update", adminElsewhere, org, ActionUpdate, nil},
		{"admin membership anywhere grants add member", adminElsewhere, org, ActionAddMember, nil},
		{"admin membership anywhere grants remove member", adminElsewhere, org, ActionRemoveMember, nil},
		{"admin membership never grants delete", adminElsewhere, org, ActionDelete, ErrForbidden},
		{"viewer membership grants nothing", viewer, org, ActionUpdate, ErrForbidden},
		{"stranger denied", uuid.New(), org, ActionRemoveMember, ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := policy.Authorize(ctx, tt.profile, tt.org, tt.action)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestAuthorizeOwnerSkipsMembershipLookup(t *testing.T) {
	// The owner check comes first: a roster lookup failure must not block the
	// primary owner.
	owner := uuid.New()
	org := &models.Organization{ID: uuid.New(), PrimaryOwnerID: owner}
	policy := NewPolicy(&fakeMembershipStore{err: errors.New("roster down")})

	assert.NoError(t, policy.Authorize(context.Background(), owner, org, ActionUpdate))
}

func TestAuthorizeStoreErrorPropagates(t *testing.T) {
	boom := errors.New("roster down")
	org := &models.Organization{ID: uuid.New(), PrimaryOwnerID: uuid.New()}
	policy := NewPolicy(&fakeMembershipStore{err: boom})

	err := policy.Authorize(context.Background(), uuid.New(), org, ActionUpdate)
	assert.ErrorIs(t, err, boom)
}
