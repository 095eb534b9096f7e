package organizations

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/salut-annecy/backend/internal/models"
	"github.com/salut-annecy/backend/internal/profiles"
)

// memStore is an in-memory Store for handler tests.
type memStore struct {
	orgs    map[uuid.UUID]*models.Organization
	members map[uuid.UUID]*models.OrganizationMember
}

func newMemStore() *memStore {
	return &memStore{
		orgs:    make(map[uuid.UUID]*models.Organization),
		members: make(map[uuid.UUID]*models.OrganizationMember),
	}
}

func (s *memStore) Create(_ context.Context, name string, siret *string, owner uuid.UUID) (*models.Organization, error) {
	org := &models.Organization{
		ID:               uuid.New(),
		Name:             name,
		PrimaryOwnerID:   owner,
		SubscriptionTier: "free",
		Siret:            siret,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
	s.orgs[org.ID] = org
	return org, nil
}

func (s *memStore) GetByID(_ context.Context, id uuid.UUID) (*models.Organization, error) {
	org, ok := s.orgs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return org, nil
}

func (s *memStore) Update(_ context.Context, id uuid.UUID, name, siret *string) (*models.Organization, error) {
	org, ok := s.orgs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if name != nil {
		org.Name = *name
	}
	if siret != nil {
		org.Siret = siret
	}
	org.UpdatedAt = time.Now()
	return org, nil
}

func (s *memStore) Delete(_ context.Context, id uuid.UUID) error {
	delete(s.orgs, id)
	return nil
}

func (s *memStore) ListOwnedBy(_ context.Context, profileID uuid.UUID) ([]*models.Organization, error) {
	var out []*models.Organization
	for _, o := range s.orgs {
		if o.PrimaryOwnerID == profileID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *memStore) ListMemberOf(_ context.Context, profileID uuid.UUID) ([]*models.MemberOrganization, error) {
	var out []*models.MemberOrganization
	for _, m := range s.members {
		if m.ProfileID == profileID {
			if org, ok := s.orgs[m.OrganizationID]; ok {
				out = append(out, &models.MemberOrganization{Organization: *org, MemberRole: m.Role})
			}
		}
	}
	return out, nil
}

func (s *memStore) AddMember(_ context.Context, orgID, profileID uuid.UUID, role string, invitedBy uuid.UUID) (*models.OrganizationMember, error) {
	for _, m := range s.members {
		if m.OrganizationID == orgID && m.ProfileID == profileID {
			m.Role = role
			now := time.Now()
			m.AcceptedAt = &now
			return m, nil
		}
	}
	now := time.Now()
	m := &models.OrganizationMember{
		ID:             uuid.New(),
		OrganizationID: orgID,
		ProfileID:      profileID,
		Role:           role,
		InvitedBy:      &invitedBy,
		AcceptedAt:     &now,
		CreatedAt:      now,
	}
	s.members[m.ID] = m
	return m, nil
}

func (s *memStore) RemoveMember(_ context.Context, orgID, memberID uuid.UUID) error {
	m, ok := s.members[memberID]
	if !ok || m.OrganizationID != orgID {
		return pgx.ErrNoRows
	}
	delete(s.members, memberID)
	return nil
}

func (s *memStore) ListMembers(_ context.Context, orgID uuid.UUID) ([]*models.OrganizationMember, error) {
	var out []*models.OrganizationMember
	for _, m := range s.members {
		if m.OrganizationID == orgID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memStore) IsMember(_ context.Context, orgID, profileID uuid.UUID) (bool, error) {
	for _, m := range s.members {
		if m.OrganizationID == orgID && m.ProfileID == profileID {
			return true, nil
		}
	}
	return false, nil
}

// HasAdminMembership mirrors the repository contract: no organization scope.
func (s *memStore) HasAdminMembership(_ context.Context, profileID uuid.UUID) (bool, error) {
	for _, m := range s.members {
		if m.ProfileID == profileID && m.Role == models.MemberRoleAdmin {
			return true, nil
		}
	}
	return false, nil
}

type memProfiles struct {
	byID map[uuid.UUID]*models.Profile
}

func (s *memProfiles) GetByID(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	p, ok := s.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return p, nil
}

func newTestRouter(h *Handler, caller uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(profiles.ContextProfileID, caller)
		c.Next()
	})
	r.GET("/api/organizations/my", h.ListMy)
	r.POST("/api/organizations", h.Create)
	r.GET("/api/organizations/:orgId", h.Get)
	r.PUT("/api/organizations/:orgId", h.Update)
	r.DELETE("/api/organizations/:orgId", h.Delete)
	r.GET("/api/organizations/:orgId/members", h.ListMembers)
	r.POST("/api/organizations/:orgId/members", h.AddMember)
	r.DELETE("/api/organizations/:orgId/members/:memberId", h.RemoveMember)
	return r
}

func do(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func newHandler(store *memStore, profileStore *memProfiles) *Handler {
	return NewHandler(store, NewPolicy(store), profileStore, zap.NewNop())
}

func TestCreateOrganizationForcesFreeTier(t *testing.T) {
	store := newMemStore()
	p1 := uuid.New()
	h := newHandler(store, &memProfiles{})
	r := newTestRouter(h, p1)

	w := do(r, http.MethodPost, "/api/organizations", gin.H{
		"name":              "Test Co",
		"subscription_tier": "enterprise",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var org models.Organization
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &org))
	assert.Equal(t, p1, org.PrimaryOwnerID)
	assert.Equal(t, "free", org.SubscriptionTier)
}

func TestCreateOrganizationRequiresName(t *testing.T) {
	h := newHandler(newMemStore(), &memProfiles{})
	r := newTestRouter(h, uuid.New())

	w := do(r, http.MethodPost, "/api/organizations", gin.H{"siret": "123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteOrganizationOwnerOnly(t *testing.T) {
	store := newMemStore()
	p1, p2 := uuid.New(), uuid.New()
	org, _ := store.Create(context.Background(), "Test Co", nil, p1)

	// P2 with no membership: denied.
	h := newHandler(store, &memProfiles{})
	w := do(newTestRouter(h, p2), http.MethodDelete, "/api/organizations/"+org.ID.String(), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Even an admin membership on this very organization does not grant delete.
	_, err := store.AddMember(context.Background(), org.ID, p2, models.MemberRoleAdmin, p1)
	require.NoError(t, err)
	w = do(newTestRouter(h, p2), http.MethodDelete, "/api/organizations/"+org.ID.String(), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Owner succeeds; the organization is gone afterwards.
	w = do(newTestRouter(h, p1), http.MethodDelete, "/api/organizations/"+org.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	w = do(newTestRouter(h, p1), http.MethodGet, "/api/organizations/"+org.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminMembershipElsewhereGrantsUpdate(t *testing.T) {
	// P3 holds an "admin" membership on org A only, yet may update org B:
	// the membership lookup is not scoped to the target organization.
	store := newMemStore()
	p1, p2, p3 := uuid.New(), uuid.New(), uuid.New()
	orgA, _ := store.Create(context.Background(), "Org A", nil, p1)
	orgB, _ := store.Create(context.Background(), "Org B", nil, p2)
	_, err := store.AddMember(context.Background(), orgA.ID, p3, models.MemberRoleAdmin, p1)
	require.NoError(t, err)

	h := newHandler(store, &memProfiles{})
	w := do(newTestRouter(h, p3), http.MethodPut, "/api/organizations/"+orgB.ID.String(), gin.H{"name": "Renamed"})
	require.Equal(t, http.StatusOK, w.Code)

	var updated models.Organization
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "Renamed", updated.Name)

	// A viewer membership grants nothing.
	p4 := uuid.New()
	_, err = store.AddMember(context.Background(), orgA.ID, p4, models.MemberRoleViewer, p1)
	require.NoError(t, err)
	w = do(newTestRouter(h, p4), http.MethodPut, "/api/organizations/"+orgB.ID.String(), gin.H{"name": "Nope"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdateIsPartial(t *testing.T) {
	store := newMemStore()
	p1 := uuid.New()
	siret := "81234567800010"
	org, _ := store.Create(context.Background(), "Test Co", &siret, p1)

	h := newHandler(store, &memProfiles{})
	w := do(newTestRouter(h, p1), http.MethodPut, "/api/organizations/"+org.ID.String(), gin.H{"name": "New Name"})
	require.Equal(t, http.StatusOK, w.Code)

	var updated models.Organization
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "New Name", updated.Name)
	require.NotNil(t, updated.Siret)
	assert.Equal(t, siret, *updated.Siret)
	assert.Equal(t, p1, updated.PrimaryOwnerID)
}

func TestUpdateMissingOrganizationIsNotFound(t *testing.T) {
	h := newHandler(newMemStore(), &memProfiles{})
	w := do(newTestRouter(h, uuid.New()), http.MethodPut, "/api/organizations/"+uuid.NewString(), gin.H{"name": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMyListsAreNotDeduplicated(t *testing.T) {
	store := newMemStore()
	p1 := uuid.New()
	org, _ := store.Create(context.Background(), "Test Co", nil, p1)
	// Owner also holds a membership row for their own organization.
	_, err := store.AddMember(context.Background(), org.ID, p1, models.MemberRoleViewer, p1)
	require.NoError(t, err)

	h := newHandler(store, &memProfiles{})
	w := do(newTestRouter(h, p1), http.MethodGet, "/api/organizations/my", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp MyOrganizationsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Owned, 1)
	require.Len(t, resp.Member, 1)
	assert.Equal(t, org.ID, resp.Owned[0].ID)
	assert.Equal(t, org.ID, resp.Member[0].ID)
	assert.Equal(t, models.MemberRoleViewer, resp.Member[0].MemberRole)
}

func TestAddMember(t *testing.T) {
	store := newMemStore()
	p1, p2 := uuid.New(), uuid.New()
	org, _ := store.Create(context.Background(), "Test Co", nil, p1)
	profileStore := &memProfiles{byID: map[uuid.UUID]*models.Profile{
		p2: {ID: p2, Username: "p2"},
	}}
	h := newHandler(store, profileStore)
	r := newTestRouter(h, p1)

	// Unknown role rejected at the boundary.
	w := do(r, http.MethodPost, "/api/organizations/"+org.ID.String()+"/members", gin.H{
		"profile_id": p2, "role": "superuser",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown profile.
	w = do(r, http.MethodPost, "/api/organizations/"+org.ID.String()+"/members", gin.H{
		"profile_id": uuid.New(), "role": models.MemberRoleViewer,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Success: membership is active immediately.
	w = do(r, http.MethodPost, "/api/organizations/"+org.ID.String()+"/members", gin.H{
		"profile_id": p2, "role": models.MemberRoleViewer,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var m models.OrganizationMember
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	assert.Equal(t, p2, m.ProfileID)
	assert.Equal(t, models.MemberRoleViewer, m.Role)
	assert.NotNil(t, m.AcceptedAt)
	require.NotNil(t, m.InvitedBy)
	assert.Equal(t, p1, *m.InvitedBy)
}

func TestRemoveMember(t *testing.T) {
	store := newMemStore()
	p1, p2 := uuid.New(), uuid.New()
	org, _ := store.Create(context.Background(), "Test Co", nil, p1)
	m, _ := store.AddMember(context.Background(), org.ID, p2, models.MemberRoleViewer, p1)

	h := newHandler(store, &memProfiles{})
	r := newTestRouter(h, p1)

	w := do(r, http.MethodDelete, "/api/organizations/"+org.ID.String()+"/members/"+m.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Removing again: membership gone.
	w = do(r, http.MethodDelete, "/api/organizations/"+org.ID.String()+"/members/"+m.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
