package moderation

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
	"github.com/salut-annecy/backend/internal/organizations"
	"github.com/salut-annecy/backend/internal/profiles"
)

type fakePlaces struct {
	places map[uuid.UUID]*models.Place
}

func newFakePlaces() *fakePlaces {
	return &fakePlaces{places: make(map[uuid.UUID]*models.Place)}
}

func (f *fakePlaces) GetByID(_ context.Context, id uuid.UUID) (*models.Place, error) {
	p, ok := f.places[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (f *fakePlaces) ListByStatus(_ context.Context, status models.Status) ([]*models.Place, error) {
	var list []*models.Place
	for _, p := range f.places {
		if p.Status == status {
			cp := *p
			list = append(list, &cp)
		}
	}
	return list, nil
}

func (f *fakePlaces) Approve(_ context.Context, id uuid.UUID) error {
	p, ok := f.places[id]
	if !ok {
		return pgx.ErrNoRows
	}
	p.Status = models.StatusPublished
	return nil
}

func (f *fakePlaces) Reject(_ context.Context, id uuid.UUID, reason string) error {
	p, ok := f.places[id]
	if !ok || p.Status == models.StatusPublished {
		return pgx.ErrNoRows
	}
	p.Status = models.StatusRejected
	p.RejectionReason = &reason
	return nil
}

func (f *fakePlaces) SetOrganization(_ context.Context, id, orgID uuid.UUID) error {
	p, ok := f.places[id]
	if !ok {
		return pgx.ErrNoRows
	}
	p.OrganizationID = &orgID
	return nil
}

type fakeClaims struct {
	claims  map[uuid.UUID]*models.Claim
	reports map[uuid.UUID]*models.Report
}

func newFakeClaims() *fakeClaims {
	return &fakeClaims{claims: make(map[uuid.UUID]*models.Claim), reports: make(map[uuid.UUID]*models.Report)}
}

func (f *fakeClaims) CreateClaim(_ context.Context, cl *models.Claim) (*models.Claim, error) {
	cp := *cl
	cp.ID = uuid.New()
	cp.Status = models.ClaimPending
	f.claims[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeClaims) GetClaim(_ context.Context, id uuid.UUID) (*models.Claim, error) {
	cl, ok := f.claims[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *cl
	return &cp, nil
}

func (f *fakeClaims) ListClaims(_ context.Context, status string) ([]*models.Claim, error) {
	var list []*models.Claim
	for _, cl := range f.claims {
		if status == "" || cl.Status == status {
			cp := *cl
			list = append(list, &cp)
		}
	}
	return list, nil
}

func (f *fakeClaims) ResolveClaim(_ context.Context, id uuid.UUID, status string) (*models.Claim, error) {
	cl, ok := f.claims[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cl.Status = status
	now := time.Now()
	cl.ResolvedAt = &now
	cp := *cl
	return &cp, nil
}

func (f *fakeClaims) CreateReport(_ context.Context, rep *models.Report) (*models.Report, error) {
	cp := *rep
	cp.ID = uuid.New()
	cp.Status = models.ReportOpen
	f.reports[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeClaims) ListReports(_ context.Context, status string) ([]*models.Report, error) {
	var list []*models.Report
	for _, rep := range f.reports {
		if status == "" || rep.Status == status {
			cp := *rep
			list = append(list, &cp)
		}
	}
	return list, nil
}

func (f *fakeClaims) ResolveReport(_ context.Context, id uuid.UUID) (*models.Report, error) {
	rep, ok := f.reports[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	rep.Status = models.ReportResolved
	now := time.Now()
	rep.ResolvedAt = &now
	cp := *rep
	return &cp, nil
}

type fakeOrgs struct {
	orgs map[uuid.UUID]*models.Organization
}

func (f *fakeOrgs) GetByID(_ context.Context, id uuid.UUID) (*models.Organization, error) {
	org, ok := f.orgs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *org
	return &cp, nil
}

type noAdmins struct{}

func (noAdmins) HasAdminMembership(context.Context, uuid.UUID) (bool, error) { return false, nil }

func newTestRouter(h *Handler, caller uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(profiles.ContextProfileID, caller)
	})
	r.GET("/api/admin/places/pending", h.PendingPlaces)
	r.POST("/api/admin/places/:placeId/approve", h.ApprovePlace)
	r.POST("/api/admin/places/:placeId/reject", h.RejectPlace)
	r.POST("/api/claims", h.CreateClaim)
	r.GET("/api/admin/claims", h.ListClaims)
	r.POST("/api/admin/claims/:id/approve", h.ResolveClaim(true))
	r.POST("/api/admin/claims/:id/reject", h.ResolveClaim(false))
	r.POST("/api/reports", h.CreateReport)
	r.GET("/api/admin/reports", h.ListReports)
	r.POST("/api/admin/reports/:id/resolve", h.ResolveReport)
	return r
}

func do(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestApprovePreservesStaleRejectionReason(t *testing.T) {
	places := newFakePlaces()
	id := uuid.New()
	reason := "photo mismatch"
	places.places[id] = &models.Place{ID: id, Name: "Le Chalet", Status: models.StatusRejected, RejectionReason: &reason}

	h := NewHandler(places, newFakeClaims(), &fakeOrgs{}, organizations.NewPolicy(noAdmins{}), zap.NewNop())
	r := newTestRouter(h, uuid.New())

	w := do(t, r, http.MethodPost, "/api/admin/places/"+id.String()+"/approve", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got models.Place
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, models.StatusPublished, got.Status)
	// Approval flips status only; the old reason stays on the row.
	require.NotNil(t, got.RejectionReason)
	assert.Equal(t, reason, *got.RejectionReason)
}

func TestRejectRequiresReason(t *testing.T) {
	places := newFakePlaces()
	id := uuid.New()
	places.places[id] = &models.Place{ID: id, Status: models.StatusPendingReview}

	h := NewHandler(places, newFakeClaims(), &fakeOrgs{}, organizations.NewPolicy(noAdmins{}), zap.NewNop())
	r := newTestRouter(h, uuid.New())

	w := do(t, r, http.MethodPost, "/api/admin/places/"+id.String()+"/reject", gin.H{"reason": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/admin/places/"+id.String()+"/reject", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, models.StatusPendingReview, places.places[id].Status)
}

func TestRejectStoresReasonVerbatim(t *testing.T) {
	places := newFakePlaces()
	id := uuid.New()
	places.places[id] = &models.Place{ID: id, Status: models.StatusPendingReview}

	h := NewHandler(places, newFakeClaims(), &fakeOrgs{}, organizations.NewPolicy(noAdmins{}), zap.NewNop())
	r := newTestRouter(h, uuid.New())

	reason := "  Duplicate of an existing entry.  "
	w := do(t, r, http.MethodPost, "/api/admin/places/"+id.String()+"/reject", gin.H{"reason": reason})
	require.Equal(t, http.StatusOK, w.Code)

	var got models.Place
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, models.StatusRejected, got.Status)
	require.NotNil(t, got.RejectionReason)
	assert.Equal(t, reason, *got.RejectionReason)
}

func TestRejectPublishedPlaceIsConflict(t *testing.T) {
	places := newFakePlaces()
	id := uuid.New()
	places.places[id] = &models.Place{ID: id, Name: "Le Chalet", Status: models.StatusPublished}

	h := NewHandler(places, newFakeClaims(), &fakeOrgs{}, organizations.NewPolicy(noAdmins{}), zap.NewNop())
	r := newTestRouter(h, uuid.New())

	w := do(t, r, http.MethodPost, "/api/admin/places/"+id.String()+"/reject", gin.H{"reason": "late report"})
	assert.Equal(t, http.StatusConflict, w.Code)
	// Published has no outgoing transition; the row is untouched.
	assert.Equal(t, models.StatusPublished, places.places[id].Status)
	assert.Nil(t, places.places[id].RejectionReason)
}

func TestRejectedPlaceCanBeRejectedAgain(t *testing.T) {
	places := newFakePlaces()
	id := uuid.New()
	old := "blurry photos"
	places.places[id] = &models.Place{ID: id, Status: models.StatusRejected, RejectionReason: &old}

	h := NewHandler(places, newFakeClaims(), &fakeOrgs{}, organizations.NewPolicy(noAdmins{}), zap.NewNop())
	r := newTestRouter(h, uuid.New())

	w := do(t, r, http.MethodPost, "/api/admin/places/"+id.String()+"/reject", gin.H{"reason": "still blurry"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, places.places[id].RejectionReason)
	assert.Equal(t, "still blurry", *places.places[id].RejectionReason)
}

func TestApproveMissingPlaceIsNotFound(t *testing.T) {
	h := NewHandler(newFakePlaces(), newFakeClaims(), &fakeOrgs{}, organizations.NewPolicy(noAdmins{}), zap.NewNop())
	r := newTestRouter(h, uuid.New())

	w := do(t, r, http.MethodPost, "/api/admin/places/"+uuid.NewString()+"/approve", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestApprovedClaimTransfersPlace(t *testing.T) {
	owner := uuid.New()
	orgID := uuid.New()
	placeID := uuid.New()

	places := newFakePlaces()
	places.places[placeID] = &models.Place{ID: placeID, Status: models.StatusPublished}
	orgs := &fakeOrgs{orgs: map[uuid.UUID]*models.Organization{
		orgID: {ID: orgID, Name: "Pâtisserie du Lac", PrimaryOwnerID: owner},
	}}
	claims := newFakeClaims()

	h := NewHandler(places, claims, orgs, organizations.NewPolicy(noAdmins{}), zap.NewNop())
	r := newTestRouter(h, owner)

	w := do(t, r, http.MethodPost, "/api/claims", gin.H{"place_id": placeID, "organization_id": orgID})
	require.Equal(t, http.StatusOK, w.Code)
	var cl models.Claim
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cl))
	assert.Equal(t, models.ClaimPending, cl.Status)

	w = do(t, r, http.MethodPost, "/api/admin/claims/"+cl.ID.String()+"/approve", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resolved models.Claim
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resolved))
	assert.Equal(t, models.ClaimApproved, resolved.Status)

	require.NotNil(t, places.places[placeID].OrganizationID)
	assert.Equal(t, orgID, *places.places[placeID].OrganizationID)

	// A resolved claim cannot be resolved again.
	w = do(t, r, http.MethodPost, "/api/admin/claims/"+cl.ID.String()+"/reject", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestClaimRequiresOrganizationAuthority(t *testing.T) {
	owner := uuid.New()
	stranger := uuid.New()
	orgID := uuid.New()
	placeID := uuid.New()

	places := newFakePlaces()
	places.places[placeID] = &models.Place{ID: placeID, Status: models.StatusPublished}
	orgs := &fakeOrgs{orgs: map[uuid.UUID]*models.Organization{
		orgID: {ID: orgID, PrimaryOwnerID: owner},
	}}

	h := NewHandler(places, newFakeClaims(), orgs, organizations.NewPolicy(noAdmins{}), zap.NewNop())
	r := newTestRouter(h, stranger)

	w := do(t, r, http.MethodPost, "/api/claims", gin.H{"place_id": placeID, "organization_id": orgID})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestReportLifecycle(t *testing.T) {
	reporter := uuid.New()
	h := NewHandler(newFakePlaces(), newFakeClaims(), &fakeOrgs{}, organizations.NewPolicy(noAdmins{}), zap.NewNop())
	r := newTestRouter(h, reporter)

	w := do(t, r, http.MethodPost, "/api/reports", gin.H{
		"target_type": "reply",
		"target_id":   uuid.New(),
		"reason":      "spam",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var rep models.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rep))
	assert.Equal(t, models.ReportOpen, rep.Status)
	assert.Equal(t, reporter, rep.ReporterID)

	w = do(t, r, http.MethodPost, "/api/reports", gin.H{
		"target_type": "newsletter",
		"target_id":   uuid.New(),
		"reason":      "spam",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/admin/reports/"+rep.ID.String()+"/resolve", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resolved models.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resolved))
	assert.Equal(t, models.ReportResolved, resolved.Status)
	assert.NotNil(t, resolved.ResolvedAt)
}
