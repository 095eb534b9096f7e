package moderation

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/salut-annecy/backend/internal/models"
	"github.com/salut-annecy/backend/internal/organizations"
	"github.com/salut-annecy/backend/internal/profiles"
	"github.com/salut-annecy/backend/pkg/response"
)

// PlaceStore is the slice of the places repository the moderation console
// needs.
type PlaceStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Place, error)
	ListByStatus(ctx context.Context, status models.Status) ([]*models.Place, error)
	Approve(ctx context.Context, id uuid.UUID) error
	Reject(ctx context.Context, id uuid.UUID, reason string) error
	SetOrganization(ctx context.Context, id, orgID uuid.UUID) error
}

// ClaimStore persists claims and reports.
type ClaimStore interface {
	CreateClaim(ctx context.Context, cl *models.Claim) (*models.Claim, error)
	GetClaim(ctx context.Context, id uuid.UUID) (*models.Claim, error)
	ListClaims(ctx context.Context, status string) ([]*models.Claim, error)
	ResolveClaim(ctx context.Context, id uuid.UUID, status string) (*models.Claim, error)
	CreateReport(ctx context.Context, rep *models.Report) (*models.Report, error)
	ListReports(ctx context.Context, status string) ([]*models.Report, error)
	ResolveReport(ctx context.Context, id uuid.UUID) (*models.Report, error)
}

// OrgStore resolves organizations referenced by claims.
type OrgStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
}

// Handler handles the moderation console and the claim/report endpoints.
type Handler struct {
	places PlaceStore
	store  ClaimStore
	orgs   OrgStore
	policy *organizations.Policy
	logger *zap.Logger
}

// NewHandler creates a moderation handler.
func NewHandler(places PlaceStore, store ClaimStore, orgs OrgStore, policy *organizations.Policy, logger *zap.Logger) *Handler {
	return &Handler{places: places, store: store, orgs: orgs, policy: policy, logger: logger}
}

// RejectRequest is the body for POST /api/admin/places/:placeId/reject.
type RejectRequest struct {
	Reason string `json:"reason"`
}

// ClaimRequest is the body for POST /api/claims.
type ClaimRequest struct {
	PlaceID        uuid.UUID `json:"place_id" binding:"required"`
	OrganizationID uuid.UUID `json:"organization_id" binding:"required"`
	Message        string    `json:"message"`
}

// ReportRequest is the body for POST /api/reports.
type ReportRequest struct {
	TargetType string    `json:"target_type" binding:"required"`
	TargetID   uuid.UUID `json:"target_id" binding:"required"`
	Reason     string    `json:"reason" binding:"required"`
}

var validTargetTypes = map[string]bool{
	"place": true, "event": true, "trail": true, "listing": true,
	"article": true, "thread": true, "reply": true, "profile": true,
}

// PendingPlaces handles GET /api/admin/places/pending.
func (h *Handler) PendingPlaces(c *gin.Context) {
	list, err := h.places.ListByStatus(c.Request.Context(), models.StatusPendingReview)
	if err != nil {
		h.logger.Error("list pending places", zap.Error(err))
		response.Internal(c, "failed to list pending places")
		return
	}
	if list == nil {
		list = []*models.Place{}
	}
	response.OK(c, list)
}

// ApprovePlace handles POST /api/admin/places/:placeId/approve. A previously
// recorded rejection reason stays on the row.
func (h *Handler) ApprovePlace(c *gin.Context) {
	id, err := uuid.Parse(c.Param("placeId"))
	if err != nil {
		response.BadRequest(c, "invalid place id")
		return
	}
	if err := h.places.Approve(c.Request.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "place not found")
			return
		}
		h.logger.Error("approve place", zap.Error(err))
		response.Internal(c, "failed to approve place")
		return
	}
	p, err := h.places.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("load place", zap.Error(err))
		response.Internal(c, "failed to approve place")
		return
	}
	response.OK(c, p)
}

// RejectPlace handles POST /api/admin/places/:placeId/reject. The reason is
// mandatory and stored verbatim.
func (h *Handler) RejectPlace(c *gin.Context) {
	id, err := uuid.Parse(c.Param("placeId"))
	if err != nil {
		response.BadRequest(c, "invalid place id")
		return
	}
	// Missing body and missing reason get the same answer.
	var req RejectRequest
	_ = c.ShouldBindJSON(&req)
	if strings.TrimSpace(req.Reason) == "" {
		response.BadRequest(c, "rejection reason is required")
		return
	}
	if err := h.places.Reject(c.Request.Context(), id, req.Reason); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// No row updated: either the place is missing or it is already
			// published, which has no outgoing transition.
			switch _, getErr := h.places.GetByID(c.Request.Context(), id); {
			case getErr == nil:
				response.Conflict(c, "published place cannot be rejected")
			case errors.Is(getErr, pgx.ErrNoRows):
				response.NotFound(c, "place not found")
			default:
				h.logger.Error("load place", zap.Error(getErr))
				response.Internal(c, "failed to reject place")
			}
			return
		}
		h.logger.Error("reject place", zap.Error(err))
		response.Internal(c, "failed to reject place")
		return
	}
	p, err := h.places.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("load place", zap.Error(err))
		response.Internal(c, "failed to reject place")
		return
	}
	response.OK(c, p)
}

// CreateClaim handles POST /api/claims. The caller must pass the organization
// policy for the claiming organization.
func (h *Handler) CreateClaim(c *gin.Context) {
	profileID := c.MustGet(profiles.ContextProfileID).(uuid.UUID)

	var req ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if _, err := h.places.GetByID(c.Request.Context(), req.PlaceID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "place not found")
			return
		}
		h.logger.Error("load place", zap.Error(err))
		response.Internal(c, "failed to create claim")
		return
	}
	org, err := h.orgs.GetByID(c.Request.Context(), req.OrganizationID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		h.logger.Error("load organization", zap.Error(err))
		response.Internal(c, "failed to create claim")
		return
	}
	if errors.Is(err, pgx.ErrNoRows) {
		org = nil
	}
	switch policyErr := h.policy.Authorize(c.Request.Context(), profileID, org, organizations.ActionUpdate); {
	case policyErr == nil:
	case errors.Is(policyErr, organizations.ErrNotFound):
		response.NotFound(c, "organization not found")
		return
	case errors.Is(policyErr, organizations.ErrForbidden):
		response.Forbidden(c, "not authorized for this organization")
		return
	default:
		h.logger.Error("authorize claim", zap.Error(policyErr))
		response.Internal(c, "failed to create claim")
		return
	}

	cl, err := h.store.CreateClaim(c.Request.Context(), &models.Claim{
		PlaceID:        req.PlaceID,
		OrganizationID: req.OrganizationID,
		ProfileID:      profileID,
		Message:        req.Message,
	})
	if err != nil {
		h.logger.Error("create claim", zap.Error(err))
		response.Internal(c, "failed to create claim")
		return
	}
	response.OK(c, cl)
}

// ListClaims handles GET /api/admin/claims (optional ?status=).
func (h *Handler) ListClaims(c *gin.Context) {
	list, err := h.store.ListClaims(c.Request.Context(), c.Query("status"))
	if err != nil {
		h.logger.Error("list claims", zap.Error(err))
		response.Internal(c, "failed to list claims")
		return
	}
	if list == nil {
		list = []*models.Claim{}
	}
	response.OK(c, list)
}

// ResolveClaim handles POST /api/admin/claims/:id/approve|reject. Approving a
// claim transfers the place to the claiming organization.
func (h *Handler) ResolveClaim(approve bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.BadRequest(c, "invalid claim id")
			return
		}
		cl, err := h.store.GetClaim(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				response.NotFound(c, "claim not found")
				return
			}
			h.logger.Error("load claim", zap.Error(err))
			response.Internal(c, "failed to resolve claim")
			return
		}
		if cl.Status != models.ClaimPending {
			response.Conflict(c, "claim already resolved")
			return
		}
		status := models.ClaimRejected
		if approve {
			status = models.ClaimApproved
			if err := h.places.SetOrganization(c.Request.Context(), cl.PlaceID, cl.OrganizationID); err != nil {
				h.logger.Error("transfer place", zap.Error(err))
				response.Internal(c, "failed to resolve claim")
				return
			}
		}
		resolved, err := h.store.ResolveClaim(c.Request.Context(), id, status)
		if err != nil {
			h.logger.Error("resolve claim", zap.Error(err))
			response.Internal(c, "failed to resolve claim")
			return
		}
		response.OK(c, resolved)
	}
}

// CreateReport handles POST /api/reports.
func (h *Handler) CreateReport(c *gin.Context) {
	profileID := c.MustGet(profiles.ContextProfileID).(uuid.UUID)

	var req ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if !validTargetTypes[req.TargetType] {
		response.BadRequest(c, "invalid target type")
		return
	}
	rep, err := h.store.CreateReport(c.Request.Context(), &models.Report{
		TargetType: req.TargetType,
		TargetID:   req.TargetID,
		ReporterID: profileID,
		Reason:     req.Reason,
	})
	if err != nil {
		h.logger.Error("create report", zap.Error(err))
		response.Internal(c, "failed to create report")
		return
	}
	response.OK(c, rep)
}

// ListReports handles GET /api/admin/reports (optional ?status=).
func (h *Handler) ListReports(c *gin.Context) {
	list, err := h.store.ListReports(c.Request.Context(), c.Query("status"))
	if err != nil {
		h.logger.Error("list reports", zap.Error(err))
		response.Internal(c, "failed to list reports")
		return
	}
	if list == nil {
		list = []*models.Report{}
	}
	response.OK(c, list)
}

// ResolveReport handles POST /api/admin/reports/:id/resolve.
func (h *Handler) ResolveReport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid report id")
		return
	}
	rep, err := h.store.ResolveReport(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "report not found")
			return
		}
		h.logger.Error("resolve report", zap.Error(err))
		response.Internal(c, "failed to resolve report")
		return
	}
	response.OK(c, rep)
}
