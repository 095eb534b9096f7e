package listings

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/salut-annecy/backend/internal/middleware"
	"github.com/salut-annecy/backend/internal/models"
	"github.com/salut-annecy/backend/internal/organizations"
	"github.com/salut-annecy/backend/internal/profiles"
	"github.com/salut-annecy/backend/pkg/response"
)

// Handler handles classified-listing HTTP endpoints.
type Handler struct {
	repo   *Repository
	orgs   *organizations.Repository
	policy *organizations.Policy
	logger *zap.Logger
}

// NewHandler creates a listings handler.
func NewHandler(repo *Repository, orgs *organizations.Repository, policy *organizations.Policy, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, orgs: orgs, policy: policy, logger: logger}
}

var validTypes = map[string]bool{"emploi": true, "immobilier": true, "bonnes_affaires": true}

// CreateRequest is the body for POST /api/listings.
type CreateRequest struct {
	Title          string     `json:"title" binding:"required"`
	Description    string     `json:"description"`
	Type           string     `json:"type" binding:"required"`
	PriceCents     *int       `json:"price_cents"`
	SalaryRange    *string    `json:"salary_range"`
	OrganizationID *uuid.UUID `json:"organization_id"`
}

// UpdateRequest is the body for PUT /api/listings/:id.
type UpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	PriceCents  *int    `json:"price_cents"`
	SalaryRange *string `json:"salary_range"`
}

func (h *Handler) canMutate(c *gin.Context, createdBy uuid.UUID, orgID *uuid.UUID) bool {
	role, _ := c.MustGet(middleware.ContextUserRole).(string)
	if models.Role(role).IsStaff() {
		return true
	}
	profileID := c.MustGet(profiles.ContextProfileID).(uuid.UUID)
	if profileID == createdBy {
		return true
	}
	if orgID == nil {
		return false
	}
	org, err := h.orgs.GetByID(c.Request.Context(), *orgID)
	if err != nil {
		return false
	}
	return h.policy.Authorize(c.Request.Context(), profileID, org, organizations.ActionUpdate) == nil
}

// List handles GET /api/listings (published only, optional ?type=).
func (h *Handler) List(c *gin.Context) {
	listingType := c.Query("type")
	if listingType != "" && !validTypes[listingType] {
		response.BadRequest(c, "invalid listing type")
		return
	}
	list, err := h.repo.ListPublished(c.Request.Context(), listingType)
	if err != nil {
		h.logger.Error("list listings", zap.Error(err))
		response.Internal(c, "failed to list listings")
		return
	}
	if list == nil {
		list = []*models.Listing{}
	}
	response.OK(c, list)
}

// Get handles GET /api/listings/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid listing id")
		return
	}
	l, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "listing not found")
			return
		}
		h.logger.Error("load listing", zap.Error(err))
		response.Internal(c, "failed to load listing")
		return
	}
	response.OK(c, l)
}

// Create handles POST /api/listings.
func (h *Handler) Create(c *gin.Context) {
	profileID := c.MustGet(profiles.ContextProfileID).(uuid.UUID)

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if !validTypes[req.Type] {
		response.BadRequest(c, "invalid listing type")
		return
	}

	l := &models.Listing{
		Title:          req.Title,
		Description:    req.Description,
		Type:           req.Type,
		PriceCents:     req.PriceCents,
		SalaryRange:    req.SalaryRange,
		OrganizationID: req.OrganizationID,
		CreatedBy:      profileID,
	}
	created, err := h.repo.Create(c.Request.Context(), l)
	if err != nil {
		h.logger.Error("create listing", zap.Error(err))
		response.Internal(c, "failed to create listing")
		return
	}
	response.OK(c, created)
}

// Update handles PUT /api/listings/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid listing id")
		return
	}
	l, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "listing not found")
			return
		}
		h.logger.Error("load listing", zap.Error(err))
		response.Internal(c, "failed to load listing")
		return
	}
	if !h.canMutate(c, l.CreatedBy, l.OrganizationID) {
		response.Forbidden(c, "not authorized for this listing")
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	updated, err := h.repo.Update(c.Request.Context(), id, req.Title, req.Description, req.SalaryRange, req.PriceCents)
	if err != nil {
		h.logger.Error("update listing", zap.Error(err))
		response.Internal(c, "failed to update listing")
		return
	}
	response.OK(c, updated)
}

// Delete handles DELETE /api/listings/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid listing id")
		return
	}
	l, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "listing not found")
			return
		}
		h.logger.Error("load listing", zap.Error(err))
		response.Internal(c, "failed to load listing")
		return
	}
	if !h.canMutate(c, l.CreatedBy, l.OrganizationID) {
		response.Forbidden(c, "not authorized for this listing")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		h.logger.Error("delete listing", zap.Error(err))
		response.Internal(c, "failed to delete listing")
		return
	}
	response.Success(c)
}
