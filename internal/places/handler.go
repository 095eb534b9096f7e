package places

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

// Handler handles place HTTP endpoints.
type Handler struct {
	repo   *Repository
	orgs   *organizations.Repository
	policy *organizations.Policy
	views  Views
	logger *zap.Logger
}

// Views records a view of a published entity (nil disables counting).
type Views interface {
	IncrementView(c *gin.Context, kind string, id uuid.UUID)
}

// NewHandler creates a places handler.
func NewHandler(repo *Repository, orgs *organizations.Repository, policy *organizations.Policy, views Views, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, orgs: orgs, policy: policy, views: views, logger: logger}
}

// CreateRequest is the body for POST /api/places.
type CreateRequest struct {
	Name           string     `json:"name" binding:"required"`
	Description    string     `json:"description"`
	Category       string     `json:"category"`
	Address        string     `json:"address"`
	Latitude       float64    `json:"latitude"`
	Longitude      float64    `json:"longitude"`
	OrganizationID *uuid.UUID `json:"organization_id"`
}

// UpdateRequest is the body for PUT /api/places/:id. Absent fields keep
// their stored value.
type UpdateRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	Address     *string  `json:"address"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

// canMutate reports whether the caller may update or delete the entity:
// staff, the creator profile, or the organization policy when the entity is
// linked to an organization.
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

// List handles GET /api/places (published only, optional ?category=).
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.ListPublished(c.Request.Context(), c.Query("category"))
	if err != nil {
		h.logger.Error("list places", zap.Error(err))
		response.Internal(c, "failed to list places")
		return
	}
	if list == nil {
		list = []*models.Place{}
	}
	response.OK(c, list)
}

// Get handles GET /api/places/:id. Views of published places are counted.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid place id")
		return
	}
	p, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "place not found")
			return
		}
		h.logger.Error("load place", zap.Error(err))
		response.Internal(c, "failed to load place")
		return
	}
	if p.Status == models.StatusPublished && h.views != nil {
		h.views.IncrementView(c, "place", p.ID)
	}
	response.OK(c, p)
}

// Create handles POST /api/places. New places start in pending_review.
func (h *Handler) Create(c *gin.Context) {
	profileID := c.MustGet(profiles.ContextProfileID).(uuid.UUID)

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	p := &models.Place{
		Name:           req.Name,
		Description:    req.Description,
		Category:       req.Category,
		Address:        req.Address,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		OrganizationID: req.OrganizationID,
		CreatedBy:      profileID,
	}
	created, err := h.repo.Create(c.Request.Context(), p)
	if err != nil {
		h.logger.Error("create place", zap.Error(err))
		response.Internal(c, "failed to create place")
		return
	}
	response.OK(c, created)
}

// Update handles PUT /api/places/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid place id")
		return
	}
	p, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "place not found")
			return
		}
		h.logger.Error("load place", zap.Error(err))
		response.Internal(c, "failed to load place")
		return
	}
	if !h.canMutate(c, p.CreatedBy, p.OrganizationID) {
		response.Forbidden(c, "not authorized for this place")
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	updated, err := h.repo.Update(c.Request.Context(), id, req.Name, req.Description, req.Category, req.Address, req.Latitude, req.Longitude)
	if err != nil {
		h.logger.Error("update place", zap.Error(err))
		response.Internal(c, "failed to update place")
		return
	}
	response.OK(c, updated)
}

// Delete handles DELETE /api/places/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid place id")
		return
	}
	p, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "place not found")
			return
		}
		h.logger.Error("load place", zap.Error(err))
		response.Internal(c, "failed to load place")
		return
	}
	if !h.canMutate(c, p.CreatedBy, p.OrganizationID) {
		response.Forbidden(c, "not authorized for this place")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		h.logger.Error("delete place", zap.Error(err))
		response.Internal(c, "failed to delete place")
		return
	}
	response.Success(c)
}
