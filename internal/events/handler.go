package events

import (
	"errors"
	"time"

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

// Handler handles event HTTP endpoints.
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

// NewHandler creates an events handler.
func NewHandler(repo *Repository, orgs *organizations.Repository, policy *organizations.Policy, views Views, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, orgs: orgs, policy: policy, views: views, logger: logger}
}

// CreateRequest is the body for POST /api/events.
type CreateRequest struct {
	Title          string     `json:"title" binding:"required"`
	Description    string     `json:"description"`
	Category       string     `json:"category"`
	Venue          string     `json:"venue"`
	StartsAt       time.Time  `json:"starts_at" binding:"required"`
	EndsAt         *time.Time `json:"ends_at"`
	OrganizationID *uuid.UUID `json:"organization_id"`
}

// UpdateRequest is the body for PUT /api/events/:id.
type UpdateRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Category    *string    `json:"category"`
	Venue       *string    `json:"venue"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
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

// List handles GET /api/events (published upcoming, optional ?category=).
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.ListUpcoming(c.Request.Context(), time.Now(), c.Query("category"))
	if err != nil {
		h.logger.Error("list events", zap.Error(err))
		response.Internal(c, "failed to list events")
		return
	}
	if list == nil {
		list = []*models.Event{}
	}
	response.OK(c, list)
}

// Get handles GET /api/events/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	e, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "event not found")
			return
		}
		h.logger.Error("load event", zap.Error(err))
		response.Internal(c, "failed to load event")
		return
	}
	if e.Status == models.StatusPublished && h.views != nil {
		h.views.IncrementView(c, "event", e.ID)
	}
	response.OK(c, e)
}

// Create handles POST /api/events.
func (h *Handler) Create(c *gin.Context) {
	profileID := c.MustGet(profiles.ContextProfileID).(uuid.UUID)

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	e := &models.Event{
		Title:          req.Title,
		Description:    req.Description,
		Category:       req.Category,
		Venue:          req.Venue,
		StartsAt:       req.StartsAt,
		EndsAt:         req.EndsAt,
		OrganizationID: req.OrganizationID,
		CreatedBy:      profileID,
	}
	created, err := h.repo.Create(c.Request.Context(), e)
	if err != nil {
		h.logger.Error("create event", zap.Error(err))
		response.Internal(c, "failed to create event")
		return
	}
	response.OK(c, created)
}

// Update handles PUT /api/events/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	e, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "event not found")
			return
		}
		h.logger.Error("load event", zap.Error(err))
		response.Internal(c, "failed to load event")
		return
	}
	if !h.canMutate(c, e.CreatedBy, e.OrganizationID) {
		response.Forbidden(c, "not authorized for this event")
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	updated, err := h.repo.Update(c.Request.Context(), id, req.Title, req.Description, req.Category, req.Venue, req.StartsAt, req.EndsAt)
	if err != nil {
		h.logger.Error("update event", zap.Error(err))
		response.Internal(c, "failed to update event")
		return
	}
	response.OK(c, updated)
}

// Delete handles DELETE /api/events/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	e, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "event not found")
			return
		}
		h.logger.Error("load event", zap.Error(err))
		response.Internal(c, "failed to load event")
		return
	}
	if !h.canMutate(c, e.CreatedBy, e.OrganizationID) {
		response.Forbidden(c, "not authorized for this event")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		h.logger.Error("delete event", zap.Error(err))
		response.Internal(c, "failed to delete event")
		return
	}
	response.Success(c)
}
