package trails

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

// Handler handles trail HTTP endpoints.
type Handler struct {
	repo   *Repository
	orgs   *organizations.Repository
	policy *organizations.Policy
	logger *zap.Logger
}

// NewHandler creates a trails handler.
func NewHandler(repo *Repository, orgs *organizations.Repository, policy *organizations.Policy, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, orgs: orgs, policy: policy, logger: logger}
}

var validDifficulties = map[string]bool{"easy": true, "medium": true, "hard": true}

// CreateRequest is the body for POST /api/trails.
type CreateRequest struct {
	Name           string     `json:"name" binding:"required"`
	Description    string     `json:"description"`
	DistanceKm     float64    `json:"distance_km"`
	ElevationGainM int        `json:"elevation_gain_m"`
	Difficulty     string     `json:"difficulty" binding:"required"`
	StartPoint     string     `json:"start_point"`
	OrganizationID *uuid.UUID `json:"organization_id"`
}

// UpdateRequest is the body for PUT /api/trails/:id.
type UpdateRequest struct {
	Name           *string  `json:"name"`
	Description    *string  `json:"description"`
	DistanceKm     *float64 `json:"distance_km"`
	ElevationGainM *int     `json:"elevation_gain_m"`
	Difficulty     *string  `json:"difficulty"`
	StartPoint     *string  `json:"start_point"`
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

// List handles GET /api/trails (published only, optional ?difficulty=).
func (h *Handler) List(c *gin.Context) {
	difficulty := c.Query("difficulty")
	if difficulty != "" && !validDifficulties[difficulty] {
		response.BadRequest(c, "invalid difficulty")
		return
	}
	list, err := h.repo.ListPublished(c.Request.Context(), difficulty)
	if err != nil {
		h.logger.Error("list trails", zap.Error(err))
		response.Internal(c, "failed to list trails")
		return
	}
	if list == nil {
		list = []*models.Trail{}
	}
	response.OK(c, list)
}

// Get handles GET /api/trails/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid trail id")
		return
	}
	t, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "trail not found")
			return
		}
		h.logger.Error("load trail", zap.Error(err))
		response.Internal(c, "failed to load trail")
		return
	}
	response.OK(c, t)
}

// Create handles POST /api/trails.
func (h *Handler) Create(c *gin.Context) {
	profileID := c.MustGet(profiles.ContextProfileID).(uuid.UUID)

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if !validDifficulties[req.Difficulty] {
		response.BadRequest(c, "invalid difficulty")
		return
	}

	t := &models.Trail{
		Name:           req.Name,
		Description:    req.Description,
		DistanceKm:     req.DistanceKm,
		ElevationGainM: req.ElevationGainM,
		Difficulty:     req.Difficulty,
		StartPoint:     req.StartPoint,
		OrganizationID: req.OrganizationID,
		CreatedBy:      profileID,
	}
	created, err := h.repo.Create(c.Request.Context(), t)
	if err != nil {
		h.logger.Error("create trail", zap.Error(err))
		response.Internal(c, "failed to create trail")
		return
	}
	response.OK(c, created)
}

// Update handles PUT /api/trails/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid trail id")
		return
	}
	t, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "trail not found")
			return
		}
		h.logger.Error("load trail", zap.Error(err))
		response.Internal(c, "failed to load trail")
		return
	}
	if !h.canMutate(c, t.CreatedBy, t.OrganizationID) {
		response.Forbidden(c, "not authorized for this trail")
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.Difficulty != nil && !validDifficulties[*req.Difficulty] {
		response.BadRequest(c, "invalid difficulty")
		return
	}
	updated, err := h.repo.Update(c.Request.Context(), id, req.Name, req.Description, req.Difficulty, req.StartPoint, req.DistanceKm, req.ElevationGainM)
	if err != nil {
		h.logger.Error("update trail", zap.Error(err))
		response.Internal(c, "failed to update trail")
		return
	}
	response.OK(c, updated)
}

// Delete handles DELETE /api/trails/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid trail id")
		return
	}
	t, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "trail not found")
			return
		}
		h.logger.Error("load trail", zap.Error(err))
		response.Internal(c, "failed to load trail")
		return
	}
	if !h.canMutate(c, t.CreatedBy, t.OrganizationID) {
		response.Forbidden(c, "not authorized for this trail")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		h.logger.Error("delete trail", zap.Error(err))
		response.Internal(c, "failed to delete trail")
		return
	}
	response.Success(c)
}
