package articles

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

// Handler handles article HTTP endpoints.
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

// NewHandler creates an articles handler.
func NewHandler(repo *Repository, orgs *organizations.Repository, policy *organizations.Policy, views Views, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, orgs: orgs, policy: policy, views: views, logger: logger}
}

// CreateRequest is the body for POST /api/articles.
type CreateRequest struct {
	Title          string     `json:"title" binding:"required"`
	Excerpt        string     `json:"excerpt"`
	Body           string     `json:"body" binding:"required"`
	CoverImageURL  string     `json:"cover_image_url"`
	OrganizationID *uuid.UUID `json:"organization_id"`
}

// UpdateRequest is the body for PUT /api/articles/:id.
type UpdateRequest struct {
	Title         *string `json:"title"`
	Excerpt       *string `json:"excerpt"`
	Body          *string `json:"body"`
	CoverImageURL *string `json:"cover_image_url"`
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

// List handles GET /api/articles (published only).
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.ListPublished(c.Request.Context())
	if err != nil {
		h.logger.Error("list articles", zap.Error(err))
		response.Internal(c, "failed to list articles")
		return
	}
	if list == nil {
		list = []*models.Article{}
	}
	response.OK(c, list)
}

// Get handles GET /api/articles/:id. Views of published articles are counted.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid article id")
		return
	}
	a, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "article not found")
			return
		}
		h.logger.Error("load article", zap.Error(err))
		response.Internal(c, "failed to load article")
		return
	}
	if a.Status == models.StatusPublished && h.views != nil {
		h.views.IncrementView(c, "article", a.ID)
	}
	response.OK(c, a)
}

// Create handles POST /api/articles.
func (h *Handler) Create(c *gin.Context) {
	profileID := c.MustGet(profiles.ContextProfileID).(uuid.UUID)

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	a := &models.Article{
		Title:          req.Title,
		Excerpt:        req.Excerpt,
		Body:           req.Body,
		CoverImageURL:  req.CoverImageURL,
		OrganizationID: req.OrganizationID,
		CreatedBy:      profileID,
	}
	created, err := h.repo.Create(c.Request.Context(), a)
	if err != nil {
		h.logger.Error("create article", zap.Error(err))
		response.Internal(c, "failed to create article")
		return
	}
	response.OK(c, created)
}

// Update handles PUT /api/articles/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid article id")
		return
	}
	a, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "article not found")
			return
		}
		h.logger.Error("load article", zap.Error(err))
		response.Internal(c, "failed to load article")
		return
	}
	if !h.canMutate(c, a.CreatedBy, a.OrganizationID) {
		response.Forbidden(c, "not authorized for this article")
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	updated, err := h.repo.Update(c.Request.Context(), id, req.Title, req.Excerpt, req.Body, req.CoverImageURL)
	if err != nil {
		h.logger.Error("update article", zap.Error(err))
		response.Internal(c, "failed to update article")
		return
	}
	response.OK(c, updated)
}

// Delete handles DELETE /api/articles/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid article id")
		return
	}
	a, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "article not found")
			return
		}
		h.logger.Error("load article", zap.Error(err))
		response.Internal(c, "failed to load article")
		return
	}
	if !h.canMutate(c, a.CreatedBy, a.OrganizationID) {
		response.Forbidden(c, "not authorized for this article")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		h.logger.Error("delete article", zap.Error(err))
		response.Internal(c, "failed to delete article")
		return
	}
	response.Success(c)
}
