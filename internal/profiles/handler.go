package profiles

import (
	"errors"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/salut-annecy/backend/internal/middleware"
	"github.com/salut-annecy/backend/pkg/response"
)

// Usernames are lowercase alphanumeric plus hyphens/underscores, 3–32 chars.
var usernameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{2,31}$`)

// Handler handles profile HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a profiles handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// CreateProfileRequest is the body for POST /api/auth/create-profile.
type CreateProfileRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

// UpdateProfileRequest is the body for PUT /api/profiles/me. Absent fields
// keep their stored value.
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
	Bio         *string `json:"bio"`
}

// Create handles POST /api/auth/create-profile. Creates the caller's profile
// lazily; a second call returns the existing profile unchanged.
func (h *Handler) Create(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	var req CreateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	if req.Username == "" {
		response.BadRequest(c, "username required")
		return
	}
	if !usernameRegex.MatchString(req.Username) {
		response.BadRequest(c, "username must be 3-32 chars, lowercase letters, numbers, hyphens, underscores")
		return
	}

	if existing, err := h.repo.GetByUserID(c.Request.Context(), userID); err == nil {
		response.OK(c, existing)
		return
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = req.Username
	}

	p, err := h.repo.Create(c.Request.Context(), userID, req.Username, displayName, req.AvatarURL)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") || strings.Contains(err.Error(), "unique") {
			response.Conflict(c, "username already taken")
			return
		}
		h.logger.Error("create profile", zap.Error(err))
		response.Internal(c, "failed to create profile")
		return
	}
	response.OK(c, p)
}

// UpdateMe handles PUT /api/profiles/me (owner only, partial update).
func (h *Handler) UpdateMe(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	p, err := h.repo.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Forbidden(c, "profile required")
			return
		}
		h.logger.Error("load profile", zap.Error(err))
		response.Internal(c, "failed to load profile")
		return
	}

	updated, err := h.repo.Update(c.Request.Context(), p.ID, req.DisplayName, req.AvatarURL, req.Bio)
	if err != nil {
		h.logger.Error("update profile", zap.Error(err))
		response.Internal(c, "failed to update profile")
		return
	}
	response.OK(c, updated)
}

// GetByUsername handles GET /api/profiles/:username (public).
func (h *Handler) GetByUsername(c *gin.Context) {
	username := strings.ToLower(c.Param("username"))
	p, err := h.repo.GetByUsername(c.Request.Context(), username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "profile not found")
			return
		}
		h.logger.Error("load profile", zap.Error(err))
		response.Internal(c, "failed to load profile")
		return
	}
	response.OK(c, p)
}
