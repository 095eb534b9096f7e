package auth

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/salut-annecy/backend/internal/middleware"
	"github.com/salut-annecy/backend/internal/models"
	"github.com/salut-annecy/backend/pkg/response"
	"github.com/salut-annecy/backend/pkg/utils"
)

// RegisterRequest is the body for POST /api/auth/register.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required"`
}

// LoginRequest is the body for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

// UpdateRoleRequest is the body for POST /api/admin/users/:userId/role.
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// ProfileStore resolves the application profile linked to a user, if any.
// Implemented by profiles.Repository.
type ProfileStore interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
}

// Handler handles auth and admin user HTTP endpoints.
type Handler struct {
	repo     *Repository
	profiles ProfileStore
	jwt      *JWTService
	logger   *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(repo *Repository, profiles ProfileStore, jwt *JWTService, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, profiles: profiles, jwt: jwt, logger: logger}
}

// Register handles POST /api/auth/register. New accounts always get the
// "user" role; roles are assigned server-side only.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	if _, err := h.repo.GetByEmail(c.Request.Context(), req.Email); err == nil {
		response.BadRequest(c, "email already registered")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("hash password", zap.Error(err))
		response.Internal(c, "failed to create account")
		return
	}

	user, err := h.repo.Create(c.Request.Context(), req.Email, hash, req.FullName)
	if err != nil {
		h.logger.Error("create user", zap.Error(err))
		response.Internal(c, "failed to create account")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email, string(user.Role))
	if err != nil {
		h.logger.Error("generate token", zap.Error(err))
		response.Internal(c, "failed to generate token")
		return
	}
	response.OK(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil || !utils.CheckPassword(req.Password, user.Password) {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email, string(user.Role))
	if err != nil {
		h.logger.Error("generate token", zap.Error(err))
		response.Internal(c, "failed to generate token")
		return
	}
	response.OK(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// Me handles GET /api/auth/me. Returns the session user and their profile,
// or a null profile when none has been created yet.
func (h *Handler) Me(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	user, err := h.repo.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Unauthorized(c, "unknown session user")
			return
		}
		h.logger.Error("load user", zap.Error(err))
		response.Internal(c, "failed to load user")
		return
	}

	var profile *models.Profile
	p, err := h.profiles.GetByUserID(c.Request.Context(), userID)
	if err == nil {
		profile = p
	} else if !errors.Is(err, pgx.ErrNoRows) {
		h.logger.Error("load profile", zap.Error(err))
		response.Internal(c, "failed to load profile")
		return
	}

	response.OK(c, gin.H{"user": user.ToPublic(), "profile": profile})
}

// ListUsers handles GET /api/admin/users (admin or moderator).
func (h *Handler) ListUsers(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list users", zap.Error(err))
		response.Internal(c, "failed to list users")
		return
	}
	response.OK(c, list)
}

// UpdateRole handles POST /api/admin/users/:userId/role (admin only).
// Rejects roles outside {user, moderator, admin}.
func (h *Handler) UpdateRole(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "role required")
		return
	}
	if !models.ValidRole(req.Role) {
		response.BadRequest(c, "invalid role")
		return
	}

	if err := h.repo.UpdateRole(c.Request.Context(), userID, models.Role(req.Role)); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "user not found")
			return
		}
		h.logger.Error("update role", zap.Error(err))
		response.Internal(c, "failed to update role")
		return
	}
	response.Success(c)
}
