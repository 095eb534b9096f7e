package conversations

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/salut-annecy/backend/internal/models"
	"github.com/salut-annecy/backend/internal/profiles"
	"github.com/salut-annecy/backend/pkg/response"
)

// Handler handles private-messaging HTTP endpoints.
type Handler struct {
	repo     *Repository
	profiles *profiles.Repository
	logger   *zap.Logger
}

// NewHandler creates a conversations handler.
func NewHandler(repo *Repository, profileRepo *profiles.Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, profiles: profileRepo, logger: logger}
}

// StartRequest is the body for POST /api/conversations.
type StartRequest struct {
	ProfileID uuid.UUID `json:"profile_id" binding:"required"`
}

// MessageRequest is the body for POST /api/conversations/:id/messages.
type MessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// Start handles POST /api/conversations: idempotent pair lookup.
func (h *Handler) Start(c *gin.Context) {
	profileID := c.MustGet(profiles.ContextProfileID).(uuid.UUID)

	var req StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.ProfileID == profileID {
		response.BadRequest(c, "cannot start a conversation with yourself")
		return
	}
	if _, err := h.profiles.GetByID(c.Request.Context(), req.ProfileID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "profile not found")
			return
		}
		h.logger.Error("load profile", zap.Error(err))
		response.Internal(c, "failed to start conversation")
		return
	}

	conv, err := h.repo.GetOrCreate(c.Request.Context(), profileID, req.ProfileID)
	if err != nil {
		h.logger.Error("start conversation", zap.Error(err))
		response.Internal(c, "failed to start conversation")
		return
	}
	response.OK(c, conv)
}

// List handles GET /api/conversations (the caller's conversations).
func (h *Handler) List(c *gin.Context) {
	profileID := c.MustGet(profiles.ContextProfileID).(uuid.UUID)
	list, err := h.repo.ListForProfile(c.Request.Context(), profileID)
	if err != nil {
		h.logger.Error("list conversations", zap.Error(err))
		response.Internal(c, "failed to list conversations")
		return
	}
	if list == nil {
		list = []*models.Conversation{}
	}
	response.OK(c, list)
}

// load fetches a conversation and checks the caller is a participant.
func (h *Handler) load(c *gin.Context) (*models.Conversation, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid conversation id")
		return nil, false
	}
	conv, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "conversation not found")
			return nil, false
		}
		h.logger.Error("load conversation", zap.Error(err))
		response.Internal(c, "failed to load conversation")
		return nil, false
	}
	profileID := c.MustGet(profiles.ContextProfileID).(uuid.UUID)
	if conv.ProfileA != profileID && conv.ProfileB != profileID {
		response.Forbidden(c, "not a participant in this conversation")
		return nil, false
	}
	return conv, true
}

// Messages handles GET /api/conversations/:id/messages (participants only).
func (h *Handler) Messages(c *gin.Context) {
	conv, ok := h.load(c)
	if !ok {
		return
	}
	list, err := h.repo.ListMessages(c.Request.Context(), conv.ID)
	if err != nil {
		h.logger.Error("list messages", zap.Error(err))
		response.Internal(c, "failed to list messages")
		return
	}
	if list == nil {
		list = []*models.Message{}
	}
	response.OK(c, list)
}

// Send handles POST /api/conversations/:id/messages.
func (h *Handler) Send(c *gin.Context) {
	conv, ok := h.load(c)
	if !ok {
		return
	}
	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	profileID := c.MustGet(profiles.ContextProfileID).(uuid.UUID)
	m, err := h.repo.AddMessage(c.Request.Context(), conv.ID, profileID, req.Content)
	if err != nil {
		h.logger.Error("send message", zap.Error(err))
		response.Internal(c, "failed to send message")
		return
	}
	response.OK(c, m)
}
