package liveevents

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/salut-annecy/backend/internal/models"
	"github.com/salut-annecy/backend/internal/profiles"
	"github.com/salut-annecy/backend/pkg/response"
)

const defaultTTL = 4 * time.Hour

// Broadcaster pushes a new live event to connected websocket clients.
type Broadcaster interface {
	Broadcast(event string, payload interface{})
}

// Handler handles live-event HTTP endpoints.
type Handler struct {
	repo   *Repository
	hub    Broadcaster
	logger *zap.Logger
}

// NewHandler creates a live-events handler.
func NewHandler(repo *Repository, hub Broadcaster, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, hub: hub, logger: logger}
}

var validLiveTypes = map[string]bool{
	"roadworks": true, "market": true, "lost_pet": true,
	"weather": true, "traffic": true, "other": true,
}

// CreateRequest is the body for POST /api/live-events.
type CreateRequest struct {
	Type      string     `json:"type" binding:"required"`
	Title     string     `json:"title" binding:"required"`
	Location  string     `json:"location"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// List handles GET /api/live-events (unexpired only).
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.ListActive(c.Request.Context(), time.Now())
	if err != nil {
		h.logger.Error("list live events", zap.Error(err))
		response.Internal(c, "failed to list live events")
		return
	}
	if list == nil {
		list = []*models.LiveEvent{}
	}
	response.OK(c, list)
}

// Create handles POST /api/live-events and pushes the new event onto the
// live feed.
func (h *Handler) Create(c *gin.Context) {
	profileID := c.MustGet(profiles.ContextProfileID).(uuid.UUID)

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if !validLiveTypes[req.Type] {
		response.BadRequest(c, "invalid live event type")
		return
	}
	expiresAt := time.Now().Add(defaultTTL)
	if req.ExpiresAt != nil {
		if req.ExpiresAt.Before(time.Now()) {
			response.BadRequest(c, "expires_at must be in the future")
			return
		}
		expiresAt = *req.ExpiresAt
	}

	e, err := h.repo.Create(c.Request.Context(), &models.LiveEvent{
		Type:      req.Type,
		Title:     req.Title,
		Location:  req.Location,
		CreatedBy: profileID,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		h.logger.Error("create live event", zap.Error(err))
		response.Internal(c, "failed to create live event")
		return
	}
	if h.hub != nil {
		h.hub.Broadcast("live_event", e)
	}
	response.OK(c, e)
}
