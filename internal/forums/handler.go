package forums

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/salut-annecy/backend/internal/middleware"
	"github.com/salut-annecy/backend/internal/models"
	"github.com/salut-annecy/backend/internal/profiles"
	"github.com/salut-annecy/backend/pkg/response"
)

// Handler handles forum HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a forums handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// ThreadRequest is the body for POST /api/forums/threads.
type ThreadRequest struct {
	Title    string `json:"title" binding:"required"`
	Body     string `json:"body" binding:"required"`
	Category string `json:"category"`
}

// ReplyRequest is the body for POST /api/forums/threads/:id/replies.
type ReplyRequest struct {
	Content string `json:"content" binding:"required"`
}

// GroupRequest is the body for POST /api/groups.
type GroupRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func isStaff(c *gin.Context) bool {
	role, _ := c.MustGet(middleware.ContextUserRole).(string)
	return models.Role(role).IsStaff()
}

// ListThreads handles GET /api/forums/threads (optional ?category=).
func (h *Handler) ListThreads(c *gin.Context) {
	list, err := h.repo.ListThreads(c.Request.Context(), c.Query("category"))
	if err != nil {
		h.logger.Error("list threads", zap.Error(err))
		response.Internal(c, "failed to list threads")
		return
	}
	if list == nil {
		list = []*models.ForumThread{}
	}
	response.OK(c, list)
}

// GetThread handles GET /api/forums/threads/:id, returning the thread and its
// replies.
func (h *Handler) GetThread(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid thread id")
		return
	}
	t, err := h.repo.GetThread(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "thread not found")
			return
		}
		h.logger.Error("load thread", zap.Error(err))
		response.Internal(c, "failed to load thread")
		return
	}
	replies, err := h.repo.ListReplies(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("list replies", zap.Error(err))
		response.Internal(c, "failed to load thread")
		return
	}
	if replies == nil {
		replies = []*models.ForumReply{}
	}
	response.OK(c, gin.H{"thread": t, "replies": replies})
}

// CreateThread handles POST /api/forums/threads.
func (h *Handler) CreateThread(c *gin.Context) {
	profileID := c.MustGet(profiles.ContextProfileID).(uuid.UUID)

	var req ThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	t, err := h.repo.CreateThread(c.Request.Context(), req.Title, req.Body, req.Category, profileID)
	if err != nil {
		h.logger.Error("create thread", zap.Error(err))
		response.Internal(c, "failed to create thread")
		return
	}
	response.OK(c, t)
}

// DeleteThread handles DELETE /api/forums/threads/:id (author or staff).
func (h *Handler) DeleteThread(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid thread id")
		return
	}
	t, err := h.repo.GetThread(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "thread not found")
			return
		}
		h.logger.Error("load thread", zap.Error(err))
		response.Internal(c, "failed to load thread")
		return
	}
	profileID := c.MustGet(profiles.ContextProfileID).(uuid.UUID)
	if t.CreatedBy != profileID && !isStaff(c) {
		response.Forbidden(c, "not authorized for this thread")
		return
	}
	if err := h.repo.DeleteThread(c.Request.Context(), id); err != nil {
		h.logger.Error("delete thread", zap.Error(err))
		response.Internal(c, "failed to delete thread")
		return
	}
	response.Success(c)
}

// CreateReply handles POST /api/forums/threads/:id/replies.
func (h *Handler) CreateReply(c *gin.Context) {
	threadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid thread id")
		return
	}
	if _, err := h.repo.GetThread(c.Request.Context(), threadID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "thread not found")
			return
		}
		h.logger.Error("load thread", zap.Error(err))
		response.Internal(c, "failed to load thread")
		return
	}

	var req ReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	profileID := c.MustGet(profiles.ContextProfileID).(uuid.UUID)
	rep, err := h.repo.CreateReply(c.Request.Context(), threadID, profileID, req.Content)
	if err != nil {
		h.logger.Error("create reply", zap.Error(err))
		response.Internal(c, "failed to create reply")
		return
	}
	response.OK(c, rep)
}

// DeleteReply handles DELETE /api/forums/replies/:id (author or staff).
func (h *Handler) DeleteReply(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid reply id")
		return
	}
	rep, err := h.repo.GetReply(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "reply not found")
			return
		}
		h.logger.Error("load reply", zap.Error(err))
		response.Internal(c, "failed to load reply")
		return
	}
	profileID := c.MustGet(profiles.ContextProfileID).(uuid.UUID)
	if rep.CreatedBy != profileID && !isStaff(c) {
		response.Forbidden(c, "not authorized for this reply")
		return
	}
	if err := h.repo.DeleteReply(c.Request.Context(), id); err != nil {
		h.logger.Error("delete reply", zap.Error(err))
		response.Internal(c, "failed to delete reply")
		return
	}
	response.Success(c)
}

// UpvoteReply handles POST /api/forums/replies/:id/upvote. One vote per
// profile; repeating is a no-op and returns the current tally.
func (h *Handler) UpvoteReply(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid reply id")
		return
	}
	if _, err := h.repo.GetReply(c.Request.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "reply not found")
			return
		}
		h.logger.Error("load reply", zap.Error(err))
		response.Internal(c, "failed to load reply")
		return
	}
	profileID := c.MustGet(profiles.ContextProfileID).(uuid.UUID)
	votes, err := h.repo.UpvoteReply(c.Request.Context(), id, profileID)
	if err != nil {
		h.logger.Error("upvote reply", zap.Error(err))
		response.Internal(c, "failed to upvote reply")
		return
	}
	response.OK(c, gin.H{"votes": votes})
}

// ListGroups handles GET /api/groups.
func (h *Handler) ListGroups(c *gin.Context) {
	list, err := h.repo.ListGroups(c.Request.Context())
	if err != nil {
		h.logger.Error("list groups", zap.Error(err))
		response.Internal(c, "failed to list groups")
		return
	}
	if list == nil {
		list = []*models.Group{}
	}
	response.OK(c, list)
}

// CreateGroup handles POST /api/groups.
func (h *Handler) CreateGroup(c *gin.Context) {
	profileID := c.MustGet(profiles.ContextProfileID).(uuid.UUID)

	var req GroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	g, err := h.repo.CreateGroup(c.Request.Context(), req.Name, req.Description, profileID)
	if err != nil {
		h.logger.Error("create group", zap.Error(err))
		response.Internal(c, "failed to create group")
		return
	}
	response.OK(c, g)
}
