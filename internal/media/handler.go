package media

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/salut-annecy/backend/internal/profiles"
	"github.com/salut-annecy/backend/pkg/response"
	"github.com/salut-annecy/backend/pkg/storage"
)

// Handler issues pre-signed S3 upload URLs for image media.
type Handler struct {
	s3     *storage.S3
	logger *zap.Logger
}

// NewHandler creates a media handler. s3 may be nil when storage is not
// configured; requests then get 503.
func NewHandler(s3 *storage.S3, logger *zap.Logger) *Handler {
	return &Handler{s3: s3, logger: logger}
}

// UploadURLRequest is the body for POST /api/media/upload-url.
type UploadURLRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// UploadURL handles POST /api/media/upload-url: a pre-signed PUT URL for an
// image object keyed under the caller's profile.
func (h *Handler) UploadURL(c *gin.Context) {
	if h.s3 == nil {
		response.ServiceUnavailable(c, "media storage is not configured")
		return
	}
	profileID := c.MustGet(profiles.ContextProfileID).(uuid.UUID)

	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.Size > storage.MaxMediaFileSize {
		response.BadRequest(c, "file too large (5MB max)")
		return
	}
	if !storage.ValidateMediaType(req.ContentType, req.Filename) {
		response.BadRequest(c, "only jpeg, png and webp images are allowed")
		return
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = storage.ContentTypeForFilename(req.Filename)
	}
	key := storage.MediaKey(profileID.String(), req.Filename)
	url, err := h.s3.GeneratePresignedUploadURL(c.Request.Context(), key, contentType)
	if err != nil {
		h.logger.Error("presign upload", zap.Error(err))
		response.Internal(c, "failed to generate upload url")
		return
	}
	response.OK(c, gin.H{
		"upload_url": url,
		"key":        key,
		"public_url": h.s3.PublicObjectURL(key),
		"expires_in": int(h.s3.PresignExpire().Seconds()),
	})
}
