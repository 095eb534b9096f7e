package profiles

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/salut-annecy/backend/internal/middleware"
	"github.com/salut-annecy/backend/pkg/response"
)

// ContextProfileID is the gin context key for the caller's profile ID.
const ContextProfileID = "profile_id"

// RequireProfile resolves the caller's profile and sets its ID in context.
// Call after JWT. A session without a linked profile yields 403 — distinct
// from the unauthenticated 401 handled by the JWT middleware.
func RequireProfile(repo *Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
		p, err := repo.GetByUserID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				response.Forbidden(c, "profile required")
			} else {
				response.Internal(c, "failed to load profile")
			}
			c.Abort()
			return
		}
		c.Set(ContextProfileID, p.ID)
		c.Next()
	}
}
