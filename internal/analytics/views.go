package analytics

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Recorder counts entity views in Redis: a per-entity counter plus a sorted
// set per kind for popularity ranking. Counting is best-effort; a Redis
// failure never fails the request.
type Recorder struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRecorder creates a view recorder.
func NewRecorder(client *redis.Client, logger *zap.Logger) *Recorder {
	return &Recorder{client: client, logger: logger}
}

func viewKey(kind string, id uuid.UUID) string {
	return fmt.Sprintf("views:%s:%s", kind, id)
}

func popularKey(kind string) string {
	return "popular:" + kind
}

// IncrementView records one view of a published entity.
func (r *Recorder) IncrementView(c *gin.Context, kind string, id uuid.UUID) {
	ctx := c.Request.Context()
	pipe := r.client.Pipeline()
	pipe.Incr(ctx, viewKey(kind, id))
	pipe.ZIncrBy(ctx, popularKey(kind), 1, id.String())
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Warn("view count failed", zap.String("kind", kind), zap.Error(err))
	}
}

// ViewCount returns the stored view count for an entity.
func (r *Recorder) ViewCount(c *gin.Context, kind string, id uuid.UUID) int64 {
	n, err := r.client.Get(c.Request.Context(), viewKey(kind, id)).Int64()
	if err != nil {
		return 0
	}
	return n
}

// TopViewed returns the n most viewed entity IDs of a kind with their scores.
func (r *Recorder) TopViewed(c *gin.Context, kind string, n int64) ([]redis.Z, error) {
	return r.client.ZRevRangeWithScores(c.Request.Context(), popularKey(kind), 0, n-1).Result()
}
