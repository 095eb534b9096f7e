package analytics

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/salut-annecy/backend/pkg/response"
)

const topN = 10

// Handler serves the admin analytics rollup.
type Handler struct {
	pool     *pgxpool.Pool
	recorder *Recorder
	logger   *zap.Logger
}

// NewHandler creates an analytics handler.
func NewHandler(pool *pgxpool.Pool, recorder *Recorder, logger *zap.Logger) *Handler {
	return &Handler{pool: pool, recorder: recorder, logger: logger}
}

type topEntry struct {
	ID    string  `json:"id"`
	Views float64 `json:"views"`
}

// Overview handles GET /api/admin/analytics: entity counts from Postgres and
// the most viewed entities from Redis.
func (h *Handler) Overview(c *gin.Context) {
	ctx := c.Request.Context()

	counts := map[string]int64{}
	const q = `SELECT
		(SELECT COUNT(*) FROM users),
		(SELECT COUNT(*) FROM profiles),
		(SELECT COUNT(*) FROM organizations),
		(SELECT COUNT(*) FROM places),
		(SELECT COUNT(*) FROM places WHERE status = 'pending_review'),
		(SELECT COUNT(*) FROM events),
		(SELECT COUNT(*) FROM trails),
		(SELECT COUNT(*) FROM listings),
		(SELECT COUNT(*) FROM articles),
		(SELECT COUNT(*) FROM forum_threads),
		(SELECT COUNT(*) FROM orders),
		(SELECT COUNT(*) FROM bookings),
		(SELECT COUNT(*) FROM reports WHERE status = 'open')`
	var users, profileCount, orgs, placeCount, pendingPlaces, eventCount, trailCount,
		listingCount, articleCount, threads, orders, bookings, openReports int64
	err := h.pool.QueryRow(ctx, q).Scan(&users, &profileCount, &orgs, &placeCount, &pendingPlaces,
		&eventCount, &trailCount, &listingCount, &articleCount, &threads, &orders, &bookings, &openReports)
	if err != nil {
		h.logger.Error("analytics counts", zap.Error(err))
		response.Internal(c, "failed to load analytics")
		return
	}
	counts["users"] = users
	counts["profiles"] = profileCount
	counts["organizations"] = orgs
	counts["places"] = placeCount
	counts["places_pending_review"] = pendingPlaces
	counts["events"] = eventCount
	counts["trails"] = trailCount
	counts["listings"] = listingCount
	counts["articles"] = articleCount
	counts["forum_threads"] = threads
	counts["orders"] = orders
	counts["bookings"] = bookings
	counts["reports_open"] = openReports

	top := map[string][]topEntry{}
	if h.recorder != nil {
		for _, kind := range []string{"place", "event", "article"} {
			entries, err := h.recorder.TopViewed(c, kind, topN)
			if err != nil {
				h.logger.Warn("top viewed lookup failed", zap.String("kind", kind), zap.Error(err))
				continue
			}
			list := make([]topEntry, 0, len(entries))
			for _, z := range entries {
				id, _ := z.Member.(string)
				list = append(list, topEntry{ID: id, Views: z.Score})
			}
			top[kind] = list
		}
	}

	response.OK(c, gin.H{"counts": counts, "top_viewed": top})
}
