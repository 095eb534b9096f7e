// Package main runs the Salut Annecy directory HTTP server with the live
// websocket feed and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/salut-annecy/backend/config"
	"github.com/salut-annecy/backend/internal/analytics"
	"github.com/salut-annecy/backend/internal/articles"
	"github.com/salut-annecy/backend/internal/auth"
	"github.com/salut-annecy/backend/internal/commerce"
	"github.com/salut-annecy/backend/internal/conversations"
	"github.com/salut-annecy/backend/internal/events"
	"github.com/salut-annecy/backend/internal/forums"
	"github.com/salut-annecy/backend/internal/listings"
	"github.com/salut-annecy/backend/internal/liveevents"
	"github.com/salut-annecy/backend/internal/media"
	"github.com/salut-annecy/backend/internal/middleware"
	"github.com/salut-annecy/backend/internal/moderation"
	"github.com/salut-annecy/backend/internal/organizations"
	"github.com/salut-annecy/backend/internal/places"
	"github.com/salut-annecy/backend/internal/profiles"
	"github.com/salut-annecy/backend/internal/realtime"
	"github.com/salut-annecy/backend/internal/trails"
	"github.com/salut-annecy/backend/pkg/database"
	"github.com/salut-annecy/backend/pkg/redis"
	"github.com/salut-annecy/backend/pkg/response"
	"github.com/salut-annecy/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			MediaBucket:          cfg.AWS.MediaBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	jwtValidate := func(token string) (uuid.UUID, string, string, error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return uuid.Nil, "", "", err
		}
		return claims.UserID, claims.Email, claims.Role, nil
	}

	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)
	viewRecorder := analytics.NewRecorder(rdb.Client, logger)

	// Identity and profiles
	authRepo := auth.NewRepository(pool)
	profileRepo := profiles.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, profileRepo, jwtService, logger)
	profileHandler := profiles.NewHandler(profileRepo, logger)

	// Organizations and the shared authorization policy
	orgRepo := organizations.NewRepository(pool)
	policy := organizations.NewPolicy(orgRepo)
	orgHandler := organizations.NewHandler(orgRepo, policy, profileRepo, logger)

	// Directory resources
	placeRepo := places.NewRepository(pool)
	placeHandler := places.NewHandler(placeRepo, orgRepo, policy, viewRecorder, logger)
	eventRepo := events.NewRepository(pool)
	eventHandler := events.NewHandler(eventRepo, orgRepo, policy, viewRecorder, logger)
	trailRepo := trails.NewRepository(pool)
	trailHandler := trails.NewHandler(trailRepo, orgRepo, policy, logger)
	listingRepo := listings.NewRepository(pool)
	listingHandler := listings.NewHandler(listingRepo, orgRepo, policy, logger)
	articleRepo := articles.NewRepository(pool)
	articleHandler := articles.NewHandler(articleRepo, orgRepo, policy, viewRecorder, logger)

	// Community
	forumRepo := forums.NewRepository(pool)
	forumHandler := forums.NewHandler(forumRepo, logger)
	convRepo := conversations.NewRepository(pool)
	convHandler := conversations.NewHandler(convRepo, profileRepo, logger)

	// Commerce
	commerceRepo := commerce.NewRepository(pool)
	commerceHandler := commerce.NewHandler(commerceRepo, orgRepo, policy, logger)

	// Moderation, claims and reports
	moderationRepo := moderation.NewRepository(pool)
	moderationHandler := moderation.NewHandler(placeRepo, moderationRepo, orgRepo, policy, logger)

	// Live events and analytics
	liveRepo := liveevents.NewRepository(pool)
	liveHandler := liveevents.NewHandler(liveRepo, hub, logger)
	analyticsHandler := analytics.NewHandler(pool, viewRecorder, logger)

	mediaHandler := media.NewHandler(s3Client, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Public directory reads
	router.POST("/api/auth/register", authHandler.Register)
	router.POST("/api/auth/login", authHandler.Login)
	router.GET("/api/profiles/:username", profileHandler.GetByUsername)
	router.GET("/api/organizations/:orgId", orgHandler.Get)
	router.GET("/api/places", placeHandler.List)
	router.GET("/api/places/:id", placeHandler.Get)
	router.GET("/api/events", eventHandler.List)
	router.GET("/api/events/:id", eventHandler.Get)
	router.GET("/api/trails", trailHandler.List)
	router.GET("/api/trails/:id", trailHandler.Get)
	router.GET("/api/listings", listingHandler.List)
	router.GET("/api/listings/:id", listingHandler.Get)
	router.GET("/api/articles", articleHandler.List)
	router.GET("/api/articles/:id", articleHandler.Get)
	router.GET("/api/forums/threads", forumHandler.ListThreads)
	router.GET("/api/forums/threads/:id", forumHandler.GetThread)
	router.GET("/api/groups", forumHandler.ListGroups)
	router.GET("/api/organizations/:orgId/products", commerceHandler.ListProducts)
	router.GET("/api/organizations/:orgId/services", commerceHandler.ListServices)
	router.GET("/api/live-events", liveHandler.List)

	// Session required
	api := router.Group("/api")
	api.Use(middleware.JWT(jwtValidate))
	{
		api.GET("/auth/me", authHandler.Me)
		api.POST("/auth/create-profile", profileHandler.Create)

		// Profile required beyond this point
		authed := api.Group("")
		authed.Use(profiles.RequireProfile(profileRepo))
		{
			authed.PUT("/profiles/me", profileHandler.UpdateMe)

			authed.POST("/organizations", orgHandler.Create)
			authed.GET("/organizations/my", orgHandler.ListMy)
			authed.PUT("/organizations/:orgId", orgHandler.Update)
			authed.DELETE("/organizations/:orgId", orgHandler.Delete)
			authed.GET("/organizations/:orgId/members", orgHandler.ListMembers)
			authed.POST("/organizations/:orgId/members", orgHandler.AddMember)
			authed.DELETE("/organizations/:orgId/members/:memberId", orgHandler.RemoveMember)

			authed.POST("/places", placeHandler.Create)
			authed.PUT("/places/:id", placeHandler.Update)
			authed.DELETE("/places/:id", placeHandler.Delete)
			authed.POST("/events", eventHandler.Create)
			authed.PUT("/events/:id", eventHandler.Update)
			authed.DELETE("/events/:id", eventHandler.Delete)
			authed.POST("/trails", trailHandler.Create)
			authed.PUT("/trails/:id", trailHandler.Update)
			authed.DELETE("/trails/:id", trailHandler.Delete)
			authed.POST("/listings", listingHandler.Create)
			authed.PUT("/listings/:id", listingHandler.Update)
			authed.DELETE("/listings/:id", listingHandler.Delete)
			authed.POST("/articles", articleHandler.Create)
			authed.PUT("/articles/:id", articleHandler.Update)
			authed.DELETE("/articles/:id", articleHandler.Delete)

			authed.POST("/forums/threads", forumHandler.CreateThread)
			authed.DELETE("/forums/threads/:id", forumHandler.DeleteThread)
			authed.POST("/forums/threads/:id/replies", forumHandler.CreateReply)
			authed.DELETE("/forums/replies/:id", forumHandler.DeleteReply)
			authed.POST("/forums/replies/:id/upvote", forumHandler.UpvoteReply)
			authed.POST("/groups", forumHandler.CreateGroup)

			authed.POST("/conversations", convHandler.Start)
			authed.GET("/conversations", convHandler.List)
			authed.GET("/conversations/:id/messages", convHandler.Messages)
			authed.POST("/conversations/:id/messages", convHandler.Send)

			authed.POST("/organizations/:orgId/products", commerceHandler.CreateProduct)
			authed.POST("/organizations/:orgId/services", commerceHandler.CreateService)
			authed.PUT("/products/:id", commerceHandler.UpdateProduct)
			authed.DELETE("/products/:id", commerceHandler.DeleteProduct)
			authed.PUT("/services/:id", commerceHandler.UpdateService)
			authed.DELETE("/services/:id", commerceHandler.DeleteService)
			authed.POST("/orders", commerceHandler.CreateOrder)
			authed.GET("/orders/my", commerceHandler.MyOrders)
			authed.PUT("/orders/:id/status", commerceHandler.UpdateOrderStatus)
			authed.GET("/organizations/:orgId/orders", commerceHandler.OrganizationOrders)
			authed.POST("/bookings", commerceHandler.CreateBooking)
			authed.GET("/bookings/my", commerceHandler.MyBookings)
			authed.PUT("/bookings/:id/status", commerceHandler.UpdateBookingStatus)
			authed.GET("/organizations/:orgId/bookings", commerceHandler.OrganizationBookings)

			authed.POST("/claims", moderationHandler.CreateClaim)
			authed.POST("/reports", moderationHandler.CreateReport)
			authed.POST("/live-events", liveHandler.Create)
			authed.POST("/media/upload-url", mediaHandler.UploadURL)
		}

		// Moderation console (admin or moderator)
		staff := api.Group("/admin")
		staff.Use(middleware.RequireRole("admin", "moderator"))
		{
			staff.GET("/users", authHandler.ListUsers)
			staff.GET("/places/pending", moderationHandler.PendingPlaces)
			staff.POST("/places/:placeId/approve", moderationHandler.ApprovePlace)
			staff.POST("/places/:placeId/reject", moderationHandler.RejectPlace)
			staff.GET("/claims", moderationHandler.ListClaims)
			staff.POST("/claims/:id/approve", moderationHandler.ResolveClaim(true))
			staff.POST("/claims/:id/reject", moderationHandler.ResolveClaim(false))
			staff.GET("/reports", moderationHandler.ListReports)
			staff.POST("/reports/:id/resolve", moderationHandler.ResolveReport)
			staff.GET("/analytics", analyticsHandler.Overview)
		}

		// Admin only
		admin := api.Group("/admin")
		admin.Use(middleware.RequireRole("admin"))
		{
			admin.POST("/users/:userId/role", authHandler.UpdateRole)
		}
	}

	// WebSocket live feed (token in query; no Authorization header required)
	router.GET("/ws/live", realtime.ServeWs(hub, logger, jwtValidate))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
