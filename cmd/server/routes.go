package main

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mvibe/marketplace/internal/config"
	"github.com/mvibe/marketplace/internal/handlers"
	"github.com/mvibe/marketplace/internal/middleware"
	"github.com/mvibe/marketplace/internal/models"
	"github.com/mvibe/marketplace/internal/services"
	"github.com/mvibe/marketplace/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, cfg *config.Config, svc *appServices) {
	db := models.GetDB()

	// Middleware
	r.Use(middleware.RequestID(), logger.GinLogger("/health", "/metrics"), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	go limiter.RunSweeper(svc.stop)
	auth := middleware.NewAuthenticator(services.NewAuthService(db), cfg.Auth.LoginURL)

	// Operations
	healthHandler := handlers.NewHealthHandler(db, svc.redis, svc.taskQueue, svc.hub)
	metricsHandler := handlers.NewMetricsHandler(db, svc.redis, svc.taskQueue, svc.hub)
	r.GET("/health", healthHandler.CheckHealth)
	r.GET("/metrics", metricsHandler.Metrics)

	// Locally stored screenshots are served by the API itself
	if cfg.Storage.Driver == "local" && strings.HasPrefix(cfg.Storage.PublicBaseURL, "/") {
		r.Static(cfg.Storage.PublicBaseURL, cfg.Storage.LocalDir)
	}

	projectHandler := handlers.NewProjectHandler(db, svc.taskQueue, svc.hub)
	reviewHandler := handlers.NewReviewHandler(db, svc.hub)
	uploadHandler := handlers.NewUploadHandler(db, svc.store, svc.hub, cfg.Storage.MaxUploadBytes())
	profileHandler := handlers.NewProfileHandler(db, svc.hub)
	authHandler := handlers.NewAuthHandler(db)
	sseHandler := handlers.NewSSEHandler(svc.hub)

	api := r.Group("/api", limiter.Mutations(), middleware.AuditLog())
	{
		// Public routes; the viewer is resolved when a token is present
		public := api.Group("", auth.Optional())
		{
			public.GET("/projects", projectHandler.List)
			public.GET("/projects/:id", projectHandler.GetByID)
			public.GET("/projects/:id/permissions", projectHandler.Permissions)
			public.GET("/projects/:id/reviews", reviewHandler.List)
			public.GET("/events/catalog", sseHandler.StreamCatalogEvents)
			public.GET("/profile/palette", profileHandler.Palette)
			public.GET("/profiles/:id", profileHandler.GetByID)
		}

		api.POST("/projects/:id/reviews", auth.Required(handlers.MsgSignInToReview), reviewHandler.Submit)

		// Protected routes
		protected := api.Group("", auth.Required("Please sign in to continue."))
		{
			// Auth
			protected.GET("/auth/me", authHandler.GetCurrentUser)
			protected.POST("/auth/logout", authHandler.Logout)

			// Projects
			protected.POST("/projects", projectHandler.Create)
			protected.PUT("/projects/:id", projectHandler.Update)
			protected.DELETE("/projects/:id", projectHandler.Delete)
			protected.POST("/projects/:id/screenshots", uploadHandler.AddScreenshot)
			protected.DELETE("/projects/:id/screenshots/:index", uploadHandler.RemoveScreenshot)
			protected.POST("/uploads", uploadHandler.Upload)

			// Profile
			protected.GET("/profile", profileHandler.Get)
			protected.PUT("/profile/color", profileHandler.UpdateColor)
			protected.GET("/profile/projects", projectHandler.ListMine)
			protected.GET("/profile/activity", profileHandler.Activity)
		}
	}
}
