// Package main is the entry point for the visionai-api server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/joho/godotenv"

	"github.com/visionaihq/visionai-api/internal/config"
	"github.com/visionaihq/visionai-api/internal/database"
	"github.com/visionaihq/visionai-api/internal/database/migrations"
	"github.com/visionaihq/visionai-api/internal/gateway"
	"github.com/visionaihq/visionai-api/internal/http/handlers"
	"github.com/visionaihq/visionai-api/internal/http/mw"
	"github.com/visionaihq/visionai-api/internal/logging"
	"github.com/visionaihq/visionai-api/internal/ratelimit"
	"github.com/visionaihq/visionai-api/internal/repository"
	"github.com/visionaihq/visionai-api/internal/service"
	"github.com/visionaihq/visionai-api/internal/version"
)

func main() {
	// .env is optional; deployments set the environment directly.
	_ = godotenv.Load()

	// Initialize logger with TTY detection, source paths, and format control
	logger := logging.SetDefault()

	// Log version info first thing
	v := version.Get()
	logger.Info("starting visionai-api",
		"version", v.Version,
		"commit", v.Commit,
		"built", v.Date,
		"go_version", v.GoVersion,
	)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	// Run migrations (with logging for each migration applied)
	if err := database.MigrateWithLogger(db, logger); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Log current schema version
	schemaVersion, err := migrations.GetLatestVersion(db)
	if err != nil {
		logger.Warn("failed to get schema version", "error", err)
	} else if schemaVersion != "" {
		migrationCount, _ := migrations.GetMigrationCount(db)
		logger.Info("database schema ready", "schema_version", schemaVersion, "migrations_applied", migrationCount)
	}

	// Initialize repositories
	repos := repository.NewRepositories(db)

	// Payment gateway
	if !cfg.StripeEnabled() {
		logger.Warn("STRIPE_SECRET_KEY not set - payment endpoints will fail")
	}
	gw := gateway.NewStripeGateway(cfg.StripeSecretKey)

	// Initialize services
	services, err := service.NewServices(cfg, repos, gw, logger)
	if err != nil {
		logger.Error("failed to initialize services", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())

	// Background sweep canceling stale pending payments
	go services.Cleanup.Run(ctx)

	// Brute-force limiter for the credential endpoints, with its own GC sweep
	authLimiter := ratelimit.New(
		cfg.AuthRateLimitWindow,
		cfg.AuthRateLimitMax,
		cfg.AuthRateLimitIdleTTL,
		cfg.AuthRateLimitSweepInterval,
		logger,
	)
	authLimiter.Start(ctx)

	// Router with standard middleware
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link", "X-Request-ID", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(middleware.RequestSize(1 << 20)) // 1MB
	router.Use(httprate.LimitByIP(100, time.Minute))

	// Huma API with OpenAPI docs
	humaConfig := huma.DefaultConfig("VisionAI API", v.Version)
	humaConfig.Info.Description = "AI image generation API with credit-based billing and a community feed."
	humaConfig.Servers = []*huma.Server{
		{URL: cfg.BaseURL, Description: "API Server"},
	}
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		mw.SecurityScheme: {
			Type:        "http",
			Scheme:      "bearer",
			Description: "Session token issued by /api/v1/auth/login.",
		},
	}
	api := humachi.New(router, humaConfig)

	// Config for routes registered on grouped sub-routers. Their docs are
	// covered by the main API; registering doc paths twice would collide.
	groupConfig := huma.DefaultConfig("VisionAI API", v.Version)
	groupConfig.DocsPath = ""
	groupConfig.OpenAPIPath = ""
	groupConfig.SchemasPath = ""

	authHandler := handlers.NewAuthHandler(services.Auth, logger)
	paymentHandler := handlers.NewPaymentHandler(services.Payment, logger)
	imageHandler := handlers.NewImageHandler(services.Image, logger)
	communityHandler := handlers.NewCommunityHandler(services.Community, logger)

	// Public routes
	huma.Get(api, "/api/v1/health", handlers.HealthCheck)
	huma.Get(api, "/api/v1/pricing/plans", handlers.ListPlans)
	huma.Get(api, "/api/v1/community/feed", communityHandler.Feed)

	// Credential endpoints, brute-force limited per client IP
	router.Group(func(r chi.Router) {
		r.Use(mw.AuthRateLimit(authLimiter))

		credAPI := humachi.New(r, groupConfig)
		huma.Post(credAPI, "/api/v1/auth/register", authHandler.Register)
		huma.Post(credAPI, "/api/v1/auth/login", authHandler.Login)
	})

	// Stripe webhook (signature verified by the handler, not user auth)
	if cfg.StripeWebhookSecret != "" {
		webhookHandler := handlers.NewStripeWebhookHandler(cfg, services.Payment, logger)
		router.Post("/api/v1/webhooks/stripe", webhookHandler.HandleWebhook)
		logger.Info("stripe webhook endpoint enabled")
	} else {
		logger.Warn("STRIPE_WEBHOOK_SECRET not set - webhook disabled, payments settle via fallback confirmation only")
	}

	// Protected routes
	router.Group(func(r chi.Router) {
		r.Use(mw.Auth(services.Auth))

		protectedAPI := humachi.New(r, groupConfig)

		huma.Post(protectedAPI, "/api/v1/auth/refresh", authHandler.Refresh)
		huma.Get(protectedAPI, "/api/v1/auth/me", authHandler.GetProfile)
		huma.Put(protectedAPI, "/api/v1/auth/me", authHandler.UpdateProfile)

		huma.Post(protectedAPI, "/api/v1/payments/intent", paymentHandler.CreateIntent)
		huma.Post(protectedAPI, "/api/v1/payments/confirm", paymentHandler.ConfirmPayment)
		huma.Get(protectedAPI, "/api/v1/payments", paymentHandler.History)

		huma.Post(protectedAPI, "/api/v1/images/generate", imageHandler.Generate)
		huma.Get(protectedAPI, "/api/v1/images", imageHandler.Gallery)
		huma.Get(protectedAPI, "/api/v1/images/{id}", imageHandler.GetImage)
		huma.Get(protectedAPI, "/api/v1/images/{id}/download", imageHandler.Download)
		huma.Put(protectedAPI, "/api/v1/images/{id}/share", imageHandler.Share)
		huma.Delete(protectedAPI, "/api/v1/images/{id}", imageHandler.DeleteImage)

		huma.Post(protectedAPI, "/api/v1/community/images/{id}/like", communityHandler.Like)
		huma.Delete(protectedAPI, "/api/v1/community/images/{id}/like", communityHandler.Unlike)
		huma.Get(protectedAPI, "/api/v1/community/images/{id}/comments", communityHandler.ListComments)
		huma.Post(protectedAPI, "/api/v1/community/images/{id}/comments", communityHandler.CreateComment)
		huma.Delete(protectedAPI, "/api/v1/community/comments/{id}", communityHandler.DeleteComment)
		huma.Post(protectedAPI, "/api/v1/community/users/{id}/follow", communityHandler.Follow)
		huma.Delete(protectedAPI, "/api/v1/community/users/{id}/follow", communityHandler.Unfollow)
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
		<-sigChan

		logger.Info("shutting down server")

		cancel()
		authLimiter.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}()

	// Start server
	logger.Info("starting server", "port", cfg.Port, "base_url", cfg.BaseURL)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
