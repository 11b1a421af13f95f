package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"pixeltrack/api/analytics"
	"pixeltrack/api/config"
	"pixeltrack/api/database"
	"pixeltrack/api/enrichment"
	"pixeltrack/api/handlers"
	"pixeltrack/api/logging"
	"pixeltrack/api/middleware"
	"pixeltrack/api/store"
	"pixeltrack/api/tracking"
	"pixeltrack/api/utils"
)

const limiterSweepInterval = time.Minute

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found or error loading .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	// --- PostgreSQL (accounts, pixels, visitors, page views, leads) ---
	dbClient, err := database.NewPostgresDB(cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("Failed to initialize PostgreSQL database", zap.Error(err))
	}
	defer dbClient.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(dbClient.DB); err != nil {
			logger.Fatal("Failed to apply migrations", zap.Error(err))
		}
		logger.Info("Database migrations applied")
	}

	userStore := store.NewUserStore(dbClient.DB)
	pixelStore := store.NewPixelStore(dbClient.DB)
	visitorStore := store.NewVisitorStore(dbClient.DB)
	pageViewStore := store.NewPageViewStore(dbClient.DB)
	leadStore := store.NewLeadStore(dbClient.DB)
	analyticsStore := store.NewAnalyticsStore(dbClient.DB)

	// --- ClickHouse (optional daily rollup cache) ---
	rootCtx, stopRoot := context.WithCancel(context.Background())
	defer stopRoot()

	var rollups handlers.RollupReader
	if cfg.ClickHouse.Enabled() {
		chClient, err := database.NewClickHouseDB(cfg.ClickHouse, logger)
		if err != nil {
			logger.Fatal("Failed to initialize ClickHouse database", zap.Error(err))
		}
		defer chClient.Close()

		rollupStore := store.NewRollupStore(chClient)
		if err := rollupStore.EnsureSchema(rootCtx); err != nil {
			logger.Fatal("Failed to prepare rollup table", zap.Error(err))
		}
		rollups = rollupStore

		roller := analytics.NewRoller(analyticsStore, pixelStore, rollupStore, cfg.Tracking.RollupInterval, logger)
		roller.Start(rootCtx)
		defer roller.Stop()
	} else {
		logger.Info("ClickHouse not configured, daily rollups disabled")
	}

	// --- Tracking core ---
	var geo enrichment.GeoLocator
	if cfg.GeoIP.Enabled {
		geo = enrichment.NewIPAPIClient(cfg.GeoIP.BaseURL, cfg.GeoIP.Timeout)
	}
	enricher := enrichment.NewAdapter(geo, cfg.GeoIP.Timeout, logger)
	resolver := tracking.NewResolver(visitorStore, enricher, logger)
	recorder := tracking.NewRecorder(pageViewStore)
	tracker := tracking.NewTracker(resolver, recorder, logger)
	engine := analytics.NewEngine(analyticsStore, cfg.Tracking.TrafficDefaultDays)

	// --- Handlers ---
	tokens := utils.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authHandlers := handlers.NewAuthHandlers(userStore, tokens, logger)
	trackHandlers := handlers.NewTrackHandlers(tracker, pixelStore, leadStore, logger)
	pixelHandlers := handlers.NewPixelHandlers(pixelStore, visitorStore, leadStore, logger)
	analyticsHandlers := handlers.NewAnalyticsHandlers(engine, pixelStore, rollups, logger)

	limiter := middleware.NewIPRateLimiter(cfg.Tracking.RatePerMinute, cfg.Tracking.RateBurst)
	go limiter.RunSweeper(limiterSweepInterval, rootCtx.Done())

	r := gin.Default()
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		logger.Fatal("Invalid TRUSTED_PROXIES", zap.Error(err))
	}
	r.Use(middleware.CORSMiddleware(cfg.FrontendOrigin, "/api/track", "/api/leads"))

	r.GET("/health", handlers.HealthCheck(dbClient.DB))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		// Beacon endpoints (public, called from customer sites)
		api.POST("/track", middleware.RateLimit(limiter), trackHandlers.Track)
		api.POST("/leads", middleware.RateLimit(limiter), trackHandlers.CaptureLead)

		// Authentication Endpoints (no authentication required)
		api.POST("/signup", authHandlers.Signup)
		api.POST("/login", authHandlers.Login)
		api.POST("/logout", authHandlers.Logout)

		// Protected Routes (require a valid JWT token)
		protected := api.Group("/")
		protected.Use(middleware.AuthRequired(tokens, logger))
		{
			protected.GET("/dashboard/stats", analyticsHandlers.DashboardStats)

			protected.GET("/tracking-pixels", pixelHandlers.List)
			protected.POST("/tracking-pixels", pixelHandlers.Create)
			protected.GET("/tracking-pixels/:id", pixelHandlers.Get)
			protected.PUT("/tracking-pixels/:id", pixelHandlers.Update)
			protected.GET("/visitors/:pixelId", pixelHandlers.ListVisitors)
			protected.GET("/leads/:pixelId", pixelHandlers.ListLeads)

			analyticsGroup := protected.Group("/analytics")
			{
				analyticsGroup.GET("/traffic/:pixelId", analyticsHandlers.Traffic)
				analyticsGroup.GET("/geographic/:pixelId", analyticsHandlers.Geographic)
				analyticsGroup.GET("/daily/:pixelId", analyticsHandlers.Daily)
			}
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("API server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("API server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownDeadline)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}
