// Package server
//
// @title Makao API
// @version 1.0
// @description Real-estate marketing site and admin dashboard API
// @host localhost:8080
// @BasePath /
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/makao-homes/makao/internal/auth"
	"github.com/makao-homes/makao/internal/config"
	"github.com/makao-homes/makao/internal/content"
	"github.com/makao-homes/makao/internal/currency"
	"github.com/makao-homes/makao/internal/models"
)

// Server represents the HTTP server
type Server struct {
	router      *gin.Engine
	db          *gorm.DB
	config      *config.Config
	logger      zerolog.Logger
	validator   *validator.Validate
	asynqClient *asynq.Client
	provider    auth.SessionProvider
	roles       auth.RoleLookup
	rateSource  currency.Source
	version     string
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger, version string) (*Server, error) {
	// Initialize database with production settings
	db, err := initDatabase(cfg, zlog)
	if err != nil {
		return nil, err
	}

	// Run database migrations
	if err := models.AutoMigrate(db); err != nil {
		return nil, err
	}

	// Load or bootstrap the settings singleton; the JWT secret is
	// generated on first boot and persisted
	settings, err := ensureSettings(db, zlog)
	if err != nil {
		return nil, err
	}
	auth.InitializeJWT(settings.JWTSecret)

	// Load bundled starter content into an empty database
	if err := content.Seed(db, zlog); err != nil {
		return nil, err
	}

	// Initialize validator
	validate := validator.New()

	validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		// Lowercase alphanumeric and hyphens only (URL-safe)
		value := fl.Field().String()
		for _, char := range value {
			if !((char >= 'a' && char <= 'z') ||
				(char >= '0' && char <= '9') ||
				char == '-') {
				return false
			}
		}
		return value != ""
	})

	// Initialize Asynq client for enqueueing tasks
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr: cfg.Redis.Address,
	})

	server := &Server{
		db:          db,
		config:      cfg,
		logger:      zlog,
		validator:   validate,
		asynqClient: asynqClient,
		provider:    auth.NewLocalProvider(db, cfg.Auth.TokenTTL, zlog),
		roles:       auth.NewProfileLookup(db),
		rateSource:  currency.NewDBSource(db),
		version:     version,
	}

	// Setup router
	server.setupRouter()

	return server, nil
}

// initDatabase initializes the database connection with production settings
func initDatabase(cfg *config.Config, zlog zerolog.Logger) (*gorm.DB, error) {
	const (
		maxOpenConns    = 8
		maxIdleConns    = 4
		connMaxLifetime = 300 // seconds
		busyTimeout     = 5000
		cacheSize       = 10000
	)

	db, err := gorm.Open(sqlite.Open(cfg.Database.URL), &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				LogLevel:                  logger.Error,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             200 * time.Millisecond,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(connMaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// WAL mode must be set first for optimal concurrency
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout),
		fmt.Sprintf("PRAGMA cache_size=-%d", cacheSize),
		"PRAGMA foreign_keys=1",
		"PRAGMA temp_store=2",
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			zlog.Warn().Str("pragma", pragma).Err(err).Msg("Failed to apply pragma")
		}
	}

	return db, nil
}

// ensureSettings loads the settings singleton, creating it with a fresh
// JWT secret on first boot
func ensureSettings(db *gorm.DB, zlog zerolog.Logger) (*models.Settings, error) {
	var settings models.Settings
	err := db.First(&settings).Error
	if err == nil {
		return &settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return nil, fmt.Errorf("failed to generate JWT secret: %w", err)
	}

	settings = models.Settings{
		JWTSecret: hex.EncodeToString(secretBytes),
		SiteName:  "Makao Homes",
		// Refresh exchange rates daily at 06:00 by default
		RatesRefreshSchedule: "0 6 * * *",
	}
	if err := db.Create(&settings).Error; err != nil {
		return nil, fmt.Errorf("failed to create settings: %w", err)
	}

	zlog.Info().Msg("Settings bootstrapped with generated JWT secret")
	return &settings, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	// CORS middleware
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint (no auth required)
	s.router.GET("/health", s.healthCheck)

	api := s.router.Group("/api")

	// Public auth endpoints
	api.POST("/auth/signup", s.signUp)
	api.POST("/auth/login", s.login)
	api.POST("/auth/logout", s.logout)

	// Public site content
	api.GET("/properties", s.listProperties)
	api.GET("/properties/:id", s.getProperty)
	api.GET("/blog", s.listBlogPosts)
	api.GET("/blog/:slug", s.getBlogPost)
	api.GET("/reviews", s.listReviews)
	api.POST("/reviews", s.createReview)
	api.GET("/guides", s.listGuides)
	api.GET("/guides/:slug", s.getGuide)
	api.POST("/inquiries", s.createInquiry)

	// Currency selection and rates
	api.GET("/currency", s.getCurrency)
	api.PUT("/currency", s.setCurrency)
	api.GET("/rates", s.listRates)

	// Authenticated routes (any signed-in user)
	authed := api.Group("")
	authed.Use(s.AuthGuard(false))
	{
		authed.GET("/auth/me", s.getCurrentUser)
	}

	// Admin dashboard routes (active admin profile required)
	admin := api.Group("/admin")
	admin.Use(s.AuthGuard(true))
	{
		admin.GET("/summary", s.getSummary)

		admin.GET("/properties", s.adminListProperties)
		admin.POST("/properties", s.createProperty)
		admin.PUT("/properties/:id", s.updateProperty)
		admin.DELETE("/properties/:id", s.deleteProperty)

		admin.POST("/blog", s.createBlogPost)
		admin.PUT("/blog/:id", s.updateBlogPost)
		admin.DELETE("/blog/:id", s.deleteBlogPost)

		admin.GET("/reviews", s.adminListReviews)
		admin.POST("/reviews/:id/approve", s.approveReview)
		admin.DELETE("/reviews/:id", s.deleteReview)

		admin.POST("/guides", s.createGuide)
		admin.PUT("/guides/:id", s.updateGuide)
		admin.DELETE("/guides/:id", s.deleteGuide)

		admin.GET("/inquiries", s.listInquiries)
		admin.POST("/inquiries/:id/handled", s.markInquiryHandled)

		admin.GET("/settings", s.getSettings)
		admin.PATCH("/settings", s.updateSettings)
		admin.POST("/rates/refresh", s.triggerRateRefresh)
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

// @Router /health [get]
// @Success 200 {object} map[string]interface{}
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "makao-api",
	})
}

// GetDB returns the database connection for use by workers
func (s *Server) GetDB() *gorm.DB {
	return s.db
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := ":" + s.config.Server.Port

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		s.logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")

	// Close Asynq client
	if err := s.asynqClient.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("Error closing Asynq client")
	}

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	// Close database connection to flush WAL writes
	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Error closing database")
		}
	}

	s.logger.Info().Msg("Server shutdown complete")
	return nil
}
