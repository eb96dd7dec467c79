// Package server implements the postmat sandbox API: cookie-based sessions,
// the business panel and public package tracking.
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
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/postmat-dev/postmat/internal/auth"
	"github.com/postmat-dev/postmat/internal/config"
	"github.com/postmat-dev/postmat/internal/models"
)

// Server represents the HTTP server
type Server struct {
	router    *gin.Engine
	db        *gorm.DB
	config    *config.Config
	logger    zerolog.Logger
	validator *validator.Validate
	scheduler *cron.Cron
	version   string
	now       func() time.Time
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger, version string) (*Server, error) {
	db, err := initDatabase(cfg, zlog)
	if err != nil {
		return nil, err
	}

	if err := models.AutoMigrate(db); err != nil {
		return nil, err
	}

	// The signing secret survives restarts so issued cookies stay valid
	secret, err := loadOrCreateJWTSecret(db)
	if err != nil {
		return nil, err
	}
	auth.InitializeJWT(secret)

	server := &Server{
		db:        db,
		config:    cfg,
		logger:    zlog,
		validator: validator.New(),
		version:   version,
		now:       time.Now,
	}

	if cfg.ShouldSeedAdmin() {
		if err := server.seedAdmin(cfg.Admin.Email, cfg.Admin.Password); err != nil {
			return nil, err
		}
	}

	server.scheduler, err = server.newSweeper(cfg.Session.SweepSchedule)
	if err != nil {
		return nil, err
	}

	server.setupRouter()

	return server, nil
}

// initDatabase initializes the database connection with production settings
func initDatabase(cfg *config.Config, zlog zerolog.Logger) (*gorm.DB, error) {
	const (
		maxOpenConns    = 8
		maxIdleConns    = 4
		connMaxLifetime = 300  // 5 minutes
		busyTimeout     = 5000 // 5 seconds
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

	// WAL mode must be set first
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout),
		"PRAGMA foreign_keys=1",
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			zlog.Warn().Str("pragma", pragma).Err(err).Msg("Failed to apply pragma")
		}
	}

	return db, nil
}

func loadOrCreateJWTSecret(db *gorm.DB) (string, error) {
	var setting models.Setting
	err := db.First(&setting).Error
	if err == nil {
		return setting.JWTSecret, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("failed to load settings: %w", err)
	}

	// 64 hex characters = 32 bytes of randomness
	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return "", fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	setting.JWTSecret = hex.EncodeToString(secretBytes)

	if err := db.Create(&setting).Error; err != nil {
		return "", fmt.Errorf("failed to save settings: %w", err)
	}
	return setting.JWTSecret, nil
}

// seedAdmin creates the configured admin account, or promotes an existing
// account with that email
func (s *Server) seedAdmin(email, password string) error {
	var user models.User
	err := s.db.Where("email = ?", email).First(&user).Error
	if err == nil {
		if user.IsAdmin {
			return nil
		}
		s.logger.Info().Str("email", email).Msg("Promoting existing user to admin")
		return s.db.Model(&user).Update("is_admin", true).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up admin: %w", err)
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	user = models.User{
		Email:        email,
		PasswordHash: passwordHash,
		Name:         "Administrator",
		IsAdmin:      true,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", email).Msg("Admin user created")
	return nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	// Credentials are cookies, so origins must be listed explicitly
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.HTTP.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	s.router.GET("/health", s.healthCheck)

	// Read through s so a replaced clock is seen by every request
	clock := func() time.Time { return s.now() }

	accounts := s.router.Group("/accounts/user")
	{
		accounts.POST("/register", s.register)
		accounts.POST("/login", s.login)
		accounts.GET("/token-health/", s.tokenHealth)

		authed := accounts.Group("")
		authed.Use(CookieAuthMiddleware(s.db, s.logger, clock))
		authed.POST("/logout", s.logout)
		authed.GET("/me/", s.getCurrentUser)
	}

	s.router.GET("/api/packages/public/track/:id/", s.trackPackage)
	s.router.POST("/api/packages/public/pickup/", s.pickupPackage)

	parcels := s.router.Group("/api/packages/user")
	parcels.Use(CookieAuthMiddleware(s.db, s.logger, clock))
	parcels.GET("/", s.listUserPackages)

	adminPackages := s.router.Group("/api/admin/packages")
	adminPackages.Use(CookieAuthMiddleware(s.db, s.logger, clock), AdminOnlyMiddleware(s.logger))
	adminPackages.POST("/:id/update_status/", s.updatePackageStatus)

	business := s.router.Group("/api/business")
	business.Use(CookieAuthMiddleware(s.db, s.logger, clock))
	{
		business.GET("/request/", s.getBusinessRequest)
		business.POST("/request/", s.submitBusinessRequest)

		admin := business.Group("/admin")
		admin.Use(AdminOnlyMiddleware(s.logger))
		{
			admin.GET("/requests", s.listBusinessRequests)
			admin.POST("/requests/:id/action", s.actOnBusinessRequest)
		}

		panel := business.Group("")
		panel.Use(BusinessOnlyMiddleware(s.logger))
		{
			panel.GET("/dashboard/stats", s.dashboardStats)
			panel.GET("/magazines", s.listMagazines)
			panel.POST("/magazines", s.createMagazine)
			panel.GET("/packages", s.listPackages)
			panel.POST("/packages", s.createPackage)
		}
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

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "postmat-sandbox",
		"version":   s.version,
	})
}

// Handler exposes the router, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close stops the sweeper and closes the database
func (s *Server) Close() error {
	<-s.scheduler.Stop().Done()

	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Start starts the HTTP server and blocks until SIGINT or SIGTERM
func (s *Server) Start() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              s.config.HTTP.ListenAddress,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.scheduler.Start()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("address", srv.Addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")
	case err := <-errChan:
		s.logger.Error().Err(err).Msg("HTTP server error")
		_ = s.Close()
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	// Closing the database flushes WAL writes
	if err := s.Close(); err != nil {
		s.logger.Error().Err(err).Msg("Error closing database")
		return err
	}

	s.logger.Info().Msg("Server shutdown complete")
	return nil
}
