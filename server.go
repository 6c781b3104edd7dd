package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/atelier-api/config"
	"github.com/kendall-kelly/atelier-api/controllers"
	"github.com/kendall-kelly/atelier-api/logger"
	"github.com/kendall-kelly/atelier-api/middleware"
	"github.com/kendall-kelly/atelier-api/services"
	"gorm.io/gorm"
)

const shutdownTimeout = 15 * time.Second

func runServe() error {
	cfg, err := bootstrap()
	if err != nil {
		return err
	}
	log := logger.Get()

	if cfg.IsProduction() && cfg.Auth0Domain == "" {
		return errors.New("AUTH0_DOMAIN is required in production")
	}

	db := config.GetDB()
	if err := config.Migrate(db); err != nil {
		return err
	}
	log.Info("Database migration completed successfully")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cleanup := wireServices(ctx, cfg, db)
	defer cleanup()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := setupRouter(cfg, middleware.EnsureValidToken(cfg))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("Atelier API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// wireServices installs the process-wide collaborators of the workflow
// services. The returned func releases them.
func wireServices(ctx context.Context, cfg *config.Config, db *gorm.DB) func() {
	log := logger.Get()
	cleanup := func() {}

	var mailer services.Mailer
	if cfg.MailEnabled() {
		mailer = services.NewSMTPMailer(services.MailerConfig{
			Host:      cfg.SMTPHost,
			Port:      cfg.SMTPPort,
			Username:  cfg.SMTPUsername,
			Password:  cfg.SMTPPassword,
			FromEmail: cfg.SMTPFromEmail,
			FromName:  cfg.SMTPFromName,
		})
	} else {
		log.Warn("SMTP_HOST not set, status emails are disabled")
	}
	services.SetDispatcher(services.NewNotificationDispatcher(db, mailer))
	services.SetActivityLogger(services.NewGormActivityLogger(db))

	services.SetEventPublisher(nil)
	if cfg.RedisURL != "" {
		publisher, err := services.NewRedisEventPublisher(ctx, cfg.RedisURL)
		if err != nil {
			log.WithField("error", err.Error()).Warn("Redis unavailable, status events will not be published")
		} else {
			services.SetEventPublisher(publisher)
			cleanup = func() { _ = publisher.Close() }
		}
	}

	if cfg.S3Enabled() {
		store, err := services.NewS3Store(ctx, cfg)
		if err != nil {
			log.WithField("error", err.Error()).Warn("S3 unavailable, falling back to local image storage")
		} else {
			services.SetImageService(services.NewDesignImageService(store))
			return cleanup
		}
	}
	services.SetImageService(services.NewDesignImageService(services.NewLocalStore(cfg.UploadDir, "")))
	return cleanup
}

// setupRouter builds the full application router. authenticate validates
// bearer tokens; tests substitute a fake.
func setupRouter(cfg *config.Config, authenticate gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())
	router.Use(middleware.CORS(cfg))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/database/status", databaseStatus)
	}

	controllers.RegisterRoutes(router, authenticate)
	return router
}

// requestLogger logs one line per request through the structured logger.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Get().WithFields(map[string]interface{}{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		}).Debug("Request handled")
	}
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Atelier API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()
	if db == nil {
		respondDatabaseError(c, "DATABASE_ERROR", "Database is not configured")
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		respondDatabaseError(c, "DATABASE_ERROR", "Failed to get database instance")
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		respondDatabaseError(c, "DATABASE_CONNECTION_ERROR", "Database connection failed")
		return
	}

	tables, err := db.Migrator().GetTables()
	if err != nil {
		respondDatabaseError(c, "DATABASE_QUERY_ERROR", "Failed to query tables")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}

func respondDatabaseError(c *gin.Context, code, message string) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}
