package main

import (
	"context"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"insight-explorer/internal/clients"
	"insight-explorer/internal/config"
	"insight-explorer/internal/handlers"
	"insight-explorer/internal/logger"
	"insight-explorer/internal/middleware"
	"insight-explorer/internal/models"
	"insight-explorer/internal/services"
	"insight-explorer/internal/workflow"
	"insight-explorer/pkg/kafka"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {
	// Setup panic recovery
	defer func() {
		if r := recover(); r != nil {
			logger.Log.WithFields(map[string]interface{}{
				"panic":       r,
				"stack_trace": logger.GetStackTrace(0),
			}).Fatal("Application panicked")
		}
	}()

	logger.Log.Info("Starting Insight Explorer server")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.LogErrorWithStack(err, map[string]interface{}{
			"operation": "config_load",
		})
		logger.Log.WithError(err).Fatal("Failed to load configuration")
	}
	logger.SetLevel(cfg.LogLevel)
	logger.Log.WithFields(map[string]interface{}{
		"log_level":          cfg.LogLevel,
		"analysis_api":       cfg.AnalysisAPIBaseURL,
		"optimize_free_text": cfg.OptimizeFreeText,
		"confirmation_step":  cfg.ConfirmationStep,
	}).Info("Configuration loaded successfully")

	// Connect to the preference database
	logger.Log.WithField("database_url", maskDatabaseURL(cfg.DatabaseURL)).Info("Connecting to database")
	db, err := openDatabase(cfg.DatabaseURL)
	if err != nil {
		logger.LogErrorWithStack(err, map[string]interface{}{
			"operation":    "database_connect",
			"database_url": maskDatabaseURL(cfg.DatabaseURL),
		})
		logger.Log.WithError(err).Fatal("Failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to get database SQL instance")
	}
	if err := sqlDB.Ping(); err != nil {
		logger.LogErrorWithStack(err, map[string]interface{}{
			"operation": "database_ping",
		})
		logger.Log.WithError(err).Fatal("Failed to ping database")
	}

	if err := models.AutoMigrate(db); err != nil {
		logger.LogErrorWithStack(err, map[string]interface{}{
			"operation": "database_migrate",
		})
		logger.Log.WithError(err).Fatal("Failed to migrate database")
	}
	logger.Log.Info("Database connected and migrated")

	// Initialize Kafka publisher for workflow events
	kafkaService := kafka.NewService(kafka.Config{
		BootstrapServers: cfg.KafkaBootstrapServers,
		Topic:            cfg.KafkaTopicEvents,
	})
	defer func() {
		logger.Log.Info("Closing Kafka service")
		if err := kafkaService.Close(); err != nil {
			logger.Log.WithError(err).Warn("Failed to close Kafka service")
		}
	}()
	logger.Log.WithFields(map[string]interface{}{
		"topic":   cfg.KafkaTopicEvents,
		"enabled": kafkaService.Enabled(),
	}).Info("Kafka service initialized")

	// Initialize workflow and services
	analysisClient := clients.NewAnalysisClient(cfg)
	store := workflow.NewStore(cfg.SessionTTL)
	preferenceService := services.NewPreferenceService(db)
	historyService := services.NewHistoryService(analysisClient, cfg.HistoryCacheTTL)
	controller := workflow.NewController(
		store,
		analysisClient,
		workflow.NewOptimizer(analysisClient, cfg.DefaultTargetCountries, cfg.MaxContextTitleChars),
		workflow.NewOrchestrator(analysisClient),
		preferenceService,
		kafkaService,
		cfg,
	)

	router := setupRouter(cfg, store, kafkaService,
		handlers.NewSessionHandler(controller),
		handlers.NewPreferenceHandler(preferenceService),
		handlers.NewHistoryHandler(historyService),
	)

	// The write timeout must outlast a full optimize + search chain
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 3*cfg.APITimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"port":       cfg.ServerPort,
			"health_url": "http://localhost:" + cfg.ServerPort + "/health",
		}).Info("Starting HTTP server")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.LogErrorWithStack(err, map[string]interface{}{
				"operation": "server_listen",
				"port":      cfg.ServerPort,
			})
			logger.Log.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	stop()
	logger.Log.Info("Shutdown signal received, starting graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Log.Info("Server gracefully stopped")
}

// openDatabase picks postgres for postgres DSNs and sqlite for anything else
func openDatabase(dsn string) (*gorm.DB, error) {
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") || strings.Contains(lower, "host=") {
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}
	return gorm.Open(sqlite.Open(strings.TrimPrefix(dsn, "sqlite://")), &gorm.Config{})
}

// maskDatabaseURL masks sensitive information in database URL for logging
func maskDatabaseURL(dbURL string) string {
	if len(dbURL) > 20 {
		return dbURL[:10] + "***masked***" + dbURL[len(dbURL)-10:]
	}
	return "***masked***"
}

func setupRouter(cfg *config.Config, store *workflow.Store, kafkaService *kafka.Service, sessionHandler *handlers.SessionHandler, preferenceHandler *handlers.PreferenceHandler, historyHandler *handlers.HistoryHandler) *gin.Engine {
	if strings.EqualFold(cfg.LogLevel, "DEBUG") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":          "healthy",
			"service":         "insight-explorer",
			"version":         "1.0.0",
			"active_sessions": store.Count(),
			"events_enabled":  kafkaService.Enabled(),
		})
	})

	api := router.Group("/api")
	api.Use(middleware.RateLimitMiddleware(middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)))
	{
		sessions := api.Group("/sessions")
		{
			sessions.POST("", sessionHandler.CreateSession)
			sessions.GET("/:id", sessionHandler.GetSession)
			sessions.POST("/:id/analyze", sessionHandler.Analyze)
			sessions.POST("/:id/search", sessionHandler.Search)
			sessions.POST("/:id/confirm", sessionHandler.Confirm)
		}

		api.GET("/preferences", preferenceHandler.GetPreferences)
		api.PUT("/preferences", preferenceHandler.UpdatePreferences)

		history := api.Group("/history")
		{
			history.GET("/popular", historyHandler.Popular)
			history.GET("/recent", historyHandler.Recent)
		}
	}

	return router
}
