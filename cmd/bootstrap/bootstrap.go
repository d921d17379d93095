package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-doctor-review/config"
	deliveryHttp "go-doctor-review/internal/delivery/http"
	"go-doctor-review/internal/delivery/http/handler"
	"go-doctor-review/internal/delivery/http/middleware"
	"go-doctor-review/internal/infrastructure/cache"
	"go-doctor-review/internal/infrastructure/database"
	"go-doctor-review/internal/repository"
	"go-doctor-review/internal/service"
	"go-doctor-review/internal/usecase"
	"go-doctor-review/pkg/jwt"
	"go-doctor-review/pkg/validator"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App holds all dependencies for the application
type App struct {
	Config       *config.Config
	Log          *logrus.Logger
	DB           *gorm.DB
	RedisClient  *redis.Client
	DoctorLocker *service.DoctorLocker
	Server       *http.Server
}

// New creates a new App instance with all dependencies initialized
func New() (*App, error) {
	app := &App{}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.Config = cfg

	// Setup logger
	log := setupLogger(cfg.App.LogLevel)
	app.Log = log
	log.Info("Configuration loaded successfully")

	// Apply schema migrations before opening the pool
	if cfg.DB.MigrateOnStartup {
		if err := database.RunMigrations(cfg.DB, log); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	// Initialize database
	db, err := database.NewPostgresConnection(cfg.DB, cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db
	log.Info("Database connected successfully")

	// Initialize Redis
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	app.RedisClient = redisClient
	log.Info("Redis connected successfully")

	app.DoctorLocker = service.NewDoctorLocker(log, cfg.Review.LockCleanupInterval, cfg.Review.LockStaleThreshold)

	// Initialize all layers
	app.Server = initializeServer(cfg, log, db, redisClient, app.DoctorLocker)

	return app, nil
}

// setupLogger configures a JSON logrus logger; unknown levels fall back to info
func setupLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}

// initializeServer creates and configures the HTTP server
func initializeServer(cfg *config.Config, log *logrus.Logger, db *gorm.DB, redisClient *redis.Client, locker *service.DoctorLocker) *http.Server {
	// Initialize metrics registry
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	reviewMetrics := service.NewReviewMetrics(reg)

	// Initialize JWT service
	jwtService := jwt.NewJWTService(cfg.JWT)

	// Initialize validator
	customValidator := validator.NewValidator()

	// Initialize repositories
	doctorRepo := repository.NewDoctorRepository()
	patientRepo := repository.NewPatientRepository()
	appointmentRepo := repository.NewAppointmentRepository()
	reviewRepo := repository.NewReviewRepository()
	auditLogRepo := repository.NewAuditLogRepository()
	transactor := repository.NewTransactor(db)

	// Initialize services
	auditService := service.NewAuditService(log, auditLogRepo)
	ratingAggregator := service.NewRatingAggregator(log, doctorRepo, reviewRepo, reviewMetrics)
	ratingCache := service.NewRatingCache(redisClient, cfg.Review.RatingCacheTTL)

	// Initialize usecases
	reviewValidator := usecase.NewReviewValidator(log, doctorRepo, patientRepo, appointmentRepo, reviewRepo)
	reviewUsecase := usecase.NewReviewUsecase(db, log, transactor, doctorRepo, patientRepo, reviewRepo, reviewValidator,
		ratingAggregator, auditService, ratingCache, locker, reviewMetrics, usecase.ReviewSettings{
			DefaultPageSize:    cfg.Review.DefaultPageSize,
			MaxPageSize:        cfg.Review.MaxPageSize,
			RecentReviewsLimit: cfg.Review.RecentReviewsLimit,
		})

	// Initialize handlers
	reviewHandler := handler.NewReviewHandler(reviewUsecase, customValidator)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	corsMiddleware := middleware.NewCORSMiddleware(cfg.App.CORSAllowedOrigin)
	metricsMiddleware := middleware.NewMetricsMiddleware(reg)

	// Initialize router
	router := deliveryHttp.NewRouter(reviewHandler, authMiddleware, corsMiddleware, metricsMiddleware,
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	httpRouter := router.Setup()

	// Create server
	serverAddr := fmt.Sprintf(":%s", cfg.App.Port)
	return &http.Server{
		Addr:              serverAddr,
		Handler:           httpRouter,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// Run starts the HTTP server and handles graceful shutdown
func (app *App) Run() {
	// Start server in goroutine
	go func() {
		app.Log.Infof("Server starting on port %s", app.Config.App.Port)
		app.Log.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	app.waitForShutdown()
}

// waitForShutdown blocks until an interrupt signal is received
func (app *App) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Log.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server gracefully
	if err := app.Server.Shutdown(ctx); err != nil {
		app.Log.Errorf("Server forced to shutdown: %v", err)
	}

	// Close connections
	app.Close()

	app.Log.Info("Server shutdown complete")
}

// Close stops background work and closes all connections (database, redis, etc.)
func (app *App) Close() {
	if app.DoctorLocker != nil {
		app.DoctorLocker.Stop()
	}

	// Close database connection
	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	// Close Redis connection
	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
