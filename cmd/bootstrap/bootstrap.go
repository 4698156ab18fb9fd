package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-clinic-management/config"
	deliveryHttp "go-clinic-management/internal/delivery/http"
	"go-clinic-management/internal/delivery/http/handler"
	"go-clinic-management/internal/delivery/http/middleware"
	"go-clinic-management/internal/infrastructure/cache"
	"go-clinic-management/internal/infrastructure/database"
	"go-clinic-management/internal/repository"
	"go-clinic-management/internal/service"
	"go-clinic-management/internal/usecase"
	"go-clinic-management/pkg/jwt"
	"go-clinic-management/pkg/monitoring"
	"go-clinic-management/pkg/validator"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	Log         *logrus.Logger
	DB          *gorm.DB
	RedisClient *redis.Client
	Server      *http.Server

	Integrity usecase.IntegrityUsecase
	Users     usecase.UserUsecase
}

// LoadConfig sets up the logger and reads configuration. Commands that do
// not need the full graph (migrations) stop here.
func LoadConfig() (*config.Config, *logrus.Logger, error) {
	log := setupLogger()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.App.Env == "development" {
		log.SetLevel(logrus.DebugLevel)
	}
	log.Info("Configuration loaded successfully")
	return cfg, log, nil
}

// New creates a new App instance with all dependencies initialized
func New() (*App, error) {
	cfg, log, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Log: log}

	// Initialize database
	db, err := database.NewPostgresConnection(cfg.DB, cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db
	log.Info("Database connected successfully")

	// Redis only backs the report cache and live notifications, both of
	// which degrade to no-ops.
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		log.Warnf("Redis unavailable, running without report cache and live notifications: %v", err)
	} else {
		app.RedisClient = redisClient
		log.Info("Redis connected successfully")
	}

	app.initialize()
	return app, nil
}

// setupLogger configures the logrus logger
func setupLogger() *logrus.Logger {
	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)
	return log
}

// initialize wires repositories, services, usecases and the HTTP server
func (app *App) initialize() {
	cfg, db, log := app.Config, app.DB, app.Log

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := monitoring.NewMetricsCollector(registry)

	jwtService := jwt.NewJWTService(cfg.JWT)
	customValidator := validator.NewValidator()

	// Initialize repositories
	userRepo := repository.NewUserRepository()
	patientRepo := repository.NewPatientRepository()
	specialistRepo := repository.NewSpecialistRepository()
	appointmentRepo := repository.NewAppointmentRepository()
	visitRepo := repository.NewVisitRepository()
	labRepo := repository.NewLabRepository()
	billingRepo := repository.NewBillingRepository()
	dailyRepo := repository.NewDailyTransactionRepository()
	notificationRepo := repository.NewNotificationRepository()
	auditLogRepo := repository.NewAuditLogRepository()
	reportRepo := repository.NewReportRepository()

	// Redis-backed collaborators
	broadcaster := service.NewNoopBroadcaster()
	reportCache := service.NewNoopReportCache()
	if app.RedisClient != nil {
		broadcaster = service.NewRedisBroadcaster(app.RedisClient)
		reportCache = service.NewRedisReportCache(app.RedisClient, log, cfg.Report.CacheTTL)
	}

	// Initialize services
	codes := service.NewCodeGenerator()
	auditService := service.NewAuditService(log, auditLogRepo)
	patients := service.NewPatientResolver(log, patientRepo, codes)
	visits := service.NewVisitMaterializer(log, visitRepo, userRepo, specialistRepo, codes, cfg.Workflow.DefaultStaffID)
	composer := service.NewBillingComposer(log, billingRepo, appointmentRepo, labRepo, codes)
	labOrders := service.NewLabOrderService(log, labRepo, composer)
	notifier := service.NewNotificationDispatcher(log, notificationRepo, userRepo, broadcaster)
	dailySync := service.NewDailyTransactionSync(log, billingRepo, specialistRepo, dailyRepo)
	integrity := service.NewIntegrityService(db, log, codes, visits, dailySync, auditService, metrics)

	// Initialize usecases
	appointmentUsecase := usecase.NewAppointmentUsecase(
		db, log, customValidator, cfg.Workflow, metrics,
		appointmentRepo, specialistRepo, visitRepo, billingRepo,
		codes, patients, visits, composer, notifier, dailySync, auditService, reportCache,
	)
	billingUsecase := usecase.NewBillingUsecase(
		db, log, customValidator, metrics,
		appointmentRepo, billingRepo, composer, dailySync, auditService, reportCache,
	)
	labUsecase := usecase.NewLabUsecase(db, log, customValidator, metrics, appointmentRepo, visitRepo, labOrders, notifier, auditService)
	notificationUsecase := usecase.NewNotificationUsecase(db, log, notificationRepo)
	reportUsecase := usecase.NewReportUsecase(db, log, customValidator, reportRepo, reportCache)
	app.Integrity = usecase.NewIntegrityUsecase(log, integrity, reportCache)
	app.Users = usecase.NewUserUsecase(db, log, userRepo, jwtService)
	auditLogUsecase := usecase.NewAuditLogUsecase(db, log, customValidator, auditLogRepo)

	// Initialize handlers
	appointmentHandler := handler.NewAppointmentHandler(appointmentUsecase)
	billingHandler := handler.NewBillingHandler(billingUsecase, appointmentUsecase)
	labHandler := handler.NewLabHandler(labUsecase)
	notificationHandler := handler.NewNotificationHandler(notificationUsecase)
	reportHandler := handler.NewReportHandler(reportUsecase, app.Integrity)
	userHandler := handler.NewUserHandler(app.Users)
	auditLogHandler := handler.NewAuditLogHandler(auditLogUsecase)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	corsMiddleware := middleware.NewCORSMiddleware(cfg.App.CORSOrigin)
	requestMiddleware := middleware.NewRequestMiddleware(log)

	// Initialize router
	router := deliveryHttp.NewRouter(
		appointmentHandler, billingHandler, labHandler, notificationHandler,
		reportHandler, userHandler, auditLogHandler,
		authMiddleware, corsMiddleware, requestMiddleware, metrics,
	)

	app.Server = &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.App.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Run starts the HTTP server and handles graceful shutdown
func (app *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		app.Log.Infof("Server starting on port %s", app.Config.App.Port)
		app.Log.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		app.Close()
		return fmt.Errorf("failed to start server: %w", err)
	case <-quit:
	}

	app.Log.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.Server.Shutdown(ctx); err != nil {
		app.Log.Errorf("Server forced to shutdown: %v", err)
	}

	app.Close()

	app.Log.Info("Server shutdown complete")
	return nil
}

// Close closes all connections (database, redis, etc.)
func (app *App) Close() {
	if app.DB != nil {
		if sqlDB, err := app.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}

	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
