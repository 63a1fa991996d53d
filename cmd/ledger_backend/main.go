package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	portsrepo "github.com/SscSPs/construction_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/construction_ledger/internal/core/ports/services"
	"github.com/SscSPs/construction_ledger/internal/core/services"
	"github.com/SscSPs/construction_ledger/internal/dto"
	"github.com/SscSPs/construction_ledger/internal/events"
	"github.com/SscSPs/construction_ledger/internal/handlers"
	"github.com/SscSPs/construction_ledger/internal/jobs"
	"github.com/SscSPs/construction_ledger/internal/middleware"
	"github.com/SscSPs/construction_ledger/internal/platform/config"
	"github.com/SscSPs/construction_ledger/internal/platform/database"
	"github.com/SscSPs/construction_ledger/internal/platform/locking"
	"github.com/SscSPs/construction_ledger/internal/platform/redisdb"
	"github.com/SscSPs/construction_ledger/internal/repositories/database/pgsql"
	"github.com/SscSPs/construction_ledger/internal/repositories/memory"
	"github.com/SscSPs/construction_ledger/internal/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// @title Construction Ledger API
// @version 1.0
// @description Percentage and maps distribution engine of the construction back office.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open ledger store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeStore()

	var redisClient *redis.Client
	options := []services.DistributionOption{}
	if cfg.RedisAddress != "" {
		redisClient, err = redisdb.Connect(ctx, redisdb.Options{Address: cfg.RedisAddress, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			logger.Error("Failed to connect to redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer redisClient.Close()
		options = append(options, services.WithProjectLocker(locking.NewRedisProjectLocker(redisClient, cfg.LockTTL)))
		logger.Info("Using redis project locks", slog.String("address", cfg.RedisAddress))
	}

	publisher, closePublisher := openPublisher(cfg, logger)
	defer closePublisher()
	options = append(options, services.WithEventPublisher(publisher))

	serviceContainer := services.NewServiceContainer(cfg, repos, options...)

	if repos.Runs != nil {
		sweeper := jobs.NewReconciliationSweeper(repos.Runs, publisher, cfg.StaleRunAfter, logger)
		scheduler := jobs.NewScheduler()
		if _, err := sweeper.Schedule(scheduler, cfg.ReconciliationCron); err != nil {
			logger.Error("Failed to schedule reconciliation sweep", slog.String("cron", cfg.ReconciliationCron), slog.String("error", err.Error()))
			os.Exit(1)
		}
		scheduler.Start()
		defer func() { <-scheduler.Stop().Done() }()
	}

	posthogClient := utils.InitializePosthogClient(cfg.PostHogAPIKey, cfg.PostHogEndpoint, logger)
	defer posthogClient.Close()

	if err := dto.RegisterValidators(); err != nil {
		logger.Error("Failed to register validators", slog.String("error", err.Error()))
		os.Exit(1)
	}

	r, err := newRouter(cfg, logger, redisClient, serviceContainer, posthogClient)
	if err != nil {
		logger.Error("Failed to build router", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", slog.String("error", err.Error()))
	}
}

func newRouter(cfg *config.Config, logger *slog.Logger, redisClient *redis.Client, container *portssvc.ServiceContainer, posthogClient *utils.PosthogClientWrapper) (*gin.Engine, error) {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization", "Idempotency-Key")
	r.Use(cors.New(corsConfig))

	rateLimiter, err := middleware.NewRateLimiter(cfg.RateLimit, redisClient)
	if err != nil {
		return nil, err
	}
	r.Use(middleware.RateLimit(rateLimiter))

	if err := r.SetTrustedProxies(nil); err != nil {
		return nil, err
	}

	handlers.RegisterRoutes(r, cfg, container, posthogClient)
	return r, nil
}

// openStore returns the configured ledger store and the function that releases it.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsrepo.RepositoryProvider, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		store := memory.NewStore()
		logger.Warn("Using the in-memory ledger store")
		return portsrepo.RepositoryProvider{Store: store, Runs: store}, func() {}, nil
	}

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		return portsrepo.RepositoryProvider{}, nil, err
	}
	logger.Info("Database connection pool established.")

	if err := runMigrations(cfg.DatabaseURL, logger); err != nil {
		database.ClosePgxPool(dbPool)
		return portsrepo.RepositoryProvider{}, nil, err
	}
	return pgsql.NewRepositoryProvider(dbPool), func() { database.ClosePgxPool(dbPool) }, nil
}

func runMigrations(databaseURL string, logger *slog.Logger) error {
	logger.Info("Running database migrations...")
	// pgx stdlib driver keeps migrations on the same driver as the pool
	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()
	if err := migrationDB.Ping(); err != nil {
		return err
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	upErr := m.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return upErr
	}
	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return sourceErr
	}
	if dbErr != nil {
		return dbErr
	}

	if errors.Is(upErr, migrate.ErrNoChange) {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}

func openPublisher(cfg *config.Config, logger *slog.Logger) (portssvc.EventPublisher, func()) {
	if cfg.AMQPURL == "" {
		return events.NewLogPublisher(logger), func() {}
	}
	publisher, err := events.DialAMQP(cfg.AMQPURL, cfg.ReconciliationQueue)
	if err != nil {
		logger.Error("Failed to connect to AMQP, falling back to log publisher", slog.String("error", err.Error()))
		return events.NewLogPublisher(logger), func() {}
	}
	logger.Info("Publishing distribution events to AMQP", slog.String("queue", cfg.ReconciliationQueue))
	return publisher, func() {
		if err := publisher.Close(); err != nil {
			logger.Error("Failed to close AMQP publisher", slog.String("error", err.Error()))
		}
	}
}
