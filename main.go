package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for migrations
	"go.uber.org/zap"

	"github.com/trainhub/register-engine/pkg/config"
	"github.com/trainhub/register-engine/pkg/database"
	"github.com/trainhub/register-engine/pkg/handlers"
	"github.com/trainhub/register-engine/pkg/middleware"
	"github.com/trainhub/register-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("database", cfg.Database.Database),
		zap.Duration("accreditation_refresh", cfg.AccreditationRefreshInterval()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// golang-migrate needs a database/sql connection.
	sqlDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, cfg.MigrationsPath, logger); err != nil {
		_ = sqlDB.Close()
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = sqlDB.Close()

	registry := services.NewRegistry(db, logger)

	// Catch providers whose accreditations lapsed while the service was down,
	// then keep them current in the background.
	registry.AccreditationStatus.RunScheduler(ctx, cfg.AccreditationRefreshInterval())

	auth := middleware.NewAuth(cfg.TokenSecret, registry.APITokens, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewProviderHandler(registry.Providers, logger).RegisterRoutes(mux, auth)
	handlers.NewAccreditationHandler(registry.Accreditations, logger).RegisterRoutes(mux, auth)
	handlers.NewAddressHandler(registry.Addresses, logger).RegisterRoutes(mux, auth)
	handlers.NewContactHandler(registry.Contacts, logger).RegisterRoutes(mux, auth)
	handlers.NewPartnershipHandler(registry.Partnerships, logger).RegisterRoutes(mux, auth)
	handlers.NewAcademicYearHandler(registry.AcademicYears, logger).RegisterRoutes(mux, auth)
	handlers.NewUserHandler(registry.Users, logger).RegisterRoutes(mux, auth)
	handlers.NewAPITokenHandler(registry.APITokens, logger).RegisterRoutes(mux, auth)
	handlers.NewActivityHandler(registry.Activity, logger).RegisterRoutes(mux, auth)

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler:      middleware.RequestLogger(logger)(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("Starting register-engine",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
