// Command api serves the sales back-office HTTP API.
//
// @title                       Sales back-office API
// @version                     1.0
// @description                 Users, clients, contracts, audit history, statistics and spreadsheet export.
// @BasePath                    /api
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/salesdesk/backoffice/internal/api"
	"github.com/salesdesk/backoffice/internal/api/handler"
	"github.com/salesdesk/backoffice/internal/core/domain"
	"github.com/salesdesk/backoffice/internal/core/ports"
	"github.com/salesdesk/backoffice/internal/core/service"
	"github.com/salesdesk/backoffice/internal/infrastructure/auth"
	mongostore "github.com/salesdesk/backoffice/internal/infrastructure/db/mongo"
	pgstore "github.com/salesdesk/backoffice/internal/infrastructure/db/postgres"
	redisstore "github.com/salesdesk/backoffice/internal/infrastructure/db/redis"
	"github.com/salesdesk/backoffice/internal/infrastructure/spreadsheet"
	"github.com/salesdesk/backoffice/internal/pkg/config"
	"github.com/salesdesk/backoffice/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "backoffice",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.Warn().Err(err).Msg("close storage")
		}
	}()
	log.Info().Str("driver", cfg.Storage.Driver).Msg("storage ready")

	health := map[string]ports.Pinger{cfg.Storage.Driver: store.Health}
	limiter, closeRedis := openLimiter(ctx, cfg, log, health)
	defer closeRedis()

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, domain.SessionTTL)
	if err != nil {
		return err
	}
	hasher := service.NewPasswordHasher(cfg.Auth.BcryptCost)

	authService, err := service.NewAuthService(store.Users, tokens, limiter, hasher, logger.Component("auth"))
	if err != nil {
		return err
	}
	users := service.NewUserService(store, hasher, logger.Component("users"))
	if cfg.Bootstrap.AdminEmail != "" {
		if err := users.EnsureAdmin(ctx, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword); err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
	}

	router := api.NewRouter(log, api.Services{
		Auth:      authService,
		Tokens:    tokens,
		Users:     users,
		Clients:   service.NewClientService(store, logger.Component("clients")),
		Contracts: service.NewContractService(store, logger.Component("contracts")),
		History:   service.NewHistoryService(store),
		Stats:     service.NewStatsService(store),
		Export:    service.NewExportService(store, spreadsheet.NewClientWriter(), logger.Component("export")),
	}, api.Options{
		Pages:  handler.PageLimits{Default: cfg.Pagination.DefaultLimit, Max: cfg.Pagination.MaxLimit},
		Health: health,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("listening")
		if err := router.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return router.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg *config.Config) (ports.Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return ports.Store{}, err
		}
		store, err := mongostore.NewStore(ctx, client, db)
		if err != nil {
			_ = client.Disconnect(context.Background())
		}
		return store, err
	default:
		db, err := pgstore.Connect(ctx, pgstore.Config{
			DSN:          cfg.Postgres.DSN,
			MaxOpenConns: cfg.Postgres.MaxOpenConns,
			MaxIdleConns: cfg.Postgres.MaxIdleConns,
		})
		if err != nil {
			return ports.Store{}, err
		}
		return pgstore.NewStore(db), nil
	}
}

// openLimiter connects the login throttle. An unreachable Redis disables
// throttling instead of blocking startup.
func openLimiter(ctx context.Context, cfg *config.Config, log zerolog.Logger, health map[string]ports.Pinger) (ports.LoginLimiter, func()) {
	if !cfg.Auth.ThrottleEnabled {
		log.Info().Msg("login throttling disabled")
		return nil, func() {}
	}
	rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, login throttling disabled")
		return nil, func() {}
	}
	health["redis"] = redisstore.NewHealth(rdb)
	limiter := redisstore.NewLoginLimiter(rdb, cfg.Auth.MaxAttempts, cfg.Auth.Window)
	return limiter, func() { _ = rdb.Close() }
}
