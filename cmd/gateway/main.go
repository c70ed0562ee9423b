// Command gateway serves the XPLR session gateway: guarded screen
// navigation, device-scoped session state and the authenticated backend
// proxy.
//
//	@title			XPLR Session Gateway
//	@version		1.0
//	@description	Route authorization and session state for XPLR clients.
//	@BasePath		/
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/xplr/session-gateway/internal/api"
	"github.com/xplr/session-gateway/internal/api/handler"
	"github.com/xplr/session-gateway/internal/api/middleware"
	"github.com/xplr/session-gateway/internal/core/ports"
	"github.com/xplr/session-gateway/internal/core/service"
	"github.com/xplr/session-gateway/internal/infrastructure/backend"
	"github.com/xplr/session-gateway/internal/infrastructure/config"
	"github.com/xplr/session-gateway/internal/infrastructure/db/memory"
	mongodb "github.com/xplr/session-gateway/internal/infrastructure/db/mongo"
	redisdb "github.com/xplr/session-gateway/internal/infrastructure/db/redis"
	"github.com/xplr/session-gateway/internal/infrastructure/queue"
	"github.com/xplr/session-gateway/pkg/logger"

	"go.mongodb.org/mongo-driver/mongo"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := logger.Init(logger.Options{Service: "xplr-session-gateway"})
		bootLog.Fatal().Err(err).Msg("load config")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "xplr-session-gateway",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("gateway stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	readiness := map[string]handler.Pinger{}

	var mongoDB *mongo.Database
	if cfg.FlagsBackend == config.BackendMongo || cfg.Audit.Enabled {
		client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		switch {
		case err == nil:
			defer func() { _ = client.Disconnect(context.Background()) }()
			mongoDB = db
			readiness["mongo"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
		case cfg.FlagsBackend == config.BackendMongo:
			return err
		default:
			log.Warn().Err(err).Msg("mongo unavailable, audit trail kept in memory")
		}
	}

	var store ports.FlagsStore
	switch cfg.FlagsBackend {
	case config.BackendRedis:
		client, err := redisdb.Connect(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer client.Close()
		fs := redisdb.NewFlagsStore(client, log)
		readiness["redis"] = fs.Ping
		store = fs
	case config.BackendMongo:
		fs := mongodb.NewFlagsStore(mongoDB)
		if err := fs.EnsureIndexes(ctx); err != nil {
			return err
		}
		store = fs
	default:
		log.Warn().Msg("flags kept in process memory; sessions are lost on restart")
		store = memory.NewFlagsStore()
	}

	var (
		events ports.EventSink
		audit  ports.AuditRepository
	)
	if cfg.Audit.Enabled {
		if mongoDB != nil {
			repo := mongodb.NewAuditRepository(mongoDB)
			if err := repo.EnsureIndexes(ctx); err != nil {
				return err
			}
			audit = repo
		} else {
			audit = memory.NewAuditRepository()
		}
		dispatcher := queue.NewDispatcher(cfg.Audit.Workers, audit, log)
		dispatcher.Start(ctx)
		events = dispatcher
	}

	backendClient := backend.NewClient(backend.Config{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.Timeout,
	}, log)

	e := api.NewRouter(api.Deps{
		Log:       log,
		Sessions:  service.NewSessionService(store, events, log),
		Navigator: service.NewNavigator(nil),
		Rates:     service.NewRatesService(store, backendClient, log),
		Backend:   backendClient,
		Audit:     audit,
		Device: middleware.DeviceOptions{
			Secret:     []byte(cfg.Device.Secret),
			CookieName: cfg.Device.CookieName,
			MaxAge:     cfg.Device.MaxAge,
			Secure:     cfg.Device.Secure,
		},
		SPADir:    cfg.SPADir,
		Origins:   cfg.Origins(),
		Readiness: readiness,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("flags_backend", cfg.FlagsBackend).
			Bool("audit", cfg.Audit.Enabled).
			Msg("session gateway listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown")
	}
	return nil
}

