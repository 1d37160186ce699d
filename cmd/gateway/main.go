package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/handmadehub/storefront/internal/api"
	"github.com/handmadehub/storefront/internal/core/ports"
	"github.com/handmadehub/storefront/internal/core/service"
	"github.com/handmadehub/storefront/internal/infrastructure/config"
	storemongo "github.com/handmadehub/storefront/internal/infrastructure/db/mongo"
	storeredis "github.com/handmadehub/storefront/internal/infrastructure/db/redis"
	"github.com/handmadehub/storefront/internal/upstream"
	"github.com/handmadehub/storefront/pkg/logger"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Service: "storefront-gateway",
		Level:   cfg.LogLevel,
		Pretty:  cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Cart storage backend ---
	var (
		storage     ports.CartStorage
		tokens      ports.TokenStore
		readyChecks = make(map[string]func(ctx context.Context) error)
		cleanup     func()
	)
	switch cfg.Cart.Backend {
	case "redis":
		rdb, err := storeredis.Connect(ctx, storeredis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("redis connect failed")
		}
		storage = storeredis.NewCartCache(rdb)
		tokens = storeredis.NewTokenCache(rdb)
		readyChecks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		cleanup = func() { _ = rdb.Close() }

	case "mongo":
		client, db, err := storemongo.Connect(ctx, storemongo.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("mongo connect failed")
		}
		storage = storemongo.NewCartRepository(db)
		tokens = storemongo.NewTokenRepository(db)
		readyChecks["mongodb"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
		cleanup = func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(disconnectCtx)
		}

	default:
		log.Fatal().Str("backend", cfg.Cart.Backend).Msg("unknown cart backend")
	}
	defer cleanup()

	// --- Upstream marketplace API ---
	marketplace := upstream.New(cfg.Upstream.BaseURL, cfg.Upstream.Timeout, log)

	// --- Services ---
	stores := service.NewStoreManager(storage, tokens, marketplace, log)
	sessions := service.NewSessionService(tokens, marketplace, stores, log)

	e := api.NewRouter(api.Deps{
		Stores:        stores,
		Sessions:      sessions,
		Orders:        marketplace,
		Tokens:        tokens,
		Gateway:       marketplace,
		ReadyChecks:   readyChecks,
		SessionCookie: cfg.SessionCookie,
		Log:           log,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("backend", cfg.Cart.Backend).Msg("storefront gateway listening")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	// Let in-flight cart syncs land before the process exits.
	stores.Close()
}
