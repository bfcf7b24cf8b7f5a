// Command server runs the Haphazard site: marketing pages, the waiting list
// and the session gateway in front of the dashboard.
//
// @title        Haphazard site API
// @version      1.0
// @description  Session, credential, pricing and waiting-list endpoints of the Haphazard site.
// @BasePath     /
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

	"github.com/haphazard/site/internal/api"
	"github.com/haphazard/site/internal/core/ports"
	"github.com/haphazard/site/internal/core/service"
	"github.com/haphazard/site/internal/core/session"
	mongostore "github.com/haphazard/site/internal/infrastructure/db/mongo"
	redisstore "github.com/haphazard/site/internal/infrastructure/db/redis"
	"github.com/haphazard/site/internal/infrastructure/http/handlers"
	"github.com/haphazard/site/internal/infrastructure/identity"
	"github.com/haphazard/site/internal/infrastructure/identity/gotrue"
	"github.com/haphazard/site/internal/infrastructure/newsletter"
	"github.com/haphazard/site/internal/infrastructure/queue"
	"github.com/haphazard/site/internal/pkg/config"
	"github.com/haphazard/site/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: "haphazard-site",
		Env:     cfg.Env,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Storage ---
	mongoClient, db, err := mongostore.Connect(ctx, mongostore.Config{
		URI:         cfg.Mongo.URI,
		Database:    cfg.Mongo.Database,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
	})
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	users := mongostore.NewUserRepository(db)
	waitlistRepo := mongostore.NewWaitlistRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("user indexes: %w", err)
	}
	if err := waitlistRepo.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("waitlist indexes: %w", err)
	}

	// --- Identity ---
	var backend ports.IdentityBackend
	switch cfg.Identity.Provider {
	case config.ProviderGoTrue:
		backend = gotrue.New(cfg.Identity.GoTrueURL, cfg.Identity.GoTrueAnonKey, cfg.Identity.GoTrueTimeout)
	default:
		backend = service.NewAuthService(users, redisstore.NewRevocations(rdb), cfg.Identity.JWTSecret, cfg.Identity.AccessTokenTTL, cfg.Session.TTL)
	}

	sessionLog := logger.Component(log, "session")
	waitlistLog := logger.Component(log, "waitlist")

	bus := redisstore.NewEventBus(rdb, sessionLog)
	go func() {
		if err := bus.Run(ctx); err != nil {
			log.Error().Err(err).Msg("auth event relay stopped")
		}
	}()

	factory := identity.NewFactory(backend, redisstore.NewTokenStore(rdb), bus, cfg.Session.TTL, sessionLog)
	registry := session.NewRegistry(ctx, factory, session.RegistryConfig{
		IdleTTL:       cfg.Session.IdleTTL,
		SweepInterval: cfg.Session.SweepInterval,
		RefreshWindow: cfg.Session.RefreshWindow,
	}, sessionLog)
	defer registry.Close()
	go registry.Run(ctx)

	// --- Waiting list ---
	var subscriber ports.NewsletterClient = newsletter.NewNoop(waitlistLog)
	if cfg.Waitlist.ConvertKitFormID != "" {
		subscriber = newsletter.NewConvertKit("", cfg.Waitlist.ConvertKitFormID, cfg.Waitlist.ConvertKitAPIKey)
	}
	dispatcher := queue.NewDispatcher(cfg.Waitlist.Workers, service.NewWaitlistSyncer(waitlistRepo, subscriber, waitlistLog), waitlistLog)
	dispatcher.Start(ctx)
	if n, err := service.BackfillWaitlist(ctx, waitlistRepo, dispatcher, waitlistLog); err != nil {
		log.Warn().Err(err).Msg("waitlist backfill failed")
	} else if n > 0 {
		log.Info().Int("entries", n).Msg("waitlist backfill queued")
	}

	// --- HTTP ---
	e := api.NewRouter(api.Dependencies{
		Log:      logger.Component(log, "http"),
		Sessions: registry,
		Pricing:  service.NewPricingService(),
		Waitlist: service.NewWaitlistService(waitlistRepo, dispatcher, waitlistLog),
		Health: map[string]handlers.Pinger{
			"mongodb": handlers.MongoPinger(db),
			"redis":   handlers.RedisPinger(rdb),
		},
		CookieName:    cfg.Session.CookieName,
		CookieSecure:  cfg.Session.CookieSecure,
		SessionTTL:    cfg.Session.TTL,
		GuardInitWait: cfg.Session.GuardInitWait,
		ConvertKitUID: cfg.Waitlist.ConvertKitUID,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	log.Info().
		Str("port", cfg.Port).
		Str("env", cfg.Env).
		Str("identity_provider", cfg.Identity.Provider).
		Msg("server started")

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	dispatcher.Wait()

	log.Info().Msg("server stopped cleanly")
	return nil
}
