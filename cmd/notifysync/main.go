// Command notifysync runs the school health notification agent: it holds the
// user session, keeps the navbar notification view in sync with the backend
// and the realtime channel, and serves that state over a local HTTP API.
//
// @title        Notification Sync API
// @version      1.0
// @description  Local API of the school health notification agent.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/schoolhealth/notification-sync/internal/api"
	"github.com/schoolhealth/notification-sync/internal/core/domain"
	"github.com/schoolhealth/notification-sync/internal/core/ports"
	"github.com/schoolhealth/notification-sync/internal/core/service"
	"github.com/schoolhealth/notification-sync/internal/infrastructure/config"
	"github.com/schoolhealth/notification-sync/internal/infrastructure/db/memory"
	redisdb "github.com/schoolhealth/notification-sync/internal/infrastructure/db/redis"
	"github.com/schoolhealth/notification-sync/internal/infrastructure/events"
	"github.com/schoolhealth/notification-sync/internal/infrastructure/http/handlers"
	"github.com/schoolhealth/notification-sync/internal/infrastructure/realtime"
	"github.com/schoolhealth/notification-sync/internal/infrastructure/restapi"
	"github.com/schoolhealth/notification-sync/internal/infrastructure/tracing"
	"github.com/schoolhealth/notification-sync/pkg/logger"
)

const shutdownTimeout = 5 * time.Second

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("failed loading config: %v", err)
	}

	lg := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "notifysync",
		Version: version,
	})

	shutdownTracing, err := tracing.Setup("notifysync", cfg.Tracing.JaegerEndpoint)
	if err != nil {
		lg.Fatal().Err(err).Msg("failed to initialize tracing")
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			lg.Warn().Err(err).Msg("failed to flush traces")
		}
	}()

	store, closeStore := openSessionStore(ctx, cfg, lg)
	defer closeStore()

	client := restapi.NewClient(cfg.API.BaseURL, cfg.API.Timeout, logger.Component("restapi"))
	auth := service.NewAuthService(client, store, logger.Component("auth"))
	client.OnUnauthorized(auth.Expire)

	bus := events.NewRefreshBus(logger.Component("events"))
	defer bus.Clear()

	var channel ports.RealtimeChannel = realtime.Disabled{}
	var realtimeStatus handlers.ConnectionStatus
	if cfg.Realtime.URL != "" {
		ch := realtime.NewChannel(cfg.Realtime.URL, lg)
		channel, realtimeStatus = ch, ch
	} else {
		lg.Info().Msg("WS_URL not set, realtime pushes disabled")
	}

	notifications := service.NewNotificationService(client, cfg.Inbox.MarkReadParallelism, logger.Component("notifications"))
	inbox := service.NewInbox(service.NavbarView, cfg.Inbox.Limit, auth, notifications, channel, bus, logger.Component("inbox"))

	auth.OnLogout(func() {
		inbox.Unmount()
		if err := channel.Close(); err != nil {
			lg.Warn().Err(err).Msg("failed to close realtime channel")
		}
	})

	// Resume a session persisted by a previous run.
	if _, err := auth.Current(ctx); err == nil {
		if err := inbox.Mount(ctx); err != nil {
			lg.Warn().Err(err).Msg("failed to mount inbox for stored session")
		}
	} else if !errors.Is(err, domain.ErrNoSession) {
		lg.Warn().Err(err).Msg("failed to read stored session")
	}

	if cfg.Inbox.PollInterval > 0 {
		lg.Info().Dur("interval", cfg.Inbox.PollInterval).Msg("polling enabled")
		go inbox.Poll(ctx, cfg.Inbox.PollInterval)
	}

	e := api.NewRouter(api.Dependencies{
		Auth:         auth,
		Inbox:        inbox,
		Refresh:      bus,
		SessionStore: store,
		Realtime:     realtimeStatus,
		Log:          lg,
	})

	go func() {
		addr := ":" + cfg.Port
		lg.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting local API")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error().Err(err).Msg("local API stopped")
			stop()
		}
	}()

	<-ctx.Done()
	lg.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		lg.Error().Err(err).Msg("graceful shutdown failed")
	}
	inbox.Unmount()
	if err := channel.Close(); err != nil {
		lg.Warn().Err(err).Msg("failed to close realtime channel")
	}
}

// openSessionStore returns the configured session store and its cleanup.
func openSessionStore(ctx context.Context, cfg *config.Config, lg zerolog.Logger) (ports.SessionStore, func()) {
	if cfg.SessionStore != config.SessionStoreRedis {
		lg.Info().Msg("using in-memory session store")
		return memory.NewSessionStore(), func() {}
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		URL:      cfg.Redis.URL,
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		lg.Fatal().Err(err).Msg("failed to connect to redis")
	}
	lg.Info().Str("addr", rdb.Options().Addr).Msg("using redis session store")
	return redisdb.NewSessionStore(rdb, cfg.Redis.Key), func() { _ = rdb.Close() }
}
