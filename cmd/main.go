package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/KingInYellow18/medianest-sub018/config"
	"github.com/KingInYellow18/medianest-sub018/internal/cache"
	"github.com/KingInYellow18/medianest-sub018/internal/clock"
	"github.com/KingInYellow18/medianest-sub018/internal/health"
	"github.com/KingInYellow18/medianest-sub018/internal/healthcheck"
	"github.com/KingInYellow18/medianest-sub018/internal/httpserver"
	"github.com/KingInYellow18/medianest-sub018/internal/integration"
	"github.com/KingInYellow18/medianest-sub018/internal/ratelimit"
	"github.com/KingInYellow18/medianest-sub018/internal/webhook"
	"github.com/KingInYellow18/medianest-sub018/pkg/logger"
)

const dispatchBufferSize = 256

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, true, cfg.Server.Environment)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	clk := clock.System()
	store := cache.New(clk)
	monitor := health.New(clk, cfg.Health.WindowSize, cfg.Health.TrendDelta)
	limiter := ratelimit.New(clk, rateQuotas(cfg))

	registry := buildRegistry(cfg, limiter, store, monitor, clk, log)

	dispatcher := webhook.NewDispatcher(dispatchBufferSize, log)
	dispatcher.Start(ctx)

	verifier := webhook.NewVerifier(cfg.WebhookSecrets())
	webhookHandler := webhook.NewHandler(verifier, dispatcher, limiter, clk, log)

	startProbes(ctx, cfg, monitor, log)

	router := setupRouter(webhookHandler, registry)

	srv, err := httpserver.New(cfg.Server.Address, router)
	if err != nil {
		log.Error("Failed to create server", slog.Any("err", err))
		os.Exit(1)
	}

	log.Info("Resilience layer listening",
		slog.String("address", cfg.Server.Address),
		slog.Int("services", len(cfg.Services)))

	srvErrCh := make(chan error, 1)

	go func() {
		srvErrCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("Error during shutdown", slog.Any("err", err))
		}
	case err := <-srvErrCh:
		if err != nil {
			log.Error("Error starting server", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

func rateQuotas(cfg *config.Config) map[string]ratelimit.Quota {
	quotas := make(map[string]ratelimit.Quota, len(cfg.Services))
	for name, sc := range cfg.Services {
		quotas[name] = ratelimit.Quota{
			Limit:  sc.RateLimit.Limit,
			Window: sc.RateLimit.Window,
		}
	}
	return quotas
}

func buildRegistry(
	cfg *config.Config,
	limiter *ratelimit.Limiter,
	store *cache.Store,
	monitor *health.Monitor,
	clk clock.Clock,
	log *slog.Logger,
) *integration.Registry {
	registry := integration.NewRegistry(monitor)

	for name, sc := range cfg.Services {
		client := integration.NewClient(integration.Settings{
			Service:          name,
			FailureThreshold: sc.FailureThreshold,
			ResetTimeout:     sc.ResetTimeout,
			MaxAttempts:      sc.Retry.MaxAttempts,
			BaseDelay:        sc.Retry.BaseDelay,
			CacheTTL:         sc.CacheTTL,
		}, limiter, store, monitor, clk, log)

		registry.Register(client)
	}

	return registry
}

func startProbes(ctx context.Context, cfg *config.Config, monitor *health.Monitor, log *slog.Logger) {
	for name, sc := range cfg.Services {
		if sc.StatusURL == "" {
			continue
		}
		go healthcheck.Probe(ctx, name, sc.StatusURL, cfg.Health.ProbeInterval, monitor, log)
	}
}
