package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/greenleaf/storefront/internal/api"
	"github.com/greenleaf/storefront/internal/api/metrics"
	"github.com/greenleaf/storefront/internal/core/ports"
	"github.com/greenleaf/storefront/internal/core/service"
	"github.com/greenleaf/storefront/internal/infrastructure/catalogapi"
	"github.com/greenleaf/storefront/internal/infrastructure/queue"
	"github.com/greenleaf/storefront/internal/infrastructure/storage"
	"github.com/greenleaf/storefront/internal/infrastructure/stream"
	"github.com/greenleaf/storefront/internal/pkg/config"
	"github.com/greenleaf/storefront/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, config.Load())
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "storefront",
	})

	// --- Storage ---
	backend, err := storage.Open(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			log.Error().Err(err).Msg("close storage")
		}
	}()

	// --- Remote API ---
	remote, err := catalogapi.New(catalogapi.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
	}, nil, logger.Component("catalogapi"))
	if err != nil {
		return fmt.Errorf("catalog api: %w", err)
	}

	// --- Core ---
	profiles := service.NewProfiles(backend, service.Policy{
		ClearCartOnLogout: cfg.Policy.ClearCartOnLogout,
		MaxOpen:           cfg.Profiles.MaxOpen,
		IdleTimeout:       cfg.Profiles.IdleTimeout,
	}, metrics.Observer{}, logger.Component("profiles"))
	go profiles.RunSweeper(ctx, cfg.Profiles.SweepInterval)

	accounts := service.NewAccountService(remote, logger.Component("accounts"))
	checkout := service.NewCheckoutService(remote, service.CheckoutConfig{
		FreeShippingOver: cfg.Checkout.FreeShippingOver,
		ShippingFee:      cfg.Checkout.ShippingFee,
	}, logger.Component("checkout"))

	// --- Change stream ---
	hub := stream.NewHub(nil, logger.Component("stream"))
	defer hub.Close()

	dispatcher := queue.NewDispatcher(cfg.Stream.Workers, hub, logger.Component("dispatcher"))
	dispatcher.Start(ctx)

	stream.Publish(profiles, dispatcher, func(kind string) {
		metrics.StreamDroppedTotal.WithLabelValues(kind).Inc()
	}, logger.Component("stream"))

	metrics.RegisterGauges(dispatcher.Depth, profiles.Len, hub.ClientCount)

	// --- HTTP ---
	e := api.NewRouter(api.Deps{
		Profiles: profiles,
		Storage:  backend,
		Catalog:  remote,
		Accounts: accounts,
		Checkout: checkout,
		Stream: func(w http.ResponseWriter, r *http.Request, p *service.Profile) error {
			return hub.Serve(w, r, p.ID, func() []queue.ChangeEvent { return stream.Snapshot(p) })
		},
		Pingers:       map[string]ports.Pinger{"storage": backend},
		SecureCookies: cfg.IsProduction(),
		Log:           log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("storage", cfg.Storage.Backend).
			Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
