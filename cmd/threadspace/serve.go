package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/threadspace/threadspace/internal/config"
	httpapp "github.com/threadspace/threadspace/internal/http"
	"github.com/threadspace/threadspace/internal/metrics"
)

var serveCmd = &cobra.Command{
	Use:         "serve",
	Short:       "Run the integrations API.",
	Args:        cobra.NoArgs,
	Annotations: structuredLogging(),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(parent context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return configError(err)
	}
	if parent == nil {
		parent = context.Background()
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.Default()

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.store.Ping(ctx); err != nil {
		logger.Warn("secret store not reachable at startup", "error", err)
	}

	metricsServer, metricsErr := metrics.StartServer(ctx, cfg.MetricsAddr, logger)

	srv, err := httpapp.NewEchoServer(cfg, a.service, logger)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr, "store", cfg.StoreBackend)
		errCh <- httpServer.ListenAndServe()
	}()

	shutdown := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		if metricsServer != nil {
			_ = metricsServer.Shutdown(shutdownCtx)
		}
	}

	select {
	case <-ctx.Done():
		shutdown()
		return nil
	case err := <-metricsErr:
		shutdown()
		return err
	case err := <-errCh:
		shutdown()
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
