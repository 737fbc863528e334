package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/threadspace/threadspace/internal/config"
	"github.com/threadspace/threadspace/internal/connectors/lifecycle"
	"github.com/threadspace/threadspace/internal/connectors/secretstore"
	"github.com/threadspace/threadspace/internal/integrations"
	"github.com/threadspace/threadspace/internal/sealer"
)

// app holds the long-lived components shared by the commands.
type app struct {
	store   secretstore.Store
	service *integrations.Service
	close   func()
}

func buildStore(ctx context.Context, cfg config.Config) (secretstore.Store, func(), error) {
	if cfg.StoreBackend == config.StoreBackendMemory {
		return secretstore.NewMemory(), func() {}, nil
	}

	s, err := sealer.New(cfg.SealerOptions())
	if err != nil {
		return nil, nil, configError(err)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	store, err := secretstore.NewPostgres(pool, s)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return store, pool.Close, nil
}

func buildApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	if logger == nil {
		logger = slog.Default()
	}

	store, closeStore, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	runner, err := lifecycle.New(store, cfg.VerifyTimeout, logger)
	if err != nil {
		closeStore()
		return nil, err
	}

	conns, err := buildConnectors(cfg, runner)
	if err != nil {
		closeStore()
		return nil, fmt.Errorf("build connectors: %w", err)
	}

	svc, err := integrations.NewService(integrations.Deps{
		Registry: conns.registry,
		Store:    store,
		Logger:   logger,
		Vercel:   conns.vercel,
		AWS:      conns.aws,
	})
	if err != nil {
		closeStore()
		return nil, err
	}

	return &app{store: store, service: svc, close: closeStore}, nil
}
