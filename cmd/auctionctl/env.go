package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/jensholdgaard/auction-house/internal/auction"
	"github.com/jensholdgaard/auction-house/internal/clock"
	"github.com/jensholdgaard/auction-house/internal/config"
	"github.com/jensholdgaard/auction-house/internal/economy"
	"github.com/jensholdgaard/auction-house/internal/store"
)

// env is the store-backed state a command works on.
type env struct {
	cfg      *config.Config
	repos    *store.Repositories
	money    economy.Formatter
	ledger   *economy.Ledger
	registry *auction.Registry
	sales    *auction.Sales
}

func openEnv(ctx context.Context, configPath string) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	repos, err := store.Open(ctx, cfg.Database, clock.Real{})
	if err != nil {
		return nil, fmt.Errorf("opening store (driver=%s): %w", cfg.Database.Driver, err)
	}
	return newEnv(cfg, repos), nil
}

func newEnv(cfg *config.Config, repos *store.Repositories) *env {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	money := economy.NewFormatter(cfg.Economy)
	registry := auction.NewRegistry(repos.Shops, repos.Events, auction.NewTypes(cfg.Auction), logger, metricnoop.NewMeterProvider())
	return &env{
		cfg:      cfg,
		repos:    repos,
		money:    money,
		ledger:   economy.NewLedger(repos.Players, repos.Events, logger, noop.NewTracerProvider()),
		registry: registry,
		sales:    auction.NewSales(repos.Sales, repos.Entities, registry, auction.NewDisplay(cfg.Lang, money)),
	}
}

func (e *env) Close() error {
	if e.repos.Closer == nil {
		return nil
	}
	return e.repos.Closer.Close()
}
