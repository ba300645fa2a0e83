package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jensholdgaard/auction-house/internal/api"
	"github.com/jensholdgaard/auction-house/internal/auction"
	"github.com/jensholdgaard/auction-house/internal/clock"
	"github.com/jensholdgaard/auction-house/internal/config"
	"github.com/jensholdgaard/auction-house/internal/economy"
	"github.com/jensholdgaard/auction-house/internal/health"
	"github.com/jensholdgaard/auction-house/internal/inventory"
	"github.com/jensholdgaard/auction-house/internal/leader"
	"github.com/jensholdgaard/auction-house/internal/notify"
	"github.com/jensholdgaard/auction-house/internal/store"
	"github.com/jensholdgaard/auction-house/internal/telemetry"

	// Register store drivers so they are available via store.Open.
	_ "github.com/jensholdgaard/auction-house/internal/store/gormstore"
	_ "github.com/jensholdgaard/auction-house/internal/store/postgres"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	if err := run(*configPath); err != nil {
		slog.Error("fatal error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(configPath string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	tp, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		slog.Warn("telemetry setup failed, continuing without OTEL export", slog.Any("error", err))
		tp = telemetry.NewNopProvider()
	}
	defer func() {
		if shutdownErr := tp.Shutdown(context.Background()); shutdownErr != nil {
			slog.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	logger := tp.Logger
	clk := clock.Real{}

	repos, err := store.Open(ctx, cfg.Database, clk)
	if err != nil {
		return fmt.Errorf("opening store (driver=%s): %w", cfg.Database.Driver, err)
	}
	defer repos.Closer.Close()

	logger.InfoContext(ctx, "connected to database", slog.String("driver", cfg.Database.Driver))

	money := economy.NewFormatter(cfg.Economy)
	ledger := economy.NewLedger(repos.Players, repos.Events, logger, tp.TracerProvider)

	types := auction.NewTypes(cfg.Auction)
	registry := auction.NewRegistry(repos.Shops, repos.Events, types, logger, tp.MeterProvider)
	sales := auction.NewSales(repos.Sales, repos.Entities, registry, auction.NewDisplay(cfg.Lang, money))
	market := auction.NewManager(auction.Deps{
		Registry: registry,
		Sellers:  auction.NewSellers(repos.Players, repos.Sellers, logger),
		Sales:    sales,
		Repos:    repos,
		Payments: ledger,
	}, logger, tp.TracerProvider, tp.MeterProvider)

	var feed *notify.Feed
	if cfg.Discord.Enabled {
		feed, err = notify.New(cfg.Discord, money, logger)
		if err != nil {
			return fmt.Errorf("creating sales feed: %w", err)
		}
		market.AddListener(feed)
	}

	views := inventory.NewManager(inventory.NewTitles(cfg.Auction, cfg.Lang), types, market, logger, tp.MeterProvider)

	healthHandler := health.NewHandler(clk,
		health.Checker{
			Name:  "database",
			Check: repos.Ping,
		},
		health.ReadyCheck("market", market.Ready),
	)

	// The API runs on all replicas; it answers 503 until this replica has
	// hydrated the market as leader.
	server := api.New(market, views, ledger, money, logger)
	server.Mount("/healthz", healthHandler.LivenessHandler())
	server.Mount("/readyz", healthHandler.ReadinessHandler())

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.InfoContext(ctx, "starting http server", slog.Int("port", cfg.Server.Port))
		if listenErr := httpServer.ListenAndServe(); listenErr != nil && !errors.Is(listenErr, http.ErrServerClosed) {
			logger.ErrorContext(ctx, "http server error", slog.Any("error", listenErr))
		}
	}()

	// serve is the work only the leader may do: the shop singletons live in
	// this process.
	serve := func(ctx context.Context) error {
		n, err := market.Hydrate(ctx)
		if err != nil {
			return fmt.Errorf("hydrating market: %w", err)
		}
		logger.InfoContext(ctx, "market loaded", slog.Int("sales", n))

		if feed != nil {
			if err := feed.Start(ctx); err != nil {
				return fmt.Errorf("starting sales feed: %w", err)
			}
			defer func() {
				if stopErr := feed.Stop(); stopErr != nil {
					logger.Error("sales feed shutdown error", slog.Any("error", stopErr))
				}
			}()
		}

		healthHandler.SetReady(true)
		logger.InfoContext(ctx, "auction house is running", slog.String("version", version))

		<-ctx.Done()
		healthHandler.SetReady(false)
		return nil
	}

	if cfg.LeaderElection.Enabled {
		logger.InfoContext(ctx, "leader election enabled, waiting for leadership...")

		if leaderErr := leader.Run(ctx, cfg.LeaderElection, logger, func(ctx context.Context) {
			if serveErr := serve(ctx); serveErr != nil {
				logger.ErrorContext(ctx, "serving market failed", slog.Any("error", serveErr))
				cancel()
			}
		}, func() {
			logger.Info("lost leadership, shutting down...")
			cancel()
		}); leaderErr != nil {
			return fmt.Errorf("leader election: %w", leaderErr)
		}
	} else if err := serve(ctx); err != nil {
		return err
	}

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", slog.Any("error", err))
	}

	logger.Info("shutdown complete")
	return nil
}
