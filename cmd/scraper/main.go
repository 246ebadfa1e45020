package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/qepting91/trending-scraper/internal/collector"
	"github.com/qepting91/trending-scraper/internal/config"
	"github.com/qepting91/trending-scraper/internal/dashboard"
	"github.com/qepting91/trending-scraper/internal/domain"
	"github.com/qepting91/trending-scraper/internal/extract"
	"github.com/qepting91/trending-scraper/internal/ingest"
	"github.com/qepting91/trending-scraper/internal/pipeline"
	"github.com/qepting91/trending-scraper/internal/storage"
	"github.com/robfig/cron/v3"
)

func main() {
	// 1. Setup
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "err", err)
		os.Exit(1)
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})
	logger := slog.New(handler)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Run Dashboard
	if cfg.DashboardPort != "" {
		go func() {
			logger.Info("Starting Dashboard", "port", cfg.DashboardPort)
			if err := dashboard.StartServer(cfg.DataDir, cfg.DashboardPort, logger); err != nil {
				logger.Error("Dashboard failed", "err", err)
			}
		}()
	}

	// 3. Load Inputs
	categories, err := ingest.LoadCategories(cfg.CategoriesFile)
	if err != nil {
		logger.Warn("Could not read categories, using all languages", "file", cfg.CategoriesFile, "err", err)
		categories = []string{ingest.AllLanguages}
	}

	// 4. Initialize Pipeline (Using Factory)
	fetcher, err := collector.NewFetcher(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize fetcher", "err", err)
		os.Exit(1)
	}
	extractor, err := extract.NewTrendingExtractor(cfg.BaseURL, logger)
	if err != nil {
		logger.Error("Failed to initialize extractor", "err", err)
		os.Exit(1)
	}
	logger.Info("Fetcher initialized", "mode", cfg.CollectorMode, "categories", len(categories))

	runner := &pipeline.Runner{
		Fetcher:    fetcher,
		Extractor:  extractor,
		Sink:       &storage.SnapshotWriter{Dir: cfg.DataDir, Logger: logger},
		Categories: categories,
		Windows:    domain.Windows(),
		Logger:     logger,
	}

	// 5. One-shot run
	if cfg.Schedule == "" {
		runner.RunCycle(ctx)
		if cfg.DashboardPort == "" {
			return
		}
		// Keep alive for dashboard
		<-ctx.Done()
		logger.Info("Shutdown signal received")
		return
	}

	// 6. Scheduled runs, never overlapping
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(handler, slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)))
	if _, err := c.AddFunc(cfg.Schedule, func() { runner.RunCycle(ctx) }); err != nil {
		logger.Error("Failed to schedule scrape", "schedule", cfg.Schedule, "err", err)
		os.Exit(1)
	}
	c.Start()
	logger.Info("Scheduler started", "schedule", cfg.Schedule)

	<-ctx.Done()
	logger.Info("Shutdown signal received")
	<-c.Stop().Done()
	logger.Info("Scraper stopped")
}
