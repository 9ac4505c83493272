package main

import (
	"context"
	"os"

	"github.com/paul-scout/micro-acquisition-scout/config"
	"github.com/paul-scout/micro-acquisition-scout/pipeline"
	"github.com/paul-scout/micro-acquisition-scout/scraper"
	"github.com/paul-scout/micro-acquisition-scout/scraper/flippa"
	"github.com/paul-scout/micro-acquisition-scout/scraper/synthetic"
	"github.com/paul-scout/micro-acquisition-scout/services"
	"github.com/paul-scout/micro-acquisition-scout/storage"
	"github.com/paul-scout/micro-acquisition-scout/utils"
)

func main() {
	cfg := config.Load()
	logger := utils.NewLogger(cfg.Debug)

	logger.Info("=== Micro-Acquisition Scout starting ===")

	if err := cfg.Validate(); err != nil {
		logger.Error("Bad configuration: %v", err)
		os.Exit(1)
	}

	logger.Info("Config — mode: %s | price: $%d-$%d | limit: %d | storage: %s | rate: %dms",
		cfg.ScraperMode, cfg.PriceMin, cfg.PriceMax, cfg.DefaultLimit, cfg.StorageDriver, cfg.RateLimitMs)

	csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath)
	if err != nil {
		logger.Error("Failed to create CSV writer: %v", err)
		os.Exit(1)
	}
	defer csvWriter.Close()

	repo, err := openRepository(cfg)
	if err != nil {
		logger.Error("Failed to open repository: %v", err)
		os.Exit(1)
	}
	defer repo.Close()

	fallback := synthetic.New(logger)
	var source scraper.Source = fallback
	if cfg.ScraperMode == config.ModeLive {
		source = flippa.New(cfg, logger)
	}

	pipe := pipeline.New(cfg, source, fallback,
		services.NewNormalizer(logger), services.NewScorer(cfg.Weights),
		repo, csvWriter, logger)

	summary, err := pipe.Run(context.Background(), pipeline.Trigger{})
	if err != nil {
		logger.Error("Pipeline run failed: %v", err)
		os.Exit(1)
	}

	if summary.Synthetic {
		logger.Warn("Live acquisition unavailable — results are synthetic")
	}

	deals, err := repo.TopDeals(5)
	if err != nil {
		logger.Error("Failed to fetch top deals: %v", err)
		os.Exit(1)
	}
	stats, err := repo.Stats()
	if err != nil {
		logger.Error("Failed to fetch stats: %v", err)
		os.Exit(1)
	}

	services.NewReporter().Print(deals, stats)

	logger.Info("Done. Raw CSV → %s | listings + scores → %s", cfg.CSVOutputPath, cfg.StorageDriver)
}

func openRepository(cfg *config.Config) (storage.Repository, error) {
	if cfg.StorageDriver == config.DriverPostgres {
		return storage.NewPostgres(cfg.DSN())
	}
	return storage.NewSQLite(cfg.SQLitePath)
}
