package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/maltedev/smartphone-scraper/internal/app"
	"github.com/maltedev/smartphone-scraper/internal/config"
	"github.com/maltedev/smartphone-scraper/internal/metrics"
	"github.com/maltedev/smartphone-scraper/internal/storage"
	"github.com/maltedev/smartphone-scraper/pkg/logger"
)

func main() {
	var (
		output    = flag.String("output", "", "Output file (default from SCRAPER_OUTPUT)")
		baseURL   = flag.String("url", "", "Listing URL (default from SCRAPER_BASE_URL)")
		dedupMode = flag.String("dedup", "", "Dedup mode: strict or keep-first")
		fetchMode = flag.String("fetch", "", "Fetch mode: http or browser")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *output != "" {
		cfg.Scraper.Output = *output
	}
	if *baseURL != "" {
		cfg.Scraper.BaseURL = *baseURL
	}
	if *dedupMode != "" {
		cfg.Scraper.DedupMode = *dedupMode
	}
	if *fetchMode != "" {
		cfg.Scraper.FetchMode = *fetchMode
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Starting smartphone scraper", "url", cfg.Scraper.BaseURL, "fetch_mode", cfg.Scraper.FetchMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received")
		cancel()
	}()

	rt, err := app.New(cfg, metrics.New(), logger)
	if err != nil {
		logger.Error("Failed to initialize fetcher", "error", err)
		os.Exit(1)
	}
	defer rt.Close()

	crawler, err := rt.NewCrawler("", "", os.Stdout, storage.NewJSONFile(cfg.Scraper.Output))
	if err != nil {
		logger.Error("Failed to create crawler", "error", err)
		os.Exit(1)
	}

	products, summary, err := crawler.Run(ctx)
	if err != nil {
		logger.Error("Crawl failed", "error", err)
		rt.Close()
		os.Exit(1)
	}

	logger.Info("Crawl complete",
		"run_id", summary.RunID,
		"products", len(products),
		"failed_pages", len(summary.FailedPages),
		"output", cfg.Scraper.Output,
		"duration", summary.Duration(),
	)
}
