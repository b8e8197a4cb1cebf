package main

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/maltedev/smartphone-scraper/internal/api"
	"github.com/maltedev/smartphone-scraper/internal/app"
	"github.com/maltedev/smartphone-scraper/internal/config"
	"github.com/maltedev/smartphone-scraper/internal/jobs"
	"github.com/maltedev/smartphone-scraper/internal/metrics"
	"github.com/maltedev/smartphone-scraper/internal/models"
	"github.com/maltedev/smartphone-scraper/internal/queue"
	"github.com/maltedev/smartphone-scraper/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()

	rt, err := app.New(cfg, m, logger)
	if err != nil {
		logger.Error("failed to initialize fetcher", "error", err)
		os.Exit(1)
	}
	defer rt.Close()

	runQueue := queue.NewInMemoryQueue(cfg.Queue.MaxSize)
	defer runQueue.Close()

	runManager := jobs.NewManager(runQueue, func(ctx context.Context, task *queue.Task) ([]models.Product, *models.RunSummary, error) {
		crawler, err := rt.NewCrawler(task.BaseURL, task.DedupMode, io.Discard, nil)
		if err != nil {
			return nil, models.NewRunSummary(task.ID, task.BaseURL), err
		}
		return crawler.RunWithID(ctx, task.ID)
	}, logger)

	// Start run worker
	go runManager.StartWorker(ctx)

	handlers := api.NewHandlers(runManager, cfg.Scraper.BaseURL, cfg.Scraper.DedupMode, logger)

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://localhost:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		stats := runManager.GetStats()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":       "ok",
			"queued_runs":  stats.QueuedTasks,
			"running_runs": stats.RunningRuns,
		})
	})
	r.Handle("/metrics", m.Handler())

	r.Mount("/api/v1", handlers.Routes())

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("server starting", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
