// Package app wires configuration into fetchers, parsers and crawlers for the
// command line and server entry points.
package app

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/maltedev/smartphone-scraper/internal/browser"
	"github.com/maltedev/smartphone-scraper/internal/config"
	"github.com/maltedev/smartphone-scraper/internal/fetcher"
	"github.com/maltedev/smartphone-scraper/internal/metrics"
	"github.com/maltedev/smartphone-scraper/internal/parser"
	"github.com/maltedev/smartphone-scraper/internal/ratelimit"
	"github.com/maltedev/smartphone-scraper/internal/scraper"
	"github.com/maltedev/smartphone-scraper/internal/storage"
)

type Runtime struct {
	cfg     *config.Config
	http    *fetcher.HTTPFetcher
	browser *browser.Browser
	fetcher scraper.Fetcher
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New builds the document fetcher selected by the fetch mode. The HTTP
// fetcher is always created since robots.txt is read over plain HTTP.
func New(cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) (*Runtime, error) {
	var limiter ratelimit.RateLimiter = ratelimit.Unlimited{}
	if cfg.Scraper.RateLimitMax > 0 {
		limiter = ratelimit.NewSimpleRateLimiter(cfg.Scraper.RateLimitMin, cfg.Scraper.RateLimitMax)
	}

	rt := &Runtime{
		cfg:     cfg,
		metrics: m,
		logger:  logger,
		http: fetcher.New(&fetcher.Options{
			Timeout:         cfg.Scraper.Timeout,
			UserAgent:       cfg.Scraper.UserAgent,
			ConcurrentLimit: cfg.Scraper.ConcurrentLimit,
			RateLimiter:     limiter,
		}, logger),
	}
	rt.fetcher = rt.http

	if cfg.Scraper.FetchMode == config.FetchModeBrowser {
		opts := browser.DefaultOptions()
		opts.Headless = cfg.Browser.Headless
		opts.Timeout = cfg.Browser.Timeout
		opts.UserAgent = cfg.Scraper.UserAgent
		opts.ViewportWidth = cfg.Browser.ViewportWidth
		opts.ViewportHeight = cfg.Browser.ViewportHeight
		opts.Locale = cfg.Browser.Locale

		b, err := browser.New(opts, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize browser: %w", err)
		}
		rt.browser = b
		rt.fetcher = b
	}

	return rt, nil
}

// NewCrawler builds a crawler for one run. Empty baseURL or dedupMode fall
// back to the configured values.
func (rt *Runtime) NewCrawler(baseURL, dedupMode string, console io.Writer, writer storage.ProductWriter) (*scraper.Crawler, error) {
	if baseURL == "" {
		baseURL = rt.cfg.Scraper.BaseURL
	}
	if dedupMode == "" {
		dedupMode = rt.cfg.Scraper.DedupMode
	}

	mode, err := scraper.ParseDedupMode(dedupMode)
	if err != nil {
		return nil, err
	}

	p, err := parser.NewProductParser(baseURL, rt.cfg.Scraper.CurrencySymbol)
	if err != nil {
		return nil, err
	}

	opts := scraper.Options{
		BaseURL:   baseURL,
		PageParam: rt.cfg.Scraper.PageParam,
		DedupMode: mode,
		Console:   console,
		Writer:    writer,
		Metrics:   rt.metrics,
	}
	if rt.cfg.Scraper.RespectRobots {
		opts.Robots = rt.http
	}

	return scraper.NewCrawler(rt.fetcher, p, opts, rt.logger), nil
}

func (rt *Runtime) Close() error {
	if rt.browser != nil {
		return rt.browser.Close()
	}
	return nil
}
