package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/maltedev/smartphone-scraper/internal/fetcher"
	"github.com/maltedev/smartphone-scraper/internal/metrics"
	"github.com/maltedev/smartphone-scraper/internal/models"
	"github.com/maltedev/smartphone-scraper/internal/parser"
	"github.com/maltedev/smartphone-scraper/internal/storage"
)

// RobotsChecker reports whether a URL may be crawled.
type RobotsChecker interface {
	CheckRobots(ctx context.Context, pageURL string) (bool, error)
}

type Options struct {
	BaseURL   string
	PageParam string
	DedupMode DedupMode
	// Console receives the per-record and per-failure lines. Nil discards them.
	Console io.Writer
	// Writer persists the surviving records. Nil skips the output artifact.
	Writer  storage.ProductWriter
	Robots  RobotsChecker
	Metrics *metrics.Metrics
}

type Crawler struct {
	fetcher Fetcher
	pages   *PageCrawler
	opts    Options
	logger  *slog.Logger
}

func NewCrawler(f Fetcher, p parser.Parser, opts Options, logger *slog.Logger) *Crawler {
	if opts.PageParam == "" {
		opts.PageParam = "page"
	}
	if opts.DedupMode == "" {
		opts.DedupMode = DedupStrict
	}
	if opts.Console == nil {
		opts.Console = io.Discard
	}

	return &Crawler{
		fetcher: f,
		pages:   NewPageCrawler(p, opts.Console, opts.Metrics, logger),
		opts:    opts,
		logger:  logger.With("component", "crawler"),
	}
}

// Run crawls every listing page, deduplicates the records and writes them
// out. Only a failure on the first page aborts the run; later pages that fail
// to load are recorded in the summary and skipped.
func (c *Crawler) Run(ctx context.Context) ([]models.Product, *models.RunSummary, error) {
	return c.RunWithID(ctx, uuid.NewString())
}

func (c *Crawler) RunWithID(ctx context.Context, runID string) (products []models.Product, summary *models.RunSummary, err error) {
	summary = models.NewRunSummary(runID, c.opts.BaseURL)
	logger := c.logger.With("run_id", runID)

	defer func() {
		summary.FinishedAt = time.Now()
		c.opts.Metrics.RunFinished(err, summary.Duration())
	}()

	logger.Info("starting crawl", "base_url", c.opts.BaseURL, "dedup_mode", c.opts.DedupMode)

	firstURL, err := fetcher.PageURL(c.opts.BaseURL, c.opts.PageParam, 1)
	if err != nil {
		return nil, summary, fmt.Errorf("%w: %w", ErrFirstPage, err)
	}

	if c.opts.Robots != nil {
		allowed, err := c.opts.Robots.CheckRobots(ctx, firstURL)
		if err != nil {
			logger.Warn("robots check failed, continuing", "error", err)
		} else if !allowed {
			return nil, summary, fmt.Errorf("%w: %s", fetcher.ErrDisallowed, firstURL)
		}
	}

	first, err := c.fetcher.FetchOne(ctx, firstURL)
	c.opts.Metrics.PageFetched(err)
	if err != nil {
		return nil, summary, fmt.Errorf("%w: %w", ErrFirstPage, err)
	}

	total := PageCount(first)
	summary.PagesDiscovered = total
	summary.PagesCrawled = 1
	logger.Info("discovered pages", "total", total)

	var records []models.Product
	records = c.crawlPage(first, records, summary)

	if total > 1 {
		urls := make([]string, 0, total-1)
		for page := 2; page <= total; page++ {
			u, err := fetcher.PageURL(c.opts.BaseURL, c.opts.PageParam, page)
			if err != nil {
				return nil, summary, err
			}
			urls = append(urls, u)
		}

		for _, res := range c.fetcher.FetchMany(ctx, urls) {
			c.opts.Metrics.PageFetched(res.Err)
			if res.Err != nil {
				logger.Error("failed to fetch page, skipping", "url", res.URL, "error", res.Err)
				summary.FailedPages = append(summary.FailedPages, res.URL)
				continue
			}
			summary.PagesCrawled++
			records = c.crawlPage(res.Doc, records, summary)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, summary, err
	}

	summary.RecordsExtracted = len(records)
	products = Deduplicate(records, c.opts.DedupMode)
	summary.RecordsKept = len(products)
	c.opts.Metrics.DuplicatesDropped(len(records) - len(products))

	for _, p := range products {
		fmt.Fprintf(c.opts.Console, "   %s (%s)\n", p.Title, p.Colour)
	}

	if c.opts.Writer != nil {
		if err := c.opts.Writer.WriteProducts(products); err != nil {
			return products, summary, fmt.Errorf("failed to write products: %w", err)
		}
	}

	logger.Info("crawl finished",
		"pages_crawled", summary.PagesCrawled,
		"failed_pages", len(summary.FailedPages),
		"records_extracted", summary.RecordsExtracted,
		"records_kept", summary.RecordsKept,
		"duration", summary.Duration(),
	)

	return products, summary, nil
}

func (c *Crawler) crawlPage(doc *goquery.Document, acc []models.Product, summary *models.RunSummary) []models.Product {
	acc, stats := c.pages.Crawl(doc, acc)
	summary.ListingsSeen += stats.Listings
	summary.ListingsSkipped += stats.Skipped
	summary.RecordsInvalid += stats.Invalid
	for field, n := range stats.Failures {
		summary.ExtractionFailures[field] += n
	}
	return acc
}
