package scraper

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/smartphone-scraper/internal/metrics"
	"github.com/maltedev/smartphone-scraper/internal/models"
	"github.com/maltedev/smartphone-scraper/internal/parser"
)

const listingSelector = ".product"

var pageCountPattern = regexp.MustCompile(`Page \d+ of (\d+)`)

// PageCount reads the total from a "Page X of N" marker, defaulting to 1.
func PageCount(doc *goquery.Document) int {
	matches := pageCountPattern.FindStringSubmatch(parser.NormalizeText(doc.Text()))
	if len(matches) < 2 {
		return 1
	}

	n, err := strconv.Atoi(matches[1])
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// PageStats counts what happened to the listing nodes of one page.
type PageStats struct {
	Listings int
	Skipped  int
	Invalid  int
	Records  int
	Failures map[string]int
}

func (s *PageStats) fail(field string) {
	if s.Failures == nil {
		s.Failures = make(map[string]int)
	}
	s.Failures[field]++
}

// PageCrawler runs the field extractors over every listing on a page.
type PageCrawler struct {
	parser  parser.Parser
	console io.Writer
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewPageCrawler(p parser.Parser, console io.Writer, m *metrics.Metrics, logger *slog.Logger) *PageCrawler {
	if console == nil {
		console = io.Discard
	}
	return &PageCrawler{
		parser:  p,
		console: console,
		metrics: m,
		logger:  logger.With("component", "page_crawler"),
	}
}

// Crawl appends one product per listing colour to acc and returns the grown
// slice. Listings missing a title, price or capacity are skipped.
func (pc *PageCrawler) Crawl(doc *goquery.Document, acc []models.Product) ([]models.Product, PageStats) {
	var stats PageStats
	pageURL := ""
	if doc.Url != nil {
		pageURL = doc.Url.String()
	}

	doc.Find(listingSelector).Each(func(i int, node *goquery.Selection) {
		stats.Listings++
		pc.metrics.ListingProcessed()

		listing, ok := pc.extractListing(node, pageURL, i, &stats)
		if !ok {
			stats.Skipped++
			return
		}

		products := pc.validProducts(listing.Expand(), pageURL, i, &stats)
		stats.Records += len(products)
		pc.metrics.RecordsBuilt(len(products))
		acc = append(acc, products...)
	})

	pc.logger.Info("page crawled",
		"url", pageURL,
		"listings", stats.Listings,
		"skipped", stats.Skipped,
		"records", stats.Records,
	)

	return acc, stats
}

func (pc *PageCrawler) extractListing(node *goquery.Selection, pageURL string, index int, stats *PageStats) (*models.Listing, bool) {
	title, err := pc.parser.ExtractTitle(node)
	if err != nil {
		pc.reportFailure(FieldTitle, err, pageURL, index, stats)
		return nil, false
	}

	price, err := pc.parser.ExtractPrice(node)
	if err != nil {
		pc.reportFailure(FieldPrice, err, pageURL, index, stats)
		return nil, false
	}

	imageURL, err := pc.parser.ExtractImageURL(node)
	if err != nil {
		pc.reportFailure(FieldImageURL, err, pageURL, index, stats)
		imageURL = models.NotAvailable
	}

	capacity, err := pc.parser.ExtractCapacity(title)
	if err != nil {
		pc.reportFailure(FieldCapacity, err, pageURL, index, stats)
		return nil, false
	}

	listing := &models.Listing{
		Title:      title,
		Price:      price,
		ImageURL:   imageURL,
		CapacityMB: capacity,
		Colours:    pc.parser.ExtractColours(node),
	}

	availability, err := pc.parser.ExtractAvailability(node)
	if err != nil {
		pc.reportFailure(FieldAvailability, err, pageURL, index, stats)
	} else {
		listing.IsAvailable = availability.InStock
		listing.AvailabilityText = availability.Text
	}

	// Shipping information is optional and absent on many listings.
	if shipping, err := pc.parser.ExtractShippingText(node); err == nil {
		listing.ShippingText = shipping
		if date, err := pc.parser.ResolveShippingDate(shipping); err == nil {
			listing.ShippingDate = date
		} else {
			pc.logger.Debug("shipping date unresolved", "url", pageURL, "index", index, "text", shipping)
		}
	}

	return listing, true
}

// validProducts drops records that fail Product.Validate.
func (pc *PageCrawler) validProducts(products []models.Product, pageURL string, index int, stats *PageStats) []models.Product {
	valid := products[:0]
	for _, p := range products {
		if problems := p.Validate(); len(problems) > 0 {
			stats.Invalid++
			pc.logger.Warn("dropping invalid record", "url", pageURL, "index", index, "problems", problems)
			continue
		}
		valid = append(valid, p)
	}
	return valid
}

func (pc *PageCrawler) reportFailure(field string, err error, pageURL string, index int, stats *PageStats) {
	stats.fail(field)
	pc.metrics.ExtractionFailed(field)
	fmt.Fprintf(pc.console, "Failed to get product %s\n", field)
	pc.logger.Warn("extraction failed", "field", field, "url", pageURL, "index", index, "error", err)
}
