package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/smartphone-scraper/internal/ratelimit"
	"golang.org/x/net/html/charset"
	"golang.org/x/sync/errgroup"
)

var (
	ErrUnexpectedStatus = errors.New("unexpected status code")
	ErrDisallowed       = errors.New("crawling disallowed by robots.txt")
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Result is the outcome of fetching one URL as part of a batch.
type Result struct {
	URL string
	Doc *goquery.Document
	Err error
}

type Options struct {
	Timeout         time.Duration
	UserAgent       string
	ConcurrentLimit int
	RateLimiter     ratelimit.RateLimiter
}

func DefaultOptions() *Options {
	return &Options{
		Timeout:         30 * time.Second,
		UserAgent:       DefaultUserAgent,
		ConcurrentLimit: 5,
		RateLimiter:     ratelimit.Unlimited{},
	}
}

// HTTPFetcher downloads pages with net/http and parses them with goquery.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	limit     int
	limiter   ratelimit.RateLimiter
	logger    *slog.Logger
}

func New(opts *Options, logger *slog.Logger) *HTTPFetcher {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.ConcurrentLimit < 1 {
		opts.ConcurrentLimit = 1
	}
	if opts.RateLimiter == nil {
		opts.RateLimiter = ratelimit.Unlimited{}
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	return &HTTPFetcher{
		client:    &http.Client{Timeout: opts.Timeout},
		userAgent: opts.UserAgent,
		limit:     opts.ConcurrentLimit,
		limiter:   opts.RateLimiter,
		logger:    logger.With("component", "fetcher"),
	}
}

func (f *HTTPFetcher) Client() *http.Client {
	return f.client
}

func (f *HTTPFetcher) UserAgent() string {
	return f.userAgent
}

func (f *HTTPFetcher) FetchOne(ctx context.Context, rawURL string) (*goquery.Document, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w %d for %s", ErrUnexpectedStatus, resp.StatusCode, rawURL)
	}

	reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("failed to decode body of %s: %w", rawURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML from %s: %w", rawURL, err)
	}
	doc.Url = resp.Request.URL

	f.logger.Debug("fetched page", "url", rawURL, "status", resp.StatusCode, "elapsed", time.Since(start))
	return doc, nil
}

// FetchMany fetches every URL with at most ConcurrentLimit requests in flight.
// A failure is reported in that URL's Result and does not stop the batch.
func (f *HTTPFetcher) FetchMany(ctx context.Context, urls []string) []Result {
	return FetchAll(ctx, urls, f.limit, f.FetchOne)
}

// FetchAll runs fetch over urls with bounded concurrency. Results keep the
// order of urls.
func FetchAll(ctx context.Context, urls []string, limit int, fetch func(context.Context, string) (*goquery.Document, error)) []Result {
	if limit < 1 {
		limit = 1
	}

	results := make([]Result, len(urls))

	var g errgroup.Group
	g.SetLimit(limit)

	for i, u := range urls {
		g.Go(func() error {
			doc, err := fetch(ctx, u)
			results[i] = Result{URL: u, Doc: doc, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// PageURL sets the 1-based page parameter on the listing URL.
func PageURL(baseURL, param string, page int) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}

	q := u.Query()
	q.Set(param, fmt.Sprint(page))
	u.RawQuery = q.Encode()

	return u.String(), nil
}
