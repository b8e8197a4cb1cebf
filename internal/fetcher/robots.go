package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/temoto/robotstxt"
)

// CheckRobots reports whether userAgent may crawl pageURL according to the
// host's robots.txt. A robots.txt that cannot be fetched or parsed allows
// crawling.
func (f *HTTPFetcher) CheckRobots(ctx context.Context, pageURL string) (bool, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return false, fmt.Errorf("invalid URL %q: %w", pageURL, err)
	}

	robotsURL := &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/robots.txt"}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL.String(), nil)
	if err != nil {
		return true, nil
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn("could not fetch robots.txt", "url", robotsURL.String(), "error", err)
		return true, nil
	}
	defer resp.Body.Close()

	robots, err := robotstxt.FromResponse(resp)
	if err != nil {
		f.logger.Warn("could not parse robots.txt", "url", robotsURL.String(), "error", err)
		return true, nil
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}

	return robots.TestAgent(path, f.userAgent), nil
}
