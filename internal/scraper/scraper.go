package scraper

import (
	"context"
	"errors"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/smartphone-scraper/internal/fetcher"
)

var (
	ErrFirstPage        = errors.New("failed to fetch first listing page")
	ErrInvalidDedupMode = errors.New("invalid dedup mode")
)

// Fetcher retrieves listing pages as queryable documents.
type Fetcher interface {
	FetchOne(ctx context.Context, url string) (*goquery.Document, error)
	FetchMany(ctx context.Context, urls []string) []fetcher.Result
}

// Field names used in failure reports and metrics.
const (
	FieldTitle        = "title"
	FieldPrice        = "price"
	FieldImageURL     = "image url"
	FieldCapacity     = "capacity"
	FieldColours      = "colours"
	FieldAvailability = "availability"
	FieldShipping     = "shipping text"
	FieldShippingDate = "shipping date"
)
