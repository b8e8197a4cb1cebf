package models

import (
	"time"
)

// NotAvailable is stored in place of an image URL that could not be extracted.
const NotAvailable = "N/A"

// Product is one colour variant of a listing. All fields are comparable so two
// products can be checked for equality with ==.
type Product struct {
	Title            string  `json:"title"`
	Price            float64 `json:"price"`
	ImageURL         string  `json:"imageUrl"`
	CapacityMB       float64 `json:"capacityMB"`
	Colour           string  `json:"colour"`
	IsAvailable      bool    `json:"isAvailable"`
	AvailabilityText string  `json:"availabilityText"`
	ShippingText     string  `json:"shippingText"`
	ShippingDate     string  `json:"shippingDate"`
}

// Listing holds the fields extracted once per listing node, before it is
// expanded into one Product per colour.
type Listing struct {
	Title            string
	Price            float64
	ImageURL         string
	CapacityMB       float64
	Colours          []string
	IsAvailable      bool
	AvailabilityText string
	ShippingText     string
	ShippingDate     string
}

// Expand builds one product per colour. A listing without colours yields none.
func (l *Listing) Expand() []Product {
	products := make([]Product, 0, len(l.Colours))
	for _, colour := range l.Colours {
		products = append(products, Product{
			Title:            l.Title,
			Price:            l.Price,
			ImageURL:         l.ImageURL,
			CapacityMB:       l.CapacityMB,
			Colour:           colour,
			IsAvailable:      l.IsAvailable,
			AvailabilityText: l.AvailabilityText,
			ShippingText:     l.ShippingText,
			ShippingDate:     l.ShippingDate,
		})
	}
	return products
}

func (p *Product) Validate() []string {
	var errors []string

	if p.Title == "" {
		errors = append(errors, "title is required")
	}

	if p.Colour == "" {
		errors = append(errors, "colour is required")
	}

	if p.CapacityMB < 0 {
		errors = append(errors, "capacity must not be negative")
	}

	return errors
}

// RunSummary describes the outcome of one crawl run.
type RunSummary struct {
	RunID              string         `json:"run_id"`
	BaseURL            string         `json:"base_url"`
	PagesDiscovered    int            `json:"pages_discovered"`
	PagesCrawled       int            `json:"pages_crawled"`
	FailedPages        []string       `json:"failed_pages,omitempty"`
	ListingsSeen       int            `json:"listings_seen"`
	ListingsSkipped    int            `json:"listings_skipped"`
	RecordsInvalid     int            `json:"records_invalid"`
	RecordsExtracted   int            `json:"records_extracted"`
	RecordsKept        int            `json:"records_kept"`
	ExtractionFailures map[string]int `json:"extraction_failures,omitempty"`
	StartedAt          time.Time      `json:"started_at"`
	FinishedAt         time.Time      `json:"finished_at"`
}

func NewRunSummary(runID, baseURL string) *RunSummary {
	return &RunSummary{
		RunID:              runID,
		BaseURL:            baseURL,
		ExtractionFailures: make(map[string]int),
		StartedAt:          time.Now(),
	}
}

func (s *RunSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
