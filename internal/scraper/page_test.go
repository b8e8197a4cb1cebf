package scraper

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/smartphone-scraper/internal/metrics"
	"github.com/maltedev/smartphone-scraper/internal/models"
	"github.com/maltedev/smartphone-scraper/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "https://www.magpiehq.com/developer-challenge/smartphones/"

func listing(title, price string, colours ...string) string {
	var swatches strings.Builder
	for _, c := range colours {
		swatches.WriteString(`<div class="px-2"><span data-colour="` + c + `"></span></div>`)
	}

	return `<div class="product"><div>
		<img src="../images/phone.png">
		<h3><span>` + title + `</span></h3>
		<div><div class="flex">` + swatches.String() + `</div></div>
		<div class="price">` + price + `</div>
		<div>Availability: In Stock</div>
		<div>Delivery by 21 Jul 2023</div>
	</div></div>`
}

func pageDoc(t *testing.T, body string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body>" + body + "</body></html>"))
	require.NoError(t, err)
	return doc
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPageCrawler(t *testing.T, console io.Writer) *PageCrawler {
	t.Helper()
	p, err := parser.NewProductParser(testBaseURL, "£")
	require.NoError(t, err)
	return NewPageCrawler(p, console, metrics.New(), testLogger())
}

func TestPageCount(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected int
	}{
		{"Marker present", `<p>Page 1 of 3</p>`, 3},
		{"Marker split over whitespace", "<p>Page\n 1   of\n 12</p>", 12},
		{"No marker", `<p>Smartphones</p>`, 1},
		{"Zero pages", `<p>Page 1 of 0</p>`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PageCount(pageDoc(t, tt.body)))
		})
	}
}

func TestCrawlExpandsColours(t *testing.T) {
	var console bytes.Buffer
	pc := newTestPageCrawler(t, &console)

	records, stats := pc.Crawl(pageDoc(t, listing("iPhone 12 128GB", "£699.99", "Red", "Blue")), nil)

	require.Len(t, records, 2)
	assert.Equal(t, "red", records[0].Colour)
	assert.Equal(t, "blue", records[1].Colour)
	for _, r := range records {
		assert.Equal(t, "iPhone 12 128GB", r.Title)
		assert.InDelta(t, 699.99, r.Price, 0.0001)
		assert.InDelta(t, 128000.0, r.CapacityMB, 0.0001)
		assert.Equal(t, "https://www.magpiehq.com/developer-challenge/images/phone.png", r.ImageURL)
		assert.True(t, r.IsAvailable)
		assert.Equal(t, "In Stock", r.AvailabilityText)
		assert.Equal(t, "Delivery by 21 Jul 2023", r.ShippingText)
		assert.Equal(t, "2023-07-21", r.ShippingDate)
	}

	assert.Equal(t, 1, stats.Listings)
	assert.Equal(t, 0, stats.Skipped)
	assert.Equal(t, 2, stats.Records)
	assert.Empty(t, console.String())
}

func TestCrawlAppendsToAccumulator(t *testing.T) {
	pc := newTestPageCrawler(t, io.Discard)
	existing := []models.Product{{Title: "Existing", Colour: "black"}}

	records, _ := pc.Crawl(pageDoc(t, listing("Pixel 7 256GB", "£599", "Green")), existing)

	require.Len(t, records, 2)
	assert.Equal(t, "Existing", records[0].Title)
	assert.Equal(t, "Pixel 7 256GB", records[1].Title)
}

func TestCrawlSkipsListingsMissingMandatoryFields(t *testing.T) {
	tests := []struct {
		name    string
		html    string
		field   string
		console string
	}{
		{
			name:    "No title",
			html:    `<div class="product"><div><div>£10</div></div><span data-colour="Black"></span></div>`,
			field:   FieldTitle,
			console: "Failed to get product title\n",
		},
		{
			name:    "No price",
			html:    `<div class="product"><h3>Phone 64GB</h3><div><div>Call us</div></div><span data-colour="Black"></span></div>`,
			field:   FieldPrice,
			console: "Failed to get product price\n",
		},
		{
			name:    "No capacity",
			html:    listing("Mystery Phone", "£100", "Black"),
			field:   FieldCapacity,
			console: "Failed to get product capacity\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var console bytes.Buffer
			pc := newTestPageCrawler(t, &console)

			records, stats := pc.Crawl(pageDoc(t, tt.html), nil)

			assert.Empty(t, records)
			assert.Equal(t, 1, stats.Skipped)
			assert.Equal(t, 1, stats.Failures[tt.field])
			assert.Equal(t, tt.console, console.String())
		})
	}
}

func TestCrawlOptionalFieldFailures(t *testing.T) {
	var console bytes.Buffer
	pc := newTestPageCrawler(t, &console)

	html := `<div class="product">
		<h3>Nokia 3310 16MB</h3>
		<span data-colour="Grey"></span>
		<div><div>£49.99</div><div>Limited edition</div></div>
	</div>`

	records, stats := pc.Crawl(pageDoc(t, html), nil)

	require.Len(t, records, 1)
	r := records[0]
	assert.Equal(t, models.NotAvailable, r.ImageURL)
	assert.False(t, r.IsAvailable)
	assert.Empty(t, r.AvailabilityText)
	assert.Empty(t, r.ShippingText)
	assert.Empty(t, r.ShippingDate)

	assert.Equal(t, 0, stats.Skipped)
	assert.Equal(t, "Failed to get product image url\nFailed to get product availability\n", console.String())
}

func TestCrawlListingWithoutColours(t *testing.T) {
	var console bytes.Buffer
	pc := newTestPageCrawler(t, &console)

	records, stats := pc.Crawl(pageDoc(t, listing("iPhone 11 64GB", "£499")), nil)

	assert.Empty(t, records)
	assert.Equal(t, 1, stats.Listings)
	assert.Equal(t, 0, stats.Skipped)
	assert.Empty(t, console.String())
}

func TestCrawlIgnoresBlankSwatches(t *testing.T) {
	var console bytes.Buffer
	pc := newTestPageCrawler(t, &console)

	html := strings.Replace(listing("iPhone 11 64GB", "£499", "Black"), `<div class="px-2">`, `<div class="px-2"><span data-colour=""></span></div><div class="px-2">`, 1)
	records, stats := pc.Crawl(pageDoc(t, html), nil)

	require.Len(t, records, 1)
	assert.Equal(t, "black", records[0].Colour)
	assert.Equal(t, 1, stats.Records)
	assert.Empty(t, console.String())
}

func TestValidProductsDropsInvalidRecords(t *testing.T) {
	pc := newTestPageCrawler(t, io.Discard)
	var stats PageStats

	products := []models.Product{
		{Title: "iPhone 11 64GB", Colour: ""},
		{Title: "iPhone 11 64GB", Colour: "black"},
		{Title: "", Colour: "white"},
	}

	valid := pc.validProducts(products, testBaseURL, 0, &stats)

	require.Len(t, valid, 1)
	assert.Equal(t, "black", valid[0].Colour)
	assert.Equal(t, 2, stats.Invalid)
}
