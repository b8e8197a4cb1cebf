package parser

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	DefaultCurrencySymbol = "£"

	availabilityLabel   = "Availability:"
	availabilityInStock = "In Stock"
	shippingDelivery    = "delivery"
	shippingFree        = "Free Shipping"

	titleSelector     = "h3"
	containerSelector = "div div"
	imageSelector     = "img"
	colourSelector    = "span[data-colour]"
	colourAttr        = "data-colour"
)

type ProductParser struct {
	baseURL         *url.URL
	currencySymbol  string
	capacityPattern *regexp.Regexp
	numberPattern   *regexp.Regexp
	digitsPattern   *regexp.Regexp
	dates           *DateResolver
}

// NewProductParser builds a parser that resolves image URLs against baseURL
// and strips currencySymbol from prices.
func NewProductParser(baseURL, currencySymbol string) (*ProductParser, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}

	if currencySymbol == "" {
		currencySymbol = DefaultCurrencySymbol
	}

	units := strings.Join(UnitLabels(), "|")

	return &ProductParser{
		baseURL:         base,
		currencySymbol:  currencySymbol,
		capacityPattern: regexp.MustCompile(`(\d+)\s*(` + units + `)`),
		numberPattern:   regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`),
		digitsPattern:   regexp.MustCompile(`[0-9]+`),
		dates:           NewDateResolver(),
	}, nil
}

func (p *ProductParser) ExtractTitle(node *goquery.Selection) (string, error) {
	title := node.Find(titleSelector)
	if title.Length() == 0 {
		return "", ErrTitleNotFound
	}
	return NormalizeText(title.First().Text()), nil
}

// ExtractPrice reads the last nested container mentioning the currency symbol.
// Text after the symbol that is not numeric yields 0 rather than an error.
func (p *ProductParser) ExtractPrice(node *goquery.Selection) (float64, error) {
	containers := p.containersContaining(node, p.currencySymbol)
	if containers.Length() == 0 {
		return 0, ErrPriceNotFound
	}
	return p.ParsePrice(containers.Last().Text()), nil
}

// ParsePrice strips the currency symbol and reads the leading number.
func (p *ProductParser) ParsePrice(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(NormalizeText(s), p.currencySymbol, ""))
	s = strings.ReplaceAll(s, ",", "")

	match := p.numberPattern.FindString(s)
	if match == "" {
		return 0
	}

	val, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return val
}

func (p *ProductParser) ExtractImageURL(node *goquery.Selection) (string, error) {
	img := node.Find(imageSelector).First()
	if img.Length() == 0 {
		return "", ErrImageNotFound
	}

	src, exists := img.Attr("src")
	if !exists || strings.TrimSpace(src) == "" {
		return "", ErrImageNotFound
	}

	return p.ResolveURL(src)
}

// ResolveURL turns a relative or protocol-relative reference into an absolute
// URL against the parser's base URL.
func (p *ProductParser) ResolveURL(ref string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", fmt.Errorf("invalid image URL %q: %w", ref, err)
	}
	return p.baseURL.ResolveReference(u).String(), nil
}

// ExtractCapacity finds the first "<digits><unit>" in the title and converts it
// to megabytes.
func (p *ProductParser) ExtractCapacity(title string) (float64, error) {
	matches := p.capacityPattern.FindStringSubmatch(title)
	if len(matches) < 3 {
		return 0, ErrCapacityNotFound
	}

	raw, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCapacityNotFound, err)
	}

	return raw * MegabytesPerUnit(matches[2]), nil
}

// ExtractColours returns the lower-cased colour of every swatch. Swatches
// with a blank colour are ignored. No swatches is a valid, empty result.
func (p *ProductParser) ExtractColours(node *goquery.Selection) []string {
	colours := make([]string, 0)
	node.Find(colourSelector).Each(func(i int, s *goquery.Selection) {
		colour, _ := s.Attr(colourAttr)
		if colour = strings.TrimSpace(colour); colour != "" {
			colours = append(colours, strings.ToLower(colour))
		}
	})
	return colours
}

func (p *ProductParser) ExtractAvailability(node *goquery.Selection) (*Availability, error) {
	containers := p.containersContaining(node, availabilityLabel)
	if containers.Length() == 0 {
		return nil, ErrAvailabilityNotFound
	}

	text := NormalizeText(containers.Last().Text())

	return &Availability{
		InStock: strings.Contains(text, availabilityInStock),
		Text:    strings.ReplaceAll(text, availabilityLabel+" ", ""),
	}, nil
}

// ExtractShippingText returns the last nested container's text when it looks
// like shipping information.
func (p *ProductParser) ExtractShippingText(node *goquery.Selection) (string, error) {
	last := node.Find(containerSelector).Last()
	if last.Length() == 0 {
		return "", ErrShippingNotFound
	}

	text := NormalizeText(last.Text())
	if strings.Contains(text, shippingDelivery) ||
		strings.Contains(text, shippingFree) ||
		p.digitsPattern.MatchString(text) {
		return text, nil
	}

	return "", ErrShippingNotFound
}

func (p *ProductParser) ResolveShippingDate(shippingText string) (string, error) {
	return p.dates.Resolve(shippingText)
}

func (p *ProductParser) containersContaining(node *goquery.Selection, needle string) *goquery.Selection {
	return node.Find(containerSelector).FilterFunction(func(i int, s *goquery.Selection) bool {
		return strings.Contains(s.Text(), needle)
	})
}

// NormalizeText trims the text and collapses runs of whitespace to one space.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
