package parser

import (
	"errors"

	"github.com/PuerkitoBio/goquery"
)

var (
	ErrTitleNotFound        = errors.New("title not found")
	ErrPriceNotFound        = errors.New("price not found")
	ErrImageNotFound        = errors.New("image not found")
	ErrCapacityNotFound     = errors.New("capacity not found")
	ErrAvailabilityNotFound = errors.New("availability not found")
	ErrShippingNotFound     = errors.New("shipping text not found")
	ErrDateNotFound         = errors.New("shipping date not found")
)

// Parser extracts the fields of a single listing node. Every method either
// returns a value or one of the sentinel errors above; none of them panic on
// missing markup.
type Parser interface {
	ExtractTitle(node *goquery.Selection) (string, error)
	ExtractPrice(node *goquery.Selection) (float64, error)
	ExtractImageURL(node *goquery.Selection) (string, error)
	ExtractCapacity(title string) (float64, error)
	ExtractColours(node *goquery.Selection) []string
	ExtractAvailability(node *goquery.Selection) (*Availability, error)
	ExtractShippingText(node *goquery.Selection) (string, error)
	ResolveShippingDate(shippingText string) (string, error)
}

type Availability struct {
	InStock bool
	Text    string
}
