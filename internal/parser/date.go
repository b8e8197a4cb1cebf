package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const DateLayout = "2006-01-02"

var monthAbbreviations = []string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// DateResolver turns free-form shipping text into a calendar date. It first
// parses the whole text, then falls back to the span running from the first
// digit through a month abbreviation to the last digit.
type DateResolver struct {
	location      *time.Location
	fallback      *regexp.Regexp
	ordinalSuffix *regexp.Regexp
}

func NewDateResolver() *DateResolver {
	return &DateResolver{
		location:      time.UTC,
		fallback:      regexp.MustCompile(`\d(.+)(` + strings.Join(monthAbbreviations, "|") + `)(.+)(\d+)`),
		ordinalSuffix: regexp.MustCompile(`\b(\d{1,2})(st|nd|rd|th)\b`),
	}
}

// Resolve returns the date formatted as YYYY-MM-DD, or ErrDateNotFound.
func (r *DateResolver) Resolve(text string) (string, error) {
	text = NormalizeText(text)
	if text == "" {
		return "", ErrDateNotFound
	}

	if t, err := r.parse(text); err == nil {
		return t.Format(DateLayout), nil
	}

	span := r.fallback.FindString(text)
	if span == "" {
		return "", ErrDateNotFound
	}

	t, err := r.parse(span)
	if err != nil {
		return "", ErrDateNotFound
	}

	return t.Format(DateLayout), nil
}

func (r *DateResolver) parse(s string) (time.Time, error) {
	s = r.ordinalSuffix.ReplaceAllString(s, "$1")
	return dateparse.ParseIn(s, r.location)
}
