package scraper

import (
	"fmt"

	"github.com/maltedev/smartphone-scraper/internal/models"
)

type DedupMode string

const (
	// DedupStrict drops every member of a group of equal records, including
	// the first one.
	DedupStrict DedupMode = "strict"
	// DedupKeepFirst keeps the first record of each group.
	DedupKeepFirst DedupMode = "keep-first"
)

func ParseDedupMode(s string) (DedupMode, error) {
	switch mode := DedupMode(s); mode {
	case DedupStrict, DedupKeepFirst:
		return mode, nil
	case "":
		return DedupStrict, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDedupMode, s)
	}
}

// Deduplicate filters products according to mode, preserving input order.
func Deduplicate(products []models.Product, mode DedupMode) []models.Product {
	if mode == DedupKeepFirst {
		return keepFirst(products)
	}
	return RemoveDuplicates(products)
}

// RemoveDuplicates drops every product that is field-wise equal to another
// product at a different position. A record appearing twice or more therefore
// disappears entirely.
func RemoveDuplicates(products []models.Product) []models.Product {
	counts := make(map[models.Product]int, len(products))
	for _, p := range products {
		counts[p]++
	}

	kept := make([]models.Product, 0, len(products))
	for _, p := range products {
		if counts[p] == 1 {
			kept = append(kept, p)
		}
	}
	return kept
}

func keepFirst(products []models.Product) []models.Product {
	seen := make(map[models.Product]struct{}, len(products))

	kept := make([]models.Product, 0, len(products))
	for _, p := range products {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		kept = append(kept, p)
	}
	return kept
}
