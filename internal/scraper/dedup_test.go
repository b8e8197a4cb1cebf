package scraper

import (
	"testing"

	"github.com/maltedev/smartphone-scraper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(title, colour string) models.Product {
	return models.Product{
		Title:      title,
		Price:      299.99,
		ImageURL:   "https://example.com/a.png",
		CapacityMB: 64000,
		Colour:     colour,
	}
}

func TestRemoveDuplicates(t *testing.T) {
	a := product("iPhone 11 64GB", "black")
	b := product("iPhone 11 64GB", "white")
	c := product("Galaxy S20 128GB", "black")

	tests := []struct {
		name     string
		input    []models.Product
		expected []models.Product
	}{
		{"Empty", nil, []models.Product{}},
		{"All unique", []models.Product{a, b, c}, []models.Product{a, b, c}},
		{"Pair is dropped entirely", []models.Product{a, a, b}, []models.Product{b}},
		{"Triple is dropped entirely", []models.Product{a, a, a}, []models.Product{}},
		{"Order is preserved", []models.Product{c, a, b, a}, []models.Product{c, b}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RemoveDuplicates(tt.input))
		})
	}
}

func TestRemoveDuplicatesComparesEveryField(t *testing.T) {
	a := product("iPhone 11 64GB", "black")
	b := a
	b.ShippingDate = "2023-07-19"

	assert.Len(t, RemoveDuplicates([]models.Product{a, b}), 2)
}

func TestDeduplicateKeepFirst(t *testing.T) {
	a := product("iPhone 11 64GB", "black")
	b := product("iPhone 11 64GB", "white")

	result := Deduplicate([]models.Product{a, b, a, a}, DedupKeepFirst)
	assert.Equal(t, []models.Product{a, b}, result)

	result = Deduplicate([]models.Product{a, b, a, a}, DedupStrict)
	assert.Equal(t, []models.Product{b}, result)
}

func TestParseDedupMode(t *testing.T) {
	tests := []struct {
		input    string
		expected DedupMode
		hasError bool
	}{
		{"strict", DedupStrict, false},
		{"keep-first", DedupKeepFirst, false},
		{"", DedupStrict, false},
		{"first", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			mode, err := ParseDedupMode(tt.input)
			if tt.hasError {
				assert.ErrorIs(t, err, ErrInvalidDedupMode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, mode)
		})
	}
}
