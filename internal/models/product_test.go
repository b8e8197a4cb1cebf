package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListingExpand(t *testing.T) {
	listing := &Listing{
		Title:      "iPhone 11 128GB",
		Price:      699.99,
		ImageURL:   "https://example.com/iphone.png",
		CapacityMB: 128000,
		Colours:    []string{"black", "white"},
	}

	products := listing.Expand()

	assert.Len(t, products, 2)
	assert.Equal(t, "black", products[0].Colour)
	assert.Equal(t, "white", products[1].Colour)

	products[1].Colour = products[0].Colour
	assert.True(t, products[0] == products[1])
}

func TestListingExpandWithoutColours(t *testing.T) {
	listing := &Listing{Title: "Nokia 3310 16MB", CapacityMB: 16}

	assert.Empty(t, listing.Expand())
}

func TestProductValidate(t *testing.T) {
	p := &Product{Title: "Galaxy S10", CapacityMB: 64000, Colour: "blue"}
	assert.Empty(t, p.Validate())

	p = &Product{CapacityMB: -1}
	errs := p.Validate()
	assert.Len(t, errs, 3)
	assert.Contains(t, errs, "colour is required")
}
