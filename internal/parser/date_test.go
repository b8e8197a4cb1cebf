package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateResolverResolve(t *testing.T) {
	resolver := NewDateResolver()

	tests := []struct {
		name     string
		text     string
		expected string
		hasError bool
	}{
		{"ISO date", "2024-01-15", "2024-01-15", false},
		{"Day month year", "15 Jan 2024", "2024-01-15", false},
		{"Embedded date", "Delivered by 15 Jan 2024", "2024-01-15", false},
		{"Embedded date with ordinal and weekday", "Delivery by Wednesday 19th Jul 2023", "2023-07-19", false},
		{"Embedded full month name", "Delivery from 3 March 2025", "2025-03-03", false},
		{"No date content", "Free Delivery", "", true},
		{"Digits without month", "Order within 6 hours", "", true},
		{"Empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := resolver.Resolve(tt.text)
			if tt.hasError {
				assert.ErrorIs(t, err, ErrDateNotFound)
				assert.Empty(t, result)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestMegabytesPerUnit(t *testing.T) {
	assert.Equal(t, 1e9, MegabytesPerUnit("PB"))
	assert.Equal(t, 1e6, MegabytesPerUnit("TB"))
	assert.Equal(t, 1000.0, MegabytesPerUnit("GB"))
	assert.Equal(t, 1.0, MegabytesPerUnit("MB"))
	assert.Equal(t, 0.001, MegabytesPerUnit("KB"))
	assert.Zero(t, MegabytesPerUnit("EB"))
}

func TestUnitLabelsLargestFirst(t *testing.T) {
	assert.Equal(t, []string{"PB", "TB", "GB", "MB", "KB"}, UnitLabels())
}
