package parser

import (
	"sort"
)

// Decimal megabytes per capacity unit.
var megabytesPerUnit = map[string]float64{
	"PB": 1000 * 1000 * 1000,
	"TB": 1000 * 1000,
	"GB": 1000,
	"MB": 1,
	"KB": 1.0 / 1000,
}

// MegabytesPerUnit returns the multiplier that converts a value in the given
// unit to megabytes. Labels outside the table return 0.
func MegabytesPerUnit(label string) float64 {
	return megabytesPerUnit[label]
}

// UnitLabels lists the known labels, largest unit first.
func UnitLabels() []string {
	labels := make([]string, 0, len(megabytesPerUnit))
	for label := range megabytesPerUnit {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		return megabytesPerUnit[labels[i]] > megabytesPerUnit[labels[j]]
	})
	return labels
}
