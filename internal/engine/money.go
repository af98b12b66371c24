package engine

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Catalog rows carry amounts as decimal strings ("12.50"). The engine
// converts them once at catalog build time and does all arithmetic in int64
// minor units, so repeated recomputation cannot drift.

// ParseAmount converts a decimal amount string into minor currency units.
func ParseAmount(s string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	minor := d.Shift(2)
	if !minor.IsInteger() {
		return 0, fmt.Errorf("invalid amount %q: more than two decimal places", s)
	}
	return minor.IntPart(), nil
}

func parseOptionalAmount(s *string) (int64, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return 0, nil
	}
	return ParseAmount(*s)
}

// FormatAmount renders minor units back into a two-decimal string.
func FormatAmount(v int64) string {
	return decimal.New(v, -2).StringFixed(2)
}
