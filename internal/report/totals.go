package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/GabrielSchiavo/smartstock-sub002/pkg/errors"
)

// LineItem is a quantity tagged with its unit, as assembled by the
// caller from product or stock-movement rows.
type LineItem struct {
	Quantity float64
	Unit     Unit
}

// Totals holds one running sum per unit. Units are never combined or
// converted: KG and G accumulate separately.
type Totals map[Unit]float64

// Aggregate folds line items into per-unit totals. Empty input yields
// all-zero totals. A negative or non-finite quantity indicates a bug
// upstream and fails with an invalid-quantity error.
func Aggregate(items []LineItem) (Totals, error) {
	totals := Totals{}
	for _, u := range CanonicalUnits {
		totals[u] = 0
	}

	for i, item := range items {
		if !item.Unit.Valid() {
			return nil, errors.BadRequest(fmt.Sprintf("item %d: invalid unit: %s", i, item.Unit))
		}
		if math.IsNaN(item.Quantity) || math.IsInf(item.Quantity, 0) {
			return nil, errors.InvalidQuantity(fmt.Sprintf("item %d: quantity is not finite", i))
		}
		if item.Quantity < 0 {
			return nil, errors.InvalidQuantity(fmt.Sprintf("item %d: negative quantity %v", i, item.Quantity))
		}
		totals[item.Unit] += item.Quantity
	}

	return totals, nil
}

// Summarize renders units with a nonzero total in canonical order,
// comma-joined, e.g. "12 KG, 500 G". Input ordering never affects the
// output.
func Summarize(totals Totals) string {
	parts := make([]string, 0, len(CanonicalUnits))
	for _, u := range CanonicalUnits {
		if totals[u] == 0 {
			continue
		}
		parts = append(parts, formatQuantity(totals[u])+" "+string(u))
	}
	return strings.Join(parts, ", ")
}

// formatQuantity renders a quantity without trailing zeros.
func formatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}
