// Package report implements the aggregation and projection utilities
// behind dashboards and report generation: per-unit quantity totals,
// grouped table projection, and PDF/XLSX report writers.
package report

import (
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/errors"
)

// Unit is a measurement unit for product quantities. Units are tagged
// per batch and never converted across each other.
type Unit string

const (
	UnitKG Unit = "KG"
	UnitG  Unit = "G"
	UnitL  Unit = "L"
	UnitUN Unit = "UN"
)

// CanonicalUnits is the fixed display order for unit totals.
var CanonicalUnits = []Unit{UnitKG, UnitG, UnitL, UnitUN}

// Valid reports whether u is a known unit.
func (u Unit) Valid() bool {
	switch u {
	case UnitKG, UnitG, UnitL, UnitUN:
		return true
	}
	return false
}

// ParseUnit validates a raw unit string.
func ParseUnit(s string) (Unit, error) {
	u := Unit(s)
	if !u.Valid() {
		return "", errors.BadRequest("invalid unit: " + s)
	}
	return u, nil
}
