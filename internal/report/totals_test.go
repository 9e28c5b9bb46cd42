package report

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/GabrielSchiavo/smartstock-sub002/pkg/errors"
)

func TestAggregate_Empty(t *testing.T) {
	totals, err := Aggregate(nil)
	require.NoError(t, err)

	assert.Equal(t, Totals{UnitKG: 0, UnitG: 0, UnitL: 0, UnitUN: 0}, totals)
}

func TestAggregate_PerUnitSums(t *testing.T) {
	totals, err := Aggregate([]LineItem{
		{Quantity: 12, Unit: UnitKG},
		{Quantity: 500, Unit: UnitG},
		{Quantity: 3, Unit: UnitKG},
		{Quantity: 0, Unit: UnitL},
	})
	require.NoError(t, err)

	assert.Equal(t, 15.0, totals[UnitKG])
	assert.Equal(t, 500.0, totals[UnitG])
	assert.Equal(t, 0.0, totals[UnitL])
	assert.Equal(t, 0.0, totals[UnitUN])
}

func TestAggregate_NoCrossUnitConversion(t *testing.T) {
	totals, err := Aggregate([]LineItem{
		{Quantity: 1, Unit: UnitKG},
		{Quantity: 1000, Unit: UnitG},
	})
	require.NoError(t, err)

	// 1000 G stays in G; it is never folded into KG.
	assert.Equal(t, 1.0, totals[UnitKG])
	assert.Equal(t, 1000.0, totals[UnitG])
}

func TestAggregate_InvalidQuantities(t *testing.T) {
	tests := []struct {
		name     string
		quantity float64
	}{
		{"negative", -5},
		{"nan", math.NaN()},
		{"positive infinity", math.Inf(1)},
		{"negative infinity", math.Inf(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Aggregate([]LineItem{{Quantity: tt.quantity, Unit: UnitKG}})
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, apperrors.ErrInvalidQuantity))
		})
	}
}

func TestAggregate_UnknownUnit(t *testing.T) {
	_, err := Aggregate([]LineItem{{Quantity: 1, Unit: Unit("TON")}})
	require.Error(t, err)
}

func TestSummarize(t *testing.T) {
	totals, err := Aggregate([]LineItem{
		{Quantity: 12, Unit: UnitKG},
		{Quantity: 500, Unit: UnitG},
		{Quantity: 0, Unit: UnitL},
	})
	require.NoError(t, err)

	assert.Equal(t, "12 KG, 500 G", Summarize(totals))
}

func TestSummarize_CanonicalOrderIndependentOfInput(t *testing.T) {
	totals, err := Aggregate([]LineItem{
		{Quantity: 7, Unit: UnitUN},
		{Quantity: 2, Unit: UnitL},
		{Quantity: 500, Unit: UnitG},
		{Quantity: 12, Unit: UnitKG},
	})
	require.NoError(t, err)

	assert.Equal(t, "12 KG, 500 G, 2 L, 7 UN", Summarize(totals))
}

func TestSummarize_AllZero(t *testing.T) {
	totals, err := Aggregate(nil)
	require.NoError(t, err)

	assert.Equal(t, "", Summarize(totals))
}

func TestSummarize_FractionalQuantities(t *testing.T) {
	totals, err := Aggregate([]LineItem{{Quantity: 2.5, Unit: UnitKG}})
	require.NoError(t, err)

	assert.Equal(t, "2.5 KG", Summarize(totals))
}

func TestParseUnit(t *testing.T) {
	for _, raw := range []string{"KG", "G", "L", "UN"} {
		u, err := ParseUnit(raw)
		require.NoError(t, err)
		assert.Equal(t, Unit(raw), u)
	}

	_, err := ParseUnit("kg")
	require.Error(t, err)

	_, err = ParseUnit("")
	require.Error(t, err)
}
