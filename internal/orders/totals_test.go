package orders

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestComputeTotalsRoundsEachStepToThreeDecimals(t *testing.T) {
	lines := []Line{
		{ProductID: 1, Qty: dec("3.333"), UnitCost: dec("1.111")},
		{ProductID: 2, Qty: dec("2"), UnitCost: dec("0.0005")},
	}

	subtotal, tax, total, out := computeTotals(lines, DefaultTaxRate)

	// 3.333 * 1.111 = 3.702963 -> 3.703; 2 * 0.0005 = 0.001
	require.True(t, out[0].LineTotal.Equal(dec("3.703")), out[0].LineTotal.String())
	require.True(t, out[1].LineTotal.Equal(dec("0.001")), out[1].LineTotal.String())
	require.True(t, subtotal.Equal(dec("3.704")), subtotal.String())
	// 3.704 * 15 / 100 = 0.5556 -> 0.556
	require.True(t, tax.Equal(dec("0.556")), tax.String())
	require.True(t, total.Equal(dec("4.260")), total.String())
}

func TestComputeTotalsZeroRate(t *testing.T) {
	lines := []Line{{ProductID: 1, Qty: dec("4"), UnitCost: dec("2.5")}}

	subtotal, tax, total, _ := computeTotals(lines, decimal.Zero)

	require.True(t, subtotal.Equal(dec("10")))
	require.True(t, tax.IsZero())
	require.True(t, total.Equal(dec("10")))
}

func TestComputeTotalsAvoidsFloatDrift(t *testing.T) {
	// 0.1 + 0.2 style inputs stay exact under decimal math.
	lines := []Line{
		{ProductID: 1, Qty: dec("0.1"), UnitCost: dec("3")},
		{ProductID: 2, Qty: dec("0.2"), UnitCost: dec("3")},
	}

	subtotal, _, _, _ := computeTotals(lines, decimal.Zero)
	require.True(t, subtotal.Equal(dec("0.9")), subtotal.String())
}
