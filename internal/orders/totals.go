package orders

import "github.com/shopspring/decimal"

// DefaultTaxRate is the percentage applied when the caller supplies none.
var DefaultTaxRate = decimal.NewFromInt(15)

var hundred = decimal.NewFromInt(100)

// computeTotals derives each line total and the order-level money figures.
// Every intermediate result is rounded half-up to three decimals before the
// next step, so the stored figures always re-derive bit-for-bit from the
// stored lines.
func computeTotals(lines []Line, taxRate decimal.Decimal) (subtotal, tax, total decimal.Decimal, out []Line) {
	out = make([]Line, len(lines))
	subtotal = decimal.Zero
	for i, line := range lines {
		line.LineTotal = line.Qty.Mul(line.UnitCost).Round(3)
		out[i] = line
		subtotal = subtotal.Add(line.LineTotal)
	}
	subtotal = subtotal.Round(3)
	tax = subtotal.Mul(taxRate).Div(hundred).Round(3)
	total = subtotal.Add(tax).Round(3)
	return subtotal, tax, total, out
}
