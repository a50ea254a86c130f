package order

import "github.com/shopspring/decimal"

var discountFactor = decimal.RequireFromString("0.9")

// Line is one priced entry of an order being placed.
type Line struct {
	UnitPrice int64
	Quantity  int
}

// Cost sums price*quantity over lines and applies the one-time 10% discount
// when the customer has not used it yet. The result is exact.
func Cost(lines []Line, discountAvailed bool) decimal.Decimal {
	factor := decimal.NewFromInt(1)
	if !discountAvailed {
		factor = discountFactor
	}
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(decimal.NewFromInt(l.UnitPrice).
			Mul(decimal.NewFromInt(int64(l.Quantity))).
			Mul(factor))
	}
	return sum
}

// Total is Cost truncated toward zero; it is the amount debited and stored.
func Total(lines []Line, discountAvailed bool) int64 {
	return Cost(lines, discountAvailed).Truncate(0).IntPart()
}
