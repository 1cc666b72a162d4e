package pricing

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an exact decimal amount. Values are never rounded until Format.
type Money = decimal.Decimal

// TaxRate is the flat sales tax applied to every cart.
var TaxRate = decimal.RequireFromString("0.08")

// Summary aggregates computed pricing components.
type Summary struct {
	Subtotal Money
	Tax      Money
	Total    Money
}

// Compute sums the given prices and derives tax and total from the unrounded subtotal.
func Compute(prices []Money) Summary {
	subtotal := decimal.Zero
	for _, p := range prices {
		subtotal = subtotal.Add(p)
	}
	tax := subtotal.Mul(TaxRate)
	return Summary{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}

// IsZero reports whether every component of the summary is zero.
func (s Summary) IsZero() bool {
	return s.Subtotal.IsZero() && s.Tax.IsZero() && s.Total.IsZero()
}

// Format renders m as a dollar amount with exactly two decimals, e.g. "$12.50".
func Format(m Money) string {
	return "$" + m.StringFixed(2)
}

// maxScale is the finest fraction kept from a parsed price, matching the
// smallest positive float64.
const maxScale = 324

// MaxPrice is the largest accepted price, the float64 ceiling.
var MaxPrice = decimal.NewFromFloat(math.MaxFloat64)

// ParsePrice parses an externally supplied price. Blank, malformed, negative
// and non-finite values report ok=false. Values below the float64 resolution
// collapse to zero and finer fractions are truncated to it.
func ParsePrice(text string) (Money, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return decimal.Zero, false
	}
	m, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, false
	}
	if m.IsNegative() {
		return decimal.Zero, false
	}
	if m.IsZero() {
		return decimal.Zero, true
	}
	// Magnitude checks use the digit count and exponent only, so huge
	// exponents are never expanded.
	magnitude := int64(m.NumDigits()) + int64(m.Exponent())
	if magnitude > 309 {
		return decimal.Zero, false
	}
	if magnitude < -maxScale {
		return decimal.Zero, true
	}
	if m.Exponent() < -maxScale {
		m = m.Truncate(maxScale)
	}
	if m.GreaterThan(MaxPrice) {
		return decimal.Zero, false
	}
	return m, true
}
