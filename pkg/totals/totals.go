// Package totals derives the monetary breakdown displayed at checkout.
// Values are computed at full precision; rounding happens only at the
// presentation and payment edges.
package totals

import "github.com/shopspring/decimal"

var (
	freeShippingAbove = decimal.NewFromInt(1000)
	flatShippingFee   = decimal.RequireFromString("49.99")
	taxRate           = decimal.RequireFromString("0.10")
)

// Line is the slice of a cart line item that pricing needs.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Totals is derived, never persisted. The identity
// Total == Subtotal + Shipping + Tax holds exactly.
type Totals struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Compute prices a line-item list. Deterministic, no side effects, safe to
// call on every re-render. Shipping is free strictly above 1000; a subtotal
// of exactly 1000 still pays the flat fee.
func Compute(lines []Line) Totals {
	subtotal := decimal.Zero
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		subtotal = subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	shipping := flatShippingFee
	if subtotal.GreaterThan(freeShippingAbove) {
		shipping = decimal.Zero
	}

	tax := subtotal.Mul(taxRate)

	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal.Add(shipping).Add(tax),
	}
}

// PaymentAmount floors the total to a whole unit; the mobile-money channel
// accepts integer amounts only.
func (t Totals) PaymentAmount() int64 {
	return t.Total.Floor().IntPart()
}

// RoundedCents returns the presentation form of every figure at two decimal
// places.
func (t Totals) RoundedCents() (subtotal, shipping, tax, total decimal.Decimal) {
	return t.Subtotal.Round(2), t.Shipping.Round(2), t.Tax.Round(2), t.Total.Round(2)
}
