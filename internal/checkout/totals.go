package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/modecraft/storefront-backend/internal/cartstore"
)

// Rates are the pricing policy knobs applied at checkout.
type Rates struct {
	FreeShippingThreshold decimal.Decimal
	FlatShippingRate      decimal.Decimal
	TaxRate               decimal.Decimal
}

// DefaultRates matches the storefront policy: free shipping above $50,
// otherwise a $5 flat rate, with 8% tax.
func DefaultRates() Rates {
	return Rates{
		FreeShippingThreshold: decimal.NewFromInt(50),
		FlatShippingRate:      decimal.RequireFromString("5.00"),
		TaxRate:               decimal.RequireFromString("0.08"),
	}
}

// Totals holds the unrounded checkout amounts. Rounding happens once,
// at display time, so component errors never compound.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// DisplayTotals are the amounts rounded to 2 decimal places for
// presentation.
type DisplayTotals struct {
	Subtotal string `json:"subtotal"`
	Shipping string `json:"shipping"`
	Tax      string `json:"tax"`
	Total    string `json:"total"`
}

// ComputeTotals derives the checkout amounts from the cart snapshot.
// Shipping is free strictly above the threshold.
func ComputeTotals(items []cartstore.LineItem, rates Rates) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}

	shipping := rates.FlatShippingRate
	if subtotal.GreaterThan(rates.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	tax := subtotal.Mul(rates.TaxRate)

	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal.Add(shipping).Add(tax),
	}
}

// Display rounds each amount to 2 decimal places.
func (t Totals) Display() DisplayTotals {
	return DisplayTotals{
		Subtotal: t.Subtotal.StringFixed(2),
		Shipping: t.Shipping.StringFixed(2),
		Tax:      t.Tax.StringFixed(2),
		Total:    t.Total.StringFixed(2),
	}
}
