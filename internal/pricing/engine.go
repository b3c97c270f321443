package pricing

import (
	"github.com/shopspring/decimal"
)

// Rates applied during checkout. GST applies to the goods subtotal, the
// gateway passes its processing fee through with tax on the fee itself.
var (
	gstRate           = decimal.RequireFromString("0.03")
	gatewayFeeRate    = decimal.RequireFromString("0.02")
	gatewayFeeTaxRate = decimal.RequireFromString("0.18")

	minorUnitsFactor = decimal.NewFromInt(100)
)

// Line is one priced order line. UnitPrice is the effective price the shopper
// pays, OriginalPrice the list price before any product discount.
type Line struct {
	UnitPrice     decimal.Decimal
	OriginalPrice decimal.Decimal
	Quantity      int
}

// Totals is the full price breakdown of an order. Total excludes Discount
// because the subtotal is already computed from discounted unit prices; the
// discount amount is reported separately for display only.
type Totals struct {
	Subtotal       decimal.Decimal
	Discount       decimal.Decimal
	Tax            decimal.Decimal
	Shipping       decimal.Decimal
	PaymentCharges decimal.Decimal
	Total          decimal.Decimal
}

// MinorUnits converts the grand total into integer minor currency units
// (paise for INR), the amount the payment gateway is asked to charge.
func (t Totals) MinorUnits() int64 {
	return t.Total.Mul(minorUnitsFactor).Round(0).IntPart()
}

// Options tune business-rule knobs without touching the arithmetic.
type Options struct {
	// ShippingFlat is the flat shipping charge, zero under the current
	// free-shipping policy.
	ShippingFlat decimal.Decimal
	// LegacyDiscount reproduces the historical display-discount formula that
	// sums original prices without multiplying by line quantity. Kept behind
	// a flag until product signs off on retiring it.
	LegacyDiscount bool
}

// ComputeTotals derives the order totals from the snapshot lines. Pure and
// deterministic: identical input always yields identical totals. Tax and each
// gateway fee component round independently to whole currency units, the
// total itself is never rounded.
func ComputeTotals(lines []Line, opts Options) Totals {
	subtotal := decimal.Zero
	discount := decimal.Zero

	for _, line := range lines {
		qty := decimal.NewFromInt(int64(line.Quantity))
		subtotal = subtotal.Add(line.UnitPrice.Mul(qty))

		delta := line.OriginalPrice.Sub(line.UnitPrice)
		if delta.IsNegative() {
			delta = decimal.Zero
		}
		if opts.LegacyDiscount {
			discount = discount.Add(delta)
		} else {
			discount = discount.Add(delta.Mul(qty))
		}
	}

	tax := subtotal.Mul(gstRate).Round(0)

	gatewayFeeBase := subtotal.Mul(gatewayFeeRate).Round(0)
	gatewayFeeTax := gatewayFeeBase.Mul(gatewayFeeTaxRate).Round(0)
	paymentCharges := gatewayFeeBase.Add(gatewayFeeTax)

	shipping := opts.ShippingFlat
	if shipping.IsNegative() {
		shipping = decimal.Zero
	}

	total := subtotal.Add(tax).Add(shipping).Add(paymentCharges)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Totals{
		Subtotal:       subtotal,
		Discount:       discount,
		Tax:            tax,
		Shipping:       shipping,
		PaymentCharges: paymentCharges,
		Total:          total,
	}
}
