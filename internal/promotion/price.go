package promotion

import "github.com/shopspring/decimal"

// ComputePrice sums the discounts of the selected promotions and subtracts them from
// cartTotal. The final total is clamped at zero.
func ComputePrice(cartTotal decimal.Decimal, selected []Promotion) (discount, final decimal.Decimal) {
	discount = decimal.Zero
	for _, p := range selected {
		discount = discount.Add(p.Amount())
	}
	final = cartTotal.Sub(discount)
	if final.IsNegative() {
		final = decimal.Zero
	}
	return discount, final
}
