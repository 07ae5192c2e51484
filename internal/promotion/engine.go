// Package promotion decides which promotions apply to a cart and what the shopper pays.
//
// Everything here is a pure function of its arguments: no I/O, no clock, no shared state.
// Callers may run calculations concurrently without synchronisation.
package promotion

import (
	"github.com/shopspring/decimal"
)

// Engine runs the full promotion calculation for a cart.
type Engine struct{}

// Calculate evaluates active against the cart and returns the applied promotions, the
// gift lines and the payable amount. Applied promotions list gifts first, then the
// selected discounts in selection order.
//
// Every promotion is validated before evaluation; malformed data yields an error
// wrapping ErrInvalidPromotion instead of being skipped.
func (Engine) Calculate(cartTotal decimal.Decimal, lines []CartLine, active []Promotion) (CalculationResult, error) {
	for _, p := range active {
		if err := Validate(p); err != nil {
			return CalculationResult{}, err
		}
	}

	var gifts, discounts []Promotion
	for _, p := range active {
		if !IsApplicable(p, cartTotal, lines) {
			continue
		}
		switch p.Kind {
		case KindGift:
			gifts = append(gifts, p)
		case KindDiscountAmount:
			discounts = append(discounts, p)
		}
	}

	giftLines := AccumulateGifts(gifts)
	selected := SelectDiscounts(discounts, lines)
	discount, final := ComputePrice(cartTotal, selected)

	applied := make([]Promotion, 0, len(gifts)+len(selected))
	applied = append(applied, gifts...)
	applied = append(applied, selected...)

	return CalculationResult{
		OriginalTotal:     cartTotal,
		DiscountAmount:    discount,
		FinalTotal:        final,
		AppliedPromotions: applied,
		GiftLines:         giftLines,
	}, nil
}
