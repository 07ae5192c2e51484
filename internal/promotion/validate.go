package promotion

import (
	"errors"
	"fmt"
)

// ErrInvalidPromotion marks promotion data that should have been rejected when it was authored.
var ErrInvalidPromotion = errors.New("invalid promotion")

// Validate checks the structural invariants every promotion must satisfy before evaluation.
func Validate(p Promotion) error {
	switch p.Kind {
	case KindDiscountAmount:
		if p.DiscountAmount == nil || !p.DiscountAmount.IsPositive() {
			return invalid(p, "discount amount must be greater than zero")
		}
	case KindGift:
		if len(p.GiftItems) == 0 {
			return invalid(p, "gift items must not be empty")
		}
		for _, gift := range p.GiftItems {
			if gift.Quantity <= 0 {
				return invalid(p, "gift quantity must be greater than zero")
			}
		}
	default:
		return invalid(p, fmt.Sprintf("unknown discount kind %q", p.Kind))
	}
	if len(p.ConditionGroups) == 0 {
		return invalid(p, "at least one condition group is required")
	}
	for _, group := range p.ConditionGroups {
		if group.Operator != OperatorAll && group.Operator != OperatorAny {
			return invalid(p, fmt.Sprintf("unknown condition operator %q", group.Operator))
		}
		if len(group.Details) == 0 {
			return invalid(p, "condition group must contain at least one detail")
		}
		for _, detail := range group.Details {
			if detail.RequiredQuantity <= 0 {
				return invalid(p, "required quantity must be greater than zero")
			}
		}
	}
	return nil
}

func invalid(p Promotion, reason string) error {
	return fmt.Errorf("promotion %s: %s: %w", p.ID, reason, ErrInvalidPromotion)
}
