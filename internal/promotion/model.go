package promotion

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountKind identifies the effect a promotion has on the cart.
type DiscountKind string

const (
	// KindDiscountAmount takes a fixed amount off the cart total.
	KindDiscountAmount DiscountKind = "discount_amount"
	// KindGift adds free gift lines to the order.
	KindGift DiscountKind = "gift"
)

// Operator combines the details of a single condition group.
type Operator string

const (
	// OperatorAll requires every detail of the group to hold.
	OperatorAll Operator = "all"
	// OperatorAny requires at least one detail of the group to hold.
	OperatorAny Operator = "any"
)

// CartLine is one product-and-quantity entry of the cart at calculation time.
type CartLine struct {
	ProductID uuid.UUID       `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// ConditionDetail is satisfied when the cart holds at least RequiredQuantity of ProductID.
type ConditionDetail struct {
	ProductID        uuid.UUID `json:"productId"`
	RequiredQuantity int       `json:"requiredQuantity"`
}

// ConditionGroup is one AND-clause of a promotion's eligibility rule.
type ConditionGroup struct {
	Operator Operator          `json:"operator"`
	Details  []ConditionDetail `json:"details"`
}

// GiftLine is a free product handed out by a gift promotion.
type GiftLine struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

// Promotion is the read-only definition evaluated by the engine.
type Promotion struct {
	ID              uuid.UUID        `json:"id"`
	Name            string           `json:"name"`
	Kind            DiscountKind     `json:"discountKind"`
	DiscountAmount  *decimal.Decimal `json:"discountAmount,omitempty"`
	IsActive        bool             `json:"isActive"`
	StartsAt        *time.Time       `json:"startsAt,omitempty"`
	EndsAt          *time.Time       `json:"endsAt,omitempty"`
	ConditionGroups []ConditionGroup `json:"conditionGroups"`
	GiftItems       []GiftLine       `json:"giftItems"`
}

// Amount returns the promotion's discount amount or zero when none is set.
func (p Promotion) Amount() decimal.Decimal {
	if p.DiscountAmount == nil {
		return decimal.Zero
	}
	return *p.DiscountAmount
}

// ActiveAt reports whether the promotion is switched on and inside its validity window at now.
// The engine never calls it; the catalog uses it to pre-filter the promotions it hands over.
func (p Promotion) ActiveAt(now time.Time) bool {
	if !p.IsActive {
		return false
	}
	if p.StartsAt != nil && now.Before(*p.StartsAt) {
		return false
	}
	if p.EndsAt != nil && now.After(*p.EndsAt) {
		return false
	}
	return true
}

// CalculationResult is the outcome of a single engine run.
type CalculationResult struct {
	OriginalTotal     decimal.Decimal `json:"originalTotal"`
	DiscountAmount    decimal.Decimal `json:"discountAmount"`
	FinalTotal        decimal.Decimal `json:"finalTotal"`
	AppliedPromotions []Promotion     `json:"appliedPromotions"`
	GiftLines         []GiftLine      `json:"giftLines"`
}
