package promotion

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IsApplicable reports whether the cart satisfies every condition group of p.
// Activity and validity window are not checked here; callers hand over pre-filtered promotions.
// A promotion without condition groups, or a group without details, places no
// restriction on the cart.
func IsApplicable(p Promotion, _ decimal.Decimal, lines []CartLine) bool {
	if len(p.ConditionGroups) == 0 {
		return true
	}
	quantities := quantitiesByProduct(lines)
	for _, group := range p.ConditionGroups {
		if !groupSatisfied(group, quantities) {
			return false
		}
	}
	return true
}

func groupSatisfied(group ConditionGroup, quantities map[uuid.UUID]int) bool {
	if len(group.Details) == 0 {
		return true
	}
	if group.Operator == OperatorAny {
		for _, detail := range group.Details {
			if detailSatisfied(detail, quantities) {
				return true
			}
		}
		return false
	}
	for _, detail := range group.Details {
		if !detailSatisfied(detail, quantities) {
			return false
		}
	}
	return true
}

func detailSatisfied(detail ConditionDetail, quantities map[uuid.UUID]int) bool {
	return quantities[detail.ProductID] >= detail.RequiredQuantity
}

// quantitiesByProduct sums quantities across lines so repeated products count together.
func quantitiesByProduct(lines []CartLine) map[uuid.UUID]int {
	out := make(map[uuid.UUID]int, len(lines))
	for _, line := range lines {
		out[line.ProductID] += line.Quantity
	}
	return out
}
