package promotion

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func amountPromo(id string, amount int64, products ...uuid.UUID) Promotion {
	value := decimal.NewFromInt(amount)
	details := make([]ConditionDetail, 0, len(products))
	for _, product := range products {
		details = append(details, ConditionDetail{ProductID: product, RequiredQuantity: 1})
	}
	p := Promotion{ID: uuid.MustParse(id), Kind: KindDiscountAmount, DiscountAmount: &value}
	if len(details) > 0 {
		p.ConditionGroups = []ConditionGroup{{Operator: OperatorAny, Details: details}}
	}
	return p
}

func ids(promos []Promotion) []string {
	out := make([]string, 0, len(promos))
	for _, p := range promos {
		out = append(out, p.ID.String())
	}
	return out
}

var (
	skuA = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001")
	skuB = uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000002")
	skuC = uuid.MustParse("cccccccc-0000-0000-0000-000000000003")
)

func TestSelectDiscountsEmptyAndSingle(t *testing.T) {
	require.Empty(t, SelectDiscounts(nil, nil))

	only := amountPromo("00000000-0000-0000-0000-000000000001", 10)
	require.Equal(t, []Promotion{only}, SelectDiscounts([]Promotion{only}, nil))
}

func TestSelectDiscountsScopelessBlocksEverything(t *testing.T) {
	wholeCart := amountPromo("00000000-0000-0000-0000-000000000001", 200)
	scoped := amountPromo("00000000-0000-0000-0000-000000000002", 100, skuA)
	other := amountPromo("00000000-0000-0000-0000-000000000003", 50, skuB)

	got := SelectDiscounts([]Promotion{scoped, other, wholeCart}, nil)
	require.Equal(t, []string{wholeCart.ID.String()}, ids(got))
}

func TestSelectDiscountsScopelessSkippedWhenRankedLater(t *testing.T) {
	scoped := amountPromo("00000000-0000-0000-0000-000000000002", 100, skuA)
	wholeCart := amountPromo("00000000-0000-0000-0000-000000000001", 20)

	got := SelectDiscounts([]Promotion{wholeCart, scoped}, nil)
	require.Equal(t, []string{scoped.ID.String()}, ids(got))
}

func TestSelectDiscountsTwoScopelessOnlyOneWins(t *testing.T) {
	first := amountPromo("00000000-0000-0000-0000-000000000002", 30)
	second := amountPromo("00000000-0000-0000-0000-000000000001", 30)

	got := SelectDiscounts([]Promotion{first, second}, nil)
	require.Equal(t, []string{second.ID.String()}, ids(got))
}

func TestSelectDiscountsTieBreakByLowestID(t *testing.T) {
	high := amountPromo("ffffffff-0000-0000-0000-000000000000", 40, skuA)
	low := amountPromo("0fffffff-0000-0000-0000-000000000000", 40, skuA)

	require.Equal(t, []string{low.ID.String()}, ids(SelectDiscounts([]Promotion{high, low}, nil)))
	require.Equal(t, []string{low.ID.String()}, ids(SelectDiscounts([]Promotion{low, high}, nil)))
}

func TestSelectDiscountsIsGreedyNotOptimal(t *testing.T) {
	// 100 on {A,B} wins first and blocks 60 on {A} + 60 on {B}, which together would be 120.
	wide := amountPromo("00000000-0000-0000-0000-000000000001", 100, skuA, skuB)
	onlyA := amountPromo("00000000-0000-0000-0000-000000000002", 60, skuA)
	onlyB := amountPromo("00000000-0000-0000-0000-000000000003", 60, skuB)

	got := SelectDiscounts([]Promotion{onlyA, onlyB, wide}, nil)
	require.Equal(t, []string{wide.ID.String()}, ids(got))
}

func TestSelectDiscountsPartialOverlapChain(t *testing.T) {
	ab := amountPromo("00000000-0000-0000-0000-000000000001", 90, skuA, skuB)
	bc := amountPromo("00000000-0000-0000-0000-000000000002", 80, skuB, skuC)
	c := amountPromo("00000000-0000-0000-0000-000000000003", 70, skuC)

	got := SelectDiscounts([]Promotion{c, bc, ab}, nil)
	require.Equal(t, []string{ab.ID.String(), c.ID.String()}, ids(got))
}

func TestScopeOverlap(t *testing.T) {
	empty := scope{}
	a := scope{skuA: {}}
	ab := scope{skuA: {}, skuB: {}}
	c := scope{skuC: {}}

	require.True(t, empty.overlaps(empty))
	require.True(t, empty.overlaps(a))
	require.True(t, a.overlaps(empty))
	require.True(t, a.overlaps(ab))
	require.False(t, ab.overlaps(c))
}
