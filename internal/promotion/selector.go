package promotion

import (
	"bytes"
	"sort"

	"github.com/google/uuid"
)

// scope is the set of products a discount promotion's conditions reference.
// An empty scope stands for the whole cart.
type scope map[uuid.UUID]struct{}

func scopeOf(p Promotion) scope {
	s := scope{}
	for _, group := range p.ConditionGroups {
		for _, detail := range group.Details {
			s[detail.ProductID] = struct{}{}
		}
	}
	return s
}

// overlaps treats an empty scope as overlapping every scope, itself included.
func (s scope) overlaps(other scope) bool {
	if len(s) == 0 || len(other) == 0 {
		return true
	}
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	for id := range small {
		if _, ok := large[id]; ok {
			return true
		}
	}
	return false
}

// SelectDiscounts picks the discount promotions to apply so that no two of them
// discount the same products.
//
// Candidates are ranked by discount amount, highest first; equal amounts fall back to
// ascending promotion ID so the outcome never depends on input order. The ranked list is
// walked once and a candidate is kept only when its scope overlaps none of the kept ones.
// This is greedy: a combination of smaller promotions that would discount more in total
// is not searched for.
func SelectDiscounts(candidates []Promotion, _ []CartLine) []Promotion {
	switch len(candidates) {
	case 0:
		return []Promotion{}
	case 1:
		return []Promotion{candidates[0]}
	}

	ranked := make([]Promotion, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		if c := ranked[i].Amount().Cmp(ranked[j].Amount()); c != 0 {
			return c > 0
		}
		return bytes.Compare(ranked[i].ID[:], ranked[j].ID[:]) < 0
	})

	selected := make([]Promotion, 0, len(ranked))
	accepted := make([]scope, 0, len(ranked))
	for _, candidate := range ranked {
		s := scopeOf(candidate)
		conflict := false
		for _, taken := range accepted {
			if s.overlaps(taken) {
				conflict = true
				break
			}
		}
		if conflict {
			continue
		}
		selected = append(selected, candidate)
		accepted = append(accepted, s)
	}
	return selected
}
