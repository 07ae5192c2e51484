package promotion

// AccumulateGifts stacks the gift lines of every promotion in order. Duplicate products
// across promotions are kept as separate lines.
func AccumulateGifts(gifts []Promotion) []GiftLine {
	out := []GiftLine{}
	for _, p := range gifts {
		out = append(out, p.GiftItems...)
	}
	return out
}
