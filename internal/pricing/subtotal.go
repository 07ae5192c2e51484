// Package pricing turns cart lines into the amounts the promotion engine works with.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-promo/internal/promotion"
)

// Subtotal sums quantity times unit price over lines. Lines with a non-positive
// quantity are skipped and negative unit prices count as zero.
func Subtotal(lines []promotion.CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		price := line.UnitPrice
		if price.IsNegative() {
			price = decimal.Zero
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}
