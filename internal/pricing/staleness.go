package pricing

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/aruzhan-dev/backend-cargo/internal/common"
	"github.com/aruzhan-dev/backend-cargo/internal/money"
)

// Item is the snapshot of one order line used for fingerprinting. The
// fingerprint is order-preserving: callers hash items in their stored order.
type Item struct {
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Fingerprint produces a deterministic digest of the item set. One line per
// item: name|quantity|unit price normalised to two decimal places.
func Fingerprint(items []Item) string {
	var b strings.Builder
	for _, it := range items {
		b.WriteString(it.Name)
		b.WriteByte('|')
		b.WriteString(decimal.NewFromInt(int64(it.Quantity)).String())
		b.WriteByte('|')
		b.WriteString(it.UnitPrice.StringFixed(2))
		b.WriteByte('\n')
	}
	return common.Sha256Hex(b.String())
}

// ItemsValue sums quantity times unit price across the item set.
func ItemsValue(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		if it.Quantity <= 0 {
			continue
		}
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// IsStale reports whether the calculation no longer matches the current item
// set. A calculation is stale when the fingerprint differs or the aggregate
// order value drifted by more than money.Epsilon.
func (c Calculation) IsStale(currentItems []Item) bool {
	if Fingerprint(currentItems) != c.ItemsHash {
		return true
	}
	return !money.ApproxEqual(ItemsValue(currentItems), c.OrderValue)
}
