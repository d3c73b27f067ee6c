// Package order holds the pure aggregation that keeps an order's monetary
// fields consistent with its current item set.
package order

import (
	"github.com/shopspring/decimal"

	"github.com/aruzhan-dev/backend-cargo/internal/money"
)

// Item is one order line. The customer is always charged OriginalPrice;
// DiscountedPrice is the supplier cost used for the markup margin.
type Item struct {
	Name            string
	OriginalPrice   decimal.Decimal
	DiscountedPrice decimal.Decimal
	Quantity        int
}

// Totals is the recomputed monetary decomposition of an order.
type Totals struct {
	ItemsSubtotal  decimal.Decimal
	ItemsProfit    decimal.Decimal
	ShippingProfit decimal.Decimal
	TotalAmount    decimal.Decimal
	TotalProfit    decimal.Decimal
}

// RecomputeTotals derives the order's totals from its items plus the current
// shipping cost and commission. Must be re-run whenever any item changes so
// the persisted figures never drift from the item set. The commission
// collected on shipping is the shipping-side profit.
func RecomputeTotals(items []Item, shippingCost, commission decimal.Decimal) Totals {
	subtotal := decimal.Zero
	itemsProfit := decimal.Zero
	for _, it := range items {
		if it.Quantity <= 0 {
			continue
		}
		qty := decimal.NewFromInt(int64(it.Quantity))
		subtotal = subtotal.Add(it.OriginalPrice.Mul(qty))
		itemsProfit = itemsProfit.Add(it.OriginalPrice.Sub(it.DiscountedPrice).Mul(qty))
	}
	subtotal = money.Round(subtotal)
	itemsProfit = money.Round(itemsProfit)
	shippingProfit := money.Round(commission)
	return Totals{
		ItemsSubtotal:  subtotal,
		ItemsProfit:    itemsProfit,
		ShippingProfit: shippingProfit,
		TotalAmount:    subtotal.Add(money.Round(shippingCost)).Add(shippingProfit),
		TotalProfit:    itemsProfit.Add(shippingProfit),
	}
}
