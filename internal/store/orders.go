package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/aruzhan-dev/backend-cargo/internal/order"
	"github.com/aruzhan-dev/backend-cargo/internal/reconcile"
)

// OrderFinancials is the monetary slice of an order row.
type OrderFinancials struct {
	ID               uuid.UUID
	CustomerID       uuid.UUID
	TotalAmount      decimal.Decimal
	DownPayment      decimal.Decimal
	RemainingBalance decimal.Decimal
	ShippingCost     decimal.Decimal
	Commission       decimal.Decimal
}

// ListOpenOrdersByCustomer returns a customer's open orders ordered by
// creation time then id, the deterministic order the reconciler processes
// them in.
func (s *Store) ListOpenOrdersByCustomer(ctx context.Context, customerID uuid.UUID) ([]reconcile.OpenOrder, error) {
	const q = `
SELECT id, total_amount::text, created_at
FROM orders
WHERE customer_id = $1 AND status = 'open'
ORDER BY created_at, id`
	rows, err := s.Pool.Query(ctx, q, customerID)
	if err != nil {
		return nil, fmt.Errorf("store: list open orders: %w", err)
	}
	defer rows.Close()

	var orders []reconcile.OpenOrder
	for rows.Next() {
		var (
			o   reconcile.OpenOrder
			amt string
		)
		if err := rows.Scan(&o.ID, &amt, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan open order: %w", err)
		}
		if o.TotalAmount, err = decimal.NewFromString(amt); err != nil {
			return nil, fmt.Errorf("store: parse total amount: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// GetOrderFinancials loads the monetary fields of one order.
func (s *Store) GetOrderFinancials(ctx context.Context, orderID uuid.UUID) (OrderFinancials, error) {
	const q = `
SELECT id, customer_id, total_amount::text, down_payment::text, remaining_balance::text,
       shipping_cost::text, commission::text
FROM orders
WHERE id = $1`
	var (
		fin                                 OrderFinancials
		total, down, remaining, ship, comms string
	)
	err := s.Pool.QueryRow(ctx, q, orderID).Scan(
		&fin.ID, &fin.CustomerID, &total, &down, &remaining, &ship, &comms)
	if errors.Is(err, pgx.ErrNoRows) {
		return OrderFinancials{}, ErrNotFound
	}
	if err != nil {
		return OrderFinancials{}, fmt.Errorf("store: get order: %w", err)
	}
	fields := []struct {
		dst *decimal.Decimal
		raw string
	}{
		{&fin.TotalAmount, total},
		{&fin.DownPayment, down},
		{&fin.RemainingBalance, remaining},
		{&fin.ShippingCost, ship},
		{&fin.Commission, comms},
	}
	for _, f := range fields {
		if *f.dst, err = decimal.NewFromString(f.raw); err != nil {
			return OrderFinancials{}, fmt.Errorf("store: parse order amount: %w", err)
		}
	}
	return fin, nil
}

// ApplyAllocations persists a reconciliation run in a single transaction.
// Either every order's down payment and remaining balance updates or none do.
func (s *Store) ApplyAllocations(ctx context.Context, allocations []reconcile.Allocation) error {
	if len(allocations) == 0 {
		return nil
	}
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: begin allocation tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const q = `
UPDATE orders
SET down_payment = $2, remaining_balance = $3, updated_at = now()
WHERE id = $1`
	for _, a := range allocations {
		tag, err := tx.Exec(ctx, q, a.OrderID, a.DownPayment.String(), a.RemainingBalance.String())
		if err != nil {
			return fmt.Errorf("store: apply allocation: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("store: apply allocation: order %s: %w", a.OrderID, ErrNotFound)
		}
	}
	return tx.Commit(ctx)
}

// SetOrderDownPayment updates a single order's down payment directly,
// bypassing the reconciler.
func (s *Store) SetOrderDownPayment(ctx context.Context, orderID uuid.UUID, downPayment, remaining decimal.Decimal) error {
	const q = `
UPDATE orders
SET down_payment = $2, remaining_balance = $3, updated_at = now()
WHERE id = $1`
	tag, err := s.Pool.Exec(ctx, q, orderID, downPayment.String(), remaining.String())
	if err != nil {
		return fmt.Errorf("store: set down payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListOrderItems returns the items owned by an order.
func (s *Store) ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]order.Item, error) {
	const q = `
SELECT name, original_price::text, discounted_price::text, quantity
FROM order_items
WHERE order_id = $1
ORDER BY created_at, id`
	rows, err := s.Pool.Query(ctx, q, orderID)
	if err != nil {
		return nil, fmt.Errorf("store: list order items: %w", err)
	}
	defer rows.Close()

	var items []order.Item
	for rows.Next() {
		var (
			it             order.Item
			original, disc string
		)
		if err := rows.Scan(&it.Name, &original, &disc, &it.Quantity); err != nil {
			return nil, fmt.Errorf("store: scan order item: %w", err)
		}
		if it.OriginalPrice, err = decimal.NewFromString(original); err != nil {
			return nil, fmt.Errorf("store: parse original price: %w", err)
		}
		if it.DiscountedPrice, err = decimal.NewFromString(disc); err != nil {
			return nil, fmt.Errorf("store: parse discounted price: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// UpdateOrderPricing persists a fresh shipping calculation alongside the
// totals derived from it.
func (s *Store) UpdateOrderPricing(ctx context.Context, orderID uuid.UUID, shippingCost, commission decimal.Decimal, t order.Totals, remaining decimal.Decimal) error {
	const q = `
UPDATE orders
SET shipping_cost = $2, commission = $3, total_amount = $4, items_profit = $5,
    shipping_profit = $6, total_profit = $7, remaining_balance = $8, updated_at = now()
WHERE id = $1`
	tag, err := s.Pool.Exec(ctx, q, orderID,
		shippingCost.String(), commission.String(), t.TotalAmount.String(), t.ItemsProfit.String(),
		t.ShippingProfit.String(), t.TotalProfit.String(), remaining.String())
	if err != nil {
		return fmt.Errorf("store: update order pricing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateOrderTotals persists a recomputed totals decomposition.
func (s *Store) UpdateOrderTotals(ctx context.Context, orderID uuid.UUID, t order.Totals, remaining decimal.Decimal) error {
	const q = `
UPDATE orders
SET total_amount = $2, items_profit = $3, shipping_profit = $4, total_profit = $5,
    remaining_balance = $6, updated_at = now()
WHERE id = $1`
	tag, err := s.Pool.Exec(ctx, q, orderID,
		t.TotalAmount.String(), t.ItemsProfit.String(), t.ShippingProfit.String(), t.TotalProfit.String(),
		remaining.String())
	if err != nil {
		return fmt.Errorf("store: update order totals: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
