// Package customer coordinates the financial core against persisted orders:
// down payment distribution, direct down payment edits and totals
// recomputation after item or shipping changes.
package customer

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aruzhan-dev/backend-cargo/internal/lock"
	"github.com/aruzhan-dev/backend-cargo/internal/obs"
	"github.com/aruzhan-dev/backend-cargo/internal/order"
	"github.com/aruzhan-dev/backend-cargo/internal/pricing"
	"github.com/aruzhan-dev/backend-cargo/internal/reconcile"
	"github.com/aruzhan-dev/backend-cargo/internal/store"
)

var (
	// ErrStaleCalculation is returned when an order is finalised against a
	// shipping calculation produced for a different item set.
	ErrStaleCalculation = errors.New("shipping calculation is stale for the current order items")
	// ErrDownPaymentExceedsTotal is returned on the single-order path when the
	// requested down payment is larger than the order total.
	ErrDownPaymentExceedsTotal = errors.New("down payment exceeds order total")
)

// Orders is the persistence surface the service needs.
type Orders interface {
	ListOpenOrdersByCustomer(ctx context.Context, customerID uuid.UUID) ([]reconcile.OpenOrder, error)
	ApplyAllocations(ctx context.Context, allocations []reconcile.Allocation) error
	GetOrderFinancials(ctx context.Context, orderID uuid.UUID) (store.OrderFinancials, error)
	SetOrderDownPayment(ctx context.Context, orderID uuid.UUID, downPayment, remaining decimal.Decimal) error
	ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]order.Item, error)
	UpdateOrderTotals(ctx context.Context, orderID uuid.UUID, t order.Totals, remaining decimal.Decimal) error
	UpdateOrderPricing(ctx context.Context, orderID uuid.UUID, shippingCost, commission decimal.Decimal, t order.Totals, remaining decimal.Decimal) error
}

// Service serialises writes per customer and applies the reconciler and
// totals recomputation against the store.
type Service struct {
	Orders  Orders
	Locker  lock.Locker
	LockTTL time.Duration
}

// DistributeDownPayment spreads a customer's aggregate down payment across
// their open orders and persists the allocations in one transaction. The
// per-customer lock serialises concurrent distributions for the same
// customer.
func (s *Service) DistributeDownPayment(ctx context.Context, customerID uuid.UUID, totalDownPayment decimal.Decimal) (reconcile.Result, error) {
	if s == nil || s.Orders == nil {
		return reconcile.Result{}, errors.New("customer: orders store not configured")
	}
	var result reconcile.Result
	err := s.withCustomerLock(ctx, customerID, func(ctx context.Context) error {
		orders, err := s.Orders.ListOpenOrdersByCustomer(ctx, customerID)
		if err != nil {
			return err
		}
		result, err = reconcile.DistributeDownPayment(orders, totalDownPayment)
		if err != nil {
			return err
		}
		return s.Orders.ApplyAllocations(ctx, result.Allocations)
	})
	if err != nil {
		obs.ObserveDistribution("error", false)
		return reconcile.Result{}, err
	}
	obs.ObserveDistribution("ok", result.Capped)
	return result, nil
}

// SetOrderDownPayment records a down payment directly against one order,
// bypassing the reconciler.
func (s *Service) SetOrderDownPayment(ctx context.Context, orderID uuid.UUID, downPayment decimal.Decimal) (store.OrderFinancials, error) {
	if downPayment.IsNegative() {
		return store.OrderFinancials{}, reconcile.ErrInvalidPayment
	}
	fin, err := s.Orders.GetOrderFinancials(ctx, orderID)
	if err != nil {
		return store.OrderFinancials{}, err
	}
	if downPayment.GreaterThan(fin.TotalAmount) {
		return store.OrderFinancials{}, ErrDownPaymentExceedsTotal
	}
	remaining := fin.TotalAmount.Sub(downPayment)
	if err := s.Orders.SetOrderDownPayment(ctx, orderID, downPayment, remaining); err != nil {
		return store.OrderFinancials{}, err
	}
	fin.DownPayment = downPayment
	fin.RemainingBalance = remaining
	return fin, nil
}

// RecomputeTotals re-derives an order's totals from its current items and
// persists them, keeping the stored profit fields in step with item edits.
func (s *Service) RecomputeTotals(ctx context.Context, orderID uuid.UUID) (order.Totals, error) {
	fin, err := s.Orders.GetOrderFinancials(ctx, orderID)
	if err != nil {
		return order.Totals{}, err
	}
	items, err := s.Orders.ListOrderItems(ctx, orderID)
	if err != nil {
		return order.Totals{}, err
	}
	totals := order.RecomputeTotals(items, fin.ShippingCost, fin.Commission)
	remaining := totals.TotalAmount.Sub(fin.DownPayment)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	if err := s.Orders.UpdateOrderTotals(ctx, orderID, totals, remaining); err != nil {
		return order.Totals{}, err
	}
	return totals, nil
}

// ApplyShippingCalculation persists a pricing result onto an order after
// verifying it is still fresh for the order's current item set.
func (s *Service) ApplyShippingCalculation(ctx context.Context, orderID uuid.UUID, calc pricing.Calculation) (order.Totals, error) {
	items, err := s.Orders.ListOrderItems(ctx, orderID)
	if err != nil {
		return order.Totals{}, err
	}
	snapshot := make([]pricing.Item, 0, len(items))
	for _, it := range items {
		snapshot = append(snapshot, pricing.Item{Name: it.Name, Quantity: it.Quantity, UnitPrice: it.OriginalPrice})
	}
	if calc.IsStale(snapshot) {
		obs.ObserveStaleCalculation()
		return order.Totals{}, ErrStaleCalculation
	}
	fin, err := s.Orders.GetOrderFinancials(ctx, orderID)
	if err != nil {
		return order.Totals{}, err
	}
	totals := order.RecomputeTotals(items, calc.BaseShipping, calc.Commission)
	remaining := totals.TotalAmount.Sub(fin.DownPayment)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	if err := s.Orders.UpdateOrderPricing(ctx, orderID, calc.BaseShipping, calc.Commission, totals, remaining); err != nil {
		return order.Totals{}, err
	}
	return totals, nil
}

func (s *Service) withCustomerLock(ctx context.Context, customerID uuid.UUID, fn func(context.Context) error) error {
	if s.Locker.R == nil {
		return fn(ctx)
	}
	ttl := s.LockTTL
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return s.Locker.WithLock(ctx, "lock:customer:"+customerID.String(), ttl, fn)
}
