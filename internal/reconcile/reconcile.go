// Package reconcile distributes a customer's aggregate down payment across
// their open orders proportionally to each order's total amount.
package reconcile

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aruzhan-dev/backend-cargo/internal/money"
)

var (
	// ErrInvalidPayment is returned when the aggregate down payment is negative.
	ErrInvalidPayment = errors.New("down payment must be non-negative")
	// ErrNoAllocationBasis is returned when the customer's total order amount is
	// zero or negative, leaving no basis for a proportional split.
	ErrNoAllocationBasis = errors.New("total order amount must be positive")
	// ErrNoOpenOrders is returned when a non-zero payment is applied against an
	// empty order set.
	ErrNoOpenOrders = errors.New("no open orders to apply the down payment to")
)

// OpenOrder is the slice of order state the reconciler needs.
type OpenOrder struct {
	ID          uuid.UUID
	TotalAmount decimal.Decimal
	CreatedAt   time.Time
}

// Allocation is the per-order outcome of one distribution run.
type Allocation struct {
	OrderID          uuid.UUID
	DownPayment      decimal.Decimal
	RemainingBalance decimal.Decimal
}

// Result carries the allocations plus the amount actually applied. Capped is
// true when the requested payment exceeded the aggregate due and was clamped;
// callers surface it as a warning rather than silently dropping the excess.
type Result struct {
	Allocations []Allocation
	Applied     decimal.Decimal
	Capped      bool
}

// DistributeDownPayment splits totalDownPayment across orders proportionally
// to each order's total amount. Orders are processed by creation time then ID
// so the run is reproducible regardless of input order; the last order absorbs
// the rounding remainder so the allocations sum exactly to the applied amount.
func DistributeDownPayment(orders []OpenOrder, totalDownPayment decimal.Decimal) (Result, error) {
	if totalDownPayment.IsNegative() {
		return Result{}, ErrInvalidPayment
	}
	if len(orders) == 0 {
		if totalDownPayment.IsZero() {
			return Result{Applied: decimal.Zero}, nil
		}
		return Result{}, ErrNoOpenOrders
	}

	sorted := make([]OpenOrder, len(orders))
	copy(sorted, orders)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return sorted[i].ID.String() < sorted[j].ID.String()
	})

	totalAmount := decimal.Zero
	for _, o := range sorted {
		totalAmount = totalAmount.Add(o.TotalAmount)
	}
	if !totalAmount.IsPositive() {
		return Result{}, ErrNoAllocationBasis
	}

	capped := money.Min(totalDownPayment, totalAmount)
	result := Result{
		Allocations: make([]Allocation, 0, len(sorted)),
		Applied:     money.Round(capped),
		Capped:      capped.LessThan(totalDownPayment),
	}

	distributed := decimal.Zero
	for i, o := range sorted {
		var share decimal.Decimal
		if i < len(sorted)-1 {
			share = money.Round(capped.Mul(o.TotalAmount).Div(totalAmount))
		} else {
			// Last order absorbs the rounding remainder.
			share = result.Applied.Sub(distributed)
		}
		if share.GreaterThan(o.TotalAmount) {
			share = o.TotalAmount
		}
		if share.IsNegative() {
			share = decimal.Zero
		}
		distributed = distributed.Add(share)

		remaining := o.TotalAmount.Sub(share)
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}
		result.Allocations = append(result.Allocations, Allocation{
			OrderID:          o.ID,
			DownPayment:      share,
			RemainingBalance: remaining,
		})
	}
	return result, nil
}
