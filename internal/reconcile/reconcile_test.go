package reconcile_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/aruzhan-dev/backend-cargo/internal/reconcile"
)

func TestProportionalDistribution(t *testing.T) {
	t.Parallel()

	orders := ordersWithAmounts("100", "200", "300")
	result, err := reconcile.DistributeDownPayment(orders, dec("150"))
	require.NoError(t, err)
	require.False(t, result.Capped)
	require.Equal(t, "150.00", result.Applied.StringFixed(2))

	require.Len(t, result.Allocations, 3)
	require.Equal(t, "25.00", result.Allocations[0].DownPayment.StringFixed(2))
	require.Equal(t, "50.00", result.Allocations[1].DownPayment.StringFixed(2))
	require.Equal(t, "75.00", result.Allocations[2].DownPayment.StringFixed(2))
	require.Equal(t, "75.00", result.Allocations[0].RemainingBalance.StringFixed(2))
	require.Equal(t, "150.00", result.Allocations[1].RemainingBalance.StringFixed(2))
	require.Equal(t, "225.00", result.Allocations[2].RemainingBalance.StringFixed(2))

	requireInvariants(t, orders, result)
}

func TestLastOrderAbsorbsRemainder(t *testing.T) {
	t.Parallel()

	orders := ordersWithAmounts("33.33", "33.33", "33.33")
	result, err := reconcile.DistributeDownPayment(orders, dec("100"))
	require.NoError(t, err)

	// 100 exceeds the 99.99 due, so the payment caps there.
	require.True(t, result.Capped)
	require.Equal(t, "99.99", result.Applied.StringFixed(2))
	sum := decimal.Zero
	for _, a := range result.Allocations {
		sum = sum.Add(a.DownPayment)
	}
	require.True(t, sum.Equal(result.Applied), "allocations sum %s != applied %s", sum, result.Applied)
	requireInvariants(t, orders, result)
}

func TestRoundingRemainderSumsExactly(t *testing.T) {
	t.Parallel()

	orders := ordersWithAmounts("10", "10", "10")
	result, err := reconcile.DistributeDownPayment(orders, dec("10"))
	require.NoError(t, err)
	require.False(t, result.Capped)

	// 10/3 rounds to 3.33 twice; the last order takes 3.34.
	require.Equal(t, "3.33", result.Allocations[0].DownPayment.StringFixed(2))
	require.Equal(t, "3.33", result.Allocations[1].DownPayment.StringFixed(2))
	require.Equal(t, "3.34", result.Allocations[2].DownPayment.StringFixed(2))
	requireInvariants(t, orders, result)
}

func TestOverpaymentCapsAtTotal(t *testing.T) {
	t.Parallel()

	orders := ordersWithAmounts("100", "200")
	result, err := reconcile.DistributeDownPayment(orders, dec("1000"))
	require.NoError(t, err)
	require.True(t, result.Capped)
	require.Equal(t, "300.00", result.Applied.StringFixed(2))
	for _, a := range result.Allocations {
		require.True(t, a.RemainingBalance.IsZero(), "expected zero balance, got %s", a.RemainingBalance)
	}
}

func TestDeterministicOrdering(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	first := reconcile.OpenOrder{ID: uuid.New(), TotalAmount: dec("100"), CreatedAt: base}
	second := reconcile.OpenOrder{ID: uuid.New(), TotalAmount: dec("200"), CreatedAt: base.Add(time.Hour)}
	third := reconcile.OpenOrder{ID: uuid.New(), TotalAmount: dec("300"), CreatedAt: base.Add(2 * time.Hour)}

	shuffled := []reconcile.OpenOrder{third, first, second}
	result, err := reconcile.DistributeDownPayment(shuffled, dec("150"))
	require.NoError(t, err)

	require.Equal(t, first.ID, result.Allocations[0].OrderID)
	require.Equal(t, second.ID, result.Allocations[1].OrderID)
	require.Equal(t, third.ID, result.Allocations[2].OrderID)
	require.Equal(t, "75.00", result.Allocations[2].DownPayment.StringFixed(2))
}

func TestEmptyOrders(t *testing.T) {
	t.Parallel()

	result, err := reconcile.DistributeDownPayment(nil, decimal.Zero)
	require.NoError(t, err)
	require.Empty(t, result.Allocations)

	_, err = reconcile.DistributeDownPayment(nil, dec("50"))
	require.ErrorIs(t, err, reconcile.ErrNoOpenOrders)
}

func TestRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	_, err := reconcile.DistributeDownPayment(ordersWithAmounts("100"), dec("-1"))
	require.ErrorIs(t, err, reconcile.ErrInvalidPayment)

	_, err = reconcile.DistributeDownPayment(ordersWithAmounts("0", "0"), dec("10"))
	require.ErrorIs(t, err, reconcile.ErrNoAllocationBasis)
}

func TestSingleOrderTakesFullPayment(t *testing.T) {
	t.Parallel()

	orders := ordersWithAmounts("250")
	result, err := reconcile.DistributeDownPayment(orders, dec("99.99"))
	require.NoError(t, err)
	require.Equal(t, "99.99", result.Allocations[0].DownPayment.StringFixed(2))
	require.Equal(t, "150.01", result.Allocations[0].RemainingBalance.StringFixed(2))
}

func requireInvariants(t *testing.T, orders []reconcile.OpenOrder, result reconcile.Result) {
	t.Helper()
	amounts := make(map[uuid.UUID]decimal.Decimal, len(orders))
	for _, o := range orders {
		amounts[o.ID] = o.TotalAmount
	}
	sum := decimal.Zero
	for _, a := range result.Allocations {
		require.False(t, a.DownPayment.IsNegative())
		require.False(t, a.RemainingBalance.IsNegative())
		require.True(t, a.DownPayment.LessThanOrEqual(amounts[a.OrderID]))
		sum = sum.Add(a.DownPayment)
	}
	require.True(t, sum.Sub(result.Applied).Abs().LessThanOrEqual(decimal.New(1, -2)),
		"allocations sum %s drifted from applied %s", sum, result.Applied)
}

func ordersWithAmounts(amounts ...string) []reconcile.OpenOrder {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	orders := make([]reconcile.OpenOrder, 0, len(amounts))
	for i, amount := range amounts {
		orders = append(orders, reconcile.OpenOrder{
			ID:          uuid.New(),
			TotalAmount: dec(amount),
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		})
	}
	return orders
}

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}
