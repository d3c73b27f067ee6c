package money_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/aruzhan-dev/backend-cargo/internal/money"
)

func TestParse(t *testing.T) {
	t.Parallel()

	d, err := money.Parse(" 12.50 ")
	require.NoError(t, err)
	require.Equal(t, "12.50", d.StringFixed(2))

	_, err = money.Parse("")
	require.ErrorIs(t, err, money.ErrInvalidAmount)

	_, err = money.Parse("12,50")
	require.ErrorIs(t, err, money.ErrInvalidAmount)
}

func TestParseNonNegative(t *testing.T) {
	t.Parallel()

	_, err := money.ParseNonNegative("0")
	require.NoError(t, err)

	_, err = money.ParseNonNegative("-0.01")
	require.ErrorIs(t, err, money.ErrInvalidAmount)
}

func TestRound(t *testing.T) {
	t.Parallel()

	require.Equal(t, "3.33", money.Round(decimal.RequireFromString("3.3333")).String())
	require.Equal(t, "3.34", money.Round(decimal.RequireFromString("3.335")).String())
}

func TestApproxEqual(t *testing.T) {
	t.Parallel()

	a := decimal.RequireFromString("100.00")
	require.True(t, money.ApproxEqual(a, decimal.RequireFromString("100.01")))
	require.True(t, money.ApproxEqual(a, decimal.RequireFromString("99.99")))
	require.False(t, money.ApproxEqual(a, decimal.RequireFromString("100.02")))
}

func TestMin(t *testing.T) {
	t.Parallel()

	a := decimal.RequireFromString("1.00")
	b := decimal.RequireFromString("2.00")
	require.True(t, money.Min(a, b).Equal(a))
	require.True(t, money.Min(b, a).Equal(a))
}
