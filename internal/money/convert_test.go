package money_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/aruzhan-dev/backend-cargo/internal/money"
)

func testConverter() money.StaticConverter {
	return money.StaticConverter{
		Base: "USD",
		Rates: map[string]decimal.Decimal{
			"CNY": decimal.RequireFromString("0.14"),
			"EUR": decimal.RequireFromString("1.09"),
		},
	}
}

func TestConvertToBase(t *testing.T) {
	t.Parallel()

	c := testConverter()
	got, err := c.Convert(decimal.RequireFromString("100"), "CNY", "USD")
	require.NoError(t, err)
	require.Equal(t, "14.00", got.StringFixed(2))
}

func TestConvertCrossCurrency(t *testing.T) {
	t.Parallel()

	c := testConverter()
	// 100 CNY -> 14 USD -> 14/1.09 EUR
	got, err := c.Convert(decimal.RequireFromString("100"), "cny", "eur")
	require.NoError(t, err)
	require.Equal(t, "12.84", got.StringFixed(2))
}

func TestConvertSameCurrencyIsIdentity(t *testing.T) {
	t.Parallel()

	c := testConverter()
	in := decimal.RequireFromString("42.555")
	got, err := c.Convert(in, "CNY", "CNY")
	require.NoError(t, err)
	require.True(t, got.Equal(in))
}

func TestConvertUnknownCurrency(t *testing.T) {
	t.Parallel()

	c := testConverter()
	_, err := c.Convert(decimal.NewFromInt(1), "XXX", "USD")
	require.ErrorIs(t, err, money.ErrUnknownCurrency)

	_, err = c.Convert(decimal.NewFromInt(1), "USD", "")
	require.ErrorIs(t, err, money.ErrUnknownCurrency)
}

func TestParseRateTable(t *testing.T) {
	t.Parallel()

	rates, err := money.ParseRateTable("CNY=0.14, eur=1.09,")
	require.NoError(t, err)
	require.Len(t, rates, 2)
	require.Equal(t, "0.14", rates["CNY"].String())
	require.Equal(t, "1.09", rates["EUR"].String())

	_, err = money.ParseRateTable("CNY")
	require.Error(t, err)

	_, err = money.ParseRateTable("CNY=-1")
	require.Error(t, err)
}
