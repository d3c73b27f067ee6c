package pricing_test

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/aruzhan-dev/backend-cargo/internal/pricing"
)

type stubSource struct {
	rates       map[string]pricing.Rate
	rules       map[string][]pricing.Rule
	multipliers map[string]decimal.Decimal
}

func (s *stubSource) RateByCountry(_ context.Context, country string) (pricing.Rate, error) {
	rate, ok := s.rates[country]
	if !ok {
		return pricing.Rate{}, pricing.ErrRateNotFound
	}
	return rate, nil
}

func (s *stubSource) RulesByCountry(_ context.Context, country string) ([]pricing.Rule, error) {
	return s.rules[country], nil
}

func (s *stubSource) CategoryMultiplier(_ context.Context, country, category string) (decimal.Decimal, bool, error) {
	m, ok := s.multipliers[country+"/"+category]
	return m, ok, nil
}

func chinaSource() *stubSource {
	return &stubSource{
		rates: map[string]pricing.Rate{
			"China": {
				Country:        "China",
				BaseRate:       dec("25.00"),
				PerKgRate:      dec("8.00"),
				CommissionRate: dec("0.15"),
				Currency:       "CNY",
			},
		},
		rules: map[string][]pricing.Rule{
			"China": {
				{Country: "China", MinValue: dec("0"), MaxValue: decPtr("500"), Percentage: dec("0.18")},
				{Country: "China", MinValue: dec("500.01"), Percentage: dec("0.15"), FixedFee: dec("5.00")},
			},
		},
		multipliers: map[string]decimal.Decimal{
			"China/clothing": dec("0.85"),
		},
	}
}

func TestCalculateShipping(t *testing.T) {
	t.Parallel()

	engine := &pricing.Engine{Source: chinaSource()}
	calc, err := engine.CalculateShipping(context.Background(), "China", "normal", dec("3"), dec("100"), "hash-1")
	require.NoError(t, err)

	require.Equal(t, "49.00", calc.BaseShipping.StringFixed(2))
	require.Equal(t, "18.00", calc.Commission.StringFixed(2))
	require.Equal(t, "67.00", calc.Total.StringFixed(2))
	require.Equal(t, "CNY", calc.Currency)
	require.Equal(t, "hash-1", calc.ItemsHash)
	require.True(t, calc.Total.Equal(calc.BaseShipping.Add(calc.Commission)))
}

func TestCategoryMultiplierApplied(t *testing.T) {
	t.Parallel()

	engine := &pricing.Engine{Source: chinaSource()}
	calc, err := engine.CalculateShipping(context.Background(), "China", "clothing", dec("3"), dec("100"), "")
	require.NoError(t, err)
	// (25 + 8*3) * 0.85
	require.Equal(t, "41.65", calc.BaseShipping.StringFixed(2))
}

func TestCommissionBracketSelection(t *testing.T) {
	t.Parallel()

	engine := &pricing.Engine{Source: chinaSource()}

	// Upper boundary of the first bracket still matches it.
	calc, err := engine.CalculateShipping(context.Background(), "China", "normal", decimal.Zero, dec("500"), "")
	require.NoError(t, err)
	require.Equal(t, "90.00", calc.Commission.StringFixed(2))

	// Just above moves to the second bracket with its fixed fee.
	calc, err = engine.CalculateShipping(context.Background(), "China", "normal", decimal.Zero, dec("600"), "")
	require.NoError(t, err)
	require.Equal(t, "95.00", calc.Commission.StringFixed(2))
}

func TestCommissionFallbackRate(t *testing.T) {
	t.Parallel()

	source := chinaSource()
	source.rules = nil
	engine := &pricing.Engine{Source: source}

	calc, err := engine.CalculateShipping(context.Background(), "China", "normal", decimal.Zero, dec("200"), "")
	require.NoError(t, err)
	require.Equal(t, "30.00", calc.Commission.StringFixed(2))
}

func TestCommissionDefaultWhenRateUnset(t *testing.T) {
	t.Parallel()

	source := chinaSource()
	rate := source.rates["China"]
	rate.CommissionRate = decimal.Zero
	source.rates["China"] = rate
	source.rules = nil
	engine := &pricing.Engine{Source: source}

	calc, err := engine.CalculateShipping(context.Background(), "China", "normal", decimal.Zero, dec("200"), "")
	require.NoError(t, err)
	require.Equal(t, "30.00", calc.Commission.StringFixed(2))
}

func TestZeroWeightIsFlatFee(t *testing.T) {
	t.Parallel()

	engine := &pricing.Engine{Source: chinaSource()}
	calc, err := engine.CalculateShipping(context.Background(), "China", "normal", decimal.Zero, decimal.Zero, "")
	require.NoError(t, err)
	require.Equal(t, "25.00", calc.BaseShipping.StringFixed(2))
	require.True(t, calc.Commission.IsZero())
}

func TestUnknownCountry(t *testing.T) {
	t.Parallel()

	engine := &pricing.Engine{Source: chinaSource()}
	_, err := engine.CalculateShipping(context.Background(), "Atlantis", "normal", dec("1"), dec("100"), "")
	require.ErrorIs(t, err, pricing.ErrRateNotFound)
}

func TestNegativeInputsRejected(t *testing.T) {
	t.Parallel()

	engine := &pricing.Engine{Source: chinaSource()}
	_, err := engine.CalculateShipping(context.Background(), "China", "normal", dec("-1"), dec("100"), "")
	require.ErrorIs(t, err, pricing.ErrInvalidInput)

	_, err = engine.CalculateShipping(context.Background(), "China", "normal", dec("1"), dec("-100"), "")
	require.ErrorIs(t, err, pricing.ErrInvalidInput)
}

func TestBracketResolutionIsDeterministic(t *testing.T) {
	t.Parallel()

	engine := &pricing.Engine{Source: chinaSource()}
	var commissions []string
	for i := 0; i < 5; i++ {
		calc, err := engine.CalculateShipping(context.Background(), "China", "normal", dec("2"), dec("450"), "")
		require.NoError(t, err)
		commissions = append(commissions, calc.Commission.StringFixed(2))
	}
	require.Equal(t, 1, len(uniqueStrings(commissions)))
}

func uniqueStrings(values []string) []string {
	seen := map[string]struct{}{}
	for _, v := range values {
		seen[strings.TrimSpace(v)] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	return out
}

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func decPtr(value string) *decimal.Decimal {
	d := dec(value)
	return &d
}
