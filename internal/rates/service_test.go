package rates_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/aruzhan-dev/backend-cargo/internal/pricing"
	"github.com/aruzhan-dev/backend-cargo/internal/rates"
	"github.com/aruzhan-dev/backend-cargo/internal/store"
)

type memQuerier struct {
	rates       map[string]pricing.Rate
	rules       map[string][]pricing.Rule
	multipliers map[string]decimal.Decimal

	rateReads int
	ruleReads int
	multReads int
}

func newMemQuerier() *memQuerier {
	return &memQuerier{
		rates:       map[string]pricing.Rate{},
		rules:       map[string][]pricing.Rule{},
		multipliers: map[string]decimal.Decimal{},
	}
}

func (q *memQuerier) GetShippingRate(_ context.Context, country string) (pricing.Rate, error) {
	q.rateReads++
	rate, ok := q.rates[country]
	if !ok {
		return pricing.Rate{}, store.ErrNotFound
	}
	return rate, nil
}

func (q *memQuerier) ListCommissionRules(_ context.Context, country string) ([]pricing.Rule, error) {
	q.ruleReads++
	return q.rules[country], nil
}

func (q *memQuerier) GetCategoryMultiplier(_ context.Context, country, category string) (decimal.Decimal, bool, error) {
	q.multReads++
	m, ok := q.multipliers[country+"/"+category]
	return m, ok, nil
}

func (q *memQuerier) UpsertShippingRate(_ context.Context, rate pricing.Rate) error {
	q.rates[rate.Country] = rate
	return nil
}

func (q *memQuerier) InsertCommissionRule(_ context.Context, rule pricing.Rule) error {
	q.rules[rule.Country] = append(q.rules[rule.Country], rule)
	return nil
}

func (q *memQuerier) UpsertCategoryMultiplier(_ context.Context, country, category string, multiplier decimal.Decimal) error {
	q.multipliers[country+"/"+category] = multiplier
	return nil
}

func newTestService(t *testing.T) (*rates.Service, *memQuerier) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	q := newMemQuerier()
	return &rates.Service{Q: q, Cache: rates.NewCache(client, time.Minute)}, q
}

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func TestRateByCountryCachesReads(t *testing.T) {
	svc, q := newTestService(t)
	q.rates["China"] = pricing.Rate{Country: "China", BaseRate: dec("25.00"), PerKgRate: dec("8.00"), Currency: "CNY"}

	first, err := svc.RateByCountry(context.Background(), "China")
	require.NoError(t, err)
	second, err := svc.RateByCountry(context.Background(), "China")
	require.NoError(t, err)

	require.Equal(t, 1, q.rateReads)
	require.True(t, first.BaseRate.Equal(second.BaseRate))
	require.Equal(t, "CNY", second.Currency)
}

func TestRateByCountryNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.RateByCountry(context.Background(), "Atlantis")
	require.ErrorIs(t, err, pricing.ErrRateNotFound)

	_, err = svc.RateByCountry(context.Background(), "   ")
	require.ErrorIs(t, err, pricing.ErrRateNotFound)
}

func TestSaveRateInvalidatesCache(t *testing.T) {
	svc, q := newTestService(t)
	q.rates["China"] = pricing.Rate{Country: "China", BaseRate: dec("25.00"), Currency: "CNY"}

	_, err := svc.RateByCountry(context.Background(), "China")
	require.NoError(t, err)

	updated := pricing.Rate{Country: "China", BaseRate: dec("30.00"), Currency: "CNY"}
	require.NoError(t, svc.SaveRate(context.Background(), updated))

	rate, err := svc.RateByCountry(context.Background(), "China")
	require.NoError(t, err)
	require.Equal(t, "30.00", rate.BaseRate.StringFixed(2))
	require.Equal(t, 2, q.rateReads)
}

func TestRulesByCountryCachesReads(t *testing.T) {
	svc, q := newTestService(t)
	maxVal := dec("500")
	q.rules["China"] = []pricing.Rule{
		{Country: "China", MinValue: dec("0"), MaxValue: &maxVal, Percentage: dec("0.18")},
	}

	rules, err := svc.RulesByCountry(context.Background(), "China")
	require.NoError(t, err)
	require.Len(t, rules, 1)

	rules, err = svc.RulesByCountry(context.Background(), "China")
	require.NoError(t, err)
	require.Len(t, rules, 1)
	require.Equal(t, 1, q.ruleReads)
	require.Equal(t, "0.18", rules[0].Percentage.String())
	require.NotNil(t, rules[0].MaxValue)
}

func TestAddRuleValidatesAndInvalidates(t *testing.T) {
	svc, q := newTestService(t)

	_, err := svc.RulesByCountry(context.Background(), "China")
	require.NoError(t, err)

	maxVal := dec("100")
	err = svc.AddRule(context.Background(), pricing.Rule{Country: "China", MinValue: dec("200"), MaxValue: &maxVal})
	require.Error(t, err)

	require.NoError(t, svc.AddRule(context.Background(), pricing.Rule{Country: "China", MinValue: dec("0"), Percentage: dec("0.18")}))
	rules, err := svc.RulesByCountry(context.Background(), "China")
	require.NoError(t, err)
	require.Len(t, rules, 1)
	require.Equal(t, 2, q.ruleReads)
}

func TestCategoryMultiplier(t *testing.T) {
	svc, q := newTestService(t)
	q.multipliers["China/clothing"] = dec("0.85")

	m, ok, err := svc.CategoryMultiplier(context.Background(), "China", "clothing")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "0.85", m.String())

	// Negative lookups are cached too.
	_, ok, err = svc.CategoryMultiplier(context.Background(), "China", "bulk")
	require.NoError(t, err)
	require.False(t, ok)
	_, ok, err = svc.CategoryMultiplier(context.Background(), "China", "bulk")
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 2, q.multReads)

	// Blank category means no multiplier without touching the store.
	_, ok, err = svc.CategoryMultiplier(context.Background(), "China", "")
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 2, q.multReads)
}

func TestSaveMultiplierValidates(t *testing.T) {
	svc, _ := newTestService(t)

	require.Error(t, svc.SaveMultiplier(context.Background(), "", "clothing", dec("0.85")))
	require.Error(t, svc.SaveMultiplier(context.Background(), "China", "clothing", decimal.Zero))
	require.NoError(t, svc.SaveMultiplier(context.Background(), "China", "clothing", dec("0.85")))
}
