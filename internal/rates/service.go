// Package rates serves shipping rate and commission rule reference data with
// a read-through Redis cache in front of Postgres.
package rates

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/aruzhan-dev/backend-cargo/internal/obs"
	"github.com/aruzhan-dev/backend-cargo/internal/pricing"
	"github.com/aruzhan-dev/backend-cargo/internal/store"
)

// Querier defines the store access the service needs.
type Querier interface {
	GetShippingRate(ctx context.Context, country string) (pricing.Rate, error)
	ListCommissionRules(ctx context.Context, country string) ([]pricing.Rule, error)
	GetCategoryMultiplier(ctx context.Context, country, category string) (decimal.Decimal, bool, error)
	UpsertShippingRate(ctx context.Context, rate pricing.Rate) error
	InsertCommissionRule(ctx context.Context, rule pricing.Rule) error
	UpsertCategoryMultiplier(ctx context.Context, country, category string, multiplier decimal.Decimal) error
}

// Service implements pricing.RateSource over the store, caching the
// read-mostly reference rows.
type Service struct {
	Q     Querier
	Cache *Cache
}

// RateByCountry resolves the shipping rate for a country, translating a
// missing row into pricing.ErrRateNotFound.
func (s *Service) RateByCountry(ctx context.Context, country string) (pricing.Rate, error) {
	country = strings.TrimSpace(country)
	if country == "" {
		return pricing.Rate{}, pricing.ErrRateNotFound
	}
	key := cacheKey("rate", country)
	var cached pricing.Rate
	if ok, _ := s.Cache.GetJSON(ctx, key, &cached); ok {
		obs.ObserveRateCache("hit")
		return cached, nil
	}
	obs.ObserveRateCache("miss")

	rate, err := s.Q.GetShippingRate(ctx, country)
	if errors.Is(err, store.ErrNotFound) {
		return pricing.Rate{}, fmt.Errorf("%w: %s", pricing.ErrRateNotFound, country)
	}
	if err != nil {
		return pricing.Rate{}, err
	}
	_ = s.Cache.SetJSON(ctx, key, rate)
	return rate, nil
}

// RulesByCountry returns a country's commission brackets in ascending
// MinValue order.
func (s *Service) RulesByCountry(ctx context.Context, country string) ([]pricing.Rule, error) {
	key := cacheKey("rules", country)
	var cached []pricing.Rule
	if ok, _ := s.Cache.GetJSON(ctx, key, &cached); ok {
		obs.ObserveRateCache("hit")
		return cached, nil
	}
	obs.ObserveRateCache("miss")

	rules, err := s.Q.ListCommissionRules(ctx, country)
	if err != nil {
		return nil, err
	}
	_ = s.Cache.SetJSON(ctx, key, rules)
	return rules, nil
}

// CategoryMultiplier resolves the surcharge multiplier for a country and
// category when one is configured.
func (s *Service) CategoryMultiplier(ctx context.Context, country, category string) (decimal.Decimal, bool, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return decimal.Zero, false, nil
	}
	type cachedMultiplier struct {
		Multiplier decimal.Decimal `json:"multiplier"`
		Configured bool            `json:"configured"`
	}
	key := cacheKey("mult", country, category)
	var cached cachedMultiplier
	if ok, _ := s.Cache.GetJSON(ctx, key, &cached); ok {
		obs.ObserveRateCache("hit")
		return cached.Multiplier, cached.Configured, nil
	}
	obs.ObserveRateCache("miss")

	multiplier, configured, err := s.Q.GetCategoryMultiplier(ctx, country, category)
	if err != nil {
		return decimal.Zero, false, err
	}
	_ = s.Cache.SetJSON(ctx, key, cachedMultiplier{Multiplier: multiplier, Configured: configured})
	return multiplier, configured, nil
}

// SaveRate upserts a country's shipping rate and invalidates its cache entry.
func (s *Service) SaveRate(ctx context.Context, rate pricing.Rate) error {
	rate.Country = strings.TrimSpace(rate.Country)
	if rate.Country == "" {
		return errors.New("rates: country is required")
	}
	if err := s.Q.UpsertShippingRate(ctx, rate); err != nil {
		return err
	}
	return s.Cache.Delete(ctx, cacheKey("rate", rate.Country))
}

// AddRule appends a commission bracket and invalidates the country's rules.
func (s *Service) AddRule(ctx context.Context, rule pricing.Rule) error {
	rule.Country = strings.TrimSpace(rule.Country)
	if rule.Country == "" {
		return errors.New("rates: country is required")
	}
	if rule.MaxValue != nil && rule.MaxValue.LessThan(rule.MinValue) {
		return errors.New("rates: max value below min value")
	}
	if err := s.Q.InsertCommissionRule(ctx, rule); err != nil {
		return err
	}
	return s.Cache.Delete(ctx, cacheKey("rules", rule.Country))
}

// SaveMultiplier upserts a category multiplier and invalidates its cache entry.
func (s *Service) SaveMultiplier(ctx context.Context, country, category string, multiplier decimal.Decimal) error {
	country = strings.TrimSpace(country)
	category = strings.TrimSpace(category)
	if country == "" || category == "" {
		return errors.New("rates: country and category are required")
	}
	if !multiplier.IsPositive() {
		return errors.New("rates: multiplier must be positive")
	}
	if err := s.Q.UpsertCategoryMultiplier(ctx, country, category, multiplier); err != nil {
		return err
	}
	return s.Cache.Delete(ctx, cacheKey("mult", country, category))
}

func cacheKey(parts ...string) string {
	return "rates:" + strings.Join(parts, ":")
}
