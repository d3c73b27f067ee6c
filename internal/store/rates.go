package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/aruzhan-dev/backend-cargo/internal/pricing"
)

// ErrNotFound is returned when a reference row does not exist.
var ErrNotFound = errors.New("store: not found")

// GetShippingRate loads the shipping rate for a country.
func (s *Store) GetShippingRate(ctx context.Context, country string) (pricing.Rate, error) {
	const q = `
SELECT country, base_rate::text, per_kg_rate::text, commission_rate::text, currency
FROM shipping_rates
WHERE country = $1`
	var (
		rate                   pricing.Rate
		baseRate, perKg, comms string
	)
	err := s.Pool.QueryRow(ctx, q, country).Scan(&rate.Country, &baseRate, &perKg, &comms, &rate.Currency)
	if errors.Is(err, pgx.ErrNoRows) {
		return pricing.Rate{}, ErrNotFound
	}
	if err != nil {
		return pricing.Rate{}, fmt.Errorf("store: get shipping rate: %w", err)
	}
	if rate.BaseRate, err = decimal.NewFromString(baseRate); err != nil {
		return pricing.Rate{}, fmt.Errorf("store: parse base rate: %w", err)
	}
	if rate.PerKgRate, err = decimal.NewFromString(perKg); err != nil {
		return pricing.Rate{}, fmt.Errorf("store: parse per kg rate: %w", err)
	}
	if rate.CommissionRate, err = decimal.NewFromString(comms); err != nil {
		return pricing.Rate{}, fmt.Errorf("store: parse commission rate: %w", err)
	}
	return rate, nil
}

// ListCommissionRules returns a country's commission brackets in ascending
// MinValue order, the order the pricing engine resolves them in.
func (s *Store) ListCommissionRules(ctx context.Context, country string) ([]pricing.Rule, error) {
	const q = `
SELECT country, min_value::text, max_value::text, percentage::text, fixed_fee::text
FROM commission_rules
WHERE country = $1
ORDER BY min_value`
	rows, err := s.Pool.Query(ctx, q, country)
	if err != nil {
		return nil, fmt.Errorf("store: list commission rules: %w", err)
	}
	defer rows.Close()

	var rules []pricing.Rule
	for rows.Next() {
		var (
			rule             pricing.Rule
			minVal, pct, fee string
			maxVal           *string
		)
		if err := rows.Scan(&rule.Country, &minVal, &maxVal, &pct, &fee); err != nil {
			return nil, fmt.Errorf("store: scan commission rule: %w", err)
		}
		if rule.MinValue, err = decimal.NewFromString(minVal); err != nil {
			return nil, fmt.Errorf("store: parse min value: %w", err)
		}
		if maxVal != nil {
			parsed, err := decimal.NewFromString(*maxVal)
			if err != nil {
				return nil, fmt.Errorf("store: parse max value: %w", err)
			}
			rule.MaxValue = &parsed
		}
		if rule.Percentage, err = decimal.NewFromString(pct); err != nil {
			return nil, fmt.Errorf("store: parse percentage: %w", err)
		}
		if rule.FixedFee, err = decimal.NewFromString(fee); err != nil {
			return nil, fmt.Errorf("store: parse fixed fee: %w", err)
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// GetCategoryMultiplier returns the surcharge multiplier for a country and
// shipment category. The boolean reports whether a multiplier is configured.
func (s *Store) GetCategoryMultiplier(ctx context.Context, country, category string) (decimal.Decimal, bool, error) {
	const q = `
SELECT multiplier::text
FROM category_multipliers
WHERE country = $1 AND category = $2`
	var raw string
	err := s.Pool.QueryRow(ctx, q, country, category).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("store: get category multiplier: %w", err)
	}
	multiplier, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("store: parse multiplier: %w", err)
	}
	return multiplier, true, nil
}

// UpsertShippingRate creates or replaces a country's shipping rate.
func (s *Store) UpsertShippingRate(ctx context.Context, rate pricing.Rate) error {
	const q = `
INSERT INTO shipping_rates (country, base_rate, per_kg_rate, commission_rate, currency)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (country) DO UPDATE SET
  base_rate = EXCLUDED.base_rate,
  per_kg_rate = EXCLUDED.per_kg_rate,
  commission_rate = EXCLUDED.commission_rate,
  currency = EXCLUDED.currency,
  updated_at = now()`
	_, err := s.Pool.Exec(ctx, q,
		rate.Country, rate.BaseRate.String(), rate.PerKgRate.String(), rate.CommissionRate.String(), rate.Currency)
	if err != nil {
		return fmt.Errorf("store: upsert shipping rate: %w", err)
	}
	return nil
}

// InsertCommissionRule adds one commission bracket for a country.
func (s *Store) InsertCommissionRule(ctx context.Context, rule pricing.Rule) error {
	const q = `
INSERT INTO commission_rules (country, min_value, max_value, percentage, fixed_fee)
VALUES ($1, $2, $3, $4, $5)`
	var maxVal *string
	if rule.MaxValue != nil {
		v := rule.MaxValue.String()
		maxVal = &v
	}
	_, err := s.Pool.Exec(ctx, q,
		rule.Country, rule.MinValue.String(), maxVal, rule.Percentage.String(), rule.FixedFee.String())
	if err != nil {
		return fmt.Errorf("store: insert commission rule: %w", err)
	}
	return nil
}

// UpsertCategoryMultiplier creates or replaces a category surcharge multiplier.
func (s *Store) UpsertCategoryMultiplier(ctx context.Context, country, category string, multiplier decimal.Decimal) error {
	const q = `
INSERT INTO category_multipliers (country, category, multiplier)
VALUES ($1, $2, $3)
ON CONFLICT (country, category) DO UPDATE SET multiplier = EXCLUDED.multiplier`
	_, err := s.Pool.Exec(ctx, q, country, category, multiplier.String())
	if err != nil {
		return fmt.Errorf("store: upsert category multiplier: %w", err)
	}
	return nil
}
