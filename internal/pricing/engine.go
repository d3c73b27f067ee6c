package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/aruzhan-dev/backend-cargo/internal/money"
)

var (
	// ErrRateNotFound is returned when no shipping rate is configured for the
	// requested destination country.
	ErrRateNotFound = errors.New("shipping rate not found for country")
	// ErrInvalidInput is returned when weight or order value is negative.
	ErrInvalidInput = errors.New("weight and order value must be non-negative")
)

// DefaultCommissionRate applies when a country has neither a matching
// commission rule nor a configured fallback rate.
var DefaultCommissionRate = decimal.NewFromFloat(0.15)

// Rate is the per-country shipping rate row: a flat base fee, a marginal fee
// per kilogram and a fallback commission percentage used when no commission
// rule brackets the order value.
type Rate struct {
	Country        string          `json:"country"`
	BaseRate       decimal.Decimal `json:"baseRate"`
	PerKgRate      decimal.Decimal `json:"perKgRate"`
	CommissionRate decimal.Decimal `json:"commissionRate"`
	Currency       string          `json:"currency"`
}

// Rule is one commission bracket for a country. MaxValue nil means the
// bracket is unbounded above. Brackets are resolved in ascending MinValue
// order; the first bracket containing the order value wins.
type Rule struct {
	Country    string           `json:"country"`
	MinValue   decimal.Decimal  `json:"minValue"`
	MaxValue   *decimal.Decimal `json:"maxValue"`
	Percentage decimal.Decimal  `json:"percentage"`
	FixedFee   decimal.Decimal  `json:"fixedFee"`
}

// Contains reports whether the bracket covers the provided order value.
func (r Rule) Contains(orderValue decimal.Decimal) bool {
	if orderValue.LessThan(r.MinValue) {
		return false
	}
	if r.MaxValue != nil && orderValue.GreaterThan(*r.MaxValue) {
		return false
	}
	return true
}

// RateSource supplies the reference data the engine reads. Implementations
// return ErrRateNotFound when the country has no configured rate.
type RateSource interface {
	RateByCountry(ctx context.Context, country string) (Rate, error)
	RulesByCountry(ctx context.Context, country string) ([]Rule, error)
	CategoryMultiplier(ctx context.Context, country, category string) (decimal.Decimal, bool, error)
}

// Calculation is the result of one pricing run. It is never persisted; the
// ItemsHash fingerprint lets callers detect that the order items changed
// after the figures were produced.
type Calculation struct {
	Country      string          `json:"country"`
	Category     string          `json:"category"`
	OrderValue   decimal.Decimal `json:"orderValue"`
	BaseShipping decimal.Decimal `json:"baseShipping"`
	Commission   decimal.Decimal `json:"commission"`
	Total        decimal.Decimal `json:"total"`
	Currency     string          `json:"currency"`
	ItemsHash    string          `json:"itemsHash"`
}

// Engine computes shipping cost and commission from country rate tables and
// value-banded commission rules.
type Engine struct {
	Source RateSource
}

// CalculateShipping prices a shipment. itemsHash is opaque caller state
// carried into the result for staleness detection; the engine never computes
// it. Currency conversion is the caller's responsibility.
func (e *Engine) CalculateShipping(ctx context.Context, country, category string, weight, orderValue decimal.Decimal, itemsHash string) (Calculation, error) {
	if e == nil || e.Source == nil {
		return Calculation{}, errors.New("pricing: rate source not configured")
	}
	if weight.IsNegative() || orderValue.IsNegative() {
		return Calculation{}, ErrInvalidInput
	}

	rate, err := e.Source.RateByCountry(ctx, country)
	if err != nil {
		return Calculation{}, err
	}

	base := rate.BaseRate.Add(rate.PerKgRate.Mul(weight))
	multiplier, ok, err := e.Source.CategoryMultiplier(ctx, country, category)
	if err != nil {
		return Calculation{}, fmt.Errorf("pricing: resolve category multiplier: %w", err)
	}
	if ok {
		base = base.Mul(multiplier)
	}

	commission, err := e.resolveCommission(ctx, rate, orderValue)
	if err != nil {
		return Calculation{}, err
	}

	base = money.Round(base)
	commission = money.Round(commission)
	return Calculation{
		Country:      rate.Country,
		Category:     category,
		OrderValue:   orderValue,
		BaseShipping: base,
		Commission:   commission,
		Total:        base.Add(commission),
		Currency:     rate.Currency,
		ItemsHash:    itemsHash,
	}, nil
}

func (e *Engine) resolveCommission(ctx context.Context, rate Rate, orderValue decimal.Decimal) (decimal.Decimal, error) {
	rules, err := e.Source.RulesByCountry(ctx, rate.Country)
	if err != nil {
		return decimal.Zero, fmt.Errorf("pricing: resolve commission rules: %w", err)
	}
	for _, rule := range rules {
		if rule.Contains(orderValue) {
			return orderValue.Mul(rule.Percentage).Add(rule.FixedFee), nil
		}
	}
	fallback := rate.CommissionRate
	if fallback.IsZero() {
		fallback = DefaultCommissionRate
	}
	return orderValue.Mul(fallback), nil
}
