package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrUnknownCurrency is returned when a conversion involves a currency the
// converter has no rate for.
var ErrUnknownCurrency = fmt.Errorf("unknown currency")

// Converter translates an amount between currencies. Rate tables are
// denominated per destination country, so callers that settle orders in a
// single base currency inject a Converter rather than mixing currencies inside
// the pricing engine.
type Converter interface {
	Convert(amount decimal.Decimal, from, to string) (decimal.Decimal, error)
}

// StaticConverter converts through a fixed table of exchange rates expressed
// as units of Base per one unit of the listed currency.
type StaticConverter struct {
	Base  string
	Rates map[string]decimal.Decimal
}

// Convert translates amount from one currency to another through the base.
func (c StaticConverter) Convert(amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	from = normalizeCurrency(from)
	to = normalizeCurrency(to)
	if from == "" || to == "" {
		return decimal.Zero, fmt.Errorf("%w: currency code required", ErrUnknownCurrency)
	}
	if from == to {
		return amount, nil
	}
	inBase, err := c.toBase(amount, from)
	if err != nil {
		return decimal.Zero, err
	}
	if to == normalizeCurrency(c.Base) {
		return Round(inBase), nil
	}
	rate, ok := c.Rates[to]
	if !ok || rate.IsZero() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownCurrency, to)
	}
	return Round(inBase.Div(rate)), nil
}

func (c StaticConverter) toBase(amount decimal.Decimal, from string) (decimal.Decimal, error) {
	if from == normalizeCurrency(c.Base) {
		return amount, nil
	}
	rate, ok := c.Rates[from]
	if !ok || rate.IsZero() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownCurrency, from)
	}
	return amount.Mul(rate), nil
}

func normalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ParseRateTable parses a comma-separated exchange table such as
// "CNY=0.14,EUR=1.09" into a rate map keyed by upper-case currency code.
func ParseRateTable(table string) (map[string]decimal.Decimal, error) {
	rates := make(map[string]decimal.Decimal)
	for _, pair := range strings.Split(table, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		code, value, found := strings.Cut(pair, "=")
		if !found {
			return nil, fmt.Errorf("invalid exchange rate entry %q", pair)
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil || !rate.IsPositive() {
			return nil, fmt.Errorf("invalid exchange rate for %q", code)
		}
		rates[normalizeCurrency(code)] = rate
	}
	return rates, nil
}
