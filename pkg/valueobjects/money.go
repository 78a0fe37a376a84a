// Package valueobjects holds small immutable domain values shared across
// the entry lifecycle.
package valueobjects

import (
	"fmt"
	"strings"

	"github.com/backlot-hq/backlot-backend/errors"
	"github.com/shopspring/decimal"
)

// Currency represents a valid ISO 4217 currency code
type Currency string

// Currencies productions reimburse in
const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	CAD Currency = "CAD"
)

var supportedCurrencies = map[Currency]bool{
	USD: true,
	EUR: true,
	GBP: true,
	CAD: true,
}

// ParseCurrency normalizes a client-supplied currency code. An empty code
// defaults to USD; unsupported codes are rejected.
func ParseCurrency(code string) (Currency, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return USD, nil
	}
	curr := Currency(strings.ToUpper(trimmed))
	if !supportedCurrencies[curr] {
		return "", errors.ValidationFailed(
			"invalid currency",
			fmt.Sprintf("currency %s is not supported", code),
		)
	}
	return curr, nil
}

// Money represents a monetary value with a specific currency
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney creates a new Money instance with validation
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if !supportedCurrencies[currency] {
		return Money{}, errors.ValidationFailed(
			"invalid currency",
			fmt.Sprintf("currency %s is not supported", currency),
		)
	}

	if amount.LessThan(decimal.Zero) {
		return Money{}, errors.ValidationFailed(
			"invalid amount",
			"amount cannot be negative",
		)
	}

	if amount.Exponent() < -2 {
		return Money{}, errors.ValidationFailed(
			"invalid amount",
			"amount cannot have more than 2 decimal places",
		)
	}

	return Money{amount: amount, currency: currency}, nil
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	return m.currency
}

// Add adds two monetary values of the same currency
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, errors.ValidationFailed(
			"currency mismatch",
			fmt.Sprintf("cannot add %s to %s", other.currency, m.currency),
		)
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// IsZero checks if the amount is zero
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// Equals checks if two monetary values are equal
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// String renders the value for logs and notification templates.
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(2), m.currency)
}
