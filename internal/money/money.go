// Package money checks amounts against a currency's minor unit and renders
// them for humans. Amounts stay shopspring decimals everywhere else.
package money

import (
	"fmt"
	"strings"

	apperrors "moneyflow/internal/errors"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// MaxDigits is the number of significant digits an amount or balance may
// carry. Every value within it survives a round trip through a float64,
// which is how SQLite's NUMERIC affinity stores decimal columns.
const MaxDigits = 15

// Known reports whether code is an ISO 4217 currency known to go-money.
func Known(code string) bool {
	return gomoney.GetCurrency(strings.ToUpper(code)) != nil
}

// Normalize upper-cases code and falls back to def when code is empty.
func Normalize(code, def string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return strings.ToUpper(def)
	}
	return code
}

// Fraction returns the number of minor-unit digits of code (2 when unknown).
func Fraction(code string) int32 {
	if c := gomoney.GetCurrency(strings.ToUpper(code)); c != nil {
		return int32(c.Fraction)
	}
	return 2
}

// ValidateAmount checks that amount is strictly positive and representable
// in the minor unit of code.
func ValidateAmount(amount decimal.Decimal, code string) error {
	if !amount.IsPositive() {
		return apperrors.WithField(apperrors.ErrInvalidAmount, "amount", "")
	}
	return ValidateScale(amount, code, "amount")
}

// ValidateScale checks that amount has no more decimals than code allows
// and fits in MaxDigits. Zero and negative values are accepted.
func ValidateScale(amount decimal.Decimal, code, field string) error {
	frac := Fraction(code)
	if !amount.Equal(amount.Truncate(frac)) {
		return apperrors.WithField(apperrors.ErrAmountPrecision, field, "")
	}
	if !InRange(amount, code) {
		return apperrors.WithField(apperrors.ErrAmountPrecision, field,
			fmt.Sprintf("Amount must be below %s", Limit(code).String()))
	}
	return nil
}

// Limit is the smallest magnitude that no longer fits in MaxDigits for
// code, e.g. 10000000000000 for USD.
func Limit(code string) decimal.Decimal {
	return decimal.New(1, MaxDigits-Fraction(code))
}

// InRange reports whether |amount| < Limit(code).
func InRange(amount decimal.Decimal, code string) bool {
	return amount.Abs().LessThan(Limit(code))
}

// Format renders amount with the currency's symbol and separators,
// e.g. "$1,234.50" or "-₹20.00".
func Format(amount decimal.Decimal, code string) string {
	m := gomoney.New(0, strings.ToUpper(code))
	cur := m.Currency()
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}
