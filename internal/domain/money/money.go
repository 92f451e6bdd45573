// Package money provides a non-negative Price value object with
// currency-aware decimal arithmetic. All pricing in the system goes through
// this package so that rounding stays consistent everywhere.
package money

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for price arithmetic.
var (
	ErrNegativeAmount   = errors.New("price amount must not be negative")
	ErrCurrencyMismatch = errors.New("currency mismatch")
	ErrInvalidPercent   = errors.New("percentage must be between 0 and 100")
)

// minorUnits maps ISO 4217 currency codes to their minor-unit exponent.
// Currencies not listed here use the default of 2.
var minorUnits = map[string]int32{
	"JPY": 0,
	"KRW": 0,
	"VND": 0,
	"BHD": 3,
	"KWD": 3,
	"OMR": 3,
}

var hundred = decimal.NewFromInt(100)

// Price is an amount in a specific currency. Amounts are always
// non-negative; constructors and arithmetic enforce this.
type Price struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// New creates a Price, rejecting negative amounts.
func New(amount decimal.Decimal, currency string) (Price, error) {
	if amount.IsNegative() {
		return Price{}, ErrNegativeAmount
	}
	return Price{Amount: amount, Currency: currency}, nil
}

// MustParse creates a Price from a decimal string, panicking on invalid
// input. Intended for tests and static fixtures only.
func MustParse(amount, currency string) Price {
	d := decimal.RequireFromString(amount)
	p, err := New(d, currency)
	if err != nil {
		panic(err)
	}
	return p
}

// Zero returns a zero Price in the given currency.
func Zero(currency string) Price {
	return Price{Amount: decimal.Zero, Currency: currency}
}

// Sub returns p - other. It fails when the currencies differ or the result
// would be negative.
func (p Price) Sub(other Price) (Price, error) {
	if p.Currency != other.Currency {
		return Price{}, errors.Wrapf(ErrCurrencyMismatch, "%s - %s", p.Currency, other.Currency)
	}
	res := p.Amount.Sub(other.Amount)
	if res.IsNegative() {
		return Price{}, ErrNegativeAmount
	}
	return Price{Amount: res, Currency: p.Currency}, nil
}

// MulPercent returns percent% of p, rounded to the currency's minor-unit
// precision. shopspring/decimal rounds half away from zero, which is the
// rounding rule used for all discount calculations.
func (p Price) MulPercent(percent decimal.Decimal) (Price, error) {
	if percent.IsNegative() || percent.GreaterThan(hundred) {
		return Price{}, ErrInvalidPercent
	}
	amount := p.Amount.Mul(percent).Div(hundred).Round(p.exponent())
	return Price{Amount: amount, Currency: p.Currency}, nil
}

// Round returns p rounded to the currency's minor-unit precision.
func (p Price) Round() Price {
	return Price{Amount: p.Amount.Round(p.exponent()), Currency: p.Currency}
}

// LessThan reports whether p is strictly less than other. Prices in
// different currencies are never comparable and report false.
func (p Price) LessThan(other Price) bool {
	return p.Currency == other.Currency && p.Amount.LessThan(other.Amount)
}

// Equal reports whether two prices have the same currency and numerically
// equal amounts (2.5 equals 2.50).
func (p Price) Equal(other Price) bool {
	return p.Currency == other.Currency && p.Amount.Equal(other.Amount)
}

// IsZero reports whether the amount is zero.
func (p Price) IsZero() bool {
	return p.Amount.IsZero()
}

// String renders the price as "12.34 USD" with minor-unit precision.
func (p Price) String() string {
	return fmt.Sprintf("%s %s", p.Amount.StringFixed(p.exponent()), p.Currency)
}

func (p Price) exponent() int32 {
	if exp, ok := minorUnits[p.Currency]; ok {
		return exp
	}
	return 2
}
