// Package currency converts amounts entered in the secondary currency into the
// ledger's base currency.
//
// Every stored amount is in the base currency (EUR). An amount typed in the
// secondary currency (PLN) is divided by the EUR/PLN rate at entry time and the
// entered value is kept as display metadata through an AmountSource.
package currency

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

type Currency string

const (
	EUR Currency = "EUR"
	PLN Currency = "PLN"

	Base      = EUR
	Secondary = PLN
)

// DefaultRate is the EUR/PLN rate used whenever no live rate is known.
var DefaultRate = decimal.RequireFromString("4.30")

var (
	ErrInvalidCurrency = errors.New("invalid currency")
	ErrInvalidRate     = errors.New("invalid exchange rate")
	ErrInvalidAmount   = errors.New("invalid amount")
)

// IsValid reports whether c is one of the two supported currencies.
func (c Currency) IsValid() bool {
	return c == Base || c == Secondary
}

func (c Currency) String() string {
	return string(c)
}

// AmountSource records how a base-currency amount was obtained.
// It is either Direct or Converted.
type AmountSource interface {
	// Base returns the amount in the base currency.
	Base() decimal.Decimal
	// Entered returns the value and currency the user typed.
	Entered() (decimal.Decimal, Currency)
	isAmountSource()
}

// Direct is an amount entered in the base currency.
type Direct struct {
	Amount decimal.Decimal
}

// Converted is an amount entered in the secondary currency and divided by Rate.
type Converted struct {
	Amount   decimal.Decimal
	Currency Currency
	Rate     decimal.Decimal
}

func (d Direct) Base() decimal.Decimal                   { return d.Amount }
func (d Direct) Entered() (decimal.Decimal, Currency)    { return d.Amount, Base }
func (Direct) isAmountSource()                           {}
func (c Converted) Base() decimal.Decimal                { return c.Amount.Div(c.Rate) }
func (c Converted) Entered() (decimal.Decimal, Currency) { return c.Amount, c.Currency }
func (Converted) isAmountSource()                        {}

// ToBase converts amount entered in cur into the base currency using rate
// (units of secondary currency per one unit of base currency).
//
// For the base currency the amount is returned unchanged with a Direct source
// and rate is ignored. For the secondary currency the result is amount/rate and
// the source is Converted, which tells the caller to keep the entered value.
func ToBase(amount decimal.Decimal, cur Currency, rate decimal.Decimal) (decimal.Decimal, AmountSource, error) {
	if !amount.IsPositive() {
		return decimal.Zero, nil, fmt.Errorf("%w: %s must be greater than zero", ErrInvalidAmount, amount)
	}
	switch cur {
	case Base:
		return amount, Direct{Amount: amount}, nil
	case Secondary:
		if !rate.IsPositive() {
			return decimal.Zero, nil, fmt.Errorf("%w: %s", ErrInvalidRate, rate)
		}
		src := Converted{Amount: amount, Currency: cur, Rate: rate}
		return src.Base(), src, nil
	default:
		return decimal.Zero, nil, fmt.Errorf("%w: %q", ErrInvalidCurrency, string(cur))
	}
}

// RateOrDefault returns rate when it is positive and DefaultRate otherwise.
func RateOrDefault(rate decimal.Decimal) decimal.Decimal {
	if rate.IsPositive() {
		return rate
	}
	return DefaultRate
}
