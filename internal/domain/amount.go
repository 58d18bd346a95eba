package domain

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

var (
	ErrAmountOverflow   = errors.New("amount exceeds uint256")
	ErrCurrencyMismatch = errors.New("currency mismatch")
)

// CurrencyAmount is an exact amount of a token in raw units.
type CurrencyAmount struct {
	Fraction
	Currency *Token
}

// FromRawAmount builds an amount from an integer number of raw units.
func FromRawAmount(currency *Token, raw *big.Int) CurrencyAmount {
	return CurrencyAmount{Fraction: NewFraction(raw, One), Currency: currency}
}

func FromRawInt(currency *Token, raw int64) CurrencyAmount {
	return FromRawAmount(currency, big.NewInt(raw))
}

// FromFractionalAmount builds an amount whose raw value is num/den.
func FromFractionalAmount(currency *Token, num, den *big.Int) CurrencyAmount {
	return CurrencyAmount{Fraction: NewFraction(num, den), Currency: currency}
}

// ParseRawAmount parses a base-10 integer string of raw units.
func ParseRawAmount(currency *Token, raw string) (CurrencyAmount, error) {
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return CurrencyAmount{}, fmt.Errorf("invalid amount %q", raw)
	}
	a := FromRawAmount(currency, v)
	if err := a.Validate(); err != nil {
		return CurrencyAmount{}, err
	}
	return a, nil
}

// Validate checks the amount fits in a uint256.
func (a CurrencyAmount) Validate() error {
	if a.Quotient().Cmp(MaxUint256) > 0 {
		return ErrAmountOverflow
	}
	return nil
}

func (a CurrencyAmount) mustMatch(o CurrencyAmount) {
	if !a.Currency.Equals(o.Currency) {
		panic(fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, a.Currency, o.Currency))
	}
}

func (a CurrencyAmount) Add(o CurrencyAmount) CurrencyAmount {
	a.mustMatch(o)
	return CurrencyAmount{Fraction: a.Fraction.Add(o.Fraction), Currency: a.Currency}
}

func (a CurrencyAmount) Sub(o CurrencyAmount) CurrencyAmount {
	a.mustMatch(o)
	return CurrencyAmount{Fraction: a.Fraction.Sub(o.Fraction), Currency: a.Currency}
}

// Cmp compares two amounts of the same currency.
func (a CurrencyAmount) Cmp(o CurrencyAmount) int {
	a.mustMatch(o)
	return a.Fraction.Cmp(o.Fraction)
}

func (a CurrencyAmount) LessThan(o CurrencyAmount) bool    { return a.Cmp(o) < 0 }
func (a CurrencyAmount) EqualTo(o CurrencyAmount) bool     { return a.Cmp(o) == 0 }
func (a CurrencyAmount) GreaterThan(o CurrencyAmount) bool { return a.Cmp(o) > 0 }

// MulFraction scales the amount, keeping its currency.
func (a CurrencyAmount) MulFraction(f Fraction) CurrencyAmount {
	return CurrencyAmount{Fraction: a.Fraction.Mul(f), Currency: a.Currency}
}

func (a CurrencyAmount) DivFraction(f Fraction) CurrencyAmount {
	return CurrencyAmount{Fraction: a.Fraction.Div(f), Currency: a.Currency}
}

func (a CurrencyAmount) Wrapped() CurrencyAmount {
	if !a.Currency.IsNative() {
		return a
	}
	return CurrencyAmount{Fraction: a.Fraction, Currency: a.Currency.Wrapped()}
}

// Raw returns the integer amount in raw units.
func (a CurrencyAmount) Raw() *big.Int {
	return a.Quotient()
}

func (a CurrencyAmount) IsZero() bool {
	return a.Quotient().Sign() == 0
}

func (a CurrencyAmount) decimalScale() decimal.Decimal {
	return decimal.New(1, int32(a.Currency.Decimals))
}

// ToDecimal returns the amount in whole token units.
func (a CurrencyAmount) ToDecimal() decimal.Decimal {
	return decimal.NewFromBigInt(a.Quotient(), -int32(a.Currency.Decimals))
}

// ToExact renders the amount in token units with full precision.
func (a CurrencyAmount) ToExact() string {
	return a.ToDecimal().String()
}

func (a CurrencyAmount) ToFixed(places int32) string {
	if places > int32(a.Currency.Decimals) {
		places = int32(a.Currency.Decimals)
	}
	return a.Fraction.Div(NewFraction(a.decimalScale().BigInt(), One)).ToFixed(places)
}

func (a CurrencyAmount) ToSignificant(digits int32) string {
	return a.Fraction.Div(NewFraction(a.decimalScale().BigInt(), One)).ToSignificant(digits)
}

func (a CurrencyAmount) String() string {
	return a.Quotient().String() + " " + a.Currency.String()
}
