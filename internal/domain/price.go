package domain

import (
	"fmt"
	"math/big"
)

// Price is the raw exchange rate of quote units per base unit.
type Price struct {
	Fraction
	Base  *Token
	Quote *Token

	scalar Fraction
}

// NewPrice follows the pool convention: the price is numerator/denominator raw
// quote units per raw base unit.
func NewPrice(base, quote *Token, denominator, numerator *big.Int) Price {
	return Price{
		Fraction: NewFraction(numerator, denominator),
		Base:     base,
		Quote:    quote,
		scalar: NewFraction(
			new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(base.Decimals)), nil),
			new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(quote.Decimals)), nil),
		),
	}
}

// PriceFromAmounts derives the price implied by trading base for quote.
func PriceFromAmounts(base, quote CurrencyAmount) Price {
	return NewPrice(base.Currency, quote.Currency, base.Quotient(), quote.Quotient())
}

func (p Price) Invert() Price {
	return NewPrice(p.Quote, p.Base, p.num, p.den)
}

// Multiply chains two prices, p.Quote must equal other.Base.
func (p Price) Multiply(other Price) (Price, error) {
	if !p.Quote.Equals(other.Base) {
		return Price{}, fmt.Errorf("%w: price chain %s -> %s", ErrCurrencyMismatch, p.Quote, other.Base)
	}
	f := p.Fraction.Mul(other.Fraction)
	return NewPrice(p.Base, other.Quote, f.den, f.num), nil
}

// QuoteAmount converts an amount of the base currency into the quote currency.
func (p Price) QuoteAmount(amount CurrencyAmount) (CurrencyAmount, error) {
	if !amount.Currency.Equals(p.Base) {
		return CurrencyAmount{}, fmt.Errorf("%w: price base %s, amount %s", ErrCurrencyMismatch, p.Base, amount.Currency)
	}
	f := p.Fraction.Mul(amount.Fraction)
	return FromFractionalAmount(p.Quote, f.num, f.den), nil
}

// AdjustedForDecimals expresses the price in whole token units.
func (p Price) AdjustedForDecimals() Fraction {
	return p.Fraction.Mul(p.scalar)
}

func (p Price) ToSignificant(digits int32) string {
	return p.AdjustedForDecimals().ToSignificant(digits)
}

func (p Price) ToFixed(places int32) string {
	return p.AdjustedForDecimals().ToFixed(places)
}
