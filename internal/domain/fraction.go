package domain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

var (
	Zero = big.NewInt(0)
	One  = big.NewInt(1)

	// MaxUint256 bounds every on-chain amount.
	MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	BasisPoints = big.NewInt(10000)
)

// Fraction is an exact rational number. Operations never mutate the receiver.
type Fraction struct {
	num *big.Int
	den *big.Int
}

func NewFraction(numerator, denominator *big.Int) Fraction {
	if denominator == nil {
		denominator = One
	}
	return Fraction{
		num: new(big.Int).Set(numerator),
		den: new(big.Int).Set(denominator),
	}
}

func NewFractionInt(numerator, denominator int64) Fraction {
	return Fraction{num: big.NewInt(numerator), den: big.NewInt(denominator)}
}

func (f Fraction) Numerator() *big.Int   { return new(big.Int).Set(f.num) }
func (f Fraction) Denominator() *big.Int { return new(big.Int).Set(f.den) }

// Quotient performs floor division for non-negative fractions.
func (f Fraction) Quotient() *big.Int {
	return new(big.Int).Quo(f.num, f.den)
}

// Remainder is what is left over after Quotient, as a fraction.
func (f Fraction) Remainder() Fraction {
	return Fraction{num: new(big.Int).Rem(f.num, f.den), den: new(big.Int).Set(f.den)}
}

func (f Fraction) Invert() Fraction {
	return Fraction{num: new(big.Int).Set(f.den), den: new(big.Int).Set(f.num)}
}

func (f Fraction) Add(o Fraction) Fraction {
	if f.den.Cmp(o.den) == 0 {
		return Fraction{num: new(big.Int).Add(f.num, o.num), den: new(big.Int).Set(f.den)}
	}
	n := new(big.Int).Mul(f.num, o.den)
	n.Add(n, new(big.Int).Mul(o.num, f.den))
	return Fraction{num: n, den: new(big.Int).Mul(f.den, o.den)}
}

func (f Fraction) Sub(o Fraction) Fraction {
	if f.den.Cmp(o.den) == 0 {
		return Fraction{num: new(big.Int).Sub(f.num, o.num), den: new(big.Int).Set(f.den)}
	}
	n := new(big.Int).Mul(f.num, o.den)
	n.Sub(n, new(big.Int).Mul(o.num, f.den))
	return Fraction{num: n, den: new(big.Int).Mul(f.den, o.den)}
}

func (f Fraction) Mul(o Fraction) Fraction {
	return Fraction{num: new(big.Int).Mul(f.num, o.num), den: new(big.Int).Mul(f.den, o.den)}
}

func (f Fraction) Div(o Fraction) Fraction {
	return Fraction{num: new(big.Int).Mul(f.num, o.den), den: new(big.Int).Mul(f.den, o.num)}
}

// MulInt multiplies by an integer.
func (f Fraction) MulInt(v *big.Int) Fraction {
	return Fraction{num: new(big.Int).Mul(f.num, v), den: new(big.Int).Set(f.den)}
}

// Cmp compares by cross multiplication. Denominators are assumed positive.
func (f Fraction) Cmp(o Fraction) int {
	return new(big.Int).Mul(f.num, o.den).Cmp(new(big.Int).Mul(o.num, f.den))
}

func (f Fraction) LessThan(o Fraction) bool    { return f.Cmp(o) < 0 }
func (f Fraction) EqualTo(o Fraction) bool     { return f.Cmp(o) == 0 }
func (f Fraction) GreaterThan(o Fraction) bool { return f.Cmp(o) > 0 }

func (f Fraction) Sign() int {
	return f.num.Sign() * f.den.Sign()
}

// Decimal converts to a decimal rounded to places digits after the point.
func (f Fraction) Decimal(places int32) decimal.Decimal {
	return decimal.NewFromBigInt(f.num, 0).DivRound(decimal.NewFromBigInt(f.den, 0), places)
}

// ToFixed formats with a fixed number of decimal places, rounding half up.
func (f Fraction) ToFixed(places int32) string {
	return f.Decimal(places).StringFixed(places)
}

// ToSignificant formats with the given number of significant digits.
func (f Fraction) ToSignificant(digits int32) string {
	if f.num.Sign() == 0 {
		return "0"
	}
	d := f.Decimal(digits + 40)
	abs := d.Abs()
	lead := abs.Exponent() + int32(len(abs.Coefficient().String()))
	return d.Round(digits - lead).String()
}
