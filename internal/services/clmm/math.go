package clmm

import (
	"github.com/holiman/uint256"
)

// FeeDenominator is one million: fees are in hundredths of a basis point.
const FeeDenominator = 1000000

var (
	Q96 = new(uint256.Int).Lsh(uint256.NewInt(1), 96)

	// MinSqrtRatio and MaxSqrtRatio bound sqrtPriceX96 at the extreme ticks
	MinSqrtRatio = uint256.NewInt(4295128739)
	MaxSqrtRatio = uint256.MustFromDecimal("1461446703485210103287273052203988822378723970342")

	maxUint160 = new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), 160), uint256.NewInt(1))
	u256One    = uint256.NewInt(1)
	u256FeeDen = uint256.NewInt(FeeDenominator)
)

// MulDiv computes floor(a*b/c) with a 512-bit intermediate.
func MulDiv(a, b, c *uint256.Int) (*uint256.Int, bool) {
	if c.IsZero() {
		return new(uint256.Int), true
	}
	return new(uint256.Int).MulDivOverflow(a, b, c)
}

// MulDivRoundingUp computes ceil(a*b/c).
func MulDivRoundingUp(a, b, c *uint256.Int) (*uint256.Int, bool) {
	z, overflow := MulDiv(a, b, c)
	if overflow {
		return z, true
	}
	if !new(uint256.Int).MulMod(a, b, c).IsZero() {
		if z.Eq(maxUint256()) {
			return z, true
		}
		z.Add(z, u256One)
	}
	return z, false
}

func divRoundingUp(a, b *uint256.Int) *uint256.Int {
	z, rem := new(uint256.Int).DivMod(a, b, new(uint256.Int))
	if !rem.IsZero() {
		z.Add(z, u256One)
	}
	return z
}

func maxUint256() *uint256.Int {
	return new(uint256.Int).SetAllOne()
}

// nextSqrtPriceFromAmount0 moves the price by an amount of token0, rounding up
// so that the price never moves further than the amount pays for.
func nextSqrtPriceFromAmount0(sqrtP, liquidity, amount *uint256.Int, add bool) (*uint256.Int, error) {
	if amount.IsZero() {
		return sqrtP.Clone(), nil
	}
	numerator1 := new(uint256.Int).Lsh(liquidity, 96)
	product, overflow := new(uint256.Int).MulOverflow(amount, sqrtP)

	if add {
		if !overflow {
			denominator, carry := new(uint256.Int).AddOverflow(numerator1, product)
			if !carry {
				z, _ := MulDivRoundingUp(numerator1, sqrtP, denominator)
				return z, nil
			}
		}
		// numerator1 / (numerator1/sqrtP + amount)
		d := new(uint256.Int).Div(numerator1, sqrtP)
		if _, carry := d.AddOverflow(d, amount); carry {
			return nil, ErrInsufficientLiquidity
		}
		return divRoundingUp(numerator1, d), nil
	}

	if overflow || numerator1.Cmp(product) <= 0 {
		return nil, ErrInsufficientLiquidity
	}
	denominator := new(uint256.Int).Sub(numerator1, product)
	z, overflow := MulDivRoundingUp(numerator1, sqrtP, denominator)
	if overflow {
		return nil, ErrInsufficientLiquidity
	}
	return z, nil
}

// nextSqrtPriceFromAmount1 moves the price by an amount of token1, rounding down.
func nextSqrtPriceFromAmount1(sqrtP, liquidity, amount *uint256.Int, add bool) (*uint256.Int, error) {
	if add {
		var quotient *uint256.Int
		if amount.Cmp(maxUint160) <= 0 {
			quotient = new(uint256.Int).Lsh(amount, 96)
			quotient.Div(quotient, liquidity)
		} else {
			var overflow bool
			if quotient, overflow = MulDiv(amount, Q96, liquidity); overflow {
				return nil, ErrInsufficientLiquidity
			}
		}
		z, carry := new(uint256.Int).AddOverflow(sqrtP, quotient)
		if carry {
			return nil, ErrInsufficientLiquidity
		}
		return z, nil
	}

	var quotient *uint256.Int
	if amount.Cmp(maxUint160) <= 0 {
		quotient = divRoundingUp(new(uint256.Int).Lsh(amount, 96), liquidity)
	} else {
		var overflow bool
		if quotient, overflow = MulDivRoundingUp(amount, Q96, liquidity); overflow {
			return nil, ErrInsufficientLiquidity
		}
	}
	if sqrtP.Cmp(quotient) <= 0 {
		return nil, ErrInsufficientLiquidity
	}
	return new(uint256.Int).Sub(sqrtP, quotient), nil
}

// NextSqrtPriceFromInput is the price after adding amountIn of the input token.
func NextSqrtPriceFromInput(sqrtP, liquidity, amountIn *uint256.Int, zeroForOne bool) (*uint256.Int, error) {
	if zeroForOne {
		return nextSqrtPriceFromAmount0(sqrtP, liquidity, amountIn, true)
	}
	return nextSqrtPriceFromAmount1(sqrtP, liquidity, amountIn, true)
}

// NextSqrtPriceFromOutput is the price after removing amountOut of the output token.
func NextSqrtPriceFromOutput(sqrtP, liquidity, amountOut *uint256.Int, zeroForOne bool) (*uint256.Int, error) {
	if zeroForOne {
		return nextSqrtPriceFromAmount1(sqrtP, liquidity, amountOut, false)
	}
	return nextSqrtPriceFromAmount0(sqrtP, liquidity, amountOut, false)
}

func sortPrices(a, b *uint256.Int) (*uint256.Int, *uint256.Int) {
	if a.Cmp(b) > 0 {
		return b, a
	}
	return a, b
}

// Amount0Delta is the token0 between two prices for the given liquidity.
func Amount0Delta(sqrtA, sqrtB, liquidity *uint256.Int, roundUp bool) *uint256.Int {
	sqrtA, sqrtB = sortPrices(sqrtA, sqrtB)
	if sqrtA.IsZero() {
		return new(uint256.Int)
	}
	numerator1 := new(uint256.Int).Lsh(liquidity, 96)
	numerator2 := new(uint256.Int).Sub(sqrtB, sqrtA)
	if roundUp {
		z, _ := MulDivRoundingUp(numerator1, numerator2, sqrtB)
		return divRoundingUp(z, sqrtA)
	}
	z, _ := MulDiv(numerator1, numerator2, sqrtB)
	return z.Div(z, sqrtA)
}

// Amount1Delta is the token1 between two prices for the given liquidity.
func Amount1Delta(sqrtA, sqrtB, liquidity *uint256.Int, roundUp bool) *uint256.Int {
	sqrtA, sqrtB = sortPrices(sqrtA, sqrtB)
	diff := new(uint256.Int).Sub(sqrtB, sqrtA)
	if roundUp {
		z, _ := MulDivRoundingUp(liquidity, diff, Q96)
		return z
	}
	z, _ := MulDiv(liquidity, diff, Q96)
	return z
}
