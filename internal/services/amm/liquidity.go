package amm

import (
	"fmt"
	"math/big"

	"github.com/hxuan190/amm-router/internal/domain"
)

// GetLiquidityMinted returns the LP tokens minted for depositing amountA and amountB.
func (p *Pair) GetLiquidityMinted(totalSupply, amountA, amountB domain.CurrencyAmount) (domain.CurrencyAmount, error) {
	if !totalSupply.Currency.Equals(p.liquidityToken) {
		return domain.CurrencyAmount{}, fmt.Errorf("%w: total supply is not the liquidity token", ErrTokenMismatch)
	}
	a, b := amountA.Wrapped(), amountB.Wrapped()
	if !a.Currency.Equals(p.Token0()) {
		a, b = b, a
	}
	if !a.Currency.Equals(p.Token0()) || !b.Currency.Equals(p.Token1()) {
		return domain.CurrencyAmount{}, fmt.Errorf("%w: deposit tokens do not match pair", ErrTokenMismatch)
	}

	var liquidity *big.Int
	if totalSupply.Quotient().Sign() == 0 {
		liquidity = Sqrt(new(big.Int).Mul(a.Quotient(), b.Quotient()))
		liquidity.Sub(liquidity, minLiquidity)
	} else {
		supply := totalSupply.Quotient()
		r0, r1 := p.tokenAmounts[0].Quotient(), p.tokenAmounts[1].Quotient()
		if r0.Sign() == 0 || r1.Sign() == 0 {
			return domain.CurrencyAmount{}, ErrInsufficientReserves
		}
		amount0 := new(big.Int).Mul(a.Quotient(), supply)
		amount0.Quo(amount0, r0)
		amount1 := new(big.Int).Mul(b.Quotient(), supply)
		amount1.Quo(amount1, r1)
		liquidity = amount0
		if amount1.Cmp(amount0) < 0 {
			liquidity = amount1
		}
	}

	if liquidity.Sign() <= 0 {
		return domain.CurrencyAmount{}, ErrInsufficientInputAmount
	}
	return domain.FromRawAmount(p.liquidityToken, liquidity), nil
}

// GetLiquidityValue returns how much of token a liquidity position redeems for.
// With feeOn the protocol fee accrued since kLast is minted into the supply first.
func (p *Pair) GetLiquidityValue(token *domain.Token, totalSupply, liquidity domain.CurrencyAmount, feeOn bool, kLast *big.Int) (domain.CurrencyAmount, error) {
	if !p.InvolvesToken(token) {
		return domain.CurrencyAmount{}, fmt.Errorf("%w: %s not in pair", ErrTokenMismatch, token)
	}
	if !totalSupply.Currency.Equals(p.liquidityToken) || !liquidity.Currency.Equals(p.liquidityToken) {
		return domain.CurrencyAmount{}, fmt.Errorf("%w: expected liquidity token", ErrTokenMismatch)
	}
	if liquidity.Quotient().Cmp(totalSupply.Quotient()) > 0 {
		return domain.CurrencyAmount{}, fmt.Errorf("%w: liquidity exceeds total supply", ErrInvalidLiquidity)
	}

	supply := totalSupply.Quotient()
	if feeOn {
		if kLast == nil {
			return domain.CurrencyAmount{}, fmt.Errorf("%w: kLast required when fee is on", ErrInvalidLiquidity)
		}
		if kLast.Sign() != 0 {
			rootK := Sqrt(new(big.Int).Mul(p.tokenAmounts[0].Quotient(), p.tokenAmounts[1].Quotient()))
			rootKLast := Sqrt(kLast)
			if rootK.Cmp(rootKLast) > 0 {
				numerator := new(big.Int).Sub(rootK, rootKLast)
				numerator.Mul(numerator, supply)
				denominator := new(big.Int).Mul(rootK, bigFive)
				denominator.Add(denominator, rootKLast)
				feeLiquidity := numerator.Quo(numerator, denominator)
				supply = new(big.Int).Add(supply, feeLiquidity)
			}
		}
	}
	if supply.Sign() == 0 {
		return domain.CurrencyAmount{}, fmt.Errorf("%w: zero total supply", ErrInvalidLiquidity)
	}

	reserve, _ := p.ReserveOf(token)
	value := new(big.Int).Mul(liquidity.Quotient(), reserve.Quotient())
	return domain.FromRawAmount(token, value.Quo(value, supply)), nil
}
