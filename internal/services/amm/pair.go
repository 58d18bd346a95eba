package amm

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hxuan190/amm-router/internal/domain"
)

// MinimumLiquidity is burned on the first mint of every pair.
const MinimumLiquidity = 1000

var (
	feeNumerator   = big.NewInt(997)
	feeDenominator = big.NewInt(1000)
	bigFive        = big.NewInt(5)
	minLiquidity   = big.NewInt(MinimumLiquidity)
)

// Pair is an immutable snapshot of a constant-product pool.
// Simulated swaps return a new Pair and leave the receiver untouched.
type Pair struct {
	address        common.Address
	liquidityToken *domain.Token
	tokenAmounts   [2]domain.CurrencyAmount
}

// NewPair orders the two reserves canonically and derives the pool address from the factory.
func NewPair(factory Factory, amountA, amountB domain.CurrencyAmount) (*Pair, error) {
	address, err := ComputePairAddress(factory, amountA.Currency, amountB.Currency)
	if err != nil {
		return nil, pairError(err)
	}
	return NewPairAt(address, amountA, amountB)
}

// NewPairAt builds a pair whose address is already known.
func NewPairAt(address common.Address, amountA, amountB domain.CurrencyAmount) (*Pair, error) {
	a, b := amountA.Wrapped(), amountB.Wrapped()
	before, err := a.Currency.SortsBefore(b.Currency)
	if err != nil {
		return nil, pairError(err)
	}
	if !before {
		a, b = b, a
	}
	if a.Quotient().Sign() < 0 || b.Quotient().Sign() < 0 {
		return nil, fmt.Errorf("%w: negative reserve", ErrInsufficientReserves)
	}
	return &Pair{
		address:        address,
		liquidityToken: domain.NewToken(a.Currency.ChainID, address, 18, "UNI-V2", "Uniswap V2"),
		tokenAmounts:   [2]domain.CurrencyAmount{a, b},
	}, nil
}

func pairError(err error) error {
	if errors.Is(err, domain.ErrDifferentChain) {
		return fmt.Errorf("%w: %v", ErrChainMismatch, err)
	}
	return fmt.Errorf("%w: %v", ErrTokenMismatch, err)
}

// withReserves keeps address and token metadata, replacing reserves.
func (p *Pair) withReserves(r0, r1 *big.Int) *Pair {
	return &Pair{
		address:        p.address,
		liquidityToken: p.liquidityToken,
		tokenAmounts: [2]domain.CurrencyAmount{
			domain.FromRawAmount(p.Token0(), r0),
			domain.FromRawAmount(p.Token1(), r1),
		},
	}
}

func (p *Pair) Address() common.Address         { return p.address }
func (p *Pair) LiquidityToken() *domain.Token   { return p.liquidityToken }
func (p *Pair) ChainID() uint64                 { return p.Token0().ChainID }
func (p *Pair) Token0() *domain.Token           { return p.tokenAmounts[0].Currency }
func (p *Pair) Token1() *domain.Token           { return p.tokenAmounts[1].Currency }
func (p *Pair) Reserve0() domain.CurrencyAmount { return p.tokenAmounts[0] }
func (p *Pair) Reserve1() domain.CurrencyAmount { return p.tokenAmounts[1] }

func (p *Pair) InvolvesToken(t *domain.Token) bool {
	return t.Equals(p.Token0()) || t.Equals(p.Token1())
}

// ReserveOf returns the reserve of one of the pair's tokens.
func (p *Pair) ReserveOf(t *domain.Token) (domain.CurrencyAmount, error) {
	switch {
	case t.Equals(p.Token0()):
		return p.tokenAmounts[0], nil
	case t.Equals(p.Token1()):
		return p.tokenAmounts[1], nil
	}
	return domain.CurrencyAmount{}, fmt.Errorf("%w: %s not in pair", ErrTokenMismatch, t)
}

// Token0Price is the price of token0 in token1.
func (p *Pair) Token0Price() domain.Price {
	return domain.NewPrice(p.Token0(), p.Token1(), p.tokenAmounts[0].Quotient(), p.tokenAmounts[1].Quotient())
}

// Token1Price is the price of token1 in token0.
func (p *Pair) Token1Price() domain.Price {
	return domain.NewPrice(p.Token1(), p.Token0(), p.tokenAmounts[1].Quotient(), p.tokenAmounts[0].Quotient())
}

func (p *Pair) PriceOf(t *domain.Token) (domain.Price, error) {
	switch {
	case t.Equals(p.Token0()):
		return p.Token0Price(), nil
	case t.Equals(p.Token1()):
		return p.Token1Price(), nil
	}
	return domain.Price{}, fmt.Errorf("%w: %s not in pair", ErrTokenMismatch, t)
}

func (p *Pair) hasEmptyReserve() bool {
	return p.tokenAmounts[0].Quotient().Sign() == 0 || p.tokenAmounts[1].Quotient().Sign() == 0
}

// sides returns the index of token t and the other token.
func (p *Pair) sides(t *domain.Token) (in, out int, err error) {
	switch {
	case t.Equals(p.Token0()):
		return 0, 1, nil
	case t.Equals(p.Token1()):
		return 1, 0, nil
	}
	return 0, 0, fmt.Errorf("%w: %s not in pair", ErrTokenMismatch, t)
}

// afterTax keeps (10000-bps)/10000 of v, rounded down.
func afterTax(v *big.Int, bps uint16) *big.Int {
	keep := int64(10000) - int64(bps)
	if keep < 0 {
		keep = 0
	}
	r := new(big.Int).Mul(v, big.NewInt(keep))
	return r.Quo(r, domain.BasisPoints)
}

// beforeTax grosses v up so that at least v is left after a bps tax.
func beforeTax(v *big.Int, bps uint16) (*big.Int, bool) {
	keep := int64(10000) - int64(bps)
	if keep <= 0 {
		return nil, false
	}
	r := new(big.Int).Mul(v, domain.BasisPoints)
	r.Quo(r, big.NewInt(keep))
	return r.Add(r, domain.One), true
}

// GetOutputAmount quotes an exact input. The sell tax of the input token is
// taken before the 0.3% pool fee and the buy tax of the output token after it.
func (p *Pair) GetOutputAmount(input domain.CurrencyAmount, applyTax bool) (domain.CurrencyAmount, *Pair, error) {
	inIdx, outIdx, err := p.sides(input.Currency.Wrapped())
	if err != nil {
		return domain.CurrencyAmount{}, nil, err
	}
	if p.hasEmptyReserve() {
		return domain.CurrencyAmount{}, nil, ErrInsufficientReserves
	}

	inputReserve := p.tokenAmounts[inIdx].Quotient()
	outputReserve := p.tokenAmounts[outIdx].Quotient()
	inputToken := p.tokenAmounts[inIdx].Currency
	outputToken := p.tokenAmounts[outIdx].Currency

	amountIn := input.Quotient()
	if applyTax && inputToken.SellFeeBps > 0 {
		amountIn = afterTax(amountIn, inputToken.SellFeeBps)
	}

	amountInWithFee := new(big.Int).Mul(amountIn, feeNumerator)
	numerator := new(big.Int).Mul(amountInWithFee, outputReserve)
	denominator := new(big.Int).Mul(inputReserve, feeDenominator)
	denominator.Add(denominator, amountInWithFee)
	amountOut := numerator.Quo(numerator, denominator)
	if amountOut.Sign() == 0 {
		return domain.CurrencyAmount{}, nil, ErrInsufficientInputAmount
	}

	if applyTax && outputToken.BuyFeeBps > 0 {
		amountOut = afterTax(amountOut, outputToken.BuyFeeBps)
		if amountOut.Sign() == 0 {
			return domain.CurrencyAmount{}, nil, ErrInsufficientInputAmount
		}
	}

	reserves := [2]*big.Int{}
	reserves[inIdx] = new(big.Int).Add(inputReserve, amountIn)
	reserves[outIdx] = new(big.Int).Sub(outputReserve, amountOut)
	return domain.FromRawAmount(outputToken, amountOut), p.withReserves(reserves[0], reserves[1]), nil
}

// GetInputAmount quotes the input needed for an exact output. Taxes are
// grossed up in the reverse order of GetOutputAmount and every division that
// sizes an input rounds up by one.
func (p *Pair) GetInputAmount(output domain.CurrencyAmount, applyTax bool) (domain.CurrencyAmount, *Pair, error) {
	outIdx, inIdx, err := p.sides(output.Currency.Wrapped())
	if err != nil {
		return domain.CurrencyAmount{}, nil, err
	}

	inputReserve := p.tokenAmounts[inIdx].Quotient()
	outputReserve := p.tokenAmounts[outIdx].Quotient()
	inputToken := p.tokenAmounts[inIdx].Currency
	outputToken := p.tokenAmounts[outIdx].Currency

	amountOut := output.Quotient()
	outBeforeTax := amountOut
	if applyTax && outputToken.BuyFeeBps > 0 {
		var ok bool
		if outBeforeTax, ok = beforeTax(amountOut, outputToken.BuyFeeBps); !ok {
			return domain.CurrencyAmount{}, nil, ErrInsufficientReserves
		}
	}

	if p.hasEmptyReserve() || outBeforeTax.Cmp(outputReserve) >= 0 {
		return domain.CurrencyAmount{}, nil, ErrInsufficientReserves
	}

	numerator := new(big.Int).Mul(inputReserve, outBeforeTax)
	numerator.Mul(numerator, feeDenominator)
	denominator := new(big.Int).Sub(outputReserve, outBeforeTax)
	denominator.Mul(denominator, feeNumerator)
	amountIn := numerator.Quo(numerator, denominator)
	amountIn.Add(amountIn, domain.One)

	if applyTax && inputToken.SellFeeBps > 0 {
		var ok bool
		if amountIn, ok = beforeTax(amountIn, inputToken.SellFeeBps); !ok {
			return domain.CurrencyAmount{}, nil, ErrInsufficientInputAmount
		}
	}

	reserves := [2]*big.Int{}
	reserves[inIdx] = new(big.Int).Add(inputReserve, amountIn)
	reserves[outIdx] = new(big.Int).Sub(outputReserve, amountOut)
	return domain.FromRawAmount(inputToken, amountIn), p.withReserves(reserves[0], reserves[1]), nil
}
