package clmm

import (
	"fmt"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/hxuan190/amm-router/internal/domain"
)

// Pool is a concentrated-liquidity pool snapshot. Only the liquidity active at
// the current price is known, so swaps are quoted inside that range and fail
// with ErrInsufficientLiquidity when they would leave the representable price
// bounds. Like amm.Pair, a simulated swap returns a new Pool.
type Pool struct {
	address      common.Address
	token0       *domain.Token
	token1       *domain.Token
	fee          uint32
	sqrtPriceX96 *uint256.Int
	liquidity    *uint256.Int
	tick         int32
}

// NewPool validates a pool snapshot. sqrtPriceX96 is always the price of
// token0 in token1 for the canonical token order, whatever order tokenA and
// tokenB are given in.
func NewPool(address common.Address, tokenA, tokenB *domain.Token, fee uint32, sqrtPriceX96, liquidity *big.Int, tick int32) (*Pool, error) {
	a, b := tokenA.Wrapped(), tokenB.Wrapped()
	before, err := a.SortsBefore(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenMismatch, err)
	}
	if !before {
		a, b = b, a
	}
	if fee >= FeeDenominator {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFee, fee)
	}
	if sqrtPriceX96 == nil || sqrtPriceX96.Sign() <= 0 {
		return nil, ErrInvalidSqrtPrice
	}
	sqrtP, overflow := uint256.FromBig(sqrtPriceX96)
	if overflow || sqrtP.Lt(MinSqrtRatio) || !sqrtP.Lt(MaxSqrtRatio) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSqrtPrice, sqrtPriceX96)
	}
	if liquidity == nil || liquidity.Sign() < 0 || liquidity.BitLen() > 128 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLiquidity, liquidity)
	}
	l, _ := uint256.FromBig(liquidity)

	return &Pool{
		address:      address,
		token0:       a,
		token1:       b,
		fee:          fee,
		sqrtPriceX96: sqrtP,
		liquidity:    l,
		tick:         tick,
	}, nil
}

func (p *Pool) Address() common.Address { return p.address }
func (p *Pool) Token0() *domain.Token   { return p.token0 }
func (p *Pool) Token1() *domain.Token   { return p.token1 }
func (p *Pool) Fee() uint32             { return p.fee }
func (p *Pool) Tick() int32             { return p.tick }
func (p *Pool) ChainID() uint64         { return p.token0.ChainID }
func (p *Pool) SqrtPriceX96() *big.Int  { return p.sqrtPriceX96.ToBig() }
func (p *Pool) Liquidity() *big.Int     { return p.liquidity.ToBig() }

func (p *Pool) InvolvesToken(t *domain.Token) bool {
	return t.Equals(p.token0) || t.Equals(p.token1)
}

// TickSpacing follows the standard fee tiers.
func (p *Pool) TickSpacing() int32 {
	switch p.fee {
	case 100:
		return 1
	case 500:
		return 10
	case 3000:
		return 60
	case 10000:
		return 200
	}
	if s := int32(p.fee / 50); s > 0 {
		return s
	}
	return 1
}

// TicksCrossed counts the tick-spacing boundaries between p and after.
func (p *Pool) TicksCrossed(after *Pool) int {
	s := p.TickSpacing()
	d := floorDiv(after.tick, s) - floorDiv(p.tick, s)
	if d < 0 {
		d = -d
	}
	return int(d)
}

func floorDiv(a, b int32) int32 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Token0Price is sqrtPriceX96^2 / 2^192 raw token1 per raw token0.
func (p *Pool) Token0Price() domain.Price {
	sq := p.sqrtPriceX96.ToBig()
	sq.Mul(sq, sq)
	return domain.NewPrice(p.token0, p.token1, new(big.Int).Lsh(big.NewInt(1), 192), sq)
}

func (p *Pool) Token1Price() domain.Price {
	return p.Token0Price().Invert()
}

func (p *Pool) PriceOf(t *domain.Token) (domain.Price, error) {
	switch {
	case t.Equals(p.token0):
		return p.Token0Price(), nil
	case t.Equals(p.token1):
		return p.Token1Price(), nil
	}
	return domain.Price{}, fmt.Errorf("%w: %s", ErrTokenMismatch, t)
}

func (p *Pool) direction(t *domain.Token) (bool, error) {
	switch {
	case t.Equals(p.token0):
		return true, nil
	case t.Equals(p.token1):
		return false, nil
	}
	return false, fmt.Errorf("%w: %s", ErrTokenMismatch, t)
}

func (p *Pool) withinBounds(sqrtQ *uint256.Int, zeroForOne bool) bool {
	if zeroForOne {
		return sqrtQ.Gt(MinSqrtRatio)
	}
	return sqrtQ.Lt(MaxSqrtRatio)
}

func (p *Pool) withPrice(sqrtQ *uint256.Int) *Pool {
	next := *p
	next.sqrtPriceX96 = sqrtQ
	next.tick = TickAtSqrtPrice(sqrtQ)
	return &next
}

func rawAmount(a domain.CurrencyAmount) (*uint256.Int, error) {
	v, overflow := uint256.FromBig(a.Quotient())
	if overflow || a.Sign() <= 0 || v.IsZero() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, a)
	}
	return v, nil
}

// GetOutputAmount quotes an exact input. The fee is taken from the input
// before the price moves.
func (p *Pool) GetOutputAmount(input domain.CurrencyAmount) (domain.CurrencyAmount, *Pool, error) {
	zeroForOne, err := p.direction(input.Currency.Wrapped())
	if err != nil {
		return domain.CurrencyAmount{}, nil, err
	}
	amountIn, err := rawAmount(input)
	if err != nil {
		return domain.CurrencyAmount{}, nil, err
	}
	if p.liquidity.IsZero() {
		return domain.CurrencyAmount{}, nil, ErrInsufficientLiquidity
	}

	lessFee, _ := MulDiv(amountIn, uint256.NewInt(uint64(FeeDenominator-p.fee)), u256FeeDen)
	if lessFee.IsZero() {
		return domain.CurrencyAmount{}, nil, fmt.Errorf("%w: input consumed by fee", ErrInvalidAmount)
	}
	sqrtQ, err := NextSqrtPriceFromInput(p.sqrtPriceX96, p.liquidity, lessFee, zeroForOne)
	if err != nil {
		return domain.CurrencyAmount{}, nil, err
	}
	if !p.withinBounds(sqrtQ, zeroForOne) {
		return domain.CurrencyAmount{}, nil, ErrInsufficientLiquidity
	}

	var amountOut *uint256.Int
	outToken := p.token1
	if zeroForOne {
		amountOut = Amount1Delta(sqrtQ, p.sqrtPriceX96, p.liquidity, false)
	} else {
		amountOut = Amount0Delta(p.sqrtPriceX96, sqrtQ, p.liquidity, false)
		outToken = p.token0
	}
	if amountOut.IsZero() {
		return domain.CurrencyAmount{}, nil, fmt.Errorf("%w: output rounds to zero", ErrInvalidAmount)
	}
	return domain.FromRawAmount(outToken, amountOut.ToBig()), p.withPrice(sqrtQ), nil
}

// GetInputAmount quotes the input, fee included, needed for an exact output.
func (p *Pool) GetInputAmount(output domain.CurrencyAmount) (domain.CurrencyAmount, *Pool, error) {
	outIsToken0, err := p.direction(output.Currency.Wrapped())
	if err != nil {
		return domain.CurrencyAmount{}, nil, err
	}
	zeroForOne := !outIsToken0
	amountOut, err := rawAmount(output)
	if err != nil {
		return domain.CurrencyAmount{}, nil, err
	}
	if p.liquidity.IsZero() {
		return domain.CurrencyAmount{}, nil, ErrInsufficientLiquidity
	}

	sqrtQ, err := NextSqrtPriceFromOutput(p.sqrtPriceX96, p.liquidity, amountOut, zeroForOne)
	if err != nil {
		return domain.CurrencyAmount{}, nil, err
	}
	if !p.withinBounds(sqrtQ, zeroForOne) {
		return domain.CurrencyAmount{}, nil, ErrInsufficientLiquidity
	}

	var amountIn *uint256.Int
	inToken := p.token0
	if zeroForOne {
		amountIn = Amount0Delta(sqrtQ, p.sqrtPriceX96, p.liquidity, true)
	} else {
		amountIn = Amount1Delta(p.sqrtPriceX96, sqrtQ, p.liquidity, true)
		inToken = p.token1
	}
	feeAmount, overflow := MulDivRoundingUp(amountIn, uint256.NewInt(uint64(p.fee)), uint256.NewInt(uint64(FeeDenominator-p.fee)))
	if overflow {
		return domain.CurrencyAmount{}, nil, ErrInsufficientLiquidity
	}
	total, carry := new(uint256.Int).AddOverflow(amountIn, feeAmount)
	if carry {
		return domain.CurrencyAmount{}, nil, ErrInsufficientLiquidity
	}
	return domain.FromRawAmount(inToken, total.ToBig()), p.withPrice(sqrtQ), nil
}

// TickAtSqrtPrice approximates floor(log_1.0001(price)) for a Q64.96 sqrt price.
func TickAtSqrtPrice(sqrtPriceX96 *uint256.Int) int32 {
	f, _ := new(big.Float).Quo(
		new(big.Float).SetInt(sqrtPriceX96.ToBig()),
		new(big.Float).SetInt(Q96.ToBig()),
	).Float64()
	if f <= 0 {
		return math.MinInt32
	}
	return int32(math.Floor(2 * math.Log(f) / math.Log(1.0001)))
}

// EncodeSqrtRatioX96 returns sqrt(amount1/amount0) as a Q64.96 number.
func EncodeSqrtRatioX96(amount1, amount0 *big.Int) *big.Int {
	ratio := new(big.Int).Lsh(amount1, 192)
	ratio.Quo(ratio, amount0)
	return ratio.Sqrt(ratio)
}
