package router

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/amm-router/internal/domain"
	"github.com/hxuan190/amm-router/internal/services/amm"
	"github.com/hxuan190/amm-router/internal/services/clmm"
)

type Protocol uint8

const (
	ProtocolV2 Protocol = iota + 1
	ProtocolV3
	// ProtocolMixed labels routes whose hops span more than one protocol.
	ProtocolMixed
)

func (p Protocol) String() string {
	switch p {
	case ProtocolV2:
		return "V2"
	case ProtocolV3:
		return "V3"
	case ProtocolMixed:
		return "MIXED"
	}
	return fmt.Sprintf("Protocol(%d)", uint8(p))
}

func ParseProtocol(s string) (Protocol, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "V2":
		return ProtocolV2, nil
	case "V3":
		return ProtocolV3, nil
	case "MIXED":
		return ProtocolMixed, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedProtocol, s)
}

// Pool is a pool snapshot the router can swap through. The implementations
// are *V2Pool and *V3Pool; code that needs the swap math switches on them.
type Pool interface {
	Protocol() Protocol
	Address() common.Address
	Token0() *domain.Token
	Token1() *domain.Token
	ChainID() uint64
	InvolvesToken(t *domain.Token) bool
	PriceOf(t *domain.Token) (domain.Price, error)
	// TVL is the caller-supplied USD value locked, zero when unknown.
	TVL() decimal.Decimal

	sealed()
}

// V2Pool is a constant-product pair.
type V2Pool struct {
	*amm.Pair
	TVLUSD decimal.Decimal
}

func NewV2Pool(pair *amm.Pair) *V2Pool {
	return &V2Pool{Pair: pair}
}

func (p *V2Pool) Protocol() Protocol   { return ProtocolV2 }
func (p *V2Pool) TVL() decimal.Decimal { return p.TVLUSD }
func (p *V2Pool) sealed()              {}

// V3Pool is a concentrated-liquidity pool.
type V3Pool struct {
	*clmm.Pool
	TVLUSD decimal.Decimal
}

func NewV3Pool(pool *clmm.Pool) *V3Pool {
	return &V3Pool{Pool: pool}
}

func (p *V3Pool) Protocol() Protocol   { return ProtocolV3 }
func (p *V3Pool) TVL() decimal.Decimal { return p.TVLUSD }
func (p *V3Pool) sealed()              {}

// PoolID identifies a pool across protocols. Two protocols may deploy pools
// for the same tokens, so the address alone is not enough.
func PoolID(p Pool) string {
	return p.Protocol().String() + ":" + strings.ToLower(p.Address().Hex())
}

// otherToken returns the side of p that is not t.
func otherToken(p Pool, t *domain.Token) *domain.Token {
	if t.Equals(p.Token0()) {
		return p.Token1()
	}
	return p.Token0()
}

// simulateHop swaps amount through p. For exact input, amount is what enters
// the pool and the result is what leaves it; for exact output it is reversed.
// The int result is the number of initialized tick boundaries crossed.
func simulateHop(p Pool, amount domain.CurrencyAmount, tradeType domain.TradeType) (domain.CurrencyAmount, int, error) {
	switch p := p.(type) {
	case *V2Pool:
		var (
			result domain.CurrencyAmount
			err    error
		)
		if tradeType == domain.ExactInput {
			result, _, err = p.GetOutputAmount(amount, true)
		} else {
			result, _, err = p.GetInputAmount(amount, true)
		}
		return result, 0, err
	case *V3Pool:
		var (
			result domain.CurrencyAmount
			next   *clmm.Pool
			err    error
		)
		if tradeType == domain.ExactInput {
			result, next, err = p.GetOutputAmount(amount)
		} else {
			result, next, err = p.GetInputAmount(amount)
		}
		if err != nil {
			return domain.CurrencyAmount{}, 0, clmmError(err)
		}
		return result, p.TicksCrossed(next), nil
	}
	return domain.CurrencyAmount{}, 0, fmt.Errorf("%w: %T", ErrUnsupportedProtocol, p)
}

// clmmError maps concentrated-liquidity failures onto the pair errors so route
// search skips both kinds of pool the same way.
func clmmError(err error) error {
	switch {
	case errors.Is(err, clmm.ErrInsufficientLiquidity):
		return fmt.Errorf("%w: %v", amm.ErrInsufficientReserves, err)
	case errors.Is(err, clmm.ErrInvalidAmount):
		return fmt.Errorf("%w: %v", amm.ErrInsufficientInputAmount, err)
	case errors.Is(err, clmm.ErrTokenMismatch):
		return fmt.Errorf("%w: %v", amm.ErrTokenMismatch, err)
	}
	return err
}

// reserves returns raw reserves of token0 and token1. Concentrated pools report
// the virtual reserves of their active range.
func reserves(p Pool) (*big.Int, *big.Int) {
	switch p := p.(type) {
	case *V2Pool:
		return p.Reserve0().Raw(), p.Reserve1().Raw()
	case *V3Pool:
		q96 := clmm.Q96.ToBig()
		sqrtP, l := p.SqrtPriceX96(), p.Liquidity()
		r0 := new(big.Int).Mul(l, q96)
		r0.Quo(r0, sqrtP)
		r1 := new(big.Int).Mul(l, sqrtP)
		r1.Quo(r1, q96)
		return r0, r1
	}
	return new(big.Int), new(big.Int)
}

// liquidityScore ranks pools: the caller-supplied TVL when present, otherwise
// the geometric mean of the reserves in whole token units.
func liquidityScore(p Pool) decimal.Decimal {
	if tvl := p.TVL(); tvl.IsPositive() {
		return tvl
	}
	r0, r1 := reserves(p)
	return geometricMean(r0, p.Token0().Decimals, r1, p.Token1().Decimals)
}

// geometricMean is sqrt(r0/10^d0 * r1/10^d1), kept to 18 decimal places.
func geometricMean(r0 *big.Int, d0 uint8, r1 *big.Int, d1 uint8) decimal.Decimal {
	prod := new(big.Int).Mul(r0, r1)
	if prod.Sign() <= 0 {
		return decimal.Zero
	}
	exp := 36 - int(d0) - int(d1)
	if exp >= 0 {
		prod.Mul(prod, pow10(exp))
	} else {
		prod.Quo(prod, pow10(-exp))
	}
	return decimal.NewFromBigInt(amm.Sqrt(prod), -18)
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
