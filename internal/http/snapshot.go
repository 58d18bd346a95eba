package http

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/amm-router/internal/config"
	"github.com/hxuan190/amm-router/internal/domain"
	"github.com/hxuan190/amm-router/internal/services/amm"
	"github.com/hxuan190/amm-router/internal/services/clmm"
	"github.com/hxuan190/amm-router/internal/services/router"
)

// nativeAlias selects the chain's native currency in token fields.
const nativeAlias = "native"

// TokenInfo describes a token referenced by the request
type TokenInfo struct {
	// Token contract address (hex)
	Address string `json:"address" binding:"required" example:"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"`

	// Number of decimals of the token
	Decimals uint8 `json:"decimals" example:"6"`

	Symbol string `json:"symbol,omitempty" example:"USDC"`
	Name   string `json:"name,omitempty" example:"USD Coin"`

	// Fee-on-transfer taxes in basis points, charged by the token contract on
	// buys from and sells into a pair
	BuyFeeBps  uint16 `json:"buyFeeBps,omitempty" example:"0"`
	SellFeeBps uint16 `json:"sellFeeBps,omitempty" example:"0"`
}

// PoolInfo is one pool state of the snapshot a request routes over
type PoolInfo struct {
	// Pool protocol
	// - "V2": constant product pair, reserve0/reserve1 are required
	// - "V3": concentrated liquidity pool, sqrtPriceX96/liquidity are required
	Protocol string `json:"protocol" binding:"required" enums:"V2,V3" example:"V2"`

	// Pool address. Optional for V2, where it is derived from the chain's
	// factory; required for V3.
	Address string `json:"address,omitempty" example:"0xB4e16d0168e52d35CaCD2c6185b44281Ec28C9Dc"`

	// Token addresses, in any order
	Token0 string `json:"token0" binding:"required" example:"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"`
	Token1 string `json:"token1" binding:"required" example:"0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"`

	// V2 reserves of token0 and token1 in smallest token units
	Reserve0 string `json:"reserve0,omitempty" example:"10000000000000"`
	Reserve1 string `json:"reserve1,omitempty" example:"5000000000000000000000"`

	// V3 fee in hundredths of a basis point (3000 = 0.3%)
	Fee uint32 `json:"fee,omitempty" example:"3000"`

	// V3 sqrt(token1/token0) as a Q64.96 number, in canonical token order
	SqrtPriceX96 string `json:"sqrtPriceX96,omitempty" example:"1771595571142957166518320255467520"`

	// V3 in-range liquidity
	Liquidity string `json:"liquidity,omitempty" example:"200000000000000000"`

	// V3 current tick. Derived from sqrtPriceX96 when omitted.
	Tick *int32 `json:"tick,omitempty" example:"200311"`

	// USD value locked, used to rank pools during candidate selection
	TVLUSD string `json:"tvlUsd,omitempty" example:"20000000"`
}

// tokenRegistry resolves request token fields against the chain's known
// tokens and the tokens listed in the request.
type tokenRegistry struct {
	chain  *config.ChainConfig
	tokens map[common.Address]*domain.Token
}

func newTokenRegistry(chain *config.ChainConfig, infos []TokenInfo) (*tokenRegistry, error) {
	r := &tokenRegistry{
		chain:  chain,
		tokens: make(map[common.Address]*domain.Token, len(infos)+len(chain.BaseTokens)+len(chain.USDGasTokens)+1),
	}
	r.tokens[chain.WrappedNative.Address] = chain.WrappedNative
	for _, t := range chain.BaseTokens {
		r.tokens[t.Address] = t
	}
	for _, t := range chain.USDGasTokens {
		r.tokens[t.Address] = t
	}
	for _, info := range infos {
		if !common.IsHexAddress(info.Address) {
			return nil, fmt.Errorf("%w: bad token address %q", router.ErrInvalidRequest, info.Address)
		}
		addr := common.HexToAddress(info.Address)
		r.tokens[addr] = domain.NewTokenWithFees(chain.ChainID, addr, info.Decimals, info.Symbol, info.Name, info.BuyFeeBps, info.SellFeeBps)
	}
	return r, nil
}

// resolve accepts a hex address, "native" or the native symbol.
func (r *tokenRegistry) resolve(s string) (*domain.Token, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, nativeAlias) || strings.EqualFold(s, r.chain.Native.Symbol) {
		return r.chain.Native, nil
	}
	if !common.IsHexAddress(s) {
		return nil, fmt.Errorf("%w: bad token %q", router.ErrInvalidRequest, s)
	}
	t, ok := r.tokens[common.HexToAddress(s)]
	if !ok {
		return nil, fmt.Errorf("%w: unknown token %s, list it in tokens", router.ErrInvalidRequest, s)
	}
	return t, nil
}

func parseBig(field, s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a base-10 integer, got %q", router.ErrInvalidRequest, field, s)
	}
	return v, nil
}

func (r *tokenRegistry) buildPool(info PoolInfo, factory amm.Factory) (router.Pool, error) {
	protocol, err := router.ParseProtocol(info.Protocol)
	if err != nil {
		return nil, err
	}
	t0, err := r.resolve(info.Token0)
	if err != nil {
		return nil, err
	}
	t1, err := r.resolve(info.Token1)
	if err != nil {
		return nil, err
	}
	t0, t1 = t0.Wrapped(), t1.Wrapped()

	var tvl decimal.Decimal
	if info.TVLUSD != "" {
		if tvl, err = decimal.NewFromString(info.TVLUSD); err != nil {
			return nil, fmt.Errorf("%w: bad tvlUsd %q", router.ErrInvalidRequest, info.TVLUSD)
		}
	}
	if info.Address != "" && !common.IsHexAddress(info.Address) {
		return nil, fmt.Errorf("%w: bad pool address %q", router.ErrInvalidRequest, info.Address)
	}

	switch protocol {
	case router.ProtocolV2:
		reserve0, err := parseBig("reserve0", info.Reserve0)
		if err != nil {
			return nil, err
		}
		reserve1, err := parseBig("reserve1", info.Reserve1)
		if err != nil {
			return nil, err
		}
		a := domain.FromRawAmount(t0, reserve0)
		b := domain.FromRawAmount(t1, reserve1)
		var pair *amm.Pair
		if info.Address == "" {
			pair, err = amm.NewPair(factory, a, b)
		} else {
			pair, err = amm.NewPairAt(common.HexToAddress(info.Address), a, b)
		}
		if err != nil {
			return nil, err
		}
		return &router.V2Pool{Pair: pair, TVLUSD: tvl}, nil

	case router.ProtocolV3:
		if info.Address == "" {
			return nil, fmt.Errorf("%w: v3 pools need an address", router.ErrInvalidRequest)
		}
		sqrtPrice, err := parseBig("sqrtPriceX96", info.SqrtPriceX96)
		if err != nil {
			return nil, err
		}
		liquidity, err := parseBig("liquidity", info.Liquidity)
		if err != nil {
			return nil, err
		}
		var tick int32
		if info.Tick != nil {
			tick = *info.Tick
		} else if v, overflow := uint256.FromBig(sqrtPrice); sqrtPrice.Sign() > 0 && !overflow {
			tick = clmm.TickAtSqrtPrice(v)
		}
		pool, err := clmm.NewPool(common.HexToAddress(info.Address), t0, t1, info.Fee, sqrtPrice, liquidity, tick)
		if err != nil {
			return nil, err
		}
		return &router.V3Pool{Pool: pool, TVLUSD: tvl}, nil
	}
	return nil, fmt.Errorf("%w: %s pools cannot be listed", router.ErrUnsupportedProtocol, protocol)
}

// requestPools is the pool snapshot carried in a request body. Pools are
// decoded when the router asks for them.
type requestPools struct {
	infos   []PoolInfo
	tokens  *tokenRegistry
	factory amm.Factory
}

func (r *tokenRegistry) snapshot(infos []PoolInfo, factory amm.Factory) *requestPools {
	return &requestPools{infos: infos, tokens: r, factory: factory}
}

func (s *requestPools) GetPools(ctx context.Context) ([]router.Pool, error) {
	pools := make([]router.Pool, 0, len(s.infos))
	for i, info := range s.infos {
		p, err := s.tokens.buildPool(info, s.factory)
		if err != nil {
			return nil, fmt.Errorf("%w: pool %d: %w", router.ErrInvalidRequest, i, err)
		}
		pools = append(pools, p)
	}
	return pools, nil
}

// tokenLabel is the symbol for a native currency and the address otherwise.
func tokenLabel(t *domain.Token) string {
	if t.IsNative() {
		return t.Symbol
	}
	return t.Address.Hex()
}

func tokenLabels(path []*domain.Token) []string {
	out := make([]string, len(path))
	for i, t := range path {
		out[i] = tokenLabel(t)
	}
	return out
}
