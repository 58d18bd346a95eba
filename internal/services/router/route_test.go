package router

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/amm-router/internal/domain"
	"github.com/hxuan190/amm-router/internal/services/amm"
	"github.com/hxuan190/amm-router/internal/services/clmm"
)

func TestParseProtocol(t *testing.T) {
	for _, p := range []Protocol{ProtocolV2, ProtocolV3, ProtocolMixed} {
		got, err := ParseProtocol(strings.ToLower(p.String()))
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err := ParseProtocol("v4")
	assert.ErrorIs(t, err, ErrUnsupportedProtocol)
}

func TestPoolID(t *testing.T) {
	p := newMockPools(t)
	v2 := PoolID(p.USDC_WETH)
	v3 := PoolID(p.USDC_WETH_LOW)

	assert.True(t, strings.HasPrefix(v2, "V2:0x"))
	assert.True(t, strings.HasPrefix(v3, "V3:0x"))
	// protocol tag upper case, address lower case
	addr := strings.TrimPrefix(v2, "V2:")
	assert.Equal(t, strings.ToLower(addr), addr)

	// same address under two protocols stays distinct
	pair := p.USDC_WETH.(*V2Pool)
	v3Same := mustV3(t, pair.Address().Hex(), usdc, weth, 500, clmm.Q96.ToBig(), big.NewInt(1))
	assert.NotEqual(t, PoolID(pair), PoolID(v3Same))
}

func TestNewRoute(t *testing.T) {
	p := newMockPools(t)

	t.Run("protocol", func(t *testing.T) {
		assert.Equal(t, ProtocolV2, mustRoute(t, usdc, weth, p.USDC_WETH).Protocol)
		assert.Equal(t, ProtocolV3, mustRoute(t, usdc, weth, p.USDC_WETH_LOW).Protocol)
		assert.Equal(t, ProtocolMixed, mustRoute(t, usdc, usdt, p.USDC_WETH_LOW, p.WETH_USDT).Protocol)
	})

	t.Run("path and key", func(t *testing.T) {
		r := mustRoute(t, usdc, usdt, p.USDC_DAI, p.DAI_USDT)
		require.Len(t, r.Path, 3)
		assert.True(t, r.Path[1].Equals(dai))
		assert.Equal(t, PoolID(p.USDC_DAI)+">"+PoolID(p.DAI_USDT), r.Key())
		assert.Equal(t, "[V2] USDC -> DAI -> USDT", r.String())

		ids := r.PoolIDs()
		ids[0] = "changed"
		assert.NotEqual(t, "changed", r.PoolIDs()[0])
	})

	tests := []struct {
		name    string
		pools   []Pool
		in, out *domain.Token
		wantErr error
	}{
		{"empty", nil, usdc, weth, amm.ErrEmptyPairList},
		{"first hop misses input", []Pool{p.DAI_USDT}, usdc, usdt, amm.ErrDisconnectedPath},
		{"gap in the middle", []Pool{p.USDC_DAI, p.WETH_USDT}, usdc, weth, amm.ErrDisconnectedPath},
		{"wrong output", []Pool{p.USDC_DAI}, usdc, weth, amm.ErrDisconnectedPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRoute(tt.pools, tt.in, tt.out)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("chain mismatch", func(t *testing.T) {
		otherWeth := domain.NewToken(5, weth.Address, 18, "WETH", "Wrapped Ether")
		otherUSDT := domain.NewToken(5, usdt.Address, 6, "USDT", "Tether USD")
		other := mustV2(t, units(otherWeth, 10), units(otherUSDT, 10))
		_, err := NewRoute([]Pool{p.USDC_WETH, other}, usdc, usdt)
		assert.ErrorIs(t, err, amm.ErrChainMismatch)
	})
}

func TestRouteMidPrice(t *testing.T) {
	p := newMockPools(t)
	// 1 USDC -> 1 DAI -> 1 USDT, before fees
	r := mustRoute(t, usdc, usdt, p.USDC_DAI, p.DAI_USDT)
	mid, err := r.MidPrice()
	require.NoError(t, err)
	assert.True(t, mid.Base.Equals(usdc))
	assert.True(t, mid.Quote.Equals(usdt))
	assert.Equal(t, "1.0000", mid.ToFixed(4))
}

func TestSimulateHop(t *testing.T) {
	p := newMockPools(t)

	t.Run("v2 matches the pair", func(t *testing.T) {
		in := units(usdc, 1000)
		got, ticks, err := simulateHop(p.USDC_WETH, in, domain.ExactInput)
		require.NoError(t, err)
		want, _, err := p.USDC_WETH.(*V2Pool).GetOutputAmount(in, true)
		require.NoError(t, err)
		assert.Equal(t, want.Quotient(), got.Quotient())
		assert.Zero(t, ticks)
	})

	t.Run("v2 exact output beyond reserves", func(t *testing.T) {
		_, _, err := simulateHop(p.USDC_WETH, units(weth, 5_000), domain.ExactOutput)
		assert.True(t, amm.IsLiquidityError(err))
	})

	t.Run("v3 without liquidity", func(t *testing.T) {
		empty := mustV3(t, "0x00000000000000000000000000000000000000ee", usdc, weth, 3000, clmm.Q96.ToBig(), big.NewInt(0))
		_, _, err := simulateHop(empty, units(usdc, 1), domain.ExactInput)
		assert.True(t, amm.IsLiquidityError(err))
	})

	t.Run("v3 token mismatch", func(t *testing.T) {
		_, _, err := simulateHop(p.USDC_WETH_LOW, units(dai, 1), domain.ExactInput)
		assert.ErrorIs(t, err, amm.ErrTokenMismatch)
	})
}

func TestLiquidityScore(t *testing.T) {
	p := newMockPools(t)

	small := mustV2(t, units(usdc, 1_000), units(weth, 1))
	assert.True(t, liquidityScore(p.USDC_WETH).GreaterThan(liquidityScore(small)))

	// sqrt(10M USDC * 5000 WETH)
	assert.Equal(t, "223606", liquidityScore(p.USDC_WETH).Truncate(0).String())

	withTVL := &V2Pool{Pair: small.Pair, TVLUSD: decimal.NewFromInt(1_000_000_000)}
	assert.True(t, liquidityScore(withTVL).Equal(decimal.NewFromInt(1_000_000_000)))

	v3 := mustV3(t, common.BigToAddress(big.NewInt(0xfe)).Hex(), usdc, weth, 3000, clmm.Q96.ToBig(), big.NewInt(0))
	assert.True(t, liquidityScore(v3).IsZero())
}

func TestScenarioRoutesConnectedAndDistinct(t *testing.T) {
	r := newMockRoutes(t, newMockPools(t))
	routes := []*Route{r.v3Route1, r.v3Route2, r.v3Route3, r.v3Route4, r.v2Route1, r.v2Route2, r.v2Route3}

	seen := make(map[string]struct{}, len(routes))
	for _, route := range routes {
		assert.True(t, route.Path[0].Equals(usdc), route.String())
		assert.True(t, route.Path[len(route.Path)-1].Equals(weth), route.String())
		_, dup := seen[route.Key()]
		assert.False(t, dup, route.String())
		seen[route.Key()] = struct{}{}
	}
	assert.Equal(t, 4, r.v2Route3.Hops())
}
