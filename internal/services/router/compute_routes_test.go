package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/amm-router/internal/domain"
	"github.com/hxuan190/amm-router/internal/services/amm"
)

func routeSet(routes []*Route) map[string]bool {
	out := make(map[string]bool, len(routes))
	for _, r := range routes {
		out[r.Key()] = true
	}
	return out
}

func TestComputeAllRoutes(t *testing.T) {
	p := newMockPools(t)
	pools := []Pool{p.USDC_WETH, p.USDC_DAI, p.DAI_USDT, p.WETH_USDT, p.USDC_WETH_LOW}

	direct := mustRoute(t, usdc, weth, p.USDC_WETH)
	directV3 := mustRoute(t, usdc, weth, p.USDC_WETH_LOW)
	viaStables := mustRoute(t, usdc, weth, p.USDC_DAI, p.DAI_USDT, p.WETH_USDT)

	tests := []struct {
		name     string
		in, out  *domain.Token
		maxHops  int
		expected []*Route
	}{
		{"one hop", usdc, weth, 1, []*Route{direct, directV3}},
		{"two hops adds nothing", usdc, weth, 2, []*Route{direct, directV3}},
		{"three hops", usdc, weth, 3, []*Route{direct, directV3, viaStables}},
		{"usdc to usdt", usdc, usdt, 3, []*Route{
			mustRoute(t, usdc, usdt, p.USDC_WETH, p.WETH_USDT),
			mustRoute(t, usdc, usdt, p.USDC_DAI, p.DAI_USDT),
			mustRoute(t, usdc, usdt, p.USDC_WETH_LOW, p.WETH_USDT),
		}},
		{"unreachable", usdc, wbtc, 3, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			routes, err := ComputeAllRoutes(tt.in, tt.out, pools, tt.maxHops)
			require.NoError(t, err)
			assert.Equal(t, routeSet(tt.expected), routeSet(routes))
			for _, r := range routes {
				assert.LessOrEqual(t, r.Hops(), tt.maxHops)
				assert.True(t, r.Path[0].Equals(tt.in))
				assert.True(t, r.Path[len(r.Path)-1].Equals(tt.out))
			}
		})
	}
}

func TestComputeAllRoutesSimplePaths(t *testing.T) {
	p := newMockPools(t)
	pools := []Pool{
		p.USDC_WETH, p.USDC_DAI, p.DAI_USDT, p.WETH_USDT, p.WBTC_WETH,
		p.USDC_WETH_LOW, p.USDC_DAI_LOW, p.DAI_USDT_LOW, p.WETH_USDT_LOW, p.WBTC_USDT_MEDIUM,
	}
	routes, err := ComputeAllRoutes(usdc, weth, pools, 4)
	require.NoError(t, err)
	require.NotEmpty(t, routes)

	keys := make(map[string]bool)
	for _, r := range routes {
		assert.False(t, keys[r.Key()], "duplicate route %s", r)
		keys[r.Key()] = true

		seenPool := make(map[string]bool)
		for _, id := range r.PoolIDs() {
			assert.False(t, seenPool[id], "pool reused in %s", r)
			seenPool[id] = true
		}
		seenToken := make(map[string]bool)
		for _, tok := range r.Path {
			assert.False(t, seenToken[tok.Key()], "token revisited in %s", r)
			seenToken[tok.Key()] = true
		}
	}
}

func TestComputeAllRoutesEdgeCases(t *testing.T) {
	p := newMockPools(t)
	pools := []Pool{p.USDC_WETH, p.USDC_WETH_LOW}

	t.Run("same token", func(t *testing.T) {
		routes, err := ComputeAllRoutes(usdc, usdc, pools, 3)
		require.NoError(t, err)
		assert.Empty(t, routes)
	})

	t.Run("native resolves to wrapped", func(t *testing.T) {
		routes, err := ComputeAllRoutes(eth, usdc, pools, 1)
		require.NoError(t, err)
		require.Len(t, routes, 2)
		for _, r := range routes {
			assert.True(t, r.Input.Equals(eth))
			assert.True(t, r.Path[0].Equals(weth))
		}
	})

	t.Run("native to wrapped is the same token", func(t *testing.T) {
		routes, err := ComputeAllRoutes(eth, weth, pools, 3)
		require.NoError(t, err)
		assert.Empty(t, routes)
	})

	t.Run("max hops must be positive", func(t *testing.T) {
		_, err := ComputeAllRoutes(usdc, weth, pools, 0)
		assert.ErrorIs(t, err, amm.ErrInvalidMaxHops)
	})

	t.Run("no pools", func(t *testing.T) {
		routes, err := ComputeAllRoutes(usdc, weth, nil, 3)
		require.NoError(t, err)
		assert.Empty(t, routes)
	})
}
