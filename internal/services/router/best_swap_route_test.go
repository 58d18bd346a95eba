package router

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/amm-router/internal/domain"
)

var defaultOptimizer = OptimizerConfig{MinSplits: 1, MaxSplits: 4, Workers: 4}

type routeQuotes struct {
	route  *Route
	quotes []int64
}

func buildQuotes(tb testing.TB, amount domain.CurrencyAmount, tradeType domain.TradeType, gm GasModel, rqs ...routeQuotes) []*RouteWithValidQuote {
	tb.Helper()
	var all []*RouteWithValidQuote
	for _, rq := range rqs {
		all = append(all, quotesFor(tb, rq.route, amount, rq.quotes, tradeType, gm)...)
	}
	return all
}

func routeKeys(swap *SwapRoute) map[string]int {
	keys := make(map[string]int, len(swap.Routes))
	for _, r := range swap.Routes {
		keys[r.Route.Key()] = r.Percent
	}
	return keys
}

func TestGetBestSwapRouteScenarios(t *testing.T) {
	pools := newMockPools(t)
	r := newMockRoutes(t, pools)
	amount := units(usdc, 100_000)

	tests := []struct {
		name      string
		cfg       OptimizerConfig
		routes    []routeQuotes
		wantQuote int64
		wantGas   int64
		wantSplit map[*Route]int
	}{
		{
			name: "single route wins",
			cfg:  defaultOptimizer,
			routes: []routeQuotes{
				{r.v3Route1, []int64{10, 20, 30, 40}},
				{r.v2Route2, []int64{8, 19, 28, 38}},
				{r.v3Route3, []int64{14, 19, 23, 60}},
			},
			wantQuote: 60,
			wantGas:   10000,
			wantSplit: map[*Route]int{r.v3Route3: 100},
		},
		{
			name: "two way split",
			cfg:  defaultOptimizer,
			routes: []routeQuotes{
				{r.v3Route1, []int64{10, 20, 30, 40}},
				{r.v3Route2, []int64{8, 19, 28, 38}},
				{r.v2Route3, []int64{14, 19, 23, 30}},
			},
			wantQuote: 44,
			wantGas:   20000,
			wantSplit: map[*Route]int{r.v3Route1: 75, r.v2Route3: 25},
		},
		{
			name: "three way split",
			cfg:  defaultOptimizer,
			routes: []routeQuotes{
				{r.v2Route1, []int64{10, 50, 10, 10}},
				{r.v3Route2, []int64{25, 10, 10, 10}},
				{r.v3Route3, []int64{25, 10, 10, 10}},
			},
			wantQuote: 100,
			wantGas:   30000,
			wantSplit: map[*Route]int{r.v2Route1: 50, r.v3Route2: 25, r.v3Route3: 25},
		},
		{
			name: "four way split",
			cfg:  defaultOptimizer,
			routes: []routeQuotes{
				{r.v2Route1, []int64{30, 50, 52, 54}},
				{r.v3Route2, []int64{35, 35, 34, 50}},
				{r.v3Route3, []int64{35, 40, 42, 50}},
				{r.v3Route4, []int64{40, 42, 44, 56}},
			},
			wantQuote: 140,
			wantGas:   40000,
			wantSplit: map[*Route]int{r.v2Route1: 25, r.v3Route2: 25, r.v3Route3: 25, r.v3Route4: 25},
		},
		{
			name: "same pair on two protocols",
			cfg:  OptimizerConfig{MinSplits: 1, MaxSplits: 4, ForceCrossProtocol: true},
			routes: []routeQuotes{
				{r.v2Route2, []int64{10, 500, 10, 10}},
				{r.v3Route2, []int64{10, 500, 10, 10}},
				{r.v3Route3, []int64{10, 10, 10, 900}},
			},
			wantQuote: 1000,
			wantGas:   20000,
			wantSplit: map[*Route]int{r.v2Route2: 50, r.v3Route2: 50},
		},
		{
			name: "three splits under max of three",
			cfg:  OptimizerConfig{MinSplits: 1, MaxSplits: 3},
			routes: []routeQuotes{
				{r.v3Route1, []int64{30, 1000, 52, 54}},
				{r.v3Route2, []int64{1000, 42, 34, 50}},
				{r.v3Route3, []int64{1000, 40, 42, 50}},
				{r.v3Route4, []int64{40, 42, 44, 56}},
			},
			wantQuote: 3000,
			wantGas:   30000,
			wantSplit: map[*Route]int{r.v3Route1: 50, r.v3Route2: 25, r.v3Route3: 25},
		},
		{
			name: "max splits caps a better four way split",
			cfg:  OptimizerConfig{MinSplits: 2, MaxSplits: 3},
			routes: []routeQuotes{
				{r.v3Route1, []int64{50000, 10000, 52, 54}},
				{r.v3Route2, []int64{50000, 42, 34, 50}},
				{r.v3Route3, []int64{50000, 40, 42, 50}},
				{r.v3Route4, []int64{50000, 42, 44, 56}},
			},
			wantQuote: 110000,
			wantGas:   30000,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quotes := buildQuotes(t, amount, domain.ExactInput, flatGas, tt.routes...)
			swap, err := GetBestSwapRoute(context.Background(), amount, gridPercents, quotes, domain.ExactInput, tt.cfg)
			require.NoError(t, err)
			require.NotNil(t, swap)

			assert.Equal(t, tt.wantQuote, swap.Quote.Quotient().Int64())
			assert.True(t, swap.Quote.Currency.Equals(weth))
			assert.Equal(t, tt.wantGas, swap.EstimatedGasUsed.Int64())
			assert.Len(t, swap.Routes, int(tt.wantGas/10000))
			if tt.wantSplit != nil {
				want := make(map[string]int, len(tt.wantSplit))
				for route, pct := range tt.wantSplit {
					want[route.Key()] = pct
				}
				assert.Equal(t, want, routeKeys(swap))
			}

			total := 0
			for _, q := range swap.Routes {
				total += q.Percent
			}
			assert.Equal(t, 100, total)
		})
	}
}

func TestGetBestSwapRouteGas(t *testing.T) {
	pools := newMockPools(t)
	r := newMockRoutes(t, pools)
	amount := units(usdc, 100_000)

	tests := []struct {
		name    string
		gasUSD  *domain.Token
		wantUSD string
	}{
		{"usdc gas normalised to dai", usdc, "10000000000000"},
		{"dai gas", dai, "10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quotes := buildQuotes(t, amount, domain.ExactInput, perHopGas(tt.gasUSD),
				routeQuotes{r.v3Route1, []int64{10, 50, 10, 10}},
				routeQuotes{r.v3Route2, []int64{10, 50, 10, 85}},
			)
			cfg := defaultOptimizer
			cfg.USDToken = dai
			swap, err := GetBestSwapRoute(context.Background(), amount, gridPercents, quotes, domain.ExactInput, cfg)
			require.NoError(t, err)
			require.NotNil(t, swap)

			assert.Equal(t, int64(85), swap.Quote.Quotient().Int64())
			assert.Equal(t, int64(75), swap.QuoteGasAdjusted.Quotient().Int64())
			assert.Equal(t, int64(10000), swap.EstimatedGasUsed.Int64())
			assert.Equal(t, int64(10), swap.EstimatedGasUsedQuoteToken.Quotient().Int64())
			assert.True(t, swap.EstimatedGasUsedUSD.Currency.Equals(dai))
			assert.Equal(t, tt.wantUSD, swap.EstimatedGasUsedUSD.Quotient().String())
			require.Len(t, swap.Routes, 1)
			assert.Equal(t, r.v3Route2.Key(), swap.Routes[0].Route.Key())
		})
	}
}

func TestGetBestSwapRouteExactOutput(t *testing.T) {
	pools := newMockPools(t)
	r := newMockRoutes(t, pools)
	amount := units(weth, 10)

	quotes := buildQuotes(t, amount, domain.ExactOutput, flatGas,
		routeQuotes{r.v3Route2, []int64{10, 15, 30, 100}},
		routeQuotes{r.v3Route4, []int64{10, 15, 30, 100}},
	)
	swap, err := GetBestSwapRoute(context.Background(), amount, gridPercents, quotes, domain.ExactOutput, defaultOptimizer)
	require.NoError(t, err)
	require.NotNil(t, swap)

	assert.Equal(t, int64(30), swap.Quote.Quotient().Int64())
	assert.True(t, swap.Quote.Currency.Equals(usdc))
	assert.Equal(t, map[string]int{r.v3Route2.Key(): 50, r.v3Route4.Key(): 50}, routeKeys(swap))
}

func TestGetBestSwapRouteConstraints(t *testing.T) {
	pools := newMockPools(t)
	r := newMockRoutes(t, pools)
	amount := units(usdc, 100_000)
	ctx := context.Background()

	t.Run("routes sharing a pool are never combined", func(t *testing.T) {
		// v2Route1 and v2Route3 both use USDC_DAI
		quotes := buildQuotes(t, amount, domain.ExactInput, flatGas,
			routeQuotes{r.v2Route1, []int64{10, 500, 10, 10}},
			routeQuotes{r.v2Route3, []int64{10, 500, 10, 10}},
			routeQuotes{r.v3Route2, []int64{10, 10, 10, 600}},
		)
		swap, err := GetBestSwapRoute(ctx, amount, gridPercents, quotes, domain.ExactInput, defaultOptimizer)
		require.NoError(t, err)
		require.NotNil(t, swap)
		assert.Equal(t, int64(600), swap.Quote.Quotient().Int64())
	})

	t.Run("force cross protocol", func(t *testing.T) {
		quotes := buildQuotes(t, amount, domain.ExactInput, flatGas,
			routeQuotes{r.v3Route2, []int64{10, 500, 10, 10}},
			routeQuotes{r.v3Route4, []int64{10, 500, 10, 10}},
			routeQuotes{r.v2Route1, []int64{10, 400, 10, 10}},
		)
		free, err := GetBestSwapRoute(ctx, amount, gridPercents, quotes, domain.ExactInput, defaultOptimizer)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), free.Quote.Quotient().Int64())

		cfg := defaultOptimizer
		cfg.ForceCrossProtocol = true
		forced, err := GetBestSwapRoute(ctx, amount, gridPercents, quotes, domain.ExactInput, cfg)
		require.NoError(t, err)
		require.NotNil(t, forced)
		assert.Equal(t, int64(900), forced.Quote.Quotient().Int64())
		protocols := map[Protocol]bool{}
		for _, q := range forced.Routes {
			protocols[q.Route.Protocol] = true
		}
		assert.Len(t, protocols, 2)
	})

	t.Run("force mixed routes with none available", func(t *testing.T) {
		quotes := buildQuotes(t, amount, domain.ExactInput, flatGas,
			routeQuotes{r.v3Route2, []int64{10, 500, 10, 10}},
		)
		cfg := defaultOptimizer
		cfg.ForceMixedRoutes = true
		swap, err := GetBestSwapRoute(ctx, amount, gridPercents, quotes, domain.ExactInput, cfg)
		require.NoError(t, err)
		assert.Nil(t, swap)
	})

	t.Run("force mixed routes keeps mixed routes", func(t *testing.T) {
		mixed := mustRoute(t, usdc, weth, pools.USDC_DAI_LOW, pools.DAI_USDT, pools.WETH_USDT_LOW)
		require.Equal(t, ProtocolMixed, mixed.Protocol)
		quotes := buildQuotes(t, amount, domain.ExactInput, flatGas,
			routeQuotes{r.v3Route2, []int64{10, 500, 10, 900}},
			routeQuotes{mixed, []int64{10, 20, 30, 40}},
		)
		cfg := defaultOptimizer
		cfg.ForceMixedRoutes = true
		swap, err := GetBestSwapRoute(ctx, amount, gridPercents, quotes, domain.ExactInput, cfg)
		require.NoError(t, err)
		require.NotNil(t, swap)
		assert.Equal(t, map[string]int{mixed.Key(): 100}, routeKeys(swap))
	})

	t.Run("no combination reaches 100 percent", func(t *testing.T) {
		quotes := buildQuotes(t, amount, domain.ExactInput, flatGas,
			routeQuotes{r.v3Route2, []int64{10, 500, 10, 10}},
		)
		var partial []*RouteWithValidQuote
		for _, q := range quotes {
			if q.Percent == 25 {
				partial = append(partial, q)
			}
		}
		swap, err := GetBestSwapRoute(ctx, amount, gridPercents, partial, domain.ExactInput, defaultOptimizer)
		require.NoError(t, err)
		assert.Nil(t, swap)
	})

	t.Run("no quotes", func(t *testing.T) {
		swap, err := GetBestSwapRoute(ctx, amount, gridPercents, nil, domain.ExactInput, defaultOptimizer)
		require.NoError(t, err)
		assert.Nil(t, swap)
	})

	t.Run("off-grid and duplicate quotes", func(t *testing.T) {
		quotes := buildQuotes(t, amount, domain.ExactInput, flatGas,
			routeQuotes{r.v3Route2, []int64{10, 20, 30, 40}},
		)
		dupe := buildQuotes(t, amount, domain.ExactInput, flatGas,
			routeQuotes{r.v3Route2, []int64{1000, 1000, 1000, 1000}},
		)
		offGrid := *quotes[0]
		offGrid.Percent = 30
		all := append(append(quotes, dupe...), &offGrid)

		swap, err := GetBestSwapRoute(ctx, amount, gridPercents, all, domain.ExactInput, defaultOptimizer)
		require.NoError(t, err)
		require.NotNil(t, swap)
		assert.Equal(t, int64(40), swap.Quote.Quotient().Int64())
	})
}

func TestGetBestSwapRouteValidation(t *testing.T) {
	amount := units(usdc, 100)
	ctx := context.Background()

	percentTests := []struct {
		name     string
		percents []int
	}{
		{"empty", nil},
		{"zero", []int{0, 50, 100}},
		{"over 100", []int{50, 101}},
		{"descending", []int{50, 25, 100}},
		{"repeated", []int{25, 25, 100}},
	}
	for _, tt := range percentTests {
		t.Run("percents "+tt.name, func(t *testing.T) {
			_, err := GetBestSwapRoute(ctx, amount, tt.percents, nil, domain.ExactInput, defaultOptimizer)
			assert.ErrorIs(t, err, ErrInvalidPercents)
		})
	}

	splitTests := []struct {
		name     string
		min, max int
	}{
		{"min zero", 0, 3},
		{"min above max", 3, 2},
		{"max above cap", 1, MaxSplitsCap + 1},
	}
	for _, tt := range splitTests {
		t.Run("splits "+tt.name, func(t *testing.T) {
			_, err := GetBestSwapRoute(ctx, amount, gridPercents, nil, domain.ExactInput, OptimizerConfig{MinSplits: tt.min, MaxSplits: tt.max})
			assert.ErrorIs(t, err, ErrInvalidSplits)
		})
	}
}

func TestGetBestSwapRouteCancelled(t *testing.T) {
	pools := newMockPools(t)
	r := newMockRoutes(t, pools)
	amount := units(usdc, 100_000)
	quotes := buildQuotes(t, amount, domain.ExactInput, flatGas,
		routeQuotes{r.v3Route1, []int64{10, 20, 30, 40}},
		routeQuotes{r.v3Route2, []int64{8, 19, 28, 38}},
	)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := GetBestSwapRoute(ctx, amount, gridPercents, quotes, domain.ExactInput, defaultOptimizer)
	assert.ErrorIs(t, err, ErrSearchCancelled)
}

func TestGetBestSwapRouteAmountsCoverInput(t *testing.T) {
	pools := newMockPools(t)
	r := newMockRoutes(t, pools)
	amount := raw(usdc, 100_003)

	quotes := buildQuotes(t, amount, domain.ExactInput, flatGas,
		routeQuotes{r.v3Route2, []int64{10, 500, 10, 10}},
		routeQuotes{r.v3Route4, []int64{10, 500, 10, 10}},
	)
	swap, err := GetBestSwapRoute(context.Background(), amount, gridPercents, quotes, domain.ExactInput, defaultOptimizer)
	require.NoError(t, err)
	require.Len(t, swap.Routes, 2)

	total := raw(usdc, 0)
	for _, q := range swap.Routes {
		total = total.Add(q.Amount)
	}
	assert.Equal(t, "100003", total.Quotient().String())

	// the input quotes are left untouched
	for _, q := range quotes {
		if q.Percent == 50 {
			assert.Equal(t, "50001", q.Amount.Quotient().String())
		}
	}
}

// bruteForce scores every assignment of grid percents to pool-disjoint routes
// directly. Routes in these tests never share pools.
func bruteForce(groups [][]int64, minSplits, maxSplits int) int64 {
	best := int64(-1)
	var walk func(i, remaining, used int, sum int64)
	walk = func(i, remaining, used int, sum int64) {
		if i == len(groups) {
			if remaining == 0 && used >= minSplits && used <= maxSplits && sum > best {
				best = sum
			}
			return
		}
		walk(i+1, remaining, used, sum)
		for j, p := range gridPercents {
			if p > remaining {
				break
			}
			walk(i+1, remaining-p, used+1, sum+groups[i][j])
		}
	}
	walk(0, 100, 0, 0)
	return best
}

func TestGetBestSwapRouteMatchesBruteForce(t *testing.T) {
	pools := newMockPools(t)
	r := newMockRoutes(t, pools)
	amount := units(usdc, 100_000)
	disjoint := []*Route{r.v3Route1, r.v3Route2, r.v3Route3, r.v3Route4, r.v2Route2}
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 20; round++ {
		var (
			rqs    []routeQuotes
			groups [][]int64
		)
		for _, route := range disjoint {
			q := make([]int64, len(gridPercents))
			for i := range q {
				q[i] = rng.Int63n(1000) + 1
			}
			rqs = append(rqs, routeQuotes{route, q})
			groups = append(groups, q)
		}
		quotes := buildQuotes(t, amount, domain.ExactInput, flatGas, rqs...)

		one, err := GetBestSwapRoute(context.Background(), amount, gridPercents, quotes, domain.ExactInput, OptimizerConfig{MinSplits: 1, MaxSplits: 4, Workers: 1})
		require.NoError(t, err)
		many, err := GetBestSwapRoute(context.Background(), amount, gridPercents, quotes, domain.ExactInput, OptimizerConfig{MinSplits: 1, MaxSplits: 4, Workers: 8})
		require.NoError(t, err)

		assert.Equal(t, bruteForce(groups, 1, 4), one.Quote.Quotient().Int64(), "round %d", round)
		assert.Equal(t, routeKeys(one), routeKeys(many), "round %d", round)
	}
}
