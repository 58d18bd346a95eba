package router

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/amm-router/internal/domain"
	"github.com/hxuan190/amm-router/internal/services/amm"
	"github.com/hxuan190/amm-router/internal/services/clmm"
)

var (
	weth = domain.NewToken(1, common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"), 18, "WETH", "Wrapped Ether")
	usdc = domain.NewToken(1, common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"), 6, "USDC", "USD Coin")
	usdt = domain.NewToken(1, common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7"), 6, "USDT", "Tether USD")
	dai  = domain.NewToken(1, common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"), 18, "DAI", "Dai Stablecoin")
	wbtc = domain.NewToken(1, common.HexToAddress("0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599"), 8, "WBTC", "Wrapped BTC")
	eth  = domain.NewNativeCurrency(weth, "ETH", "Ether")
)

// units is n whole tokens in raw units.
func units(t *domain.Token, n int64) domain.CurrencyAmount {
	return domain.FromRawAmount(t, new(big.Int).Mul(big.NewInt(n), pow10(int(t.Decimals))))
}

func raw(t *domain.Token, v int64) domain.CurrencyAmount {
	return domain.FromRawInt(t, v)
}

func mustV2(tb testing.TB, a, b domain.CurrencyAmount) *V2Pool {
	tb.Helper()
	pair, err := amm.NewPair(amm.UniswapV2Mainnet, a, b)
	require.NoError(tb, err)
	return NewV2Pool(pair)
}

func mustV3(tb testing.TB, addr string, a, b *domain.Token, fee uint32, sqrtP, liquidity *big.Int) *V3Pool {
	tb.Helper()
	tick := clmm.TickAtSqrtPrice(uint256.MustFromBig(sqrtP))
	pool, err := clmm.NewPool(common.HexToAddress(addr), a, b, fee, sqrtP, liquidity, tick)
	require.NoError(tb, err)
	return NewV3Pool(pool)
}

func mustRoute(tb testing.TB, in, out *domain.Token, pools ...Pool) *Route {
	tb.Helper()
	r, err := NewRoute(pools, in, out)
	require.NoError(tb, err)
	return r
}

// mockPools holds pools keyed the way the optimizer scenarios name them.
// Only their identity matters, so every V3 pool sits at price 1.
type mockPools struct {
	USDC_DAI, DAI_USDT, WETH_USDT, USDC_WETH, WBTC_WETH, WBTC_USDT Pool

	USDC_DAI_LOW, DAI_USDT_LOW, WETH_USDT_LOW, USDC_WETH_LOW             Pool
	USDC_DAI_MEDIUM, DAI_USDT_MEDIUM, WBTC_USDT_MEDIUM, WBTC_WETH_MEDIUM Pool
	USDC_WETH_MEDIUM                                                     Pool
}

func newMockPools(tb testing.TB) *mockPools {
	tb.Helper()
	q96 := clmm.Q96.ToBig()
	l := big.NewInt(1_000_000_000_000_000_000)
	v3 := func(n int, a, b *domain.Token, fee uint32) Pool {
		return mustV3(tb, common.BigToAddress(big.NewInt(int64(0x3000+n))).Hex(), a, b, fee, q96, l)
	}
	return &mockPools{
		USDC_DAI:  mustV2(tb, units(usdc, 10_000_000), units(dai, 10_000_000)),
		DAI_USDT:  mustV2(tb, units(dai, 10_000_000), units(usdt, 10_000_000)),
		WETH_USDT: mustV2(tb, units(weth, 5_000), units(usdt, 10_000_000)),
		USDC_WETH: mustV2(tb, units(usdc, 10_000_000), units(weth, 5_000)),
		WBTC_WETH: mustV2(tb, units(wbtc, 100), units(weth, 1_500)),
		WBTC_USDT: mustV2(tb, units(wbtc, 100), units(usdt, 3_000_000)),

		USDC_DAI_LOW:     v3(1, usdc, dai, 500),
		DAI_USDT_LOW:     v3(2, dai, usdt, 500),
		WETH_USDT_LOW:    v3(3, weth, usdt, 500),
		USDC_WETH_LOW:    v3(4, usdc, weth, 500),
		USDC_DAI_MEDIUM:  v3(5, usdc, dai, 3000),
		DAI_USDT_MEDIUM:  v3(6, dai, usdt, 3000),
		WBTC_USDT_MEDIUM: v3(7, wbtc, usdt, 3000),
		WBTC_WETH_MEDIUM: v3(8, wbtc, weth, 3000),
		USDC_WETH_MEDIUM: v3(9, usdc, weth, 3000),
	}
}

type mockRoutes struct {
	v3Route1, v3Route2, v3Route3, v3Route4 *Route
	v2Route1, v2Route2, v2Route3           *Route
}

func newMockRoutes(tb testing.TB, p *mockPools) *mockRoutes {
	tb.Helper()
	return &mockRoutes{
		v3Route1: mustRoute(tb, usdc, weth, p.USDC_DAI_LOW, p.DAI_USDT_LOW, p.WETH_USDT_LOW),
		v3Route2: mustRoute(tb, usdc, weth, p.USDC_WETH_LOW),
		v3Route3: mustRoute(tb, usdc, weth, p.USDC_DAI_MEDIUM, p.DAI_USDT_MEDIUM, p.WBTC_USDT_MEDIUM, p.WBTC_WETH_MEDIUM),
		v3Route4: mustRoute(tb, usdc, weth, p.USDC_WETH_MEDIUM),
		v2Route1: mustRoute(tb, usdc, weth, p.USDC_DAI, p.DAI_USDT, p.WETH_USDT),
		v2Route2: mustRoute(tb, usdc, weth, p.USDC_WETH),
		v2Route3: mustRoute(tb, usdc, weth, p.USDC_DAI, p.DAI_USDT, p.WBTC_USDT, p.WBTC_WETH),
	}
}

// flatGas charges 10000 gas per route and nothing in tokens.
var flatGas = GasModelFunc(func(r *RouteWithValidQuote) GasCost {
	return GasCost{
		GasEstimate:    big.NewInt(10000),
		GasCostInToken: raw(r.QuoteToken, 0),
		GasCostInUSD:   raw(usdc, 0),
	}
})

// perHopGas charges 10000 gas and 10 raw units of the quote token and of usd
// per hop.
func perHopGas(usd *domain.Token) GasModel {
	return GasModelFunc(func(r *RouteWithValidQuote) GasCost {
		hops := int64(r.Route.Hops())
		return GasCost{
			GasEstimate:    big.NewInt(10000 * hops),
			GasCostInToken: raw(r.QuoteToken, 10*hops),
			GasCostInUSD:   raw(usd, 10*hops),
		}
	})
}

var gridPercents = []int{25, 50, 75, 100}

// quotesFor prices route at each grid percent of amount with fixed raw quotes.
func quotesFor(tb testing.TB, route *Route, amount domain.CurrencyAmount, rawQuotes []int64, tradeType domain.TradeType, gm GasModel) []*RouteWithValidQuote {
	tb.Helper()
	percents, amounts, err := GetAmountDistribution(amount, 25)
	require.NoError(tb, err)
	require.Len(tb, rawQuotes, len(percents))
	out := make([]*RouteWithValidQuote, len(percents))
	for i := range percents {
		q, err := NewRouteWithValidQuote(RouteQuoteParams{
			Route:     route,
			Percent:   percents[i],
			Amount:    amounts[i],
			RawQuote:  big.NewInt(rawQuotes[i]),
			TradeType: tradeType,
			GasModel:  gm,
		})
		require.NoError(tb, err)
		out[i] = q
	}
	return out
}
