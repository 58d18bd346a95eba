package router

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/amm-router/internal/domain"
	"github.com/hxuan190/amm-router/internal/services/clmm"
)

func TestGetAmountDistribution(t *testing.T) {
	t.Run("floors each share", func(t *testing.T) {
		percents, amounts, err := GetAmountDistribution(raw(usdc, 1003), 25)
		require.NoError(t, err)
		assert.Equal(t, []int{25, 50, 75, 100}, percents)
		want := []string{"250", "501", "752", "1003"}
		for i, a := range amounts {
			assert.Equal(t, want[i], a.Quotient().String())
			assert.True(t, a.Currency.Equals(usdc))
		}
	})

	t.Run("five percent grid", func(t *testing.T) {
		percents, _, err := GetAmountDistribution(units(usdc, 1), 5)
		require.NoError(t, err)
		assert.Len(t, percents, 20)
		assert.Equal(t, 5, percents[0])
		assert.Equal(t, 100, percents[19])
	})

	for _, d := range []int{0, -5, 3, 101} {
		_, _, err := GetAmountDistribution(units(usdc, 1), d)
		assert.ErrorIs(t, err, ErrInvalidPercents, "distribution %d", d)
	}
}

func TestQuoteRoutes(t *testing.T) {
	p := newMockPools(t)
	pools := []Pool{p.USDC_WETH, p.USDC_DAI, p.DAI_USDT, p.WETH_USDT}
	direct := mustRoute(t, usdc, weth, p.USDC_WETH)
	viaStables := mustRoute(t, usdc, weth, p.USDC_DAI, p.DAI_USDT, p.WETH_USDT)

	gm, err := NewHeuristicGasModel(DefaultGasParams(), weth, weth, []*domain.Token{usdc}, pools)
	require.NoError(t, err)

	amount := units(usdc, 10_000)
	percents, amounts, err := GetAmountDistribution(amount, 25)
	require.NoError(t, err)

	quotes, err := QuoteRoutes(context.Background(), []*Route{direct, viaStables}, amounts, percents, domain.ExactInput, gm, 3)
	require.NoError(t, err)
	require.Len(t, quotes, 8)

	for i, q := range quotes {
		wantRoute := direct
		if i >= 4 {
			wantRoute = viaStables
		}
		assert.Equal(t, wantRoute.Key(), q.Route.Key())
		assert.Equal(t, percents[i%4], q.Percent)
		assert.True(t, q.Quote.Currency.Equals(weth))
		assert.True(t, q.QuoteAdjustedForGas.LessThan(q.Quote))
	}

	// the direct quote matches the pair itself
	want, _, err := p.USDC_WETH.(*V2Pool).GetOutputAmount(amounts[1], true)
	require.NoError(t, err)
	assert.Equal(t, want.Quotient(), quotes[1].Quote.Quotient())

	// larger shares buy more
	for i := 1; i < 4; i++ {
		assert.True(t, quotes[i].Quote.GreaterThan(quotes[i-1].Quote))
	}
	// gas is charged per hop on v2
	assert.Equal(t, int64(135000), quotes[0].GasEstimate.Int64())
	assert.Equal(t, int64(235000), quotes[4].GasEstimate.Int64())
}

func TestQuoteRoutesExactOutput(t *testing.T) {
	p := newMockPools(t)
	pools := []Pool{p.USDC_WETH, p.USDC_DAI, p.DAI_USDT, p.WETH_USDT}
	viaStables := mustRoute(t, usdc, weth, p.USDC_DAI, p.DAI_USDT, p.WETH_USDT)

	gm, err := NewHeuristicGasModel(DefaultGasParams(), weth, usdc, []*domain.Token{usdc}, pools)
	require.NoError(t, err)

	percents, amounts, err := GetAmountDistribution(units(weth, 1), 50)
	require.NoError(t, err)
	quotes, err := QuoteRoutes(context.Background(), []*Route{viaStables}, amounts, percents, domain.ExactOutput, gm, 1)
	require.NoError(t, err)
	require.Len(t, quotes, 2)

	// walk the route backwards by hand
	need := amounts[1]
	for i := len(viaStables.Pools) - 1; i >= 0; i-- {
		need, _, err = viaStables.Pools[i].(*V2Pool).GetInputAmount(need, true)
		require.NoError(t, err)
	}
	assert.True(t, quotes[1].Quote.Currency.Equals(usdc))
	assert.Equal(t, need.Quotient(), quotes[1].Quote.Quotient())
	assert.True(t, quotes[1].QuoteAdjustedForGas.GreaterThan(quotes[1].Quote))
}

func TestQuoteRoutesSkipsIlliquid(t *testing.T) {
	p := newMockPools(t)
	empty := mustV3(t, "0x00000000000000000000000000000000000000ee", usdc, weth, 3000, clmm.Q96.ToBig(), big.NewInt(0))
	direct := mustRoute(t, usdc, weth, p.USDC_WETH)
	dry := mustRoute(t, usdc, weth, empty)

	percents, amounts, err := GetAmountDistribution(units(usdc, 100), 25)
	require.NoError(t, err)
	quotes, err := QuoteRoutes(context.Background(), []*Route{dry, direct}, amounts, percents, domain.ExactInput, flatGas, 2)
	require.NoError(t, err)
	require.Len(t, quotes, 4)
	for _, q := range quotes {
		assert.Equal(t, direct.Key(), q.Route.Key())
	}
}

func TestQuoteRoutesErrors(t *testing.T) {
	p := newMockPools(t)
	direct := mustRoute(t, usdc, weth, p.USDC_WETH)
	percents, amounts, err := GetAmountDistribution(units(usdc, 100), 25)
	require.NoError(t, err)

	t.Run("length mismatch", func(t *testing.T) {
		_, err := QuoteRoutes(context.Background(), []*Route{direct}, amounts[:2], percents, domain.ExactInput, flatGas, 1)
		assert.ErrorIs(t, err, ErrInvalidPercents)
	})

	t.Run("gas in the wrong token", func(t *testing.T) {
		wrong := GasModelFunc(func(r *RouteWithValidQuote) GasCost {
			return GasCost{GasEstimate: big.NewInt(1), GasCostInToken: raw(dai, 1), GasCostInUSD: raw(usdc, 1)}
		})
		_, err := QuoteRoutes(context.Background(), []*Route{direct}, amounts, percents, domain.ExactInput, wrong, 1)
		assert.ErrorIs(t, err, domain.ErrCurrencyMismatch)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := QuoteRoutes(ctx, []*Route{direct}, amounts, percents, domain.ExactInput, flatGas, 1)
		assert.True(t, errors.Is(err, ErrSearchCancelled))
	})
}
