package router

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/hxuan190/amm-router/internal/domain"
)

func withTVL(p Pool, tvl int64) Pool {
	switch p := p.(type) {
	case *V2Pool:
		return &V2Pool{Pair: p.Pair, TVLUSD: decimal.NewFromInt(tvl)}
	case *V3Pool:
		return &V3Pool{Pool: p.Pool, TVLUSD: decimal.NewFromInt(tvl)}
	}
	return p
}

func poolIDs(pools []Pool) []string {
	ids := make([]string, len(pools))
	for i, p := range pools {
		ids[i] = PoolID(p)
	}
	return ids
}

func TestSelectCandidatePools(t *testing.T) {
	m := newMockPools(t)
	var (
		usdcWeth    = withTVL(m.USDC_WETH, 100)
		usdcDai     = withTVL(m.USDC_DAI, 90)
		daiUsdt     = withTVL(m.DAI_USDT, 80)
		wethUsdt    = withTVL(m.WETH_USDT, 70)
		wbtcWeth    = withTVL(m.WBTC_WETH, 1000)
		usdcWethLow = withTVL(m.USDC_WETH_LOW, 50)
	)
	pools := []Pool{usdcWeth, usdcDai, daiUsdt, wethUsdt, wbtcWeth, usdcWethLow}
	usdcToWeth := CandidatePoolRequest{TokenIn: usdc, TokenOut: weth}

	tests := []struct {
		name string
		req  CandidatePoolRequest
		opts CandidatePoolOptions
		want []Pool
	}{
		{"nothing enabled", usdcToWeth, CandidatePoolOptions{}, nil},
		{"best direct swap", usdcToWeth, CandidatePoolOptions{TopNDirectSwaps: 1}, []Pool{usdcWeth}},
		{"direct swaps across protocols", usdcToWeth, CandidatePoolOptions{TopNDirectSwaps: 2}, []Pool{usdcWeth, usdcWethLow}},
		{"most liquid overall", usdcToWeth, CandidatePoolOptions{TopN: 1}, []Pool{wbtcWeth}},
		{"token in and out", usdcToWeth, CandidatePoolOptions{TopNTokenInOut: 1}, []Pool{usdcWeth, wbtcWeth}},
		{"second hop", usdcToWeth, CandidatePoolOptions{TopNTokenInOut: 1, TopNSecondHop: 1}, []Pool{usdcWeth, wbtcWeth, wethUsdt}},
		{
			"base tokens",
			CandidatePoolRequest{TokenIn: usdc, TokenOut: weth, BaseTokens: []*domain.Token{dai, usdt}},
			CandidatePoolOptions{TopNWithEachBaseToken: 1, TopNWithBaseToken: 5},
			[]Pool{usdcDai, wethUsdt},
		},
		{
			"base tokens capped overall",
			CandidatePoolRequest{TokenIn: usdc, TokenOut: weth, BaseTokens: []*domain.Token{dai, usdt}},
			CandidatePoolOptions{TopNWithEachBaseToken: 1, TopNWithBaseToken: 0},
			nil,
		},
		{
			"gas pricing pool for the quote token",
			CandidatePoolRequest{TokenIn: dai, TokenOut: usdc, WrappedNative: weth, QuoteToken: usdc},
			CandidatePoolOptions{},
			[]Pool{usdcWeth},
		},
		{
			"native input uses the wrapped token",
			CandidatePoolRequest{TokenIn: eth, TokenOut: usdc},
			CandidatePoolOptions{TopNDirectSwaps: 1},
			[]Pool{usdcWeth},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectCandidatePools(pools, tt.req, tt.opts)
			assert.Equal(t, poolIDs(tt.want), poolIDs(got))
		})
	}
}

func TestSelectCandidatePoolsDefaults(t *testing.T) {
	m := newMockPools(t)
	pools := []Pool{
		m.USDC_WETH, m.USDC_DAI, m.DAI_USDT, m.WETH_USDT, m.WBTC_WETH,
		m.USDC_WETH_LOW, m.USDC_DAI_LOW, m.DAI_USDT_LOW, m.WETH_USDT_LOW,
	}
	got := SelectCandidatePools(pools, CandidatePoolRequest{
		TokenIn:       usdc,
		TokenOut:      weth,
		BaseTokens:    []*domain.Token{dai, usdt, weth},
		WrappedNative: weth,
		QuoteToken:    weth,
	}, DefaultCandidatePoolOptions())

	seen := make(map[string]bool)
	for _, id := range poolIDs(got) {
		assert.False(t, seen[id], "duplicate %s", id)
		seen[id] = true
	}
	assert.True(t, seen[PoolID(m.USDC_WETH)])
	assert.True(t, seen[PoolID(m.USDC_WETH_LOW)])
	assert.LessOrEqual(t, len(got), len(pools))
}
