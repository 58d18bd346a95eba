package router

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/hxuan190/amm-router/internal/domain"
)

// CandidatePoolOptions bound how many pools each selection rule may add.
// A zero knob disables its rule.
type CandidatePoolOptions struct {
	TopN                  int
	TopNDirectSwaps       int
	TopNTokenInOut        int
	TopNSecondHop         int
	TopNWithEachBaseToken int
	TopNWithBaseToken     int
}

func DefaultCandidatePoolOptions() CandidatePoolOptions {
	return CandidatePoolOptions{
		TopN:                  2,
		TopNDirectSwaps:       2,
		TopNTokenInOut:        3,
		TopNSecondHop:         1,
		TopNWithEachBaseToken: 3,
		TopNWithBaseToken:     5,
	}
}

type CandidatePoolRequest struct {
	TokenIn       *domain.Token
	TokenOut      *domain.Token
	BaseTokens    []*domain.Token
	WrappedNative *domain.Token
	// QuoteToken is priced against WrappedNative for gas.
	QuoteToken *domain.Token
}

type candidateSet struct {
	pools []Pool
	seen  map[string]struct{}
}

func (c *candidateSet) has(p Pool) bool {
	_, ok := c.seen[PoolID(p)]
	return ok
}

func (c *candidateSet) add(pools ...Pool) {
	for _, p := range pools {
		id := PoolID(p)
		if _, ok := c.seen[id]; ok {
			continue
		}
		c.seen[id] = struct{}{}
		c.pools = append(c.pools, p)
	}
}

// SelectCandidatePools trims a pool list to the pools worth routing through.
// Rules run in a fixed order, later rules skip pools already selected, and
// every rule ranks by liquidity.
func SelectCandidatePools(pools []Pool, req CandidatePoolRequest, opts CandidatePoolOptions) []Pool {
	tokenIn, tokenOut := req.TokenIn.Wrapped(), req.TokenOut.Wrapped()
	sorted := sortByLiquidity(pools)
	set := &candidateSet{seen: make(map[string]struct{})}

	top := func(n int, keep func(Pool) bool) []Pool {
		var out []Pool
		for _, p := range sorted {
			if len(out) >= n {
				break
			}
			if !set.has(p) && keep(p) {
				out = append(out, p)
			}
		}
		return out
	}
	pairs := func(a, b *domain.Token) func(Pool) bool {
		return func(p Pool) bool { return p.InvolvesToken(a) && p.InvolvesToken(b) }
	}
	touches := func(t *domain.Token) func(Pool) bool {
		return func(p Pool) bool { return p.InvolvesToken(t) }
	}

	// token paired with each base token, then the best of those overall
	withBase := func(t *domain.Token) []Pool {
		var all []Pool
		for _, base := range req.BaseTokens {
			if base.Wrapped().Equals(t) {
				continue
			}
			all = append(all, top(opts.TopNWithEachBaseToken, pairs(t, base.Wrapped()))...)
		}
		all = sortByLiquidity(all)
		if len(all) > opts.TopNWithBaseToken {
			all = all[:opts.TopNWithBaseToken]
		}
		return all
	}
	set.add(withBase(tokenIn)...)
	set.add(withBase(tokenOut)...)

	set.add(top(opts.TopNDirectSwaps, pairs(tokenIn, tokenOut))...)

	if req.WrappedNative != nil && req.QuoteToken != nil {
		native, quote := req.WrappedNative.Wrapped(), req.QuoteToken.Wrapped()
		if !native.Equals(quote) {
			set.add(top(1, pairs(native, quote))...)
		}
	}

	set.add(top(opts.TopN, func(Pool) bool { return true })...)

	byIn := top(opts.TopNTokenInOut, touches(tokenIn))
	set.add(byIn...)
	byOut := top(opts.TopNTokenInOut, touches(tokenOut))
	set.add(byOut...)

	var second []Pool
	for _, p := range byIn {
		second = append(second, top(opts.TopNSecondHop, touches(otherToken(p, tokenIn)))...)
	}
	for _, p := range byOut {
		second = append(second, top(opts.TopNSecondHop, touches(otherToken(p, tokenOut)))...)
	}
	set.add(second...)

	return set.pools
}

// sortByLiquidity returns a copy of pools ordered by liquidity, most liquid first.
func sortByLiquidity(pools []Pool) []Pool {
	idx := make([]int, len(pools))
	scores := make([]decimal.Decimal, len(pools))
	for i, p := range pools {
		idx[i] = i
		scores[i] = liquidityScore(p)
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]].GreaterThan(scores[idx[b]])
	})
	out := make([]Pool, len(pools))
	for i, j := range idx {
		out[i] = pools[j]
	}
	return out
}
