package router

import (
	"context"
	"fmt"
	"math/big"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hxuan190/amm-router/internal/config"
	"github.com/hxuan190/amm-router/internal/domain"
	"github.com/hxuan190/amm-router/internal/metrics"
)

// MaxSplitsCap bounds maxSplits. The search is exhaustive, so its cost grows
// with C(routes, splits).
const MaxSplitsCap = config.MaxSplitsCap

type OptimizerConfig struct {
	MinSplits int
	MaxSplits int

	// ForceCrossProtocol only accepts splits spanning at least two protocols.
	ForceCrossProtocol bool
	// ForceMixedRoutes only considers routes that mix protocols.
	ForceMixedRoutes bool

	Workers int

	// USDToken is the currency EstimatedGasUsedUSD is reported in. When nil
	// the USD currency of the first chosen route is used.
	USDToken *domain.Token
}

func (c OptimizerConfig) validate() error {
	if c.MinSplits < 1 || c.MinSplits > c.MaxSplits || c.MaxSplits > MaxSplitsCap {
		return fmt.Errorf("%w: need 1 <= min (%d) <= max (%d) <= %d", ErrInvalidSplits, c.MinSplits, c.MaxSplits, MaxSplitsCap)
	}
	return nil
}

// SwapRoute is the chosen split and its totals.
type SwapRoute struct {
	Quote                      domain.CurrencyAmount
	QuoteGasAdjusted           domain.CurrencyAmount
	EstimatedGasUsed           *big.Int
	EstimatedGasUsedUSD        domain.CurrencyAmount
	EstimatedGasUsedQuoteToken domain.CurrencyAmount
	Routes                     []*RouteWithValidQuote
}

func validatePercents(percents []int) error {
	if len(percents) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidPercents)
	}
	for i, p := range percents {
		if p <= 0 || p > 100 {
			return fmt.Errorf("%w: %d out of range", ErrInvalidPercents, p)
		}
		if i > 0 && p <= percents[i-1] {
			return fmt.Errorf("%w: not ascending at %d", ErrInvalidPercents, p)
		}
	}
	return nil
}

// routeGroup holds every quote of one route, keyed by percent.
type routeGroup struct {
	route  *Route
	pools  []string
	quotes map[int]*RouteWithValidQuote
	scores map[int]*big.Rat
	// percents with a quote, ascending
	available []int
}

func groupQuotes(quotes []*RouteWithValidQuote, percents []int, mixedOnly bool) []*routeGroup {
	onGrid := make(map[int]struct{}, len(percents))
	for _, p := range percents {
		onGrid[p] = struct{}{}
	}
	byKey := make(map[string]*routeGroup)
	var groups []*routeGroup
	for _, q := range quotes {
		if q == nil {
			continue
		}
		if _, ok := onGrid[q.Percent]; !ok {
			continue
		}
		if mixedOnly && q.Route.Protocol != ProtocolMixed {
			continue
		}
		key := q.Route.Key()
		g, ok := byKey[key]
		if !ok {
			g = &routeGroup{
				route:  q.Route,
				pools:  q.Route.PoolIDs(),
				quotes: make(map[int]*RouteWithValidQuote),
				scores: make(map[int]*big.Rat),
			}
			byKey[key] = g
			groups = append(groups, g)
		}
		if _, dup := g.quotes[q.Percent]; dup {
			continue
		}
		g.quotes[q.Percent] = q
		g.scores[q.Percent] = new(big.Rat).SetFrac(q.QuoteAdjustedForGas.Numerator(), q.QuoteAdjustedForGas.Denominator())
	}
	for _, g := range groups {
		for _, p := range percents {
			if _, ok := g.quotes[p]; ok {
				g.available = append(g.available, p)
			}
		}
	}
	return groups
}

// candidate is a complete assignment of percents to a subset of routes.
type candidate struct {
	score  *big.Rat
	picks  []*RouteWithValidQuote
	splits int
	// seq is the position of the subset in enumeration order
	seq int
}

// better reports whether a beats b: higher score for exact input, lower for
// exact output, then fewer splits, then earlier enumeration.
func better(a, b *candidate, tradeType domain.TradeType) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	c := a.score.Cmp(b.score)
	if tradeType == domain.ExactOutput {
		c = -c
	}
	if c != 0 {
		return c > 0
	}
	if a.splits != b.splits {
		return a.splits < b.splits
	}
	return a.seq < b.seq
}

// GetBestSwapRoute finds the split of amount across routes that is best after
// gas: percents on the chosen routes sum to exactly 100, no two chosen routes
// share a pool, and between MinSplits and MaxSplits routes are used. A nil
// SwapRoute with a nil error means no split satisfies the constraints.
func GetBestSwapRoute(
	ctx context.Context,
	amount domain.CurrencyAmount,
	percents []int,
	routesWithQuotes []*RouteWithValidQuote,
	tradeType domain.TradeType,
	cfg OptimizerConfig,
) (*SwapRoute, error) {
	if err := validatePercents(percents); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() {
		metrics.RouteDuration.WithLabelValues("optimize").Observe(time.Since(start).Seconds())
	}()

	groups := groupQuotes(routesWithQuotes, percents, cfg.ForceMixedRoutes)
	s := &splitSearch{
		ctx:       ctx,
		groups:    groups,
		tradeType: tradeType,
		cfg:       cfg,
	}
	best, err := s.run()
	metrics.CandidatesEvaluated.Add(float64(s.evaluated.Load()))
	if err != nil {
		return nil, err
	}
	if best == nil {
		log.Debug().Int("routes", len(groups)).Msg("no split satisfies the constraints")
		return nil, nil
	}

	swap := buildSwapRoute(amount, best, cfg.USDToken)
	metrics.SplitCount.Observe(float64(len(swap.Routes)))
	log.Info().
		Int("numSplits", len(swap.Routes)).
		Str("quote", swap.Quote.ToExact()).
		Str("quoteGasAdjusted", swap.QuoteGasAdjusted.ToFixed(0)).
		Str("estimatedGasUSD", swap.EstimatedGasUsedUSD.ToFixed(2)).
		Msg("found best swap route")
	return swap, nil
}

type splitSearch struct {
	ctx       context.Context
	groups    []*routeGroup
	tradeType domain.TradeType
	cfg       OptimizerConfig

	mu        sync.Mutex
	best      *candidate
	evaluated atomic.Int64
}

func (s *splitSearch) offer(c *candidate) {
	s.mu.Lock()
	if better(c, s.best, s.tradeType) {
		s.best = c
	}
	s.mu.Unlock()
}

// run enumerates pool-disjoint subsets in a fixed order and scores each on a
// bounded set of goroutines.
func (s *splitSearch) run() (*candidate, error) {
	workers := s.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	maxSplits := s.cfg.MaxSplits
	if maxSplits > len(s.groups) {
		maxSplits = len(s.groups)
	}
	usedPools := make(map[string]int)
	chosen := make([]int, 0, maxSplits)
	seq := 0
	stopped := false

	var choose func(from, k int)
	choose = func(from, k int) {
		if stopped {
			return
		}
		if len(chosen) == k {
			if !s.protocolsAllowed(chosen) {
				return
			}
			members := make([]*routeGroup, k)
			for i, idx := range chosen {
				members[i] = s.groups[idx]
			}
			select {
			case sem <- struct{}{}:
			case <-s.ctx.Done():
				stopped = true
				return
			}
			wg.Add(1)
			go func(members []*routeGroup, seq int) {
				defer wg.Done()
				defer func() { <-sem }()
				s.offer(s.bestAssignment(members, seq))
			}(members, seq)
			seq++
			return
		}
		for i := from; i <= len(s.groups)-(k-len(chosen)); i++ {
			g := s.groups[i]
			if sharesPool(usedPools, g.pools) {
				continue
			}
			for _, id := range g.pools {
				usedPools[id]++
			}
			chosen = append(chosen, i)
			choose(i+1, k)
			chosen = chosen[:len(chosen)-1]
			for _, id := range g.pools {
				if usedPools[id]--; usedPools[id] == 0 {
					delete(usedPools, id)
				}
			}
		}
	}

	for k := s.cfg.MinSplits; k <= maxSplits && !stopped; k++ {
		log.Debug().Int("splits", k).Int("routes", len(s.groups)).Msg("searching splits")
		choose(0, k)
	}
	wg.Wait()

	if err := s.ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchCancelled, err)
	}
	return s.best, nil
}

func sharesPool(used map[string]int, pools []string) bool {
	for _, id := range pools {
		if used[id] > 0 {
			return true
		}
	}
	return false
}

func (s *splitSearch) protocolsAllowed(chosen []int) bool {
	if !s.cfg.ForceCrossProtocol {
		return true
	}
	if len(chosen) < 2 {
		return false
	}
	first := s.groups[chosen[0]].route.Protocol
	for _, idx := range chosen[1:] {
		if s.groups[idx].route.Protocol != first {
			return true
		}
	}
	return false
}

// bestAssignment tries every way of giving each member a grid percent so the
// percents sum to 100, keeping the first best.
func (s *splitSearch) bestAssignment(members []*routeGroup, seq int) *candidate {
	k := len(members)
	partial := make([]*big.Rat, k+1)
	for i := range partial {
		partial[i] = new(big.Rat)
	}
	picks := make([]int, k)
	var (
		best      *candidate
		evaluated int64
	)

	var assign func(i, remaining int)
	assign = func(i, remaining int) {
		g := members[i]
		if i == k-1 {
			score, ok := g.scores[remaining]
			if !ok {
				return
			}
			picks[i] = remaining
			partial[k].Add(partial[i], score)
			evaluated++
			if best == nil || s.scoreBetter(partial[k], best.score) {
				best = s.snapshot(members, picks, partial[k], seq)
			}
			return
		}
		// leave at least the smallest grid step for each later member
		for _, p := range g.available {
			if p >= remaining {
				break
			}
			picks[i] = p
			partial[i+1].Add(partial[i], g.scores[p])
			assign(i+1, remaining-p)
		}
	}
	assign(0, 100)
	s.evaluated.Add(evaluated)
	return best
}

func (s *splitSearch) scoreBetter(a, b *big.Rat) bool {
	if s.tradeType == domain.ExactOutput {
		return a.Cmp(b) < 0
	}
	return a.Cmp(b) > 0
}

func (s *splitSearch) snapshot(members []*routeGroup, picks []int, score *big.Rat, seq int) *candidate {
	c := &candidate{
		score:  new(big.Rat).Set(score),
		picks:  make([]*RouteWithValidQuote, len(members)),
		splits: len(members),
		seq:    seq,
	}
	for i, g := range members {
		c.picks[i] = g.quotes[picks[i]]
	}
	return c
}

func buildSwapRoute(amount domain.CurrencyAmount, best *candidate, usdToken *domain.Token) *SwapRoute {
	routes := make([]*RouteWithValidQuote, len(best.picks))
	for i, q := range best.picks {
		copied := *q
		routes[i] = &copied
	}
	sort.SliceStable(routes, func(i, j int) bool {
		return routes[i].Amount.GreaterThan(routes[j].Amount)
	})

	quoteToken := routes[0].QuoteToken
	if usdToken == nil {
		usdToken = routes[0].GasCostInUSD.Currency
	}
	swap := &SwapRoute{
		Quote:                      domain.FromRawInt(quoteToken, 0),
		QuoteGasAdjusted:           domain.FromRawInt(quoteToken, 0),
		EstimatedGasUsed:           new(big.Int),
		EstimatedGasUsedUSD:        domain.FromRawInt(usdToken, 0),
		EstimatedGasUsedQuoteToken: domain.FromRawInt(quoteToken, 0),
		Routes:                     routes,
	}
	total := domain.FromRawInt(amount.Currency, 0)
	for _, r := range routes {
		swap.Quote = swap.Quote.Add(r.Quote)
		swap.QuoteGasAdjusted = swap.QuoteGasAdjusted.Add(r.QuoteAdjustedForGas)
		swap.EstimatedGasUsed.Add(swap.EstimatedGasUsed, r.GasEstimate)
		swap.EstimatedGasUsedQuoteToken = swap.EstimatedGasUsedQuoteToken.Add(r.GasCostInToken)
		swap.EstimatedGasUsedUSD = swap.EstimatedGasUsedUSD.Add(normalizeUSD(r.GasCostInUSD, usdToken))
		total = total.Add(domain.CurrencyAmount{Fraction: r.Amount.Fraction, Currency: amount.Currency})
	}

	// percents are floored, so the routes can fall a few raw units short
	if missing := amount.Sub(total); missing.Sign() > 0 {
		last := routes[len(routes)-1]
		log.Info().
			Str("missing", missing.ToExact()).
			Int("percent", last.Percent).
			Msg("adding rounding shortfall to last route")
		last.Amount = last.Amount.Add(domain.CurrencyAmount{Fraction: missing.Fraction, Currency: last.Amount.Currency})
	}
	return swap
}

// normalizeUSD re-expresses a USD amount in another USD token by decimal
// scaling. Stablecoins are treated as 1:1.
func normalizeUSD(a domain.CurrencyAmount, to *domain.Token) domain.CurrencyAmount {
	from := int(a.Currency.Decimals)
	diff := int(to.Decimals) - from
	f := a.Fraction
	switch {
	case diff > 0:
		f = f.MulInt(pow10(diff))
	case diff < 0:
		f = f.Div(domain.NewFraction(pow10(-diff), big.NewInt(1)))
	}
	return domain.CurrencyAmount{Fraction: f, Currency: to}
}
