package router

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hxuan190/amm-router/internal/domain"
	"github.com/hxuan190/amm-router/internal/metrics"
	"github.com/hxuan190/amm-router/internal/services/amm"
)

// hopCounter samples hop timings 1/128 calls.
var hopCounter atomic.Uint64

// GetAmountDistribution splits amount into the percent grid k*d for
// k = 1..100/d, each amount rounded down to a raw unit.
func GetAmountDistribution(amount domain.CurrencyAmount, distributionPercent int) ([]int, []domain.CurrencyAmount, error) {
	if distributionPercent <= 0 || distributionPercent > 100 || 100%distributionPercent != 0 {
		return nil, nil, fmt.Errorf("%w: distribution percent %d must divide 100", ErrInvalidPercents, distributionPercent)
	}
	n := 100 / distributionPercent
	percents := make([]int, n)
	amounts := make([]domain.CurrencyAmount, n)
	for k := 1; k <= n; k++ {
		p := k * distributionPercent
		share := amount.MulFraction(domain.NewFractionInt(int64(p), 100))
		percents[k-1] = p
		amounts[k-1] = domain.FromRawAmount(amount.Currency, share.Quotient())
	}
	return percents, amounts, nil
}

// QuoteRoutes prices every route at every amount of the distribution. A quote
// that runs out of liquidity is dropped; any other failure aborts. The result
// is ordered by route, then percent.
func QuoteRoutes(
	ctx context.Context,
	routes []*Route,
	amounts []domain.CurrencyAmount,
	percents []int,
	tradeType domain.TradeType,
	gasModel GasModel,
	workers int,
) ([]*RouteWithValidQuote, error) {
	if len(amounts) != len(percents) {
		return nil, fmt.Errorf("%w: %d amounts for %d percents", ErrInvalidPercents, len(amounts), len(percents))
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]*RouteWithValidQuote, len(routes)*len(percents))
	errs := make([]error, len(results))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

dispatch:
	for i, route := range routes {
		for j := range percents {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				break dispatch
			}
			wg.Add(1)
			go func(idx int, route *Route, percent int, amount domain.CurrencyAmount) {
				defer wg.Done()
				defer func() { <-sem }()
				results[idx], errs[idx] = quoteRoute(route, percent, amount, tradeType, gasModel)
			}(i*len(percents)+j, route, percents[j], amounts[j])
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchCancelled, err)
	}
	quotes := make([]*RouteWithValidQuote, 0, len(results))
	for i, q := range results {
		if errs[i] != nil {
			metrics.RouteQuotes.WithLabelValues("error").Inc()
			return nil, errs[i]
		}
		if q == nil {
			metrics.RouteQuotes.WithLabelValues("skipped").Inc()
			continue
		}
		metrics.RouteQuotes.WithLabelValues("ok").Inc()
		quotes = append(quotes, q)
	}
	return quotes, nil
}

// quoteRoute simulates one route. It returns nil without error when a pool
// on the route cannot fill the amount.
func quoteRoute(route *Route, percent int, amount domain.CurrencyAmount, tradeType domain.TradeType, gasModel GasModel) (*RouteWithValidQuote, error) {
	if amount.Quotient().Sign() <= 0 {
		return nil, nil
	}
	current := amount.Wrapped()
	ticks := 0
	for i := range route.Pools {
		pool := route.Pools[i]
		if tradeType == domain.ExactOutput {
			pool = route.Pools[len(route.Pools)-1-i]
		}
		next, crossed, err := timedHop(pool, current, tradeType)
		if err != nil {
			if amm.IsLiquidityError(err) {
				return nil, nil
			}
			return nil, fmt.Errorf("route %s: %w", route, err)
		}
		current = next
		ticks += crossed
	}
	return NewRouteWithValidQuote(RouteQuoteParams{
		Route:        route,
		Percent:      percent,
		Amount:       amount,
		RawQuote:     current.Quotient(),
		TradeType:    tradeType,
		TicksCrossed: ticks,
		GasModel:     gasModel,
	})
}

func timedHop(p Pool, amount domain.CurrencyAmount, tradeType domain.TradeType) (domain.CurrencyAmount, int, error) {
	sample := hopCounter.Add(1)&0x7F == 0
	var start time.Time
	if sample {
		start = time.Now()
	}
	out, crossed, err := simulateHop(p, amount, tradeType)
	if sample {
		metrics.HopDuration.WithLabelValues(p.Protocol().String()).Observe(time.Since(start).Seconds())
	}
	return out, crossed, err
}
