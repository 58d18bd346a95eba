package amm

import (
	"slices"

	"github.com/hxuan190/amm-router/internal/domain"
)

type BestTradeOptions struct {
	MaxNumResults int
	MaxHops       int
}

// DefaultBestTradeOptions keeps the three best trades of at most three hops.
func DefaultBestTradeOptions() BestTradeOptions {
	return BestTradeOptions{MaxNumResults: 3, MaxHops: 3}
}

func (o BestTradeOptions) validate() error {
	if o.MaxHops <= 0 {
		return ErrInvalidMaxHops
	}
	if o.MaxNumResults <= 0 {
		return ErrInvalidMaxResults
	}
	return nil
}

// BestTradeExactIn returns up to MaxNumResults trades spending amountIn for
// tokenOut, best first. Every path uses each pair at most once.
func BestTradeExactIn(pairs []*Pair, amountIn domain.CurrencyAmount, tokenOut *domain.Token, opts BestTradeOptions) ([]*Trade, error) {
	if len(pairs) == 0 {
		return nil, ErrEmptyPairList
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	var best []*Trade
	err := bestTradeExactIn(pairs, amountIn, tokenOut, opts.MaxNumResults, opts.MaxHops, nil, amountIn, &best)
	if err != nil {
		return nil, err
	}
	return best, nil
}

func bestTradeExactIn(
	pairs []*Pair,
	amountIn domain.CurrencyAmount,
	tokenOut *domain.Token,
	maxResults, maxHops int,
	current []*Pair,
	nextAmountIn domain.CurrencyAmount,
	best *[]*Trade,
) error {
	in := nextAmountIn.Wrapped()
	target := tokenOut.Wrapped()

	for i, pair := range pairs {
		if !pair.InvolvesToken(in.Currency) || pair.hasEmptyReserve() {
			continue
		}
		out, _, err := pair.GetOutputAmount(in, true)
		if err != nil {
			if IsLiquidityError(err) {
				continue
			}
			return err
		}

		hops := append(slices.Clone(current), pair)
		if out.Currency.Equals(target) {
			route, err := NewRoute(hops, amountIn.Currency, tokenOut)
			if err != nil {
				return err
			}
			trade, err := ExactIn(route, amountIn)
			if err != nil {
				return err
			}
			*best, _, _ = SortedInsert(*best, trade, maxResults, TradeComparator)
		} else if maxHops > 1 && len(pairs) > 1 {
			rest := slices.Concat(pairs[:i], pairs[i+1:])
			if err := bestTradeExactIn(rest, amountIn, tokenOut, maxResults, maxHops-1, hops, out, best); err != nil {
				return err
			}
		}
	}
	return nil
}

// BestTradeExactOut returns up to MaxNumResults trades buying amountOut with
// tokenIn, cheapest first. The search walks backwards from the output.
func BestTradeExactOut(pairs []*Pair, tokenIn *domain.Token, amountOut domain.CurrencyAmount, opts BestTradeOptions) ([]*Trade, error) {
	if len(pairs) == 0 {
		return nil, ErrEmptyPairList
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	var best []*Trade
	err := bestTradeExactOut(pairs, tokenIn, amountOut, opts.MaxNumResults, opts.MaxHops, nil, amountOut, &best)
	if err != nil {
		return nil, err
	}
	return best, nil
}

func bestTradeExactOut(
	pairs []*Pair,
	tokenIn *domain.Token,
	amountOut domain.CurrencyAmount,
	maxResults, maxHops int,
	current []*Pair,
	nextAmountOut domain.CurrencyAmount,
	best *[]*Trade,
) error {
	out := nextAmountOut.Wrapped()
	target := tokenIn.Wrapped()

	for i, pair := range pairs {
		if !pair.InvolvesToken(out.Currency) || pair.hasEmptyReserve() {
			continue
		}
		in, _, err := pair.GetInputAmount(out, true)
		if err != nil {
			if IsLiquidityError(err) {
				continue
			}
			return err
		}

		hops := append([]*Pair{pair}, current...)
		if in.Currency.Equals(target) {
			route, err := NewRoute(hops, tokenIn, amountOut.Currency)
			if err != nil {
				return err
			}
			trade, err := ExactOut(route, amountOut)
			if err != nil {
				return err
			}
			*best, _, _ = SortedInsert(*best, trade, maxResults, TradeComparator)
		} else if maxHops > 1 && len(pairs) > 1 {
			rest := slices.Concat(pairs[:i], pairs[i+1:])
			if err := bestTradeExactOut(rest, tokenIn, amountOut, maxResults, maxHops-1, hops, in, best); err != nil {
				return err
			}
		}
	}
	return nil
}
