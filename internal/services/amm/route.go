package amm

import (
	"fmt"

	"github.com/hxuan190/amm-router/internal/domain"
)

// Route is a connected chain of pairs from Input to Output.
type Route struct {
	Pairs  []*Pair
	Path   []*domain.Token
	Input  *domain.Token
	Output *domain.Token
}

func NewRoute(pairs []*Pair, input, output *domain.Token) (*Route, error) {
	if len(pairs) == 0 {
		return nil, ErrEmptyPairList
	}
	chainID := pairs[0].ChainID()
	for _, p := range pairs[1:] {
		if p.ChainID() != chainID {
			return nil, fmt.Errorf("%w: pair on chain %d, route on %d", ErrChainMismatch, p.ChainID(), chainID)
		}
	}

	wrappedIn := input.Wrapped()
	if !pairs[0].InvolvesToken(wrappedIn) {
		return nil, fmt.Errorf("%w: first pair does not involve %s", ErrDisconnectedPath, input)
	}
	if !pairs[len(pairs)-1].InvolvesToken(output.Wrapped()) {
		return nil, fmt.Errorf("%w: last pair does not involve %s", ErrDisconnectedPath, output)
	}

	path := make([]*domain.Token, 0, len(pairs)+1)
	path = append(path, wrappedIn)
	for i, p := range pairs {
		current := path[i]
		var next *domain.Token
		switch {
		case current.Equals(p.Token0()):
			next = p.Token1()
		case current.Equals(p.Token1()):
			next = p.Token0()
		default:
			return nil, fmt.Errorf("%w: hop %d does not involve %s", ErrDisconnectedPath, i, current)
		}
		path = append(path, next)
	}
	if !path[len(path)-1].Equals(output.Wrapped()) {
		return nil, fmt.Errorf("%w: path ends at %s, not %s", ErrDisconnectedPath, path[len(path)-1], output)
	}

	return &Route{Pairs: pairs, Path: path, Input: input, Output: output}, nil
}

func (r *Route) ChainID() uint64 { return r.Pairs[0].ChainID() }

// MidPrice is the product of the spot prices along the path, before any trade.
func (r *Route) MidPrice() (domain.Price, error) {
	prices := make([]domain.Price, len(r.Pairs))
	for i, p := range r.Pairs {
		if r.Path[i].Equals(p.Token0()) {
			prices[i] = p.Token0Price()
		} else {
			prices[i] = p.Token1Price()
		}
	}
	mid := prices[0]
	for _, next := range prices[1:] {
		var err error
		if mid, err = mid.Multiply(next); err != nil {
			return domain.Price{}, err
		}
	}
	return domain.NewPrice(r.Input, r.Output, mid.Denominator(), mid.Numerator()), nil
}
