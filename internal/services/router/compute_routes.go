package router

import (
	"github.com/hxuan190/amm-router/internal/domain"
	"github.com/hxuan190/amm-router/internal/services/amm"
)

// ComputeAllRoutes enumerates every simple path of at most maxHops pools from
// tokenIn to tokenOut. No pool is used twice and no token is revisited. It
// only looks at topology; nothing is priced.
func ComputeAllRoutes(tokenIn, tokenOut *domain.Token, pools []Pool, maxHops int) ([]*Route, error) {
	if maxHops <= 0 {
		return nil, amm.ErrInvalidMaxHops
	}
	in, out := tokenIn.Wrapped(), tokenOut.Wrapped()
	if in.Equals(out) {
		return nil, nil
	}

	e := &enumerator{
		pools:    pools,
		tokenIn:  tokenIn,
		tokenOut: tokenOut,
		target:   out,
		maxHops:  maxHops,
		used:     make([]bool, len(pools)),
		visited:  map[string]struct{}{in.Key(): {}},
		current:  make([]Pool, 0, maxHops),
	}
	e.walk(in)
	return e.routes, e.err
}

type enumerator struct {
	pools    []Pool
	tokenIn  *domain.Token
	tokenOut *domain.Token
	target   *domain.Token
	maxHops  int

	used    []bool
	visited map[string]struct{}
	current []Pool

	routes []*Route
	err    error
}

func (e *enumerator) walk(from *domain.Token) {
	if e.err != nil || len(e.current) == e.maxHops {
		return
	}
	for i, p := range e.pools {
		if e.used[i] || !p.InvolvesToken(from) {
			continue
		}
		next := otherToken(p, from)
		if next.Equals(e.target) {
			e.emit(append(e.current, p))
			continue
		}
		key := next.Key()
		if _, seen := e.visited[key]; seen {
			continue
		}

		e.used[i] = true
		e.visited[key] = struct{}{}
		e.current = append(e.current, p)
		e.walk(next)
		e.current = e.current[:len(e.current)-1]
		delete(e.visited, key)
		e.used[i] = false
	}
}

func (e *enumerator) emit(pools []Pool) {
	if e.err != nil {
		return
	}
	route, err := NewRoute(append([]Pool(nil), pools...), e.tokenIn, e.tokenOut)
	if err != nil {
		e.err = err
		return
	}
	e.routes = append(e.routes, route)
}
