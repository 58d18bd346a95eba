package router

import (
	"fmt"
	"strings"

	"github.com/hxuan190/amm-router/internal/domain"
	"github.com/hxuan190/amm-router/internal/services/amm"
)

// Route is a connected path of pools from Input to Output, possibly across
// protocols.
type Route struct {
	Pools    []Pool
	Path     []*domain.Token
	Input    *domain.Token
	Output   *domain.Token
	Protocol Protocol

	ids []string
}

func NewRoute(pools []Pool, input, output *domain.Token) (*Route, error) {
	if len(pools) == 0 {
		return nil, amm.ErrEmptyPairList
	}
	chainID := pools[0].ChainID()
	protocol := pools[0].Protocol()
	for _, p := range pools[1:] {
		if p.ChainID() != chainID {
			return nil, fmt.Errorf("%w: pool on chain %d, route on %d", amm.ErrChainMismatch, p.ChainID(), chainID)
		}
		if p.Protocol() != protocol {
			protocol = ProtocolMixed
		}
	}

	path := make([]*domain.Token, 0, len(pools)+1)
	path = append(path, input.Wrapped())
	for i, p := range pools {
		current := path[i]
		if !p.InvolvesToken(current) {
			return nil, fmt.Errorf("%w: hop %d does not involve %s", amm.ErrDisconnectedPath, i, current)
		}
		path = append(path, otherToken(p, current))
	}
	if !path[len(path)-1].Equals(output.Wrapped()) {
		return nil, fmt.Errorf("%w: path ends at %s, not %s", amm.ErrDisconnectedPath, path[len(path)-1], output)
	}

	ids := make([]string, len(pools))
	for i, p := range pools {
		ids[i] = PoolID(p)
	}
	return &Route{
		Pools:    pools,
		Path:     path,
		Input:    input,
		Output:   output,
		Protocol: protocol,
		ids:      ids,
	}, nil
}

// PoolIDs returns the protocol-qualified pool identities in hop order.
func (r *Route) PoolIDs() []string {
	return append([]string(nil), r.ids...)
}

// Key identifies the route by its full pool sequence.
func (r *Route) Key() string {
	return strings.Join(r.ids, ">")
}

func (r *Route) Hops() int { return len(r.Pools) }

// MidPrice is the product of the pool spot prices along the path.
func (r *Route) MidPrice() (domain.Price, error) {
	var mid domain.Price
	for i, p := range r.Pools {
		price, err := p.PriceOf(r.Path[i])
		if err != nil {
			return domain.Price{}, err
		}
		if i == 0 {
			mid = price
			continue
		}
		if mid, err = mid.Multiply(price); err != nil {
			return domain.Price{}, err
		}
	}
	return domain.NewPrice(r.Input, r.Output, mid.Denominator(), mid.Numerator()), nil
}

func (r *Route) String() string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(r.Protocol.String())
	b.WriteString("] ")
	for i, t := range r.Path {
		if i > 0 {
			b.WriteString(" -> ")
		}
		b.WriteString(t.String())
	}
	return b.String()
}
