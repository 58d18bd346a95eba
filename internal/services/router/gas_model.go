package router

import (
	"math/big"

	"github.com/hxuan190/amm-router/internal/domain"
)

// GasCost is what executing a route is expected to cost.
type GasCost struct {
	GasEstimate    *big.Int
	GasCostInToken domain.CurrencyAmount
	GasCostInUSD   domain.CurrencyAmount
}

// GasModel prices the gas of a quoted route. GasCostInToken must be in the
// route's quote token.
type GasModel interface {
	EstimateGasCost(r *RouteWithValidQuote) GasCost
}

type GasModelFunc func(r *RouteWithValidQuote) GasCost

func (f GasModelFunc) EstimateGasCost(r *RouteWithValidQuote) GasCost { return f(r) }

// GasParams are the per-protocol gas use constants.
type GasParams struct {
	GasPrice *big.Int // wei per gas unit

	V2BaseCost        int64
	V2CostPerExtraHop int64

	V3BaseCost          int64
	V3CostPerHop        int64
	V3SingleHopOverhead int64
	V3CostPerInitTick   int64
}

func DefaultGasParams() GasParams {
	return GasParams{
		GasPrice:            big.NewInt(20_000_000_000),
		V2BaseCost:          135000,
		V2CostPerExtraHop:   50000,
		V3BaseCost:          2000,
		V3CostPerHop:        80000,
		V3SingleHopOverhead: 15000,
		V3CostPerInitTick:   31000,
	}
}

// HeuristicGasModel estimates gas use from the route shape and converts the
// cost through the most liquid wrapped-native pools it was given.
type HeuristicGasModel struct {
	params        GasParams
	wrappedNative *domain.Token
	quoteToken    *domain.Token
	usdToken      *domain.Token

	nativeQuotePool Pool
	nativeUSDPool   Pool
}

// NewHeuristicGasModel picks the conversion pools from pools. The USD token is
// whichever of usdTokens has the most liquid pool against wrappedNative; the
// first one when none has a pool.
func NewHeuristicGasModel(params GasParams, wrappedNative, quoteToken *domain.Token, usdTokens []*domain.Token, pools []Pool) (*HeuristicGasModel, error) {
	if len(usdTokens) == 0 {
		return nil, ErrNoGasToken
	}
	if params.GasPrice == nil {
		params.GasPrice = new(big.Int)
	}
	m := &HeuristicGasModel{
		params:        params,
		wrappedNative: wrappedNative.Wrapped(),
		quoteToken:    quoteToken.Wrapped(),
		usdToken:      usdTokens[0],
	}
	if !m.quoteToken.Equals(m.wrappedNative) {
		m.nativeQuotePool = mostLiquidPool(pools, m.wrappedNative, m.quoteToken)
	}
	for _, usd := range usdTokens {
		if usd.Equals(m.wrappedNative) {
			continue
		}
		p := mostLiquidPool(pools, m.wrappedNative, usd)
		if p == nil {
			continue
		}
		if m.nativeUSDPool == nil || liquidityScore(p).GreaterThan(liquidityScore(m.nativeUSDPool)) {
			m.nativeUSDPool = p
			m.usdToken = usd
		}
	}
	return m, nil
}

func mostLiquidPool(pools []Pool, a, b *domain.Token) Pool {
	var best Pool
	for _, p := range pools {
		if !p.InvolvesToken(a) || !p.InvolvesToken(b) {
			continue
		}
		if best == nil || liquidityScore(p).GreaterThan(liquidityScore(best)) {
			best = p
		}
	}
	return best
}

// GasUse is the gas units a route is expected to consume.
func (m *HeuristicGasModel) GasUse(r *RouteWithValidQuote) *big.Int {
	hops := int64(r.Route.Hops())
	if r.Route.Protocol == ProtocolV2 {
		return big.NewInt(m.params.V2BaseCost + m.params.V2CostPerExtraHop*(hops-1))
	}
	gas := m.params.V3BaseCost + m.params.V3CostPerHop*hops
	if hops == 1 {
		gas += m.params.V3SingleHopOverhead
	}
	ticks := int64(r.TicksCrossed)
	if ticks < 1 {
		ticks = 1
	}
	return big.NewInt(gas + m.params.V3CostPerInitTick*ticks)
}

func (m *HeuristicGasModel) EstimateGasCost(r *RouteWithValidQuote) GasCost {
	gasUse := m.GasUse(r)
	native := domain.FromRawAmount(m.wrappedNative, new(big.Int).Mul(gasUse, m.params.GasPrice))
	return GasCost{
		GasEstimate:    gasUse,
		GasCostInToken: m.convert(native, m.quoteToken, m.nativeQuotePool),
		GasCostInUSD:   m.convert(native, m.usdToken, m.nativeUSDPool),
	}
}

func (m *HeuristicGasModel) convert(native domain.CurrencyAmount, to *domain.Token, pool Pool) domain.CurrencyAmount {
	if to.Equals(m.wrappedNative) {
		return domain.CurrencyAmount{Fraction: native.Fraction, Currency: to}
	}
	zero := domain.FromRawInt(to, 0)
	if pool == nil {
		return zero
	}
	price, err := pool.PriceOf(m.wrappedNative)
	if err != nil {
		return zero
	}
	out, err := price.QuoteAmount(native)
	if err != nil {
		return zero
	}
	return domain.CurrencyAmount{Fraction: out.Fraction, Currency: to}
}
