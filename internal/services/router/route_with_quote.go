package router

import (
	"fmt"
	"math/big"

	"github.com/hxuan190/amm-router/internal/domain"
)

// RouteWithValidQuote is one route priced at one percent of the trade.
type RouteWithValidQuote struct {
	Route        *Route
	Percent      int
	Amount       domain.CurrencyAmount
	RawQuote     *big.Int
	Quote        domain.CurrencyAmount
	TradeType    domain.TradeType
	QuoteToken   *domain.Token
	TicksCrossed int

	GasEstimate         *big.Int
	GasCostInToken      domain.CurrencyAmount
	GasCostInUSD        domain.CurrencyAmount
	QuoteAdjustedForGas domain.CurrencyAmount
}

type RouteQuoteParams struct {
	Route        *Route
	Percent      int
	Amount       domain.CurrencyAmount
	RawQuote     *big.Int
	TradeType    domain.TradeType
	TicksCrossed int
	GasModel     GasModel
}

// NewRouteWithValidQuote prices gas for the quote. The quote token is the
// route output for exact input and the route input for exact output.
func NewRouteWithValidQuote(p RouteQuoteParams) (*RouteWithValidQuote, error) {
	quoteToken := p.Route.Output.Wrapped()
	if p.TradeType == domain.ExactOutput {
		quoteToken = p.Route.Input.Wrapped()
	}
	r := &RouteWithValidQuote{
		Route:        p.Route,
		Percent:      p.Percent,
		Amount:       p.Amount,
		RawQuote:     new(big.Int).Set(p.RawQuote),
		Quote:        domain.FromRawAmount(quoteToken, p.RawQuote),
		TradeType:    p.TradeType,
		QuoteToken:   quoteToken,
		TicksCrossed: p.TicksCrossed,
	}

	cost := p.GasModel.EstimateGasCost(r)
	if cost.GasCostInToken.Currency == nil || !cost.GasCostInToken.Currency.Equals(quoteToken) {
		return nil, fmt.Errorf("%w: gas cost in %s, quote in %s", domain.ErrCurrencyMismatch, cost.GasCostInToken.Currency, quoteToken)
	}
	if cost.GasCostInUSD.Currency == nil {
		return nil, ErrNoGasToken
	}
	r.GasEstimate = cost.GasEstimate
	if r.GasEstimate == nil {
		r.GasEstimate = new(big.Int)
	}
	r.GasCostInToken = domain.CurrencyAmount{Fraction: cost.GasCostInToken.Fraction, Currency: quoteToken}
	r.GasCostInUSD = cost.GasCostInUSD

	if p.TradeType == domain.ExactInput {
		r.QuoteAdjustedForGas = r.Quote.Sub(r.GasCostInToken)
	} else {
		r.QuoteAdjustedForGas = r.Quote.Add(r.GasCostInToken)
	}
	return r, nil
}

func (r *RouteWithValidQuote) PoolIDs() []string { return r.Route.PoolIDs() }

func (r *RouteWithValidQuote) TokenPath() []*domain.Token { return r.Route.Path }

func (r *RouteWithValidQuote) String() string {
	return fmt.Sprintf("%d%% %s = %s", r.Percent, r.Route, r.Quote.ToExact())
}
