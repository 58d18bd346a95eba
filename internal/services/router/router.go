package router

import (
	"context"
	"fmt"
	"time"

	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/amm-router/internal/config"
	"github.com/hxuan190/amm-router/internal/domain"
	"github.com/hxuan190/amm-router/internal/metrics"
	"github.com/hxuan190/amm-router/internal/services"
	"github.com/hxuan190/amm-router/internal/services/amm"
)

const ROUTER_SERVICE = "router-service"

// PoolSource supplies the pool snapshot for one routing call.
type PoolSource interface {
	GetPools(ctx context.Context) ([]Pool, error)
}

// StaticPools is a fixed snapshot.
type StaticPools []Pool

func (s StaticPools) GetPools(context.Context) ([]Pool, error) { return s, nil }

// RouteOverrides replace router config values for one request. Zero keeps
// the configured value.
type RouteOverrides struct {
	MaxHops             int
	MinSplits           int
	MaxSplits           int
	DistributionPercent int
}

type RouteRequest struct {
	TokenIn   *domain.Token
	TokenOut  *domain.Token
	Amount    domain.CurrencyAmount
	TradeType domain.TradeType
	Pools     PoolSource

	SlippageBps int64
	Overrides   RouteOverrides
}

type RouteResult struct {
	Found     bool
	SwapRoute *SwapRoute

	PriceImpact    domain.Percent
	PriceImpactBps uint16
	Severity       PriceImpactSeverity
	Warning        string

	// Threshold is the minimum output for exact input, or the maximum input
	// for exact output, once slippage is allowed for.
	Threshold domain.CurrencyAmount

	CandidatePools   int
	RoutesConsidered int
	QuotesComputed   int
}

type BestTradeRequest struct {
	TokenIn       *domain.Token
	TokenOut      *domain.Token
	Amount        domain.CurrencyAmount
	TradeType     domain.TradeType
	Pools         PoolSource
	MaxHops       int
	MaxNumResults int
}

type Service struct {
	container.BaseDIInstance
	logger *services.ServiceLogger

	cfg     *config.RouterConfig
	gas     *config.GasConfig
	chain   *config.ChainConfig
	factory amm.Factory
}

// NewService builds a router outside the container.
func NewService(cfg *config.RouterConfig, gas *config.GasConfig, chain *config.ChainConfig) *Service {
	svc := &Service{}
	svc.logger = services.NewServiceLogger(svc)
	svc.setConfig(cfg, gas, chain)
	return svc
}

func (svc *Service) ID() string {
	return ROUTER_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	svc.logger = services.NewServiceLogger(svc)
	svc.setConfig(
		c.GetConfig(config.ROUTER_CONFIG_KEY).(*config.RouterConfig),
		c.GetConfig(config.GAS_CONFIG_KEY).(*config.GasConfig),
		c.GetConfig(config.CHAIN_CONFIG_KEY).(*config.ChainConfig),
	)
	return nil
}

func (svc *Service) setConfig(cfg *config.RouterConfig, gas *config.GasConfig, chain *config.ChainConfig) {
	svc.cfg = cfg
	svc.gas = gas
	svc.chain = chain
	svc.factory = amm.Factory{Address: chain.V2Factory, InitCodeHash: chain.V2InitCodeHash}
}

func (svc *Service) Start() error {
	svc.logger.Info().
		Uint64("chainId", svc.chain.ChainID).
		Int("maxHops", svc.cfg.MaxHops).
		Int("maxSplits", svc.cfg.MaxSplits).
		Int("distributionPercent", svc.cfg.DistributionPercent).
		Msg("router ready")
	return nil
}

func (svc *Service) Stop() error {
	return nil
}

func (svc *Service) Chain() *config.ChainConfig { return svc.chain }

func (svc *Service) Config() *config.RouterConfig { return svc.cfg }

// Factory is the V2 factory pairs are deployed from on the configured chain.
func (svc *Service) Factory() amm.Factory { return svc.factory }

// PairAddress is the deterministic V2 pair address on the configured chain.
func (svc *Service) PairAddress(a, b *domain.Token) (string, error) {
	addr, err := amm.ComputePairAddress(svc.factory, a, b)
	if err != nil {
		return "", err
	}
	return addr.Hex(), nil
}

func (svc *Service) gasParams() GasParams {
	return GasParams{
		GasPrice:            svc.gas.GasPrice,
		V2BaseCost:          svc.gas.V2BaseCost,
		V2CostPerExtraHop:   svc.gas.V2CostPerExtraHop,
		V3BaseCost:          svc.gas.V3BaseCost,
		V3CostPerHop:        svc.gas.V3CostPerHop,
		V3SingleHopOverhead: svc.gas.V3SingleHopOverhead,
		V3CostPerInitTick:   svc.gas.V3CostPerInitTick,
	}
}

func override(v, fallback int) int {
	if v != 0 {
		return v
	}
	return fallback
}

func validateRequest(tokenIn, tokenOut *domain.Token, amount domain.CurrencyAmount, tradeType domain.TradeType, pools PoolSource) error {
	if tokenIn == nil || tokenOut == nil || pools == nil || amount.Currency == nil {
		return fmt.Errorf("%w: tokens, amount and pools are required", ErrInvalidRequest)
	}
	if tokenIn.Wrapped().Equals(tokenOut.Wrapped()) {
		return fmt.Errorf("%w: token in and out are the same", ErrInvalidRequest)
	}
	want := tokenIn
	if tradeType == domain.ExactOutput {
		want = tokenOut
	}
	if !amount.Currency.Equals(want) {
		return fmt.Errorf("%w: amount in %s, expected %s", ErrInvalidRequest, amount.Currency, want)
	}
	if amount.Quotient().Sign() <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidRequest)
	}
	return amount.Validate()
}

// Route finds the best gas-adjusted split for the request. A request no pool
// combination can fill returns Found=false and no error.
func (svc *Service) Route(ctx context.Context, req RouteRequest) (result *RouteResult, err error) {
	started := time.Now()
	defer func() {
		status := "ok"
		switch {
		case err != nil:
			status = "error"
		case !result.Found:
			status = "no_route"
		}
		metrics.QuoteRequests.WithLabelValues(req.TradeType.String(), status).Inc()
		metrics.RouteDuration.WithLabelValues("total").Observe(time.Since(started).Seconds())
	}()

	if err := validateRequest(req.TokenIn, req.TokenOut, req.Amount, req.TradeType, req.Pools); err != nil {
		return nil, err
	}
	if req.SlippageBps < 0 {
		return nil, amm.ErrInvalidSlippage
	}
	maxHops := override(req.Overrides.MaxHops, svc.cfg.MaxHops)
	opt := OptimizerConfig{
		MinSplits:          override(req.Overrides.MinSplits, svc.cfg.MinSplits),
		MaxSplits:          override(req.Overrides.MaxSplits, svc.cfg.MaxSplits),
		ForceCrossProtocol: svc.cfg.ForceCrossProtocol,
		ForceMixedRoutes:   svc.cfg.ForceMixedRoutes,
		Workers:            svc.cfg.Workers,
		USDToken:           svc.chain.USDReference,
	}
	if err := opt.validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, svc.cfg.SearchTimeout)
	defer cancel()

	pools, err := req.Pools.GetPools(ctx)
	if err != nil {
		return nil, fmt.Errorf("get pools: %w", err)
	}

	quoteToken := req.TokenOut
	if req.TradeType == domain.ExactOutput {
		quoteToken = req.TokenIn
	}
	result = &RouteResult{}
	rlog := svc.logger.With("tradeType", req.TradeType.String())

	phase := time.Now()
	candidates := SelectCandidatePools(pools, CandidatePoolRequest{
		TokenIn:       req.TokenIn,
		TokenOut:      req.TokenOut,
		BaseTokens:    svc.chain.BaseTokens,
		WrappedNative: svc.chain.WrappedNative,
		QuoteToken:    quoteToken,
	}, CandidatePoolOptions{
		TopN:                  svc.cfg.TopN,
		TopNDirectSwaps:       svc.cfg.TopNDirectSwaps,
		TopNTokenInOut:        svc.cfg.TopNTokenInOut,
		TopNSecondHop:         svc.cfg.TopNSecondHop,
		TopNWithEachBaseToken: svc.cfg.TopNWithEachBaseToken,
		TopNWithBaseToken:     svc.cfg.TopNWithBaseToken,
	})
	result.CandidatePools = len(candidates)
	metrics.CandidatePools.Observe(float64(len(candidates)))
	metrics.RouteDuration.WithLabelValues("candidates").Observe(time.Since(phase).Seconds())

	phase = time.Now()
	routes, err := ComputeAllRoutes(req.TokenIn, req.TokenOut, candidates, maxHops)
	if err != nil {
		return nil, err
	}
	result.RoutesConsidered = len(routes)
	metrics.RoutesEnumerated.Observe(float64(len(routes)))
	metrics.RouteDuration.WithLabelValues("enumerate").Observe(time.Since(phase).Seconds())
	if len(routes) == 0 {
		rlog.Debug().Str("tokenIn", req.TokenIn.String()).Str("tokenOut", req.TokenOut.String()).Msg("no routes between tokens")
		return result, nil
	}

	percents, amounts, err := GetAmountDistribution(req.Amount, override(req.Overrides.DistributionPercent, svc.cfg.DistributionPercent))
	if err != nil {
		return nil, err
	}
	gasModel, err := NewHeuristicGasModel(svc.gasParams(), svc.chain.WrappedNative, quoteToken, svc.chain.USDGasTokens, pools)
	if err != nil {
		return nil, err
	}

	phase = time.Now()
	quotes, err := QuoteRoutes(ctx, routes, amounts, percents, req.TradeType, gasModel, svc.cfg.Workers)
	if err != nil {
		return nil, err
	}
	result.QuotesComputed = len(quotes)
	metrics.RouteDuration.WithLabelValues("quote").Observe(time.Since(phase).Seconds())

	swap, err := GetBestSwapRoute(ctx, req.Amount, percents, quotes, req.TradeType, opt)
	if err != nil {
		return nil, err
	}
	if swap == nil {
		return result, nil
	}
	result.Found = true
	result.SwapRoute = swap

	impact, err := SplitPriceImpact(swap.Routes)
	if err != nil {
		return nil, err
	}
	result.PriceImpact = impact
	result.PriceImpactBps = ImpactBps(impact)
	result.Severity = GetPriceImpactSeverity(result.PriceImpactBps)
	result.Warning = GetPriceImpactWarning(result.PriceImpactBps)
	metrics.PriceImpact.WithLabelValues(string(result.Severity)).Observe(float64(result.PriceImpactBps))

	slip := domain.PercentFromBps(req.SlippageBps)
	one := domain.NewFractionInt(1, 1)
	if req.TradeType == domain.ExactInput {
		minOut := swap.Quote.MulFraction(one.Add(slip.Fraction).Invert())
		result.Threshold = domain.FromRawAmount(swap.Quote.Currency, minOut.Quotient())
	} else {
		maxIn := swap.Quote.MulFraction(one.Add(slip.Fraction))
		result.Threshold = domain.FromRawAmount(swap.Quote.Currency, maxIn.Quotient())
	}

	rlog.Debug().
		Int("candidatePools", result.CandidatePools).
		Int("routes", result.RoutesConsidered).
		Int("quotes", result.QuotesComputed).
		Str("impact", impact.String()).
		Msg("route computed")
	return result, nil
}

// BestTrade runs the single-route search over the V2 pairs of the snapshot.
func (svc *Service) BestTrade(ctx context.Context, req BestTradeRequest) ([]*amm.Trade, error) {
	if err := validateRequest(req.TokenIn, req.TokenOut, req.Amount, req.TradeType, req.Pools); err != nil {
		return nil, err
	}
	pools, err := req.Pools.GetPools(ctx)
	if err != nil {
		return nil, fmt.Errorf("get pools: %w", err)
	}
	pairs := make([]*amm.Pair, 0, len(pools))
	for _, p := range pools {
		if v2, ok := p.(*V2Pool); ok {
			pairs = append(pairs, v2.Pair)
		}
	}
	opts := amm.BestTradeOptions{
		MaxNumResults: override(req.MaxNumResults, svc.cfg.MaxNumResults),
		MaxHops:       override(req.MaxHops, svc.cfg.MaxHops),
	}
	if req.TradeType == domain.ExactInput {
		return amm.BestTradeExactIn(pairs, req.Amount, req.TokenOut, opts)
	}
	return amm.BestTradeExactOut(pairs, req.TokenIn, req.Amount, opts)
}
