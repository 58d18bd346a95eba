package http

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/amm-router/internal/domain"
	"github.com/hxuan190/amm-router/internal/http/httputil"
	"github.com/hxuan190/amm-router/internal/services/router"
)

type QuoteHandler struct {
	routerSvc *router.Service
}

func NewQuoteHandler(routerSvc *router.Service) *QuoteHandler {
	return &QuoteHandler{routerSvc: routerSvc}
}

func (h *QuoteHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.POST("", h.getQuote)
}

func (h *QuoteHandler) Root() string {
	return "/quote"
}

// QuoteRequest asks for the best split of a trade over a pool snapshot
type QuoteRequest struct {
	// Input token: a hex address, or "native" for the chain's native currency
	TokenIn string `json:"tokenIn" binding:"required" example:"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"`

	// Output token: a hex address, or "native" for the chain's native currency
	TokenOut string `json:"tokenOut" binding:"required" example:"0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"`

	// Amount in smallest token units. It is an amount of tokenIn for
	// EXACT_INPUT and of tokenOut for EXACT_OUTPUT.
	// For USDC with 6 decimals: "1000000" = 1 USDC
	Amount string `json:"amount" binding:"required" example:"1000000000"`

	// Trade type determines how the amount is interpreted
	// - "EXACT_INPUT": amount is the exact input, output is quoted
	// - "EXACT_OUTPUT": amount is the exact output desired, input is quoted
	TradeType string `json:"tradeType" binding:"required" enums:"EXACT_INPUT,EXACT_OUTPUT" example:"EXACT_INPUT"`

	// Slippage tolerance in basis points (1 bps = 0.01%), used for the
	// otherAmountThreshold of the response
	SlippageBps int64 `json:"slippageBps" example:"50"`

	// Tokens the pools reference beyond the chain's base and USD tokens
	Tokens []TokenInfo `json:"tokens"`

	// Pool snapshot to route over
	Pools []PoolInfo `json:"pools" binding:"required"`

	// Optional overrides of the router configuration, 0 keeps the default
	MaxHops             int `json:"maxHops,omitempty" example:"3"`
	MinSplits           int `json:"minSplits,omitempty" example:"1"`
	MaxSplits           int `json:"maxSplits,omitempty" example:"3"`
	DistributionPercent int `json:"distributionPercent,omitempty" example:"5"`
}

// RouteInfo describes one route of the split
type RouteInfo struct {
	// Protocol of the route's pools, MIXED when they differ
	Protocol string `json:"protocol" enums:"V2,V3,MIXED" example:"V2"`

	// Share of the trade amount sent through this route
	Percent int `json:"percent" example:"60"`

	// Amount of the trade this route fills, in smallest units
	Amount string `json:"amount" example:"600000000"`

	// Quote for this route's amount: output for EXACT_INPUT, input for EXACT_OUTPUT
	Quote string `json:"quote" example:"298000000000000000"`

	// Quote after subtracting (EXACT_INPUT) or adding (EXACT_OUTPUT) gas costs
	QuoteGasAdjusted string `json:"quoteGasAdjusted" example:"295000000000000000"`

	// Estimated gas units of this route
	GasEstimate string `json:"gasEstimate" example:"135000"`

	// Pool addresses from input to output
	Pools []string `json:"pools" example:"0xB4e16d0168e52d35CaCD2c6185b44281Ec28C9Dc"`

	// Token path, one more entry than pools
	TokenPath []string `json:"tokenPath" example:"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48,0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"`
}

// QuoteResponse contains the best split and its totals. Found is false when
// no combination of the given pools can fill the trade.
type QuoteResponse struct {
	Found     bool   `json:"found" example:"true"`
	TradeType string `json:"tradeType" example:"EXACT_INPUT"`
	TokenIn   string `json:"tokenIn" example:"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"`
	TokenOut  string `json:"tokenOut" example:"0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"`

	// Requested amount in smallest units
	Amount string `json:"amount" example:"1000000000"`

	// Total quote in smallest units, and as a decimal number of tokens
	Quote         string `json:"quote,omitempty" example:"497000000000000000"`
	QuoteDecimals string `json:"quoteDecimals,omitempty" example:"0.497"`

	// Total quote adjusted for gas
	QuoteGasAdjusted string `json:"quoteGasAdjusted,omitempty" example:"491000000000000000"`

	// Gas estimate in gas units, in the quote token and in USD
	EstimatedGasUsed           string `json:"estimatedGasUsed,omitempty" example:"270000"`
	EstimatedGasUsedQuoteToken string `json:"estimatedGasUsedQuoteToken,omitempty" example:"5400000000000000"`
	EstimatedGasUsedUSD        string `json:"estimatedGasUsedUSD,omitempty" example:"10.80"`

	// Price impact in basis points (1 bps = 0.01%)
	PriceImpactBps uint16 `json:"priceImpactBps" example:"25"`

	// Human-readable price impact percentage
	PriceImpactPercent string `json:"priceImpactPercent,omitempty" example:"0.25%"`

	// Price impact severity classification
	// - "none": < 1% (< 100 bps)
	// - "low": 1% - 3% (100-300 bps)
	// - "moderate": 3% - 5% (300-500 bps)
	// - "high": 5% - 10% (500-1000 bps)
	// - "extreme": > 10% (> 1000 bps)
	PriceImpactSeverity string `json:"priceImpactSeverity,omitempty" enums:"none,low,moderate,high,extreme" example:"none"`

	// Warning message for significant price impact
	PriceImpactWarning string `json:"priceImpactWarning,omitempty"`

	// Slippage tolerance used for otherAmountThreshold
	SlippageBps int64 `json:"slippageBps" example:"50"`

	// Minimum output for EXACT_INPUT, maximum input for EXACT_OUTPUT
	OtherAmountThreshold string `json:"otherAmountThreshold,omitempty" example:"494527363184079601"`

	Routes []RouteInfo `json:"routes,omitempty"`

	// Search statistics
	CandidatePools   int `json:"candidatePools" example:"6"`
	RoutesConsidered int `json:"routesConsidered" example:"4"`
	QuotesComputed   int `json:"quotesComputed" example:"80"`
}

func (h *QuoteHandler) parseQuoteRequest(req *QuoteRequest) (router.RouteRequest, error) {
	if req.TokenIn == "" || req.TokenOut == "" || req.Amount == "" || req.TradeType == "" {
		return router.RouteRequest{}, fmt.Errorf("%w: tokenIn, tokenOut, amount and tradeType are required", router.ErrInvalidRequest)
	}
	if len(req.Pools) == 0 {
		return router.RouteRequest{}, fmt.Errorf("%w: pools are required", router.ErrInvalidRequest)
	}
	tradeType, err := domain.ParseTradeType(req.TradeType)
	if err != nil {
		return router.RouteRequest{}, fmt.Errorf("%w: %w", router.ErrInvalidRequest, err)
	}

	tokens, err := newTokenRegistry(h.routerSvc.Chain(), req.Tokens)
	if err != nil {
		return router.RouteRequest{}, err
	}
	tokenIn, err := tokens.resolve(req.TokenIn)
	if err != nil {
		return router.RouteRequest{}, err
	}
	tokenOut, err := tokens.resolve(req.TokenOut)
	if err != nil {
		return router.RouteRequest{}, err
	}
	amountToken := tokenIn
	if tradeType == domain.ExactOutput {
		amountToken = tokenOut
	}
	amount, err := domain.ParseRawAmount(amountToken, req.Amount)
	if err != nil {
		return router.RouteRequest{}, fmt.Errorf("%w: %w", router.ErrInvalidRequest, err)
	}

	return router.RouteRequest{
		TokenIn:     tokenIn,
		TokenOut:    tokenOut,
		Amount:      amount,
		TradeType:   tradeType,
		Pools:       tokens.snapshot(req.Pools, h.routerSvc.Factory()),
		SlippageBps: req.SlippageBps,
		Overrides: router.RouteOverrides{
			MaxHops:             req.MaxHops,
			MinSplits:           req.MinSplits,
			MaxSplits:           req.MaxSplits,
			DistributionPercent: req.DistributionPercent,
		},
	}, nil
}

func (h *QuoteHandler) buildQuoteResponse(req router.RouteRequest, res *router.RouteResult) QuoteResponse {
	resp := QuoteResponse{
		Found:            res.Found,
		TradeType:        req.TradeType.String(),
		TokenIn:          tokenLabel(req.TokenIn),
		TokenOut:         tokenLabel(req.TokenOut),
		Amount:           req.Amount.Quotient().String(),
		SlippageBps:      req.SlippageBps,
		CandidatePools:   res.CandidatePools,
		RoutesConsidered: res.RoutesConsidered,
		QuotesComputed:   res.QuotesComputed,
	}
	if !res.Found {
		return resp
	}

	swap := res.SwapRoute
	resp.Quote = swap.Quote.Quotient().String()
	resp.QuoteDecimals = swap.Quote.ToExact()
	resp.QuoteGasAdjusted = swap.QuoteGasAdjusted.Quotient().String()
	resp.EstimatedGasUsed = swap.EstimatedGasUsed.String()
	resp.EstimatedGasUsedQuoteToken = swap.EstimatedGasUsedQuoteToken.Quotient().String()
	resp.EstimatedGasUsedUSD = swap.EstimatedGasUsedUSD.ToFixed(2)
	resp.PriceImpactBps = res.PriceImpactBps
	resp.PriceImpactPercent = res.PriceImpact.String()
	resp.PriceImpactSeverity = string(res.Severity)
	resp.PriceImpactWarning = res.Warning
	resp.OtherAmountThreshold = res.Threshold.Quotient().String()

	resp.Routes = make([]RouteInfo, len(swap.Routes))
	for i, q := range swap.Routes {
		pools := make([]string, len(q.Route.Pools))
		for j, p := range q.Route.Pools {
			pools[j] = p.Address().Hex()
		}
		resp.Routes[i] = RouteInfo{
			Protocol:         q.Route.Protocol.String(),
			Percent:          q.Percent,
			Amount:           q.Amount.Quotient().String(),
			Quote:            q.Quote.Quotient().String(),
			QuoteGasAdjusted: q.QuoteAdjustedForGas.Quotient().String(),
			GasEstimate:      q.GasEstimate.String(),
			Pools:            pools,
			TokenPath:        tokenLabels(q.TokenPath()),
		}
	}
	return resp
}

// @Summary Get split swap quote
// @Description Find the best way to split a trade across routes of the given pool snapshot.
// @Description The router enumerates every route of at most maxHops pools between the tokens,
// @Description quotes each route at every distributionPercent share of the amount, and picks the
// @Description combination of routes whose shares sum to 100% with the best gas-adjusted quote.
// @Description
// @Description **Amount Format:**
// @Description - Use smallest token units
// @Description - USDC (6 decimals): 1 USDC = 1000000
// @Description - WETH (18 decimals): 1 WETH = 1000000000000000000
// @Description
// @Description **Trade Types:**
// @Description - EXACT_INPUT: You specify exact input amount, output is quoted
// @Description - EXACT_OUTPUT: You specify exact output desired, input is quoted
// @Description
// @Description A trade no combination of pools can fill returns 200 with found=false.
// @Tags quote
// @Accept json
// @Produce json
// @Param request body QuoteRequest true "Trade and pool snapshot"
// @Success 200 {object} httputil.Response{data=QuoteResponse} "Best split, or found=false"
// @Failure 400 {object} httputil.Response "Invalid request or pool snapshot"
// @Failure 500 {object} httputil.Response "Routing failed"
// @Router /api/v1/quote [post]
func (h *QuoteHandler) getQuote(c *gin.Context) {
	var body QuoteRequest
	if !decodeJSON(c, &body) {
		return
	}
	req, err := h.parseQuoteRequest(&body)
	if err != nil {
		fail(c, err)
		return
	}

	res, err := h.routerSvc.Route(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	httputil.Success(c, h.buildQuoteResponse(req, res))
}
