package http

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/amm-router/internal/domain"
	"github.com/hxuan190/amm-router/internal/http/httputil"
	"github.com/hxuan190/amm-router/internal/services/amm"
	"github.com/hxuan190/amm-router/internal/services/router"
)

type TradeHandler struct {
	routerSvc *router.Service
}

func NewTradeHandler(routerSvc *router.Service) *TradeHandler {
	return &TradeHandler{routerSvc: routerSvc}
}

func (h *TradeHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.POST("/best", h.bestTrade)
}

func (h *TradeHandler) Root() string {
	return "/trade"
}

// BestTradeRequest asks for the best single-route trades over the V2 pairs
// of a pool snapshot. V3 pools in the snapshot are ignored.
type BestTradeRequest struct {
	TokenIn   string `json:"tokenIn" binding:"required" example:"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"`
	TokenOut  string `json:"tokenOut" binding:"required" example:"0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"`
	Amount    string `json:"amount" binding:"required" example:"1000000000"`
	TradeType string `json:"tradeType" binding:"required" enums:"EXACT_INPUT,EXACT_OUTPUT" example:"EXACT_INPUT"`

	// Slippage tolerance in basis points for each trade's threshold
	SlippageBps int64 `json:"slippageBps" example:"50"`

	// Optional limits, 0 keeps the default
	MaxHops       int `json:"maxHops,omitempty" example:"3"`
	MaxNumResults int `json:"maxNumResults,omitempty" example:"3"`

	Tokens []TokenInfo `json:"tokens"`
	Pools  []PoolInfo  `json:"pools" binding:"required"`
}

// TradeInfo is one priced route
type TradeInfo struct {
	InputAmount  string `json:"inputAmount" example:"1000000000"`
	OutputAmount string `json:"outputAmount" example:"497000000000000000"`

	// Output per input in whole tokens
	ExecutionPrice string `json:"executionPrice" example:"0.000497"`

	PriceImpactPercent string `json:"priceImpactPercent" example:"0.01%"`

	// Minimum output for EXACT_INPUT, maximum input for EXACT_OUTPUT
	OtherAmountThreshold string `json:"otherAmountThreshold" example:"494527363184079601"`

	Pairs []string `json:"pairs" example:"0xB4e16d0168e52d35CaCD2c6185b44281Ec28C9Dc"`
	Path  []string `json:"path" example:"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48,0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"`
}

// BestTradeResponse lists the trades best first. It is empty when no path
// connects the tokens.
type BestTradeResponse struct {
	TradeType string      `json:"tradeType" example:"EXACT_INPUT"`
	Trades    []TradeInfo `json:"trades"`
}

func (h *TradeHandler) parseBestTradeRequest(req *BestTradeRequest) (router.BestTradeRequest, error) {
	if req.TokenIn == "" || req.TokenOut == "" || req.Amount == "" || req.TradeType == "" {
		return router.BestTradeRequest{}, fmt.Errorf("%w: tokenIn, tokenOut, amount and tradeType are required", router.ErrInvalidRequest)
	}
	if req.SlippageBps < 0 {
		return router.BestTradeRequest{}, amm.ErrInvalidSlippage
	}
	tradeType, err := domain.ParseTradeType(req.TradeType)
	if err != nil {
		return router.BestTradeRequest{}, fmt.Errorf("%w: %w", router.ErrInvalidRequest, err)
	}
	tokens, err := newTokenRegistry(h.routerSvc.Chain(), req.Tokens)
	if err != nil {
		return router.BestTradeRequest{}, err
	}
	tokenIn, err := tokens.resolve(req.TokenIn)
	if err != nil {
		return router.BestTradeRequest{}, err
	}
	tokenOut, err := tokens.resolve(req.TokenOut)
	if err != nil {
		return router.BestTradeRequest{}, err
	}
	amountToken := tokenIn
	if tradeType == domain.ExactOutput {
		amountToken = tokenOut
	}
	amount, err := domain.ParseRawAmount(amountToken, req.Amount)
	if err != nil {
		return router.BestTradeRequest{}, fmt.Errorf("%w: %w", router.ErrInvalidRequest, err)
	}
	return router.BestTradeRequest{
		TokenIn:       tokenIn,
		TokenOut:      tokenOut,
		Amount:        amount,
		TradeType:     tradeType,
		Pools:         tokens.snapshot(req.Pools, h.routerSvc.Factory()),
		MaxHops:       req.MaxHops,
		MaxNumResults: req.MaxNumResults,
	}, nil
}

func tradeInfo(t *amm.Trade, slippage domain.Percent) (TradeInfo, error) {
	var threshold domain.CurrencyAmount
	var err error
	if t.TradeType == domain.ExactInput {
		threshold, err = t.MinimumAmountOut(slippage)
	} else {
		threshold, err = t.MaximumAmountIn(slippage)
	}
	if err != nil {
		return TradeInfo{}, err
	}
	pairs := make([]string, len(t.Route.Pairs))
	for i, p := range t.Route.Pairs {
		pairs[i] = p.Address().Hex()
	}
	return TradeInfo{
		InputAmount:          t.InputAmount.Quotient().String(),
		OutputAmount:         t.OutputAmount.Quotient().String(),
		ExecutionPrice:       t.ExecutionPrice.ToSignificant(6),
		PriceImpactPercent:   t.PriceImpact.String(),
		OtherAmountThreshold: threshold.Quotient().String(),
		Pairs:                pairs,
		Path:                 tokenLabels(t.Route.Path),
	}, nil
}

// @Summary Get best single-route trades
// @Description Search the V2 pairs of the pool snapshot for the best trades that use a single route.
// @Description Results are sorted best first: the largest output for EXACT_INPUT, the smallest input for EXACT_OUTPUT.
// @Tags trade
// @Accept json
// @Produce json
// @Param request body BestTradeRequest true "Trade and pool snapshot"
// @Success 200 {object} httputil.Response{data=BestTradeResponse} "Trades, best first"
// @Failure 400 {object} httputil.Response "Invalid request or pool snapshot"
// @Failure 500 {object} httputil.Response "Search failed"
// @Router /api/v1/trade/best [post]
func (h *TradeHandler) bestTrade(c *gin.Context) {
	var body BestTradeRequest
	if !decodeJSON(c, &body) {
		return
	}
	req, err := h.parseBestTradeRequest(&body)
	if err != nil {
		fail(c, err)
		return
	}

	trades, err := h.routerSvc.BestTrade(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	slippage := domain.PercentFromBps(body.SlippageBps)
	resp := BestTradeResponse{TradeType: req.TradeType.String(), Trades: make([]TradeInfo, 0, len(trades))}
	for _, t := range trades {
		info, err := tradeInfo(t, slippage)
		if err != nil {
			fail(c, err)
			return
		}
		resp.Trades = append(resp.Trades, info)
	}
	httputil.Success(c, resp)
}
