package http

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/amm-router/internal/domain"
	"github.com/hxuan190/amm-router/internal/http/httputil"
	"github.com/hxuan190/amm-router/internal/services/amm"
	"github.com/hxuan190/amm-router/internal/services/router"
)

type PairHandler struct {
	routerSvc *router.Service
}

func NewPairHandler(routerSvc *router.Service) *PairHandler {
	return &PairHandler{routerSvc: routerSvc}
}

func (h *PairHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.POST("/address", h.getAddress)
	pub.POST("/amount-out", h.getAmountOut)
	pub.POST("/amount-in", h.getAmountIn)
}

func (h *PairHandler) Root() string {
	return "/pair"
}

type PairAddressRequest struct {
	TokenA string      `json:"tokenA" binding:"required" example:"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"`
	TokenB string      `json:"tokenB" binding:"required" example:"0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"`
	Tokens []TokenInfo `json:"tokens"`
}

type PairAddressResponse struct {
	// CREATE2 address of the V2 pair on the configured chain
	Address string `json:"address" example:"0xB4e16d0168e52d35CaCD2c6185b44281Ec28C9Dc"`
	Token0  string `json:"token0" example:"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"`
	Token1  string `json:"token1" example:"0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"`
}

// PairSwapRequest prices one swap against a V2 pair
type PairSwapRequest struct {
	// The pair state. protocol may be omitted, only V2 is accepted.
	Pair PoolInfo `json:"pair" binding:"required"`

	// Token the amount is given in: the input for amount-out, the output for amount-in
	Token string `json:"token" binding:"required" example:"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"`

	// Amount in smallest token units
	Amount string `json:"amount" binding:"required" example:"1000000000"`

	// Apply fee-on-transfer taxes of the tokens
	ApplyTax bool `json:"applyTax" example:"true"`

	Tokens []TokenInfo `json:"tokens"`
}

type PairSwapResponse struct {
	// The computed amount in smallest units: output for amount-out, input for amount-in
	Amount string `json:"amount" example:"497000000000000000"`
	Token  string `json:"token" example:"0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"`

	// Pair address and reserves after the swap
	PairAddress  string `json:"pairAddress" example:"0xB4e16d0168e52d35CaCD2c6185b44281Ec28C9Dc"`
	NextReserve0 string `json:"nextReserve0" example:"10001000000000"`
	NextReserve1 string `json:"nextReserve1" example:"4999503000000000000000"`
}

// @Summary Compute V2 pair address
// @Description Derive the deterministic CREATE2 address of the V2 pair for two tokens on the configured chain.
// @Description The result does not depend on argument order.
// @Tags pair
// @Accept json
// @Produce json
// @Param request body PairAddressRequest true "Token pair"
// @Success 200 {object} httputil.Response{data=PairAddressResponse}
// @Failure 400 {object} httputil.Response "Unknown or identical tokens"
// @Router /api/v1/pair/address [post]
func (h *PairHandler) getAddress(c *gin.Context) {
	var body PairAddressRequest
	if !decodeJSON(c, &body) {
		return
	}
	tokens, err := newTokenRegistry(h.routerSvc.Chain(), body.Tokens)
	if err != nil {
		fail(c, err)
		return
	}
	a, err := tokens.resolve(body.TokenA)
	if err != nil {
		fail(c, err)
		return
	}
	b, err := tokens.resolve(body.TokenB)
	if err != nil {
		fail(c, err)
		return
	}
	a, b = a.Wrapped(), b.Wrapped()

	addr, err := h.routerSvc.PairAddress(a, b)
	if err != nil {
		fail(c, err)
		return
	}
	if before, _ := a.SortsBefore(b); !before {
		a, b = b, a
	}
	httputil.Success(c, PairAddressResponse{Address: addr, Token0: a.Address.Hex(), Token1: b.Address.Hex()})
}

func (h *PairHandler) parsePairSwap(body *PairSwapRequest) (*amm.Pair, domain.CurrencyAmount, error) {
	if body.Token == "" || body.Amount == "" {
		return nil, domain.CurrencyAmount{}, fmt.Errorf("%w: token and amount are required", router.ErrInvalidRequest)
	}
	info := body.Pair
	if info.Protocol == "" {
		info.Protocol = router.ProtocolV2.String()
	}
	if !strings.EqualFold(info.Protocol, router.ProtocolV2.String()) {
		return nil, domain.CurrencyAmount{}, fmt.Errorf("%w: %s, pair math needs a V2 pair", router.ErrUnsupportedProtocol, info.Protocol)
	}

	tokens, err := newTokenRegistry(h.routerSvc.Chain(), body.Tokens)
	if err != nil {
		return nil, domain.CurrencyAmount{}, err
	}
	pool, err := tokens.buildPool(info, h.routerSvc.Factory())
	if err != nil {
		return nil, domain.CurrencyAmount{}, err
	}
	token, err := tokens.resolve(body.Token)
	if err != nil {
		return nil, domain.CurrencyAmount{}, err
	}
	amount, err := domain.ParseRawAmount(token.Wrapped(), body.Amount)
	if err != nil {
		return nil, domain.CurrencyAmount{}, fmt.Errorf("%w: %w", router.ErrInvalidRequest, err)
	}
	return pool.(*router.V2Pool).Pair, amount, nil
}

func pairSwapResponse(amount domain.CurrencyAmount, next *amm.Pair) PairSwapResponse {
	return PairSwapResponse{
		Amount:       amount.Quotient().String(),
		Token:        amount.Currency.Address.Hex(),
		PairAddress:  next.Address().Hex(),
		NextReserve0: next.Reserve0().Quotient().String(),
		NextReserve1: next.Reserve1().Quotient().String(),
	}
}

// @Summary Quote a V2 swap output
// @Description Output amount for an exact input against one V2 pair, after the 0.3% pool fee
// @Description and, when applyTax is set, the tokens' fee-on-transfer taxes.
// @Tags pair
// @Accept json
// @Produce json
// @Param request body PairSwapRequest true "Pair and input amount"
// @Success 200 {object} httputil.Response{data=PairSwapResponse}
// @Failure 400 {object} httputil.Response "Invalid pair, token not in pair or insufficient liquidity"
// @Router /api/v1/pair/amount-out [post]
func (h *PairHandler) getAmountOut(c *gin.Context) {
	var body PairSwapRequest
	if !decodeJSON(c, &body) {
		return
	}
	pair, amountIn, err := h.parsePairSwap(&body)
	if err != nil {
		fail(c, err)
		return
	}
	out, next, err := pair.GetOutputAmount(amountIn, body.ApplyTax)
	if err != nil {
		fail(c, err)
		return
	}
	httputil.Success(c, pairSwapResponse(out, next))
}

// @Summary Quote a V2 swap input
// @Description Input amount needed for an exact output against one V2 pair.
// @Tags pair
// @Accept json
// @Produce json
// @Param request body PairSwapRequest true "Pair and output amount"
// @Success 200 {object} httputil.Response{data=PairSwapResponse}
// @Failure 400 {object} httputil.Response "Invalid pair, token not in pair or insufficient liquidity"
// @Router /api/v1/pair/amount-in [post]
func (h *PairHandler) getAmountIn(c *gin.Context) {
	var body PairSwapRequest
	if !decodeJSON(c, &body) {
		return
	}
	pair, amountOut, err := h.parsePairSwap(&body)
	if err != nil {
		fail(c, err)
		return
	}
	in, next, err := pair.GetInputAmount(amountOut, body.ApplyTax)
	if err != nil {
		fail(c, err)
		return
	}
	httputil.Success(c, pairSwapResponse(in, next))
}
