package http

import (
	"errors"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/amm-router/internal/common"
	"github.com/hxuan190/amm-router/internal/domain"
	"github.com/hxuan190/amm-router/internal/http/httputil"
	"github.com/hxuan190/amm-router/internal/services/amm"
	"github.com/hxuan190/amm-router/internal/services/clmm"
	"github.com/hxuan190/amm-router/internal/services/router"
)

// badRequestErrors are caller mistakes: malformed input or a violated
// precondition of the pricing math.
var badRequestErrors = []error{
	router.ErrInvalidRequest,
	router.ErrInvalidPercents,
	router.ErrInvalidSplits,
	router.ErrUnsupportedProtocol,
	amm.ErrTokenMismatch,
	amm.ErrChainMismatch,
	amm.ErrDisconnectedPath,
	amm.ErrInvalidMaxHops,
	amm.ErrInvalidMaxResults,
	amm.ErrInvalidSlippage,
	amm.ErrInvalidLiquidity,
	clmm.ErrInvalidSqrtPrice,
	clmm.ErrInvalidLiquidity,
	clmm.ErrInvalidFee,
	clmm.ErrTokenMismatch,
	domain.ErrAmountOverflow,
	domain.ErrSameAddress,
	domain.ErrDifferentChain,
}

func toHttpError(err error) *common.HttpError {
	if amm.IsLiquidityError(err) {
		return common.HTTPErrorInsufficientLiquidity(err.Error())
	}
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return common.HTTPErrorBadRequest(err.Error())
		}
	}
	return common.HTTPErrorInternalError("")
}

// fail writes err as an HTTP error. Unexpected errors are logged and their
// message is kept out of the response.
func fail(c *gin.Context, err error) {
	httpErr := toHttpError(err)
	if httpErr.StatusCode >= 500 {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	httputil.Fail(c, httpErr)
}

// decodeJSON reads the request body into v.
func decodeJSON(c *gin.Context, v interface{}) bool {
	body, err := c.GetRawData()
	if err != nil {
		httputil.BadRequest(c, "cannot read request body")
		return false
	}
	if err := sonic.Unmarshal(body, v); err != nil {
		httputil.BadRequest(c, "invalid json: "+err.Error())
		return false
	}
	return true
}
