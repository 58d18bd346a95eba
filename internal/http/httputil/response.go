package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/amm-router/internal/common"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Code    string      `json:"code,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// Fail aborts the request with the error's status, code and message.
func Fail(c *gin.Context, err *common.HttpError) {
	c.AbortWithStatusJSON(err.StatusCode, Response{
		Success: false,
		Code:    err.Code,
		Error:   err.Message,
	})
}

func BadRequest(c *gin.Context, err string) {
	Fail(c, common.HTTPErrorBadRequest(err))
}

func InternalError(c *gin.Context, err string) {
	Fail(c, common.HTTPErrorInternalError(err))
}

func NotFound(c *gin.Context, err string) {
	Fail(c, common.HTTPErrorNotFound(err))
}
