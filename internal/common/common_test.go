package common

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProfileForCPUs(t *testing.T) {
	tests := []struct {
		cpus     int
		name     string
		maxProcs int
	}{
		{1, "small", 1},
		{2, "small", 2},
		{4, "medium", 4},
		{8, "medium", 8},
		{16, "large", 14},
	}
	for _, tt := range tests {
		p := ProfileForCPUs(tt.cpus)
		assert.Equal(t, tt.name, p.Name, "cpus %d", tt.cpus)
		assert.Equal(t, tt.maxProcs, p.MaxProcs, "cpus %d", tt.cpus)
		assert.Positive(t, p.GOGC)
		assert.Positive(t, p.MemLimit)
	}
}

func TestHttpErrors(t *testing.T) {
	tests := []struct {
		err    *HttpError
		status int
		code   string
	}{
		{HTTPErrorBadRequest(""), http.StatusBadRequest, "BAD_REQUEST"},
		{HTTPErrorInsufficientLiquidity("pair is empty"), http.StatusBadRequest, "INSUFFICIENT_LIQUIDITY"},
		{HTTPErrorNotFound(""), http.StatusNotFound, "NOT_FOUND"},
		{HTTPErrorTooManyRequests(""), http.StatusTooManyRequests, "RATE_LIMITED"},
		{HTTPErrorInternalError(""), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, tt.err.StatusCode)
		assert.Equal(t, tt.code, tt.err.Code)
		assert.NotEmpty(t, tt.err.Message)
	}
	assert.Equal(t, "pair is empty", HTTPErrorInsufficientLiquidity("pair is empty").Message)
	assert.Contains(t, HTTPErrorBadRequest("x").Error(), "400 BAD_REQUEST x")
}
