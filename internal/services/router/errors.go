package router

import (
	"errors"
)

var (
	ErrUnsupportedProtocol = errors.New("unsupported pool protocol")
	ErrInvalidPercents     = errors.New("invalid percent grid")
	ErrInvalidSplits       = errors.New("invalid split bounds")
	ErrNoGasToken          = errors.New("no usd token for gas costs")
	ErrSearchCancelled     = errors.New("route search cancelled")
	ErrInvalidRequest      = errors.New("invalid route request")
)
