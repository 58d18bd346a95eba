package clmm

import "errors"

var (
	ErrInvalidSqrtPrice      = errors.New("sqrt price out of range")
	ErrInvalidLiquidity      = errors.New("invalid liquidity")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity in active range")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrInvalidFee            = errors.New("invalid fee")
	ErrTokenMismatch         = errors.New("token not in pool")
)
