package amm

import "errors"

var (
	ErrTokenMismatch           = errors.New("token mismatch")
	ErrChainMismatch           = errors.New("chain mismatch")
	ErrInsufficientReserves    = errors.New("insufficient reserves")
	ErrInsufficientInputAmount = errors.New("insufficient input amount")
	ErrDisconnectedPath        = errors.New("disconnected path")
	ErrInvalidMaxHops          = errors.New("max hops must be positive")
	ErrEmptyPairList           = errors.New("empty pair list")
	ErrInvalidSlippage         = errors.New("slippage tolerance must be non-negative")
	ErrInvalidLiquidity        = errors.New("invalid liquidity")
	ErrInvalidMaxResults       = errors.New("max number of results must be positive")
)

func IsInsufficientReserves(err error) bool {
	return errors.Is(err, ErrInsufficientReserves)
}

func IsInsufficientInputAmount(err error) bool {
	return errors.Is(err, ErrInsufficientInputAmount)
}

// IsLiquidityError reports errors that only rule out one pool or path.
func IsLiquidityError(err error) bool {
	return IsInsufficientReserves(err) || IsInsufficientInputAmount(err)
}
