package amm

import (
	"math/big"

	"github.com/holiman/uint256"
)

// Sqrt returns floor(sqrt(v)). Values that fit in 256 bits take the uint256 path.
func Sqrt(v *big.Int) *big.Int {
	if v.Sign() < 0 {
		panic("amm: square root of negative number")
	}
	if u, overflow := uint256.FromBig(v); !overflow {
		return new(uint256.Int).Sqrt(u).ToBig()
	}
	return new(big.Int).Sqrt(v)
}
