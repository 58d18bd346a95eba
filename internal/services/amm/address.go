package amm

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/hxuan190/amm-router/internal/domain"
)

// Factory identifies a constant-product pair factory on one chain.
type Factory struct {
	Address      common.Address
	InitCodeHash common.Hash
}

// UniswapV2Mainnet is the canonical Uniswap V2 factory.
var UniswapV2Mainnet = Factory{
	Address:      common.HexToAddress("0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f"),
	InitCodeHash: common.HexToHash("0x96e8ac4277198ff8b6f785478aa9a39f403cb768dd02cbee326c3e7da348845f"),
}

// ComputePairAddress derives the CREATE2 address of the pair for two tokens.
// The result does not depend on argument order.
func ComputePairAddress(factory Factory, tokenA, tokenB *domain.Token) (common.Address, error) {
	a, b := tokenA.Wrapped(), tokenB.Wrapped()
	before, err := a.SortsBefore(b)
	if err != nil {
		return common.Address{}, err
	}
	if !before {
		a, b = b, a
	}
	salt := crypto.Keccak256Hash(a.Address.Bytes(), b.Address.Bytes())
	return crypto.CreateAddress2(factory.Address, salt, factory.InitCodeHash.Bytes()), nil
}
