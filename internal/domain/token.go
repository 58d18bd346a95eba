package domain

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrSameAddress    = errors.New("tokens have the same address")
	ErrDifferentChain = errors.New("tokens are on different chains")
)

// Token is an ERC20 token or a chain's native currency.
// A native currency has no address of its own and points at its wrapped token.
type Token struct {
	ChainID  uint64         `json:"chainId"`
	Address  common.Address `json:"address"`
	Decimals uint8          `json:"decimals"`
	Symbol   string         `json:"symbol,omitempty"`
	Name     string         `json:"name,omitempty"`

	// Fee-on-transfer taxes in basis points
	BuyFeeBps  uint16 `json:"buyFeeBps,omitempty"`
	SellFeeBps uint16 `json:"sellFeeBps,omitempty"`

	native  bool
	wrapped *Token
}

func NewToken(chainID uint64, address common.Address, decimals uint8, symbol, name string) *Token {
	return &Token{
		ChainID:  chainID,
		Address:  address,
		Decimals: decimals,
		Symbol:   symbol,
		Name:     name,
	}
}

// NewTokenWithFees creates a fee-on-transfer token.
func NewTokenWithFees(chainID uint64, address common.Address, decimals uint8, symbol, name string, buyFeeBps, sellFeeBps uint16) *Token {
	t := NewToken(chainID, address, decimals, symbol, name)
	t.BuyFeeBps = buyFeeBps
	t.SellFeeBps = sellFeeBps
	return t
}

// NewNativeCurrency creates the native currency of a chain, backed by wrapped.
func NewNativeCurrency(wrapped *Token, symbol, name string) *Token {
	return &Token{
		ChainID:  wrapped.ChainID,
		Decimals: wrapped.Decimals,
		Symbol:   symbol,
		Name:     name,
		native:   true,
		wrapped:  wrapped,
	}
}

func (t *Token) IsNative() bool {
	return t.native
}

// Wrapped returns the ERC20 form of the currency.
func (t *Token) Wrapped() *Token {
	if t.native {
		return t.wrapped
	}
	return t
}

// Equals compares by chain id and address. Two natives are equal when on the same chain.
func (t *Token) Equals(other *Token) bool {
	if t == other {
		return true
	}
	if t == nil || other == nil {
		return false
	}
	if t.native || other.native {
		return t.native && other.native && t.ChainID == other.ChainID
	}
	return t.ChainID == other.ChainID && t.Address == other.Address
}

// SortsBefore reports whether t orders before other in a pair.
// Natives sort first, everything else sorts by lowercase hex address.
func (t *Token) SortsBefore(other *Token) (bool, error) {
	if t.ChainID != other.ChainID {
		return false, ErrDifferentChain
	}
	if t.native != other.native {
		return t.native, nil
	}
	if t.Address == other.Address {
		return false, ErrSameAddress
	}
	// byte order of an address equals the order of its lowercase hex form
	return bytes.Compare(t.Address.Bytes(), other.Address.Bytes()) < 0, nil
}

// Key is a stable map key for the token.
func (t *Token) Key() string {
	if t.native {
		return fmt.Sprintf("%d:native", t.ChainID)
	}
	return fmt.Sprintf("%d:%s", t.ChainID, strings.ToLower(t.Address.Hex()))
}

func (t *Token) String() string {
	if t.Symbol != "" {
		return t.Symbol
	}
	if t.native {
		return "NATIVE"
	}
	return t.Address.Hex()
}
