package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/andrew-solarstorm/go-packages/common"
	"github.com/bytedance/sonic"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/pelletier/go-toml/v2"

	"github.com/hxuan190/amm-router/internal/domain"
)

var ErrInvalidChainConfig = errors.New("invalid chain config")

// TokenFile is a token entry of a chain file.
type TokenFile struct {
	Address  string `toml:"address" json:"address"`
	Decimals uint8  `toml:"decimals" json:"decimals"`
	Symbol   string `toml:"symbol" json:"symbol"`
	Name     string `toml:"name" json:"name"`
}

// ChainFile is the on-disk chain description, in TOML or JSON.
type ChainFile struct {
	ChainID        uint64      `toml:"chain_id" json:"chainId"`
	V2Factory      string      `toml:"v2_factory" json:"v2Factory"`
	V2InitCodeHash string      `toml:"v2_init_code_hash" json:"v2InitCodeHash"`
	NativeSymbol   string      `toml:"native_symbol" json:"nativeSymbol"`
	WrappedNative  TokenFile   `toml:"wrapped_native" json:"wrappedNative"`
	BaseTokens     []TokenFile `toml:"base_tokens" json:"baseTokens"`
	USDGasTokens   []TokenFile `toml:"usd_gas_tokens" json:"usdGasTokens"`
	// USDReference is the address of the USD token gas totals are reported
	// in. Empty means the first USD gas token.
	USDReference string `toml:"usd_reference" json:"usdReference"`
}

// ChainConfig is the resolved chain the router serves.
type ChainConfig struct {
	Path string

	ChainID        uint64
	V2Factory      ethcommon.Address
	V2InitCodeHash ethcommon.Hash
	WrappedNative  *domain.Token
	Native         *domain.Token
	BaseTokens     []*domain.Token
	USDGasTokens   []*domain.Token
	USDReference   *domain.Token
}

func (c *ChainConfig) Key() string {
	return CHAIN_CONFIG_KEY
}

// Load reads CHAIN_CONFIG_PATH, or falls back to Ethereum mainnet.
func (c *ChainConfig) Load() error {
	path := common.GetEnvOrDefault("CHAIN_CONFIG_PATH", "")
	file := MainnetChainFile()
	if path != "" {
		var err error
		if file, err = LoadChainFile(path); err != nil {
			return err
		}
	}
	if err := c.apply(file); err != nil {
		return err
	}
	c.Path = path
	return c.Validate()
}

// NewChainConfig resolves a chain file without touching the environment.
func NewChainConfig(f ChainFile) (*ChainConfig, error) {
	c := &ChainConfig{}
	if err := c.apply(f); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *ChainConfig) Validate() error {
	switch {
	case c.ChainID == 0:
		return fmt.Errorf("%w: missing chain id", ErrInvalidChainConfig)
	case c.V2Factory == (ethcommon.Address{}):
		return fmt.Errorf("%w: missing v2 factory", ErrInvalidChainConfig)
	case c.WrappedNative == nil:
		return fmt.Errorf("%w: missing wrapped native token", ErrInvalidChainConfig)
	case len(c.USDGasTokens) == 0 || c.USDReference == nil:
		return fmt.Errorf("%w: missing usd gas tokens", ErrInvalidChainConfig)
	}
	return nil
}

// LoadChainFile decodes a chain file, choosing the codec by extension.
func LoadChainFile(path string) (ChainFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ChainFile{}, fmt.Errorf("read chain config: %w", err)
	}
	var file ChainFile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, &file)
	case ".json":
		err = sonic.Unmarshal(data, &file)
	default:
		return ChainFile{}, fmt.Errorf("%w: unsupported format %q", ErrInvalidChainConfig, ext)
	}
	if err != nil {
		return ChainFile{}, fmt.Errorf("%w: %v", ErrInvalidChainConfig, err)
	}
	return file, nil
}

func (c *ChainConfig) apply(f ChainFile) error {
	token := func(t TokenFile) (*domain.Token, error) {
		if !ethcommon.IsHexAddress(t.Address) {
			return nil, fmt.Errorf("%w: bad token address %q", ErrInvalidChainConfig, t.Address)
		}
		return domain.NewToken(f.ChainID, ethcommon.HexToAddress(t.Address), t.Decimals, t.Symbol, t.Name), nil
	}
	tokens := func(list []TokenFile) ([]*domain.Token, error) {
		out := make([]*domain.Token, 0, len(list))
		for _, t := range list {
			tok, err := token(t)
			if err != nil {
				return nil, err
			}
			out = append(out, tok)
		}
		return out, nil
	}

	if !ethcommon.IsHexAddress(f.V2Factory) {
		return fmt.Errorf("%w: bad v2 factory %q", ErrInvalidChainConfig, f.V2Factory)
	}
	wrapped, err := token(f.WrappedNative)
	if err != nil {
		return err
	}
	base, err := tokens(f.BaseTokens)
	if err != nil {
		return err
	}
	usd, err := tokens(f.USDGasTokens)
	if err != nil {
		return err
	}

	c.ChainID = f.ChainID
	c.V2Factory = ethcommon.HexToAddress(f.V2Factory)
	c.V2InitCodeHash = ethcommon.HexToHash(f.V2InitCodeHash)
	c.WrappedNative = wrapped
	c.Native = domain.NewNativeCurrency(wrapped, f.NativeSymbol, f.NativeSymbol)
	c.BaseTokens = base
	c.USDGasTokens = usd
	c.USDReference = nil
	if len(usd) > 0 {
		c.USDReference = usd[0]
	}
	if f.USDReference != "" {
		ref := ethcommon.HexToAddress(f.USDReference)
		c.USDReference = nil
		for _, t := range usd {
			if t.Address == ref {
				c.USDReference = t
			}
		}
		if c.USDReference == nil {
			return fmt.Errorf("%w: usd reference %s is not a usd gas token", ErrInvalidChainConfig, f.USDReference)
		}
	}
	return nil
}

// MainnetChainFile is the built-in Ethereum mainnet description.
func MainnetChainFile() ChainFile {
	weth := TokenFile{Address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Decimals: 18, Symbol: "WETH", Name: "Wrapped Ether"}
	usdc := TokenFile{Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Decimals: 6, Symbol: "USDC", Name: "USD Coin"}
	usdt := TokenFile{Address: "0xdAC17F958D2ee523a2206206994597C13D831ec7", Decimals: 6, Symbol: "USDT", Name: "Tether USD"}
	dai := TokenFile{Address: "0x6B175474E89094C44Da98b954EedeAC495271d0F", Decimals: 18, Symbol: "DAI", Name: "Dai Stablecoin"}
	wbtc := TokenFile{Address: "0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599", Decimals: 8, Symbol: "WBTC", Name: "Wrapped BTC"}
	return ChainFile{
		ChainID:        1,
		V2Factory:      "0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f",
		V2InitCodeHash: "0x96e8ac4277198ff8b6f785478aa9a39f403cb768dd02cbee326c3e7da348845f",
		NativeSymbol:   "ETH",
		WrappedNative:  weth,
		BaseTokens:     []TokenFile{weth, usdc, usdt, dai, wbtc},
		USDGasTokens:   []TokenFile{dai, usdc, usdt},
	}
}
