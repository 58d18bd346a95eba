package config

import (
	"fmt"
	"math/big"

	"github.com/andrew-solarstorm/go-packages/common"
)

type GasConfig struct {
	// GasPrice in wei.
	// Default: 20 gwei
	GasPrice *big.Int

	V2BaseCost        int64
	V2CostPerExtraHop int64

	V3BaseCost          int64
	V3CostPerHop        int64
	V3SingleHopOverhead int64
	V3CostPerInitTick   int64
}

func (c *GasConfig) Key() string {
	return GAS_CONFIG_KEY
}

func (c *GasConfig) Load() error {
	raw := common.GetEnvOrDefault("GAS_PRICE_WEI", "20000000000")
	price, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return fmt.Errorf("invalid GAS_PRICE_WEI %q", raw)
	}
	c.GasPrice = price
	c.V2BaseCost = int64(common.GetEnvOrDefaultInt("GAS_V2_BASE_COST", 135000))
	c.V2CostPerExtraHop = int64(common.GetEnvOrDefaultInt("GAS_V2_COST_PER_EXTRA_HOP", 50000))
	c.V3BaseCost = int64(common.GetEnvOrDefaultInt("GAS_V3_BASE_COST", 2000))
	c.V3CostPerHop = int64(common.GetEnvOrDefaultInt("GAS_V3_COST_PER_HOP", 80000))
	c.V3SingleHopOverhead = int64(common.GetEnvOrDefaultInt("GAS_V3_SINGLE_HOP_OVERHEAD", 15000))
	c.V3CostPerInitTick = int64(common.GetEnvOrDefaultInt("GAS_V3_COST_PER_INIT_TICK", 31000))
	return c.Validate()
}

func (c *GasConfig) Validate() error {
	if c.GasPrice == nil || c.GasPrice.Sign() < 0 {
		return fmt.Errorf("invalid gas config: gas price %v", c.GasPrice)
	}
	for _, v := range []int64{c.V2BaseCost, c.V2CostPerExtraHop, c.V3BaseCost, c.V3CostPerHop, c.V3SingleHopOverhead, c.V3CostPerInitTick} {
		if v < 0 {
			return fmt.Errorf("invalid gas config: negative cost %d", v)
		}
	}
	return nil
}
