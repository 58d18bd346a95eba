package config

import (
	"fmt"
	"runtime"
	"time"

	"github.com/andrew-solarstorm/go-packages/common"
)

// MaxSplitsCap is the largest maxSplits the optimizer accepts.
const MaxSplitsCap = 7

type RouterConfig struct {
	MaxHops             int
	MinSplits           int
	MaxSplits           int
	DistributionPercent int
	MaxNumResults       int

	// Workers bounds the goroutines used for quoting and split search.
	// Default: runtime.NumCPU()
	Workers int

	// SearchTimeout bounds one routing call.
	// Default: 2s
	SearchTimeout time.Duration

	ForceCrossProtocol bool
	ForceMixedRoutes   bool

	// Candidate pool selection
	TopN                  int
	TopNDirectSwaps       int
	TopNTokenInOut        int
	TopNSecondHop         int
	TopNWithEachBaseToken int
	TopNWithBaseToken     int
}

func (c *RouterConfig) Key() string {
	return ROUTER_CONFIG_KEY
}

func (c *RouterConfig) Load() error {
	c.MaxHops = common.GetEnvOrDefaultInt("ROUTER_MAX_HOPS", 3)
	c.MinSplits = common.GetEnvOrDefaultInt("ROUTER_MIN_SPLITS", 1)
	c.MaxSplits = common.GetEnvOrDefaultInt("ROUTER_MAX_SPLITS", 3)
	c.DistributionPercent = common.GetEnvOrDefaultInt("ROUTER_DISTRIBUTION_PERCENT", 5)
	c.MaxNumResults = common.GetEnvOrDefaultInt("ROUTER_MAX_NUM_RESULTS", 3)
	c.Workers = common.GetEnvOrDefaultInt("ROUTER_WORKERS", runtime.NumCPU())
	c.SearchTimeout = time.Duration(common.GetEnvOrDefaultInt("ROUTER_SEARCH_TIMEOUT_MS", 2000)) * time.Millisecond
	c.ForceCrossProtocol = common.GetEnvOrDefault("ROUTER_FORCE_CROSS_PROTOCOL", "false") == "true"
	c.ForceMixedRoutes = common.GetEnvOrDefault("ROUTER_FORCE_MIXED_ROUTES", "false") == "true"

	c.TopN = common.GetEnvOrDefaultInt("ROUTER_TOP_N", 2)
	c.TopNDirectSwaps = common.GetEnvOrDefaultInt("ROUTER_TOP_N_DIRECT_SWAPS", 2)
	c.TopNTokenInOut = common.GetEnvOrDefaultInt("ROUTER_TOP_N_TOKEN_IN_OUT", 3)
	c.TopNSecondHop = common.GetEnvOrDefaultInt("ROUTER_TOP_N_SECOND_HOP", 1)
	c.TopNWithEachBaseToken = common.GetEnvOrDefaultInt("ROUTER_TOP_N_WITH_EACH_BASE_TOKEN", 3)
	c.TopNWithBaseToken = common.GetEnvOrDefaultInt("ROUTER_TOP_N_WITH_BASE_TOKEN", 5)
	return c.Validate()
}

func (c *RouterConfig) Validate() error {
	if c.MaxHops <= 0 {
		return fmt.Errorf("invalid router config: max hops %d", c.MaxHops)
	}
	if c.MinSplits < 1 || c.MinSplits > c.MaxSplits || c.MaxSplits > MaxSplitsCap {
		return fmt.Errorf("invalid router config: need 1 <= min splits (%d) <= max splits (%d) <= %d", c.MinSplits, c.MaxSplits, MaxSplitsCap)
	}
	if c.DistributionPercent <= 0 || c.DistributionPercent > 100 || 100%c.DistributionPercent != 0 {
		return fmt.Errorf("invalid router config: distribution percent %d must divide 100", c.DistributionPercent)
	}
	if c.MaxNumResults <= 0 {
		return fmt.Errorf("invalid router config: max results %d", c.MaxNumResults)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("invalid router config: workers %d", c.Workers)
	}
	if c.SearchTimeout <= 0 {
		return fmt.Errorf("invalid router config: search timeout %s", c.SearchTimeout)
	}
	for name, v := range map[string]int{
		"top n":                      c.TopN,
		"top n direct swaps":         c.TopNDirectSwaps,
		"top n token in/out":         c.TopNTokenInOut,
		"top n second hop":           c.TopNSecondHop,
		"top n with each base token": c.TopNWithEachBaseToken,
		"top n with base token":      c.TopNWithBaseToken,
	} {
		if v < 0 {
			return fmt.Errorf("invalid router config: %s is negative", name)
		}
	}
	return nil
}
