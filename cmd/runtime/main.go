package main

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/amm-router/internal/common"
	"github.com/hxuan190/amm-router/internal/config"
	"github.com/hxuan190/amm-router/internal/http"
	"github.com/hxuan190/amm-router/internal/services/router"
)

// @title AMM Router API
// @version 1.0
// @description Pricing engine for constant-product and concentrated-liquidity AMM pools.
// @description
// @description ## - Features
// @description - **Split Routing**: Splits a trade across routes in distribution-percent steps for the best gas-adjusted quote
// @description - **Mixed Protocols**: Routes hop between V2 pairs and V3 pools
// @description - **Gas Aware**: Every quote is adjusted for estimated gas in the quote token and reported in USD
// @description - **Price Impact Analysis**: Price impact with severity warnings
// @description - **Slippage Protection**: Minimum output or maximum input for a slippage tolerance
// @description
// @description ## - Usage Tips
// @description - Callers send the pool snapshot to route over with every request
// @description - Use smallest token units: USDC has 6 decimals, 1 USDC = 1,000,000
// @description - Use "native" as a token to trade the chain's native currency
// @description - Rate Limit: 10 requests/second (burst: 20) by default
// @BasePath /
// @schemes https http
// @tag.name quote
// @tag.description Best split of a trade across V2 and V3 routes
// @tag.name trade
// @tag.description Best single-route trades over V2 pairs
// @tag.name pair
// @tag.description V2 pair math: addresses and single-pair swaps

func main() {
	// load env; a missing .env is fine, the environment may be set directly
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Error().Err(err).Msg("failed to load env")
		return
	}

	setupLogger(os.Getenv("ENV"), os.Getenv("LOG_LEVEL"))

	// GOGC, GOMAXPROCS and GOMEMLIMIT from the machine's profile
	common.InitRuntime()

	// di container config
	conf := container.NewConf(
		&config.GeneralConfig{},
		&config.RouterConfig{},
		&config.GasConfig{},
		&config.ChainConfig{},
	)

	// di container
	dic, err := container.New(
		// config
		conf,

		// services
		&router.Service{},
		&http.HTTPService{},
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to create di container")
		return
	}

	// Run blocks until SIGINT/SIGTERM
	if err := dic.Run(); err != nil {
		log.Error().Err(err).Msg("failed to run di container")
		return
	}

	// Run doesn't call Stop(), we must do it manually
	log.Info().Msg("Shutting down services...")
	if err := dic.Stop(); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("Shutdown complete")
}

// setupLogger must run before any service logger is derived from the global one.
func setupLogger(env, level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	if env == "" || env == config.DevEnv {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}
