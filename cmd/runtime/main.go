package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/basket-engine/internal/basket"
	"github.com/hxuan190/basket-engine/internal/common"
	"github.com/hxuan190/basket-engine/internal/config"
	"github.com/hxuan190/basket-engine/internal/http"
)

// @title Basket Engine API
// @version 1.0
// @description Multi-asset basket vaults: deposit every registered asset in one call and receive shares, burn shares to get the same fraction of every vault back.
// @description
// @description ## - Usage Tips
// @description - Amounts are base units unless a field says otherwise (uiAmounts accepts "1.5")
// @description - Shares have 6 decimals
// @description - Deposit fees are 10-50 bps, taken per asset into the basket's fee vaults
// @description - Withdrawals carry no fee
// @description - Rate Limit: 10 requests/second (burst: 20) by default
// @BasePath /
// @schemes https http
// @tag.name baskets
// @tag.description Basket views, record layouts, deposits and withdrawals
// @tag.name config
// @tag.description Protocol configuration
// @tag.name accounts
// @tag.description Ledger balances
// @tag.name admin
// @tag.description Operator routes, mounted when BASKET_ADMIN_ENABLED=true

func main() {
	// load env
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("no .env file, using process environment")
	}

	general := &config.GeneralConfig{}
	if err := general.Load(); err != nil {
		log.Error().Err(err).Msg("invalid general config")
		return
	}
	common.SetupLogger(general.ZerologLevel(), general.Env)
	common.InitRuntime()

	// di container config
	conf := container.NewConf(
		general,
		&config.BasketConfig{},
	)

	// di container
	dic, err := container.New(
		// config
		conf,

		// services
		&basket.Service{},
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

	log.Info().Msg("Shutting down services...")
	if err := dic.Stop(); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("Shutdown complete")
}
