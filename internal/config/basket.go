package config

import (
	"errors"
	"fmt"

	"github.com/andrew-solarstorm/go-packages/common"
	"github.com/gagliardetto/solana-go"

	basketcommon "github.com/hxuan190/basket-engine/internal/common"
)

type BasketConfig struct {
	// ProgramID is the program the basket addresses are derived under.
	ProgramID solana.PublicKey

	// DBPath is the path to the BoltDB file holding the ledger.
	// Default: "./data/basket.db"
	DBPath string

	// PersistenceEnabled controls whether ledger commits are written to disk.
	// Default: true
	PersistenceEnabled bool

	// RateLimit and RateBurst bound requests per client IP.
	RateLimit int
	RateBurst int

	// AdminEnabled mounts the administrative and faucet routes.
	// Default: true when ENV=dev
	AdminEnabled bool
}

func (c *BasketConfig) Key() string {
	return BASKET_CONFIG_KEY
}

func (c *BasketConfig) Load() error {
	raw := common.GetEnvOrDefault("BASKET_PROGRAM_ID", basketcommon.DefaultBasketProgramID.String())
	programID, err := solana.PublicKeyFromBase58(raw)
	if err != nil {
		return fmt.Errorf("invalid BASKET_PROGRAM_ID: %w", err)
	}
	c.ProgramID = programID
	c.DBPath = common.GetEnvOrDefault("BASKET_DB_PATH", "./data/basket.db")
	c.PersistenceEnabled = common.GetEnvOrDefault("BASKET_PERSISTENCE_ENABLED", "true") == "true"
	c.RateLimit = common.GetEnvOrDefaultInt("BASKET_RATE_LIMIT", 10)
	c.RateBurst = common.GetEnvOrDefaultInt("BASKET_RATE_BURST", 20)
	adminDefault := "false"
	if common.GetEnvOrDefault("ENV", DevEnv) == DevEnv {
		adminDefault = "true"
	}
	c.AdminEnabled = common.GetEnvOrDefault("BASKET_ADMIN_ENABLED", adminDefault) == "true"
	return c.Validate()
}

func (c *BasketConfig) Validate() error {
	if c.ProgramID.IsZero() {
		return errors.New("invalid basket config: empty program id")
	}
	if c.PersistenceEnabled && c.DBPath == "" {
		return errors.New("invalid basket config: persistence enabled without db path")
	}
	if c.RateLimit <= 0 || c.RateBurst < c.RateLimit {
		return fmt.Errorf("invalid basket config: rate %d burst %d", c.RateLimit, c.RateBurst)
	}
	return nil
}
