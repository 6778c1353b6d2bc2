package config

import (
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	basketcommon "github.com/hxuan190/basket-engine/internal/common"
)

func TestBasketConfigDefaults(t *testing.T) {
	for _, k := range []string{"BASKET_PROGRAM_ID", "BASKET_DB_PATH", "BASKET_PERSISTENCE_ENABLED", "BASKET_RATE_LIMIT", "BASKET_RATE_BURST", "BASKET_ADMIN_ENABLED"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	t.Setenv("ENV", "prod")
	var c BasketConfig
	require.NoError(t, c.Load())

	assert.Equal(t, basketcommon.DefaultBasketProgramID, c.ProgramID)
	assert.Equal(t, "./data/basket.db", c.DBPath)
	assert.True(t, c.PersistenceEnabled)
	assert.Equal(t, 10, c.RateLimit)
	assert.Equal(t, 20, c.RateBurst)
	assert.False(t, c.AdminEnabled)
}

func TestBasketConfigOverrides(t *testing.T) {
	t.Setenv("BASKET_PROGRAM_ID", "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	t.Setenv("BASKET_PERSISTENCE_ENABLED", "false")
	t.Setenv("BASKET_ADMIN_ENABLED", "true")
	t.Setenv("BASKET_RATE_LIMIT", "5")
	t.Setenv("BASKET_RATE_BURST", "5")

	var c BasketConfig
	require.NoError(t, c.Load())
	assert.Equal(t, basketcommon.TokenProgramID, c.ProgramID)
	assert.False(t, c.PersistenceEnabled)
	assert.True(t, c.AdminEnabled)
	assert.Equal(t, 5, c.RateLimit)
}

func TestBasketConfigRejectsBadValues(t *testing.T) {
	t.Setenv("BASKET_PROGRAM_ID", "not-a-key")
	var c BasketConfig
	assert.Error(t, c.Load())

	c = BasketConfig{ProgramID: basketcommon.DefaultBasketProgramID, RateLimit: 10, RateBurst: 5}
	assert.Error(t, c.Validate())
}

func TestGeneralConfigLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("HTTP_HOST", "localhost")
	t.Setenv("ENV", "dev")
	var gc GeneralConfig
	require.NoError(t, gc.Load())
	assert.Equal(t, zerolog.DebugLevel, gc.ZerologLevel())

	gc.LogLevel = "verbose"
	assert.Error(t, gc.Validate())
	assert.Equal(t, zerolog.InfoLevel, gc.ZerologLevel())
}

func TestBasketConfigAdminDefaultsOnInDev(t *testing.T) {
	t.Setenv("ENV", "dev")
	t.Setenv("BASKET_ADMIN_ENABLED", "")
	require.NoError(t, os.Unsetenv("BASKET_ADMIN_ENABLED"))

	var c BasketConfig
	require.NoError(t, c.Load())
	assert.True(t, c.AdminEnabled)
}
