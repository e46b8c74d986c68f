package config

import (
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("EARN_RATE", "2.5")
	t.Setenv("REFERRER_BONUS", "250")
	t.Setenv("RFM_INTERVAL", "30m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.True(t, decimal.RequireFromString("2.5").Equal(cfg.Program.EarnRate))
	assert.Equal(t, int64(250), cfg.Program.ReferrerBonus)
	assert.Equal(t, int64(50), cfg.Program.RefereeBonus)
	assert.Equal(t, 30*time.Minute, cfg.RFMInterval)
	assert.Equal(t, 720*time.Hour, cfg.Program.VoucherTTL)
	assert.False(t, cfg.IsProduction())
}

func TestLoadRejectsDefaultSecretInProduction(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", DefaultJWTSecret)

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)

	t.Setenv("JWT_SECRET", "")
	_, err = Load()
	require.Error(t, err)

	t.Setenv("JWT_SECRET", "a-real-production-secret")
	cfg, err = Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestLoadKeepsDefaultSecretOutsideProduction(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("JWT_SECRET", "placeholder")
	require.NoError(t, os.Unsetenv("JWT_SECRET"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultJWTSecret, cfg.JWTSecret)
}
