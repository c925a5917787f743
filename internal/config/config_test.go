package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	require.Equal(t, "stegashield", cfg.AppName)
	require.Equal(t, ":8080", cfg.ListenAddr)
	require.Equal(t, "postgres", cfg.DBType)
	require.Equal(t, "https://sandbox.safaricom.co.ke", cfg.Mpesa.BaseURL)
	require.Equal(t, 30*time.Second, cfg.Mpesa.Timeout)
	require.True(t, cfg.Bootstrap.EnsureAdminUser)
	require.False(t, cfg.IsProduction())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("LISTEN_ADDR", ":9090")
	t.Setenv("MPESA_SHORTCODE", "600999")
	t.Setenv("MPESA_TIMEOUT", "5s")
	t.Setenv("AUTH_TOKEN_TTL", "1h")
	t.Setenv("BOOTSTRAP_ENSURE_ADMIN_USER", "false")
	t.Setenv("DATABASE_MAX_OPEN_CONN", "40")

	cfg := Load()

	require.True(t, cfg.IsProduction())
	require.Equal(t, ":9090", cfg.ListenAddr)
	require.Equal(t, "600999", cfg.Mpesa.ShortCode)
	require.Equal(t, 5*time.Second, cfg.Mpesa.Timeout)
	require.Equal(t, time.Hour, cfg.AuthTokenTTL)
	require.False(t, cfg.Bootstrap.EnsureAdminUser)
	require.Equal(t, 40, cfg.DBMaxOpenConn)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("DATABASE_MAX_IDLE_CONN", "lots")
	t.Setenv("MPESA_TIMEOUT", "soon")
	t.Setenv("BOOTSTRAP_ENSURE_ADMIN_USER", "yep")

	cfg := Load()

	require.Equal(t, 5, cfg.DBMaxIdleConn)
	require.Equal(t, 30*time.Second, cfg.Mpesa.Timeout)
	require.True(t, cfg.Bootstrap.EnsureAdminUser)
}

func TestRatesHolderSetAndCurrent(t *testing.T) {
	holder := NewStaticRatesHolder(RatesConfig{USDToKES: decimal.NewFromInt(140)})
	require.True(t, holder.Current().USDToKES.Equal(decimal.NewFromInt(140)))

	holder.Set(RatesConfig{USDToKES: decimal.RequireFromString("151.25")})
	require.True(t, holder.Current().USDToKES.Equal(decimal.RequireFromString("151.25")))
}

func TestDefaultRatePositive(t *testing.T) {
	require.True(t, DefaultRatesConfig().USDToKES.IsPositive())
}
