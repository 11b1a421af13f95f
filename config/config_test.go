package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixeltrack/api/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("TRUSTED_PROXIES", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.False(t, cfg.ClickHouse.Enabled())
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 2*time.Second, cfg.GeoIP.Timeout)
	assert.Equal(t, 30, cfg.Tracking.TrafficDefaultDays)
	assert.Equal(t, 15*time.Minute, cfg.Tracking.RollupInterval)
	assert.Nil(t, cfg.TrustedProxies)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("PORT", "9090")
	t.Setenv("CLICKHOUSE_HOST", "clickhouse")
	t.Setenv("CLICKHOUSE_NATIVE_PORT", "9440")
	t.Setenv("GEOIP_ENABLED", "false")
	t.Setenv("ROLLUP_INTERVAL", "1h")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.1, 172.16.0.0/12,")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.ClickHouse.Enabled())
	assert.Equal(t, 9440, cfg.ClickHouse.Port)
	assert.False(t, cfg.GeoIP.Enabled)
	assert.Equal(t, time.Hour, cfg.Tracking.RollupInterval)
	assert.Equal(t, []string{"10.0.0.1", "172.16.0.0/12"}, cfg.TrustedProxies)
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET_KEY")
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("GEOIP_TIMEOUT", "soon")
	t.Setenv("TRACK_RATE_BURST", "many")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEOIP_TIMEOUT")
	assert.Contains(t, err.Error(), "TRACK_RATE_BURST")
}

func TestLoad_NonPositiveRollupInterval(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("ROLLUP_INTERVAL", "0s")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ROLLUP_INTERVAL")
}
