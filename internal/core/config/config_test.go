package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad_Defaults verifies that default values are used when env vars are missing.
func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("APP_ENV")
	os.Unsetenv("LOG_LEVEL")
	os.Unsetenv("SERVER_PORT")
	os.Unsetenv("REDIS_URL")
	os.Unsetenv("TRACK_ACCURACY_CEILING_M")
	os.Unsetenv("TRACK_MAX_SPEED_MPS")
	os.Unsetenv("TRACK_MIN_MOVEMENT_M")
	os.Unsetenv("TRACK_FLUSH_INTERVAL_S")
	os.Unsetenv("TRACK_DAY_CHECK_INTERVAL_S")

	cfg, err := Load(".")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)

	assert.Equal(t, 50.0, cfg.Tracking.AccuracyCeilingMeters)
	assert.Equal(t, 50.0, cfg.Tracking.MaxSpeedMPS)
	assert.Equal(t, 2.0, cfg.Tracking.MinMovementMeters)
	assert.Equal(t, 5000, cfg.Tracking.SampleIntervalMillis)
	assert.Equal(t, 60, cfg.Tracking.FlushIntervalSeconds)
	assert.Equal(t, 60, cfg.Tracking.DayCheckIntervalSeconds)
}

// TestLoad_EnvVars verifies that environment variables override defaults.
func TestLoad_EnvVars(t *testing.T) {
	os.Setenv("APP_ENV", "production")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("SERVER_PORT", "9090")
	os.Setenv("REDIS_URL", "redis://cache.internal:6380/1")
	os.Setenv("TRACK_ACCURACY_CEILING_M", "35")
	os.Setenv("TRACK_MAX_SPEED_MPS", "42")
	os.Setenv("TRACK_FLUSH_INTERVAL_S", "20")
	defer func() {
		os.Unsetenv("APP_ENV")
		os.Unsetenv("LOG_LEVEL")
		os.Unsetenv("SERVER_PORT")
		os.Unsetenv("REDIS_URL")
		os.Unsetenv("TRACK_ACCURACY_CEILING_M")
		os.Unsetenv("TRACK_MAX_SPEED_MPS")
		os.Unsetenv("TRACK_FLUSH_INTERVAL_S")
	}()

	cfg, err := Load(".")
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "redis://cache.internal:6380/1", cfg.Redis.URL)
	assert.Equal(t, 35.0, cfg.Tracking.AccuracyCeilingMeters)
	assert.Equal(t, 42.0, cfg.Tracking.MaxSpeedMPS)
	assert.Equal(t, 20, cfg.Tracking.FlushIntervalSeconds)
}

// TestTrackingConfig_Durations verifies the duration helpers.
func TestTrackingConfig_Durations(t *testing.T) {
	tc := TrackingConfig{FlushIntervalSeconds: 20, DayCheckIntervalSeconds: 60}

	assert.Equal(t, "20s", tc.FlushInterval().String())
	assert.Equal(t, "1m0s", tc.DayCheckInterval().String())
}
