package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/Houeta/addrcheck/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestMustLoad_Defaults(t *testing.T) {
	// Shield the test from ambient values: t.Setenv registers the restore,
	// Unsetenv actually clears the variable.
	for _, key := range []string{
		"ADDRCHECK_ENV",
		"ADDRCHECK_PROVIDER_TYPE",
		"ADDRCHECK_PROVIDER_KEY",
		"ADDRCHECK_SCORE_THRESHOLD",
		"ADDRCHECK_PACE",
		"ADDRCHECK_HEALTH_PORT",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := config.MustLoad()

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "ban", cfg.ProviderType)
	assert.Empty(t, cfg.APIKey)
	assert.InEpsilon(t, 0.7, cfg.Threshold, 0.0001)
	assert.Equal(t, 33*time.Millisecond, cfg.Pace)
	assert.Equal(t, 0, cfg.HealthPort)
}

func TestMustLoad_FromEnv(t *testing.T) {
	t.Setenv("ADDRCHECK_ENV", "local")
	t.Setenv("ADDRCHECK_PROVIDER_TYPE", "google")
	t.Setenv("ADDRCHECK_PROVIDER_KEY", "testAPIKey")
	t.Setenv("ADDRCHECK_SCORE_THRESHOLD", "0.85")
	t.Setenv("ADDRCHECK_PACE", "1s")
	t.Setenv("ADDRCHECK_HEALTH_PORT", "8080")

	cfg := config.MustLoad()

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "google", cfg.ProviderType)
	assert.Equal(t, "testAPIKey", cfg.APIKey)
	assert.InEpsilon(t, 0.85, cfg.Threshold, 0.0001)
	assert.Equal(t, time.Second, cfg.Pace)
	assert.Equal(t, 8080, cfg.HealthPort)
}

func TestMustLoad_ThresholdError(t *testing.T) {
	t.Setenv("ADDRCHECK_SCORE_THRESHOLD", "error_value")

	assert.PanicsWithValue(t, "failed to parse score threshold from configuration", func() {
		config.MustLoad()
	})
}

func TestMustLoad_PaceError(t *testing.T) {
	t.Setenv("ADDRCHECK_PACE", "error_value")

	assert.PanicsWithValue(t, "failed to parse pacing interval from configuration", func() {
		config.MustLoad()
	})
}

func TestMustLoad_PortError(t *testing.T) {
	t.Setenv("ADDRCHECK_HEALTH_PORT", "error_value")

	assert.PanicsWithValue(t, "failed to parse port for monitoring server from configuration", func() {
		config.MustLoad()
	})
}
