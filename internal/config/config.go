package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the configuration settings for the address checker.
//
// Fields:
// - Env: The current environment (e.g., local, dev, prod).
// - ProviderType: The type of geocoding provider to use (ban, nominatim, google).
// - APIKey: The API key for accessing external services (required for Google).
// - Threshold: The minimum confidence score for an address to count as valid.
// - Pace: The minimum interval between consecutive lookups.
// - HealthPort: The monitoring server port; 0 disables the server.
type Config struct {
	Env          string        // Env is the current environment: local, dev, prod.
	ProviderType string        // ProviderType specifies which geocoding provider to use.
	APIKey       string        // The API key for accessing external services.
	Threshold    float64       // The minimum confidence score for a valid address.
	Pace         time.Duration // The minimum interval between consecutive lookups.
	HealthPort   int           // The monitoring server port, 0 to disable.
}

// MustLoad loads the configuration from the environment and returns a Config
// struct. A .env file is honored when present. It panics on unparsable values.
func MustLoad() *Config {
	_ = godotenv.Load()

	threshold, err := strconv.ParseFloat(setDefaultEnv("ADDRCHECK_SCORE_THRESHOLD", "0.7"), 64)
	if err != nil {
		panic("failed to parse score threshold from configuration")
	}

	pace, err := time.ParseDuration(setDefaultEnv("ADDRCHECK_PACE", "33ms"))
	if err != nil {
		panic("failed to parse pacing interval from configuration")
	}

	healthPort, err := strconv.Atoi(setDefaultEnv("ADDRCHECK_HEALTH_PORT", "0"))
	if err != nil {
		panic("failed to parse port for monitoring server from configuration")
	}

	return &Config{
		Env:          setDefaultEnv("ADDRCHECK_ENV", "production"),
		ProviderType: setDefaultEnv("ADDRCHECK_PROVIDER_TYPE", "ban"),
		APIKey:       os.Getenv("ADDRCHECK_PROVIDER_KEY"),
		Threshold:    threshold,
		Pace:         pace,
		HealthPort:   healthPort,
	}
}

func setDefaultEnv(key, override string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		value = override
	}

	return value
}
