package config

import (
	"os"
	"strconv"
	"time"
)

// Config carries the environment-driven service settings. The auth secret is
// deliberately absent: internal/auth reads SECUREGATE_AUTH_SECRET itself so
// tokens can be verified without threading config through every package.
type Config struct {
	Addr        string
	PostgresDSN string
	TokenTTL    time.Duration
	RateBurst   int
	RatePerSec  int
	MaxBodySize int64
}

// Load assembles Config from environment variables with sensible defaults.
func Load() Config {
	return Config{
		Addr:        getEnv("SECUREGATE_ADDR", ":8080"),
		PostgresDSN: os.Getenv("SECUREGATE_PG_DSN"),
		TokenTTL:    getDuration("SECUREGATE_TOKEN_TTL", 12*time.Hour),
		RateBurst:   getInt("SECUREGATE_RATE_BURST", 20),
		RatePerSec:  getInt("SECUREGATE_RATE_PER_SEC", 10),
		MaxBodySize: int64(getInt("SECUREGATE_MAX_BODY_BYTES", 1<<20)),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}
