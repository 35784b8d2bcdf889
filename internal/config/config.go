// Package config loads the daemon configuration from the environment,
// with an optional .env file for local development.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the daemon needs at startup.
type Config struct {
	// DBPath is the SQLite database file; parent directories are created.
	DBPath string

	// ServerURL is the base URL of the remote trip-planning API.
	ServerURL string

	// AuthToken is the initial bearer token. It may be empty; sync stays
	// refused until a token arrives through the control surface.
	AuthToken string

	// ListenAddr is the local control/metrics listen address.
	ListenAddr string

	// ProbeInterval is the connectivity polling interval.
	ProbeInterval time.Duration

	// ProbeThreshold is the debounce threshold in consecutive probes.
	ProbeThreshold int
}

// Load reads configuration from the environment. A .env file in the
// working directory is merged in first when present.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	cfg := Config{
		DBPath:         getEnv("TRIPSYNC_DB_PATH", "./data/tripsync.db"),
		ServerURL:      getEnv("TRIPSYNC_SERVER_URL", ""),
		AuthToken:      getEnv("TRIPSYNC_AUTH_TOKEN", ""),
		ListenAddr:     getEnv("TRIPSYNC_LISTEN_ADDR", ":8090"),
		ProbeInterval:  5 * time.Second,
		ProbeThreshold: 2,
	}

	if cfg.ServerURL == "" {
		return Config{}, fmt.Errorf("TRIPSYNC_SERVER_URL is required")
	}

	if v := os.Getenv("TRIPSYNC_PROBE_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid TRIPSYNC_PROBE_INTERVAL %q: %w", v, err)
		}
		cfg.ProbeInterval = d
	}
	if v := os.Getenv("TRIPSYNC_PROBE_THRESHOLD"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("invalid TRIPSYNC_PROBE_THRESHOLD %q", v)
		}
		cfg.ProbeThreshold = n
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
