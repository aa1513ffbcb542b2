// Package config reads runtime settings from the environment and an optional .env file.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/julianstephens/habits/internal/constants"
	"github.com/julianstephens/habits/internal/logger"
)

type Config struct {
	// DB is a SQLite path, a *.json path, or a postgres://, redis:// or mongodb:// URL.
	DB             string
	Codec          string
	Timezone       string
	SeedDemo       bool
	Debug          bool
	NotifyQueueURL string
	MetricsAddr    string
	RemindInterval time.Duration
}

// Load reads the given env files, or ./.env when none are given. Missing files are ignored
// and variables already set in the environment take precedence.
func Load(files ...string) Config {
	if err := godotenv.Load(files...); err != nil && !os.IsNotExist(err) {
		logger.Warn("Failed to load .env file", "error", err)
	}

	return Config{
		DB:             ExpandHome(getenv("HABITS_DB", constants.DefaultConfigPath)),
		Codec:          strings.ToLower(getenv("HABITS_CODEC", "json")),
		Timezone:       getenv("HABITS_TIMEZONE", constants.DefaultTimezone),
		SeedDemo:       getenvBool("HABITS_SEED_DEMO", false),
		Debug:          getenvBool("HABITS_DEBUG", false),
		NotifyQueueURL: getenv("HABITS_NOTIFY_QUEUE_URL", ""),
		MetricsAddr:    getenv("HABITS_METRICS_ADDR", constants.DefaultMetricsAddr),
		RemindInterval: getenvDuration("HABITS_REMIND_INTERVAL", constants.DefaultRemindInterval),
	}
}

// ConfigDir is the directory holding logs and backups for a local store.
// Remote targets fall back to the default directory.
func (c Config) ConfigDir() string {
	if strings.Contains(c.DB, "://") {
		return filepath.Dir(ExpandHome(constants.DefaultConfigPath))
	}
	return filepath.Dir(c.DB)
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
