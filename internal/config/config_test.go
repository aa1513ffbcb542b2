package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/julianstephens/habits/internal/constants"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"HABITS_DB", "HABITS_CODEC", "HABITS_TIMEZONE", "HABITS_SEED_DEMO", "HABITS_DEBUG",
		"HABITS_NOTIFY_QUEUE_URL", "HABITS_METRICS_ADDR", "HABITS_REMIND_INTERVAL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg := Load(filepath.Join(t.TempDir(), "missing.env"))

	assert.Equal(t, "json", cfg.Codec)
	assert.Equal(t, constants.DefaultTimezone, cfg.Timezone)
	assert.False(t, cfg.SeedDemo)
	assert.False(t, cfg.Debug)
	assert.Equal(t, constants.DefaultMetricsAddr, cfg.MetricsAddr)
	assert.Equal(t, constants.DefaultRemindInterval, cfg.RemindInterval)
	assert.Equal(t, "habits.db", filepath.Base(cfg.DB))
	assert.NotContains(t, cfg.DB, "~")
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("HABITS_DB", "/data/habits.json")
	t.Setenv("HABITS_CODEC", "MSGPACK")
	t.Setenv("HABITS_SEED_DEMO", "true")
	t.Setenv("HABITS_REMIND_INTERVAL", "1m")
	t.Setenv("HABITS_DEBUG", "not-a-bool")

	cfg := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Equal(t, "/data/habits.json", cfg.DB)
	assert.Equal(t, "msgpack", cfg.Codec)
	assert.True(t, cfg.SeedDemo)
	assert.False(t, cfg.Debug)
	assert.Equal(t, time.Minute, cfg.RemindInterval)
	assert.Equal(t, "/data", cfg.ConfigDir())
}

func TestLoad_FromEnvFile(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("HABITS_TIMEZONE")
	t.Cleanup(func() { os.Unsetenv("HABITS_TIMEZONE") })

	envFile := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envFile, []byte("HABITS_TIMEZONE=America/Sao_Paulo\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg := Load(envFile)
	assert.Equal(t, "America/Sao_Paulo", cfg.Timezone)
}

func TestConfigDir_RemoteTarget(t *testing.T) {
	cfg := Config{DB: "postgres://habits@localhost/habits"}
	assert.Equal(t, "habits", filepath.Base(cfg.ConfigDir()))
}
