package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	HTTP struct {
		Port string `yaml:"port"`
	} `yaml:"http"`
	Redis struct {
		DB  int           `yaml:"db"`
		TTL time.Duration `yaml:"ttl"`
	} `yaml:"redis"`
	Payment struct {
		BaseURL string `yaml:"base_url" env:"PAYMENT_BASE_URL"`
	} `yaml:"payment"`
	Debug bool `yaml:"debug"`
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  port: "9090"
redis:
  db: 3
  ttl: 12h
debug: true
`), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg := &testConfig{}
	require.NoError(t, Load(cfg))

	assert.Equal(t, "9090", cfg.HTTP.Port)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, 12*time.Hour, cfg.Redis.TTL)
	assert.True(t, cfg.Debug)
}

func TestEnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http:\n  port: \"9090\"\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("HTTP_PORT", "7070")
	t.Setenv("REDIS_TTL", "90m")
	t.Setenv("PAYMENT_BASE_URL", "http://payments:8000")

	cfg := &testConfig{}
	require.NoError(t, Load(cfg))

	assert.Equal(t, "7070", cfg.HTTP.Port)
	assert.Equal(t, 90*time.Minute, cfg.Redis.TTL)
	assert.Equal(t, "http://payments:8000", cfg.Payment.BaseURL)
}

func TestLoadWithoutFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("HTTP_PORT", "6060")

	cfg := &testConfig{}
	require.NoError(t, Load(cfg))
	assert.Equal(t, "6060", cfg.HTTP.Port)
}

func TestLoadRejectsNonPointer(t *testing.T) {
	assert.Error(t, Load(testConfig{}))
	assert.Error(t, Load(nil))
}

func TestLoadBadEnvValue(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := &testConfig{}
	assert.Error(t, Load(cfg))
}
