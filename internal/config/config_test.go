package config

import (
	"bytes"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.App.Key = testKey
	cfg.App.Canary = "canary"
	return cfg
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	cases := map[string]func(*Config){
		"missing key":      func(c *Config) { c.App.Key = "" },
		"bad base64":       func(c *Config) { c.App.Key = "%%%" },
		"short key":        func(c *Config) { c.App.Key = base64.StdEncoding.EncodeToString([]byte("short")) },
		"missing canary":   func(c *Config) { c.App.Canary = "" },
		"zero iterations":  func(c *Config) { c.KDF.MinIterations = 0 },
		"inverted range":   func(c *Config) { c.KDF.MaxIterations = c.KDF.MinIterations },
		"unknown archiver": func(c *Config) { c.Archiver = "tar" },
		"unknown store":    func(c *Config) { c.Store = "s3" },
		"empty dir":        func(c *Config) { c.Dir = "" },
		"bad level":        func(c *Config) { c.Log.Level = "loud" },
		"bad format":       func(c *Config) { c.Log.Format = "xml" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := DefaultConfig()
	assert.ErrorIs(t, cfg.Validate(), ErrMissingAppKey)
}

func TestAppKey(t *testing.T) {
	key, err := validConfig().AppKey()
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{7}, 32), key)
}

// isolate keeps a developer's own confidant.yaml out of the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
}

func TestLoadFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("CONFIDANT_APP_KEY", testKey)
	t.Setenv("CONFIDANT_APP_CANARY", "from env")
	t.Setenv("CONFIDANT_KDF_MIN_ITERATIONS", "50")
	t.Setenv("CONFIDANT_KDF_MAX_ITERATIONS", "60")

	cfg, err := NewLoader("").Load()
	require.NoError(t, err)
	assert.Equal(t, "from env", cfg.App.Canary)
	assert.Equal(t, 50, cfg.KDF.MinIterations)
	assert.Equal(t, 60, cfg.KDF.MaxIterations)
	assert.Equal(t, "builtin", cfg.Archiver)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "confidant.yaml")
	content := strings.Join([]string{
		"app:",
		"  key: " + testKey,
		"  canary: from file",
		"archiver: exec",
		"store: bbolt",
		"log:",
		"  level: debug",
		"  format: json",
		"",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	loader := NewLoader(path)
	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "from file", cfg.App.Canary)
	assert.Equal(t, "exec", cfg.Archiver)
	assert.Equal(t, "bbolt", cfg.Store)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, path, loader.ConfigFileUsed())

	t.Run("discovered in working directory", func(t *testing.T) {
		isolate(t)
		t.Chdir(dir)
		cfg, err := NewLoader("").Load()
		require.NoError(t, err)
		assert.Equal(t, "from file", cfg.App.Canary)
	})

	t.Run("explicit file must exist", func(t *testing.T) {
		_, err := NewLoader(filepath.Join(dir, "missing.yaml")).Load()
		assert.Error(t, err)
	})
}

func TestLoadPrecedence(t *testing.T) {
	isolate(t)
	t.Setenv("CONFIDANT_LOG_LEVEL", "info")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log-level", "warn", "")
	flags.String("dir", ".", "")
	require.NoError(t, flags.Parse([]string{"--log-level", "error"}))

	cfg, err := NewLoader("").
		SetDefault("app.key", testKey).
		SetDefault("app.canary", "built in").
		BindFlag("log.level", flags.Lookup("log-level")).
		BindFlag("dir", flags.Lookup("dir")).
		Load()
	require.NoError(t, err)
	assert.Equal(t, "built in", cfg.App.Canary)
	assert.Equal(t, "error", cfg.Log.Level, "a set flag beats the environment")
	assert.Equal(t, ".", cfg.Dir)
}

func TestLoadRejectsInvalid(t *testing.T) {
	isolate(t)
	_, err := NewLoader("").Load()
	assert.ErrorIs(t, err, ErrMissingAppKey)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := LogConfig{Level: "info", Format: "json"}.NewLogger(&buf)
	require.NoError(t, err)
	logger.Debug("hidden")
	logger.Info("shown", "vault", "notes")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"vault":"notes"`)

	_, err = LogConfig{Level: "loud"}.NewLogger(&buf)
	assert.Error(t, err)
	_, err = LogConfig{Level: "info", Format: "xml"}.NewLogger(&buf)
	assert.Error(t, err)
}
