// Package config loads confidant settings from defaults, an optional
// confidant.yaml, CONFIDANT_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"

	"github.com/jmcleod/confidant/crypto"
	"github.com/jmcleod/confidant/internal/util"
	"github.com/jmcleod/confidant/vault"
)

// Config holds all application configuration.
type Config struct {
	// Application secrets shared by every vault of this installation
	App AppConfig `mapstructure:"app"`

	// PBKDF2 iteration range for new vaults
	KDF KDFConfig `mapstructure:"kdf"`

	// Archiver: builtin or exec
	Archiver string `mapstructure:"archiver"`

	// Artifact store: disk (one file per artifact) or bbolt (one database file)
	Store string `mapstructure:"store"`

	// Working directory holding the vaults
	Dir string `mapstructure:"dir"`

	Log LogConfig `mapstructure:"log"`
}

// AppConfig carries the application key and canary phrase.
type AppConfig struct {
	Key    string `mapstructure:"key"`    // Base64, at least 32 bytes
	Canary string `mapstructure:"canary"` // Known plaintext sealed under each auth key
}

// KDFConfig bounds the per-vault iteration count, [MinIterations, MaxIterations).
type KDFConfig struct {
	MinIterations int `mapstructure:"min_iterations"`
	MaxIterations int `mapstructure:"max_iterations"`
}

// LogConfig for logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text, json
}

// DefaultConfig returns config with sensible defaults. The application
// secrets have no default.
func DefaultConfig() *Config {
	return &Config{
		KDF: KDFConfig{
			MinIterations: vault.DefaultMinIterations,
			MaxIterations: vault.DefaultMaxIterations,
		},
		Archiver: "builtin",
		Store:    "disk",
		Dir:      ".",
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// ErrMissingAppKey indicates no application key was configured.
var ErrMissingAppKey = errors.New("app.key is required (generate one with `confidant appkey`)")

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.App.Key == "" {
		return ErrMissingAppKey
	}
	if _, err := c.AppKey(); err != nil {
		return err
	}
	if c.App.Canary == "" {
		return errors.New("app.canary is required")
	}

	if c.KDF.MinIterations < 1 {
		return errors.New("kdf.min_iterations must be positive")
	}
	if c.KDF.MaxIterations <= c.KDF.MinIterations {
		return fmt.Errorf("kdf.max_iterations (%d) must exceed kdf.min_iterations (%d)",
			c.KDF.MaxIterations, c.KDF.MinIterations)
	}

	switch c.Archiver {
	case "builtin", "exec":
	default:
		return fmt.Errorf("invalid archiver: %s", c.Archiver)
	}

	switch c.Store {
	case "disk", "bbolt":
	default:
		return fmt.Errorf("invalid store: %s", c.Store)
	}

	if c.Dir == "" {
		return errors.New("dir is required")
	}

	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}

	return nil
}

// AppKey decodes the application key.
func (c *Config) AppKey() ([]byte, error) {
	key, err := util.Base64Decode(c.App.Key)
	if err != nil {
		return nil, fmt.Errorf("app.key is not valid Base64: %w", err)
	}
	if len(key) < crypto.MinAppKeyLength {
		return nil, fmt.Errorf("app.key must decode to at least %d bytes, got %d", crypto.MinAppKeyLength, len(key))
	}
	return key, nil
}
