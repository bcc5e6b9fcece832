package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "CONFIDANT"

// Loader handles configuration loading from multiple sources.
type Loader struct {
	configPath string
	defaults   map[string]any
	flags      map[string]*pflag.Flag
	used       string
}

// NewLoader creates a config loader. An empty configPath searches the
// working directory and $HOME/.config/confidant for confidant.yaml.
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
		defaults:   make(map[string]any),
		flags:      make(map[string]*pflag.Flag),
	}
}

// SetDefault overrides a built-in default, e.g. secrets injected at build
// time.
func (l *Loader) SetDefault(key string, value any) *Loader {
	l.defaults[key] = value
	return l
}

// BindFlag lets a command-line flag override key when the flag was set.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) *Loader {
	if flag != nil {
		l.flags[key] = flag
	}
	return l
}

// ConfigFileUsed returns the file read by the last Load, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.used
}

// Load reads configuration from defaults, file, environment and flags, in
// increasing order of precedence.
func (l *Loader) Load() (*Config, error) {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("app.key", def.App.Key)
	v.SetDefault("app.canary", def.App.Canary)
	v.SetDefault("kdf.min_iterations", def.KDF.MinIterations)
	v.SetDefault("kdf.max_iterations", def.KDF.MaxIterations)
	v.SetDefault("archiver", def.Archiver)
	v.SetDefault("store", def.Store)
	v.SetDefault("dir", def.Dir)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)
	for key, value := range l.defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if l.configPath != "" {
		v.SetConfigFile(l.configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	} else {
		v.SetConfigName("confidant")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "confidant"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("load config file: %w", err)
			}
		}
	}
	l.used = v.ConfigFileUsed()

	for key, flag := range l.flags {
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", flag.Name, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
