// Package config loads suggestd settings from a JSON config file with
// environment variable overrides (SUGGESTD_*).
package config

import (
	"fmt"
	"time"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	API     APIConfig
	Suggest SuggestConfig
	Quick   QuickConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port int
}

type StorageConfig struct {
	DataDir string
}

type APIConfig struct {
	// Token guards the HTTP API. Empty disables authentication.
	Token string
}

type SuggestConfig struct {
	SourceTimeout      time.Duration
	TrendingWindowDays int
	PersonalWindowDays int
	RetentionDays      int
}

type QuickConfig struct {
	RefreshInterval time.Duration
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4600,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Suggest: SuggestConfig{
			SourceTimeout:      400 * time.Millisecond,
			TrendingWindowDays: 7,
			PersonalWindowDays: 90,
			RetentionDays:      180,
		},
		Quick: QuickConfig{
			RefreshInterval: time.Minute,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the config file backend and environment.
//
// The backend is a JSON file at $XDG_CONFIG_HOME/suggestd/config.json.
// Environment variables (SUGGESTD_*) override file values. The API token
// is a secret and can only come from the environment.
func Load() (Config, error) {
	return loadWith(newPlatformBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func validate(cfg Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", cfg.Server.Port)
	}
	if cfg.Suggest.SourceTimeout <= 0 {
		return fmt.Errorf("suggest.source_timeout must be positive")
	}
	if cfg.Suggest.TrendingWindowDays <= 0 {
		return fmt.Errorf("suggest.trending_window_days must be positive")
	}
	if cfg.Suggest.PersonalWindowDays <= 0 {
		return fmt.Errorf("suggest.personal_window_days must be positive")
	}
	if cfg.Suggest.RetentionDays < cfg.Suggest.PersonalWindowDays {
		return fmt.Errorf("suggest.retention_days (%d) must cover the personal window (%d days)",
			cfg.Suggest.RetentionDays, cfg.Suggest.PersonalWindowDays)
	}
	if cfg.Quick.RefreshInterval <= 0 {
		return fmt.Errorf("quick.refresh_interval must be positive")
	}
	return nil
}
