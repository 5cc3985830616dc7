package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kDuration
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "SUGGESTD_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "storage.data_dir", typ: kString, env: "SUGGESTD_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "api.token", typ: kString, env: "SUGGESTD_API_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.API.Token = v.(string) },
		extract: func(cfg Config) any { return cfg.API.Token },
	},
	{
		key: "suggest.source_timeout", typ: kDuration, env: "SUGGESTD_SUGGEST_SOURCE_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Suggest.SourceTimeout = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.Suggest.SourceTimeout },
	},
	{
		key: "suggest.trending_window_days", typ: kInt, env: "SUGGESTD_SUGGEST_TRENDING_WINDOW_DAYS",
		apply:   func(cfg *Config, v any) { cfg.Suggest.TrendingWindowDays = v.(int) },
		extract: func(cfg Config) any { return cfg.Suggest.TrendingWindowDays },
	},
	{
		key: "suggest.personal_window_days", typ: kInt, env: "SUGGESTD_SUGGEST_PERSONAL_WINDOW_DAYS",
		apply:   func(cfg *Config, v any) { cfg.Suggest.PersonalWindowDays = v.(int) },
		extract: func(cfg Config) any { return cfg.Suggest.PersonalWindowDays },
	},
	{
		key: "suggest.retention_days", typ: kInt, env: "SUGGESTD_SUGGEST_RETENTION_DAYS",
		apply:   func(cfg *Config, v any) { cfg.Suggest.RetentionDays = v.(int) },
		extract: func(cfg Config) any { return cfg.Suggest.RetentionDays },
	},
	{
		key: "quick.refresh_interval", typ: kDuration, env: "SUGGESTD_QUICK_REFRESH_INTERVAL",
		apply:   func(cfg *Config, v any) { cfg.Quick.RefreshInterval = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.Quick.RefreshInterval },
	},
	{
		key: "log.level", typ: kString, env: "SUGGESTD_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kDuration:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok && v != "" {
				d, err := time.ParseDuration(v)
				if err != nil {
					return fmt.Errorf("invalid duration for %s: %w", s.key, err)
				}
				s.apply(cfg, d)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kDuration:
			if d, err := time.ParseDuration(raw); err == nil {
				s.apply(cfg, d)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse duration from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
