package config

import (
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"promptpack/internal/core/errors"
	"promptpack/internal/engine/resolver"
	"promptpack/internal/engine/rules"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "config file not found"), errors.CtxPath, path)
		}
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeIO, "read config"), errors.CtxPath, path)
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "decode config"), errors.CtxPath, path)
	}

	applyDefaults(&cfg)
	ApplyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, errors.AddContext(err, errors.CtxPath, path)
	}
	return &cfg, nil
}

// LoadOrDefault loads path, falling back to defaults when path is the
// default location and nothing exists there.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if path == DefaultPath && errors.IsCode(err, errors.CodeNotFound) {
		cfg = Default()
		ApplyEnvOverrides(cfg)
		return cfg, Validate(cfg)
	}
	return nil, err
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if strings.TrimSpace(cfg.Select.RuleFile) == "" {
		cfg.Select.RuleFile = rules.DefaultFileName
	}

	if cfg.Deps.CacheSize <= 0 {
		cfg.Deps.CacheSize = resolver.DefaultCacheSize
	}

	if strings.TrimSpace(cfg.Output.Format) == "" {
		cfg.Output.Format = "plain"
	}

	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = 300 * time.Millisecond
	}
	if cfg.Watch.MinInterval <= 0 {
		cfg.Watch.MinInterval = time.Second
	}
}
