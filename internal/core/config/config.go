package config

import (
	"time"
)

const DefaultPath = "./promptpack.toml"

type Config struct {
	Version   int       `toml:"version"`
	Select    Select    `toml:"select"`
	Deps      Deps      `toml:"deps"`
	Output    Output    `toml:"output"`
	Watch     Watch     `toml:"watch"`
	Telemetry Telemetry `toml:"telemetry"`
}

type Select struct {
	IncludeHidden   bool     `toml:"include_hidden"`
	IgnoreGitignore bool     `toml:"ignore_gitignore"`
	RuleFile        string   `toml:"rule_file"`
	Ignore          []string `toml:"ignore"`
	Include         []string `toml:"include"`
	// Days enables the recency filter when set; 0 keeps files modified in
	// the last 24 hours.
	Days *int `toml:"days"`
}

type Deps struct {
	Enabled     bool   `toml:"enabled"`
	ProjectRoot string `toml:"project_root"`
	CachePath   string `toml:"cache_path"`
	CacheSize   int    `toml:"cache_size"`
}

type Output struct {
	Format   string   `toml:"format"`
	Path     string   `toml:"path"`
	Metadata []string `toml:"metadata"`
}

type Watch struct {
	Debounce    time.Duration `toml:"debounce"`
	MinInterval time.Duration `toml:"min_interval"`
}

type Telemetry struct {
	MetricsFile  string `toml:"metrics_file"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
}

// Default returns a configuration with every default applied, as used when
// no config file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}
