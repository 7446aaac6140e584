package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: PROMPTPACK_[SECTION]_[KEY] (e.g., PROMPTPACK_OUTPUT_FORMAT).
func ApplyEnvOverrides(cfg *Config) {
	setEnvBool(&cfg.Select.IncludeHidden, "PROMPTPACK_SELECT_INCLUDE_HIDDEN")
	setEnvBool(&cfg.Select.IgnoreGitignore, "PROMPTPACK_SELECT_IGNORE_GITIGNORE")
	setEnvString(&cfg.Select.RuleFile, "PROMPTPACK_SELECT_RULE_FILE")

	setEnvString(&cfg.Deps.ProjectRoot, "PROMPTPACK_DEPS_PROJECT_ROOT")
	setEnvString(&cfg.Deps.CachePath, "PROMPTPACK_DEPS_CACHE_PATH")
	setEnvInt(&cfg.Deps.CacheSize, "PROMPTPACK_DEPS_CACHE_SIZE")

	setEnvString(&cfg.Output.Format, "PROMPTPACK_OUTPUT_FORMAT")
	setEnvString(&cfg.Output.Path, "PROMPTPACK_OUTPUT_PATH")

	setEnvDuration(&cfg.Watch.Debounce, "PROMPTPACK_WATCH_DEBOUNCE")
	setEnvDuration(&cfg.Watch.MinInterval, "PROMPTPACK_WATCH_MIN_INTERVAL")

	setEnvString(&cfg.Telemetry.MetricsFile, "PROMPTPACK_TELEMETRY_METRICS_FILE")
	setEnvString(&cfg.Telemetry.OTLPEndpoint, "PROMPTPACK_TELEMETRY_OTLP_ENDPOINT")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
