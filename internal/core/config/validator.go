package config

import (
	"fmt"
	"strings"

	"promptpack/internal/core/errors"
	"promptpack/internal/output"
)

func Validate(cfg *Config) error {
	for _, check := range []func(*Config) error{
		validateVersion,
		validateSelect,
		validateOutput,
		validateWatch,
	} {
		if err := check(cfg); err != nil {
			return err
		}
	}
	return nil
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return invalid("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateSelect(cfg *Config) error {
	if cfg.Select.Days != nil && *cfg.Select.Days < 0 {
		return invalid("select.days must be >= 0, got %d", *cfg.Select.Days)
	}
	if strings.ContainsAny(cfg.Select.RuleFile, `/\`) {
		return invalid("select.rule_file must be a file name, got %q", cfg.Select.RuleFile)
	}
	for i, p := range cfg.Select.Ignore {
		if strings.TrimSpace(p) == "" {
			return invalid("select.ignore[%d] must not be empty", i)
		}
	}
	for i, p := range cfg.Select.Include {
		if strings.TrimSpace(p) == "" {
			return invalid("select.include[%d] must not be empty", i)
		}
	}
	return nil
}

func validateOutput(cfg *Config) error {
	if _, err := output.ParseFormat(cfg.Output.Format); err != nil {
		return err
	}
	if _, err := output.ParseMetadata(cfg.Output.Metadata); err != nil {
		return err
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.MinInterval < cfg.Watch.Debounce {
		return invalid("watch.min_interval (%s) must not be shorter than watch.debounce (%s)", cfg.Watch.MinInterval, cfg.Watch.Debounce)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return errors.New(errors.CodeValidationError, fmt.Sprintf(format, args...))
}
