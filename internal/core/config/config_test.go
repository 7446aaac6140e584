package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"promptpack/internal/core/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "promptpack.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[select]
include_hidden = true
ignore = ["*.log", "node_modules"]
include = ["*.py"]
days = 7

[deps]
enabled = true
project_root = "./src"
cache_path = ".cache/imports.db"

[output]
format = "claude-xml"
metadata = ["project:demo"]

[watch]
debounce = "500ms"
min_interval = "2s"

[telemetry]
metrics_file = "promptpack.prom"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !cfg.Select.IncludeHidden {
		t.Error("expected include_hidden")
	}
	if len(cfg.Select.Ignore) != 2 || cfg.Select.Ignore[1] != "node_modules" {
		t.Errorf("unexpected ignore list %v", cfg.Select.Ignore)
	}
	if cfg.Select.Days == nil || *cfg.Select.Days != 7 {
		t.Errorf("expected days 7, got %v", cfg.Select.Days)
	}
	if cfg.Select.RuleFile != ".gitignore" {
		t.Errorf("expected default rule file, got %q", cfg.Select.RuleFile)
	}
	if !cfg.Deps.Enabled || cfg.Deps.ProjectRoot != "./src" {
		t.Errorf("unexpected deps section %+v", cfg.Deps)
	}
	if cfg.Deps.CacheSize != 1024 {
		t.Errorf("expected default cache size, got %d", cfg.Deps.CacheSize)
	}
	if cfg.Output.Format != "claude-xml" {
		t.Errorf("expected claude-xml, got %q", cfg.Output.Format)
	}
	if cfg.Watch.Debounce != 500*time.Millisecond || cfg.Watch.MinInterval != 2*time.Second {
		t.Errorf("unexpected watch section %+v", cfg.Watch)
	}
	if cfg.Telemetry.MetricsFile != "promptpack.prom" {
		t.Errorf("unexpected metrics file %q", cfg.Telemetry.MetricsFile)
	}
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Version != 1 {
		t.Errorf("expected version 1, got %d", cfg.Version)
	}
	if cfg.Select.Days != nil {
		t.Error("expected recency filter off by default")
	}
	if cfg.Output.Format != "plain" {
		t.Errorf("expected plain, got %q", cfg.Output.Format)
	}
	if cfg.Watch.Debounce != 300*time.Millisecond {
		t.Errorf("unexpected debounce %s", cfg.Watch.Debounce)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"negative days":  "[select]\ndays = -1\n",
		"bad format":     "[output]\nformat = \"json\"\n",
		"bad metadata":   "[output]\nmetadata = [\"novalue\"]\n",
		"rule file path": "[select]\nrule_file = \"sub/.gitignore\"\n",
		"empty ignore":   "[select]\nignore = [\"\"]\n",
		"future version": "version = 3\n",
		"short interval": "[watch]\ndebounce = \"5s\"\nmin_interval = \"1s\"\n",
		"malformed toml": "[select\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.IsCode(err, errors.CodeValidationError) {
				t.Errorf("expected VALIDATION_ERROR, got %v", err)
			}
		})
	}
}

func TestLoadOrDefault(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := LoadOrDefault(DefaultPath)
	if err != nil {
		t.Fatalf("expected defaults when default config is absent: %v", err)
	}
	if cfg.Output.Format != "plain" {
		t.Errorf("expected plain, got %q", cfg.Output.Format)
	}

	_, err = LoadOrDefault(filepath.Join(dir, "missing.toml"))
	if !errors.IsCode(err, errors.CodeNotFound) {
		t.Errorf("expected NOT_FOUND for explicit missing path, got %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PROMPTPACK_OUTPUT_FORMAT", "claude-xml-b64")
	t.Setenv("PROMPTPACK_SELECT_INCLUDE_HIDDEN", "true")
	t.Setenv("PROMPTPACK_WATCH_DEBOUNCE", "1s")
	t.Setenv("PROMPTPACK_DEPS_CACHE_SIZE", "not-a-number")

	cfg, err := Load(writeConfig(t, "[watch]\nmin_interval = \"3s\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Output.Format != "claude-xml-b64" {
		t.Errorf("expected env format override, got %q", cfg.Output.Format)
	}
	if !cfg.Select.IncludeHidden {
		t.Error("expected include_hidden from env")
	}
	if cfg.Watch.Debounce != time.Second {
		t.Errorf("expected 1s debounce, got %s", cfg.Watch.Debounce)
	}
	if cfg.Deps.CacheSize != 1024 {
		t.Errorf("invalid int override must be ignored, got %d", cfg.Deps.CacheSize)
	}
}
