package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"promptpack/internal/core/app"
	"promptpack/internal/core/config"
	"promptpack/internal/core/errors"
	"promptpack/internal/shared/observability"
)

type rootFlags struct {
	configPath      string
	includeHidden   bool
	ignoreGitignore bool
	ignorePatterns  []string
	includePatterns []string
	outputFormat    string
	metadata        []string
	days            int
	deps            bool
	projectRoot     string
	outputPath      string
	watch           bool
	cachePath       string
	metricsFile     string
	verbose         bool
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	f := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "promptpack [paths...]",
		Short: "Bundle source files into a single prompt-ready document",
		Long: `promptpack walks the given paths, filters files by hidden markers,
.gitignore rules, glob patterns and modification age, and writes them as a
plain-text dump or an XML document bundle.

With --deps, every Python entry file also pulls in the local modules it
imports, transitively.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd, f, args, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.Wrap(err, errors.CodeValidationError, "invalid flags")
	})

	flags := cmd.Flags()
	flags.StringVar(&f.configPath, "config", config.DefaultPath, "path to config file")
	flags.BoolVar(&f.includeHidden, "include-hidden", false, "include hidden files and directories")
	flags.BoolVar(&f.ignoreGitignore, "ignore-gitignore", false, "do not apply .gitignore rules")
	flags.StringArrayVar(&f.ignorePatterns, "ignore-patterns", nil, "glob matched against base names to exclude (repeatable)")
	flags.StringArrayVar(&f.includePatterns, "include-patterns", nil, "glob a file base name must match (repeatable)")
	flags.StringVar(&f.outputFormat, "output-format", "plain", "output format: plain, claude-xml or claude-xml-b64")
	flags.StringArrayVar(&f.metadata, "metadata", nil, "key:value attached to every document (repeatable)")
	flags.IntVar(&f.days, "days", 0, "only include files modified in the last N days")
	flags.BoolVar(&f.deps, "deps", false, "include local modules imported by Python entry files")
	flags.StringVar(&f.projectRoot, "project-root", "", "directory searched when resolving imports (default: entry file's directory)")
	flags.StringVarP(&f.outputPath, "output", "o", "", "write the bundle to a file instead of stdout")
	flags.BoolVar(&f.watch, "watch", false, "re-render the output file when watched paths change (requires --output)")
	flags.StringVar(&f.cachePath, "cache", "", "sqlite file caching extracted imports")
	flags.StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus textfile metrics after the run")
	flags.BoolVarP(&f.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(versionCmd(stdout))
	return cmd
}

func versionCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(stdout, "promptpack v%s\n", VERSION)
		},
	}
}

func runRoot(cmd *cobra.Command, f *rootFlags, args []string, stdout, stderr io.Writer) error {
	logLevel := slog.LevelWarn
	if f.watch {
		logLevel = slog.LevelInfo
	}
	if f.verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: logLevel})))

	cfg, err := config.LoadOrDefault(f.configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, f, cfg)
	if err := config.Validate(cfg); err != nil {
		return err
	}
	if f.watch && strings.TrimSpace(cfg.Output.Path) == "" {
		return errors.New(errors.CodeValidationError, "--watch requires --output")
	}

	opts, err := app.OptionsFromConfig(cfg, args)
	if err != nil {
		return err
	}
	if path := cfg.Output.Path; path != "" {
		opts.Exclude = append(opts.Exclude, path, tempPath(path))
	}
	// Missing roots abort before the config side effects below.
	if err := app.CheckPaths(opts.Paths); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := observability.SetupTracing(ctx, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Warn("tracing shutdown failed", "error", err)
		}
	}()

	a, err := app.New(opts, stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := render(ctx, a, cfg.Output.Path, stdout); err != nil {
		return err
	}

	if f.watch {
		if err := watch(ctx, a, cfg); err != nil {
			return err
		}
	}

	if path := cfg.Telemetry.MetricsFile; path != "" {
		if err := observability.WriteTextfile(path); err != nil {
			return errors.AddContext(errors.Wrap(err, errors.CodeIO, "write metrics file"), errors.CtxPath, path)
		}
	}
	return nil
}

// applyFlags layers explicitly set flags over the loaded configuration.
func applyFlags(cmd *cobra.Command, f *rootFlags, cfg *config.Config) {
	changed := cmd.Flags().Changed

	if changed("include-hidden") {
		cfg.Select.IncludeHidden = f.includeHidden
	}
	if changed("ignore-gitignore") {
		cfg.Select.IgnoreGitignore = f.ignoreGitignore
	}
	if changed("ignore-patterns") {
		cfg.Select.Ignore = append(cfg.Select.Ignore, f.ignorePatterns...)
	}
	if changed("include-patterns") {
		cfg.Select.Include = append(cfg.Select.Include, f.includePatterns...)
	}
	if changed("days") {
		days := f.days
		cfg.Select.Days = &days
	}
	if changed("deps") {
		cfg.Deps.Enabled = f.deps
	}
	if changed("project-root") {
		cfg.Deps.ProjectRoot = f.projectRoot
	}
	if changed("cache") {
		cfg.Deps.CachePath = f.cachePath
	}
	if changed("output-format") {
		cfg.Output.Format = f.outputFormat
	}
	if changed("metadata") {
		cfg.Output.Metadata = f.metadata
	}
	if changed("output") {
		cfg.Output.Path = f.outputPath
	}
	if changed("metrics-file") {
		cfg.Telemetry.MetricsFile = f.metricsFile
	}
}

// render writes the bundle to path, or to stdout when path is empty. File
// output goes through tempPath(path) so readers never see a partial bundle.
func render(ctx context.Context, a *app.App, path string, stdout io.Writer) error {
	if path == "" {
		_, err := a.Render(ctx, stdout)
		return err
	}

	tmpName := tempPath(path)
	tmp, err := os.Create(tmpName)
	if err != nil {
		return errors.AddContext(errors.Wrap(err, errors.CodeIO, "create output file"), errors.CtxPath, path)
	}
	defer os.Remove(tmpName)

	if _, err := a.Render(ctx, tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return errors.AddContext(errors.Wrap(err, errors.CodeIO, "close output file"), errors.CtxPath, path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errors.AddContext(errors.Wrap(err, errors.CodeIO, "replace output file"), errors.CtxPath, path)
	}
	return nil
}

// tempPath is the hidden sibling a bundle is written to before the rename.
func tempPath(path string) string {
	return filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".tmp")
}
