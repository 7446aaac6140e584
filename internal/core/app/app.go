// Package app wires selection, dependency closure and rendering into one run.
package app

import (
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"promptpack/internal/core/config"
	"promptpack/internal/data/importcache"
	"promptpack/internal/engine/filter"
	"promptpack/internal/engine/parser"
	"promptpack/internal/engine/walker"
	"promptpack/internal/output"
)

type Options struct {
	Paths           []string
	IncludeHidden   bool
	IgnoreGitignore bool
	RuleFile        string
	Ignore          []string
	Include         []string
	Days            *int

	Deps        bool
	ProjectRoot string
	CachePath   string
	CacheSize   int

	Format   output.Format
	Metadata []output.Metadata

	// Exclude lists files never selected, such as the bundle being written.
	Exclude []string
}

// OptionsFromConfig maps a loaded configuration onto run options.
func OptionsFromConfig(cfg *config.Config, paths []string) (Options, error) {
	format, err := output.ParseFormat(cfg.Output.Format)
	if err != nil {
		return Options{}, err
	}
	metadata, err := output.ParseMetadata(cfg.Output.Metadata)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Paths:           paths,
		IncludeHidden:   cfg.Select.IncludeHidden,
		IgnoreGitignore: cfg.Select.IgnoreGitignore,
		RuleFile:        cfg.Select.RuleFile,
		Ignore:          cfg.Select.Ignore,
		Include:         cfg.Select.Include,
		Days:            cfg.Select.Days,
		Deps:            cfg.Deps.Enabled,
		ProjectRoot:     cfg.Deps.ProjectRoot,
		CachePath:       cfg.Deps.CachePath,
		CacheSize:       cfg.Deps.CacheSize,
		Format:          format,
		Metadata:        metadata,
	}, nil
}

type App struct {
	opts   Options
	RunID  string
	log    *slog.Logger
	stderr io.Writer
	warn   *output.Warner

	walker  *walker.Walker
	imports parser.Source
	cache   *importcache.Store
}

func New(opts Options, stderr io.Writer) (*App, error) {
	runID := uuid.NewString()
	a := &App{
		opts:    opts,
		RunID:   runID,
		log:     slog.With("run_id", runID),
		stderr:  stderr,
		warn:    output.NewWarner(stderr),
		imports: parser.FileSource{},
	}

	a.walker = walker.New(walker.Options{
		IncludeHidden: opts.IncludeHidden,
		ApplyRules:    !opts.IgnoreGitignore,
		RuleFile:      opts.RuleFile,
		MaxAgeDays:    opts.Days,
	}, filter.New(opts.Ignore, opts.Include))

	if opts.Deps && strings.TrimSpace(opts.CachePath) != "" {
		store, err := importcache.Open(opts.CachePath)
		if err != nil {
			return nil, err
		}
		a.cache = store
		a.imports = &importcache.Source{Store: store, Next: parser.FileSource{}}
		a.log.Debug("import cache enabled", "path", store.Path())
	}

	return a, nil
}

func (a *App) Close() error {
	return a.cache.Close()
}
