package main

import (
	"context"
	"log/slog"
	"path/filepath"

	"promptpack/internal/core/app"
	"promptpack/internal/core/config"
)

// watch re-renders the output file on every debounced change batch until ctx
// is cancelled. Changes to the output file itself are ignored.
func watch(ctx context.Context, a *app.App, cfg *config.Config) error {
	outPath, err := filepath.Abs(cfg.Output.Path)
	if err != nil {
		return err
	}

	_, err = a.StartWatcher(ctx, cfg.Watch.Debounce, cfg.Watch.MinInterval, func(changed []string) {
		if onlyOutput(changed, outPath) {
			return
		}
		if err := render(ctx, a, cfg.Output.Path, nil); err != nil {
			slog.Error("rebuild failed", "error", err)
			return
		}
		slog.Info("rebuilt bundle", "path", cfg.Output.Path, "changed", len(changed))
	})
	if err != nil {
		return err
	}

	<-ctx.Done()
	return nil
}

func onlyOutput(changed []string, outPath string) bool {
	tmpPath := tempPath(outPath)
	for _, p := range changed {
		abs, err := filepath.Abs(p)
		if err != nil {
			return false
		}
		if abs != outPath && abs != tmpPath {
			return false
		}
	}
	return true
}
