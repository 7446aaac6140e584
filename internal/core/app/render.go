package app

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"promptpack/internal/output"
	"promptpack/internal/shared/observability"
)

const noMatchesMessage = "No files matched the specified criteria."

type Result struct {
	Files []string
	Bytes int64
}

// Render selects files and writes the bundle to w. An empty selection writes
// nothing to w and reports it on the diagnostic stream.
func (a *App) Render(ctx context.Context, w io.Writer) (Result, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.Render")
	defer span.End()

	files, err := a.Select(ctx)
	if err != nil {
		return Result{}, err
	}
	if len(files) == 0 {
		if a.stderr != nil {
			fmt.Fprintln(a.stderr, noMatchesMessage)
		}
		return Result{}, nil
	}

	gen := output.NewGenerator(output.Options{
		Format:   a.opts.Format,
		Metadata: a.opts.Metadata,
		Warn:     a.warn,
	})
	cw := &output.CountingWriter{W: w}
	if err := gen.Generate(cw, files); err != nil {
		return Result{}, fmt.Errorf("write bundle: %w", err)
	}

	observability.BundleBytes.Set(float64(cw.N))
	a.log.Info("bundle rendered",
		"files", len(files),
		"format", string(a.opts.Format),
		"size", humanize.Bytes(uint64(cw.N)),
	)
	return Result{Files: files, Bytes: cw.N}, nil
}
