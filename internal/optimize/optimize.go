package optimize

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"platter/internal/config"
	"platter/internal/fileutil"
)

// Optimizer recompresses and resizes images in place.
type Optimizer struct {
	cfg    config.Optimize
	ignore []string
	codec  Codec
	logger *slog.Logger
}

// New returns an optimizer. ignore must hold absolute, clean paths.
func New(cfg config.Optimize, ignore []string, codec Codec, logger *slog.Logger) *Optimizer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Optimizer{cfg: cfg, ignore: ignore, codec: codec, logger: logger}
}

// Run optimizes files one after another. A failing file is recorded and the
// run moves on. updates may be nil.
func (o *Optimizer) Run(ctx context.Context, files []string, updates chan<- ProgressUpdate) (Summary, error) {
	summary := Summary{Total: len(files)}
	if updates != nil {
		updates <- ProgressUpdate{TotalDelta: len(files)}
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		res := o.File(ctx, path)
		summary.Results = append(summary.Results, res)

		update := ProgressUpdate{Path: path, ProcessedDelta: 1}
		switch res.Status {
		case StatusOptimized:
			summary.Optimized++
			summary.BytesSaved += res.BytesSaved()
			update.OptimizedDelta = 1
			update.BytesSavedDelta = res.BytesSaved()
			o.logger.Debug(fmt.Sprintf("Optimized %s", path),
				"resized", res.Resized, "before", res.OriginalSize, "after", res.NewSize)
		case StatusSkipped:
			summary.Skipped++
			o.logger.Debug(fmt.Sprintf("Skipped %s", path))
		case StatusIgnored:
			summary.Ignored++
			o.logger.Debug(fmt.Sprintf("Ignored %s", path))
		case StatusFailed:
			summary.Failed++
			update.ErrorDelta = 1
			o.logger.Warn(fmt.Sprintf("Failed to optimize %s: %v", path, res.Err))
		}
		if updates != nil {
			updates <- update
		}
	}
	return summary, nil
}

// File decides and, unless in dry-run, applies the outcome for one file.
func (o *Optimizer) File(ctx context.Context, path string) Result {
	res := Result{Path: path}
	if IsIgnored(path, o.ignore) {
		res.Status = StatusIgnored
		return res
	}

	fail := func(err error) Result {
		res.Status = StatusFailed
		res.Err = err
		return res
	}

	info, err := os.Stat(path)
	if err != nil {
		return fail(err)
	}
	res.OriginalSize = info.Size()

	data, err := os.ReadFile(path)
	if err != nil {
		return fail(err)
	}

	meta, err := o.codec.Probe(ctx, data)
	if err != nil {
		return fail(err)
	}

	width := 0
	if o.cfg.MaxWidth > 0 && meta.Width > o.cfg.MaxWidth {
		width = o.cfg.MaxWidth
		res.Resized = true
	}

	out, err := o.codec.Transform(ctx, data, width, ProfileFor(path, o.cfg))
	if err != nil {
		return fail(err)
	}
	res.NewSize = int64(len(out))

	if !res.Resized && res.NewSize >= res.OriginalSize {
		res.Status = StatusSkipped
		return res
	}

	if !o.cfg.DryRun {
		if err := fileutil.ReplaceFile(path, out); err != nil {
			return fail(fmt.Errorf("write %s: %w", path, err))
		}
	}
	res.Status = StatusOptimized
	return res
}
