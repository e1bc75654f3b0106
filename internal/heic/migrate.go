package heic

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"platter/internal/config"
	"platter/internal/fileutil"
	"platter/internal/vcs"
)

// Migrator converts HEIC/HEIF candidates and rewrites references to them.
type Migrator struct {
	cfg       config.Heic
	repoRoot  string
	repo      vcs.Repo
	converter Converter
	logger    *slog.Logger
	observe   func(Outcome)
}

// NewMigrator wires a migrator. repoRoot anchors relative paths recorded in
// replacements; repo supplies the tracked file set.
func NewMigrator(cfg config.Heic, repoRoot string, repo vcs.Repo, converter Converter, logger *slog.Logger) *Migrator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Migrator{
		cfg:       cfg,
		repoRoot:  repoRoot,
		repo:      repo,
		converter: converter,
		logger:    logger,
	}
}

// OnOutcome registers a callback invoked after each candidate is handled.
func (m *Migrator) OnOutcome(fn func(Outcome)) {
	m.observe = fn
}

// ImagesRoot resolves the configured images root against the repository root.
func (m *Migrator) ImagesRoot() string {
	root := m.cfg.ImagesRoot
	if filepath.IsAbs(root) {
		return filepath.Clean(root)
	}
	return filepath.Join(m.repoRoot, root)
}

// Run converts candidates in order, then rewrites tracked references for
// every successful conversion. The returned error is non-nil only for fatal
// pre-flight failures or cancellation; per-candidate failures are counted in
// the summary. A cancelled run still rewrites references for the candidates
// converted before it stopped.
func (m *Migrator) Run(ctx context.Context, candidates []Candidate) (Summary, error) {
	summary := Summary{Found: len(candidates)}

	if !m.cfg.DryRun {
		if err := m.converter.Probe(ctx); err != nil {
			return summary, err
		}
		lock, err := fileutil.AcquireRunLock("heic", m.repoRoot)
		if err != nil {
			return summary, err
		}
		defer func() {
			if err := lock.Release(); err != nil {
				m.logger.Warn("release run lock", "lock", lock.Path(), "error", err)
			}
		}()
	}

	var runErr error
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		outcome := m.convert(ctx, c)
		switch outcome.Status {
		case StatusConverted:
			summary.Converted++
		case StatusSkipped:
			summary.Skipped++
		case StatusFailed:
			summary.Failed++
		}
		summary.Outcomes = append(summary.Outcomes, outcome)
		if m.observe != nil {
			m.observe(outcome)
		}
	}

	// Sources of finished conversions are already gone, so their references
	// are rewritten even after cancellation.
	replacements := summary.Replacements()
	if len(replacements) == 0 {
		return summary, runErr
	}

	tracked, err := m.repo.TrackedFiles(context.WithoutCancel(ctx))
	if err != nil || len(tracked) == 0 {
		if err != nil {
			m.logger.Debug("list tracked files", "error", err)
		}
		m.logger.Info("No tracked files found; skipping reference updates.")
		summary.Rewrite = RewriteResult{Skipped: true, Reason: "no tracked files"}
		return summary, runErr
	}

	summary.Rewrite = RewriteReferences(RewriteOptions{
		RepoRoot:   m.repoRoot,
		Extensions: m.cfg.Extensions,
		DryRun:     m.cfg.DryRun,
		Logger:     m.logger,
	}, tracked, replacements)
	return summary, runErr
}

func (m *Migrator) convert(ctx context.Context, c Candidate) Outcome {
	out := Outcome{Candidate: c}

	if fileutil.Exists(c.Target) && !m.cfg.Overwrite {
		m.logger.Debug(fmt.Sprintf("Skipping %s because %s already exists", c.Path, c.Target))
		out.Status = StatusSkipped
		out.Detail = "target exists"
		return out
	}

	m.logger.Info(fmt.Sprintf("Converting %s -> %s", c.Path, c.Target))

	if !m.cfg.DryRun {
		if err := m.converter.Convert(ctx, c.Path, c.Target); err != nil {
			m.logger.Warn(fmt.Sprintf("Failed to convert %s", c.Path), "error", err)
			out.Status = StatusFailed
			out.Detail = err.Error()
			return out
		}

		info, err := os.Stat(c.Target)
		if err != nil || info.Size() <= 0 {
			m.logger.Warn(fmt.Sprintf("Converted file %s is empty; keeping original.", c.Target))
			if err == nil {
				_ = os.Remove(c.Target)
			}
			out.Status = StatusFailed
			out.Detail = "converted file missing or empty"
			return out
		}

		if err := os.Remove(c.Path); err != nil {
			m.logger.Warn(fmt.Sprintf("Failed to remove %s", c.Path), "error", err)
			out.Status = StatusFailed
			out.Detail = err.Error()
			return out
		}
	}

	out.Status = StatusConverted
	out.Replacement = &Replacement{Old: m.relative(c.Path), New: m.relative(c.Target)}
	return out
}

func (m *Migrator) relative(path string) string {
	rel, err := filepath.Rel(m.repoRoot, path)
	if err != nil {
		rel = path
	}
	return filepath.ToSlash(rel)
}
