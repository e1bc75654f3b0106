// Package logging builds the slog loggers used by platter commands.
//
// Progress and warnings go through slog so they can be filtered by level
// (--verbose enables debug) or emitted as JSON for CI. The one-line run
// summaries are printed by the commands themselves.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

const (
	// FieldRunID tags every line emitted during one invocation.
	FieldRunID = "run_id"
	// FieldCommand names the subcommand that emitted the line.
	FieldCommand = "command"
)

// Options describes logger construction parameters.
type Options struct {
	Format  string
	Verbose bool
	Command string
	Writer  io.Writer
}

// New constructs a slog logger for one command invocation.
func New(opts Options) (*slog.Logger, error) {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}

	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if len(groups) == 0 && attr.Key == slog.LevelKey {
				attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
			}
			return attr
		},
	}

	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "console":
		handler = slog.NewTextHandler(w, handlerOpts)
	case "json":
		handler = slog.NewJSONHandler(w, handlerOpts)
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	logger := slog.New(handler).With(slog.String(FieldRunID, uuid.NewString()))
	if opts.Command != "" {
		logger = logger.With(slog.String(FieldCommand, opts.Command))
	}
	return logger, nil
}

// NewNop returns a logger that discards everything. Useful in tests.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
