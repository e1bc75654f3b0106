package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"platter/internal/config"
	"platter/internal/heic"
	"platter/internal/tui"
	"platter/internal/vcs"
)

type heicOptions struct {
	imagesRoot string
	extensions []string
	converter  string
	dryRun     bool
	overwrite  bool
	verbose    bool
	checkOnly  bool
}

func newHeicCommand() *cobra.Command {
	opts := &heicOptions{}
	cmd := &cobra.Command{
		Use:   "heic",
		Short: "Convert HEIC/HEIF images to JPEG and update references",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHeic(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.imagesRoot, "images-root", config.DefaultImagesRoot, "directory to scan, relative to the repository root")
	f.StringSliceVar(&opts.extensions, "extensions", nil, "tracked file extensions to rewrite references in")
	f.StringVar(&opts.converter, "converter", config.DefaultConverter, "heif-convert compatible binary")
	f.BoolVar(&opts.dryRun, "dry-run", false, "report actions without touching files")
	f.BoolVar(&opts.overwrite, "overwrite", false, "replace existing .jpg files")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "log skipped files and debug detail")
	f.BoolVar(&opts.checkOnly, "check-only", false, "exit 0 if HEIC files exist, 1 otherwise")
	return cmd
}

// apply layers explicitly set flags over the config file values.
func (o *heicOptions) apply(flags *pflag.FlagSet, cfg config.Heic) config.Heic {
	if flags.Changed("images-root") {
		cfg.ImagesRoot = o.imagesRoot
	}
	if flags.Changed("extensions") {
		cfg.Extensions = config.NormalizeExtensions(o.extensions)
	}
	if flags.Changed("converter") {
		cfg.Converter = o.converter
	}
	if flags.Changed("dry-run") {
		cfg.DryRun = o.dryRun
	}
	if flags.Changed("overwrite") {
		cfg.Overwrite = o.overwrite
	}
	if flags.Changed("verbose") {
		cfg.Verbose = o.verbose
	}
	cfg.CheckOnly = o.checkOnly
	return cfg
}

func runHeic(cmd *cobra.Command, opts *heicOptions) error {
	file, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg := opts.apply(cmd.Flags(), file.Heic)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cmd, file.LogFormat, cfg.Verbose)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	repo := vcs.Git{}
	repoRoot := vcs.RootOrWorkingDir(ctx, repo)
	repo.Dir = repoRoot
	converter := heic.NewHeifConvert(cfg.Converter)
	migrator := heic.NewMigrator(cfg, repoRoot, repo, converter, logger)
	migrator.OnOutcome(func(o heic.Outcome) {
		logger.Debug("candidate done", "path", o.Candidate.Path, "status", o.Status.String(), "converter", converter.Name())
	})

	root := migrator.ImagesRoot()
	candidates, err := heic.Discover(root)
	if err != nil {
		unusable := errors.Is(err, fs.ErrNotExist) || errors.Is(err, heic.ErrNotDir)
		if cfg.CheckOnly && unusable {
			return ExitError{Code: 1}
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("discover %s: %w", root, err)
		}
		fmt.Fprintf(out, "Images root not found: %s\n", root)
		return nil
	}

	if cfg.CheckOnly {
		if len(candidates) == 0 {
			return ExitError{Code: 1}
		}
		return nil
	}

	if len(candidates) == 0 {
		fmt.Fprintln(out, "No HEIC/HEIF files found; skipping conversion.")
		return nil
	}

	summary, err := migrator.Run(ctx, candidates)
	if err != nil {
		// An interrupted run has still converted and rewritten some files.
		if len(summary.Outcomes) > 0 {
			fmt.Fprintf(out, "Converted %d HEIC file(s).\n", summary.Converted)
		}
		return err
	}

	fmt.Fprintf(out, "Converted %d HEIC file(s).\n", summary.Converted)
	if isTerminal(out) {
		fmt.Fprintln(out, tui.RenderSummary(heicSummaryRows(summary, cfg.DryRun)))
	}
	if cfg.Verbose {
		fmt.Fprintln(out, renderHeicReport(repoRoot, summary.Outcomes))
	}
	if summary.Failed > 0 {
		return ExitError{Code: 1}
	}
	return nil
}

func heicSummaryRows(summary heic.Summary, dryRun bool) []tui.SummaryRow {
	refs := strconv.Itoa(len(summary.Rewrite.Updated))
	if summary.Rewrite.Skipped {
		refs = "skipped"
	}
	rows := []tui.SummaryRow{
		{Label: "HEIC files found", Value: strconv.Itoa(summary.Found)},
		{Label: "Converted", Value: strconv.Itoa(summary.Converted)},
		{Label: "Skipped (target exists)", Value: strconv.Itoa(summary.Skipped)},
		{Label: "Failed", Value: strconv.Itoa(summary.Failed), Alert: summary.Failed > 0},
		{Label: "References updated", Value: refs},
	}
	if dryRun {
		rows = append(rows, tui.SummaryRow{Label: "Mode", Value: "dry run"})
	}
	return rows
}

func renderHeicReport(repoRoot string, outcomes []heic.Outcome) string {
	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		src := o.Candidate.Path
		if rel, err := filepath.Rel(repoRoot, src); err == nil {
			src = filepath.ToSlash(rel)
		}
		rows = append(rows, []string{src, o.Status.String(), o.Detail})
	}
	return renderTable([]string{"Source", "Status", "Detail"}, rows, nil)
}
