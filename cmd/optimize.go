package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"platter/internal/config"
	"platter/internal/fileutil"
	"platter/internal/optimize"
	"platter/internal/tui"
)

type optimizeOptions struct {
	root        string
	maxWidth    string
	jpegQuality string
	pngQuality  string
	webpQuality string
	ignore      []string
	files       []string
	fileList    string
	cwebp       string
	dryRun      bool
	verbose     bool
}

func newOptimizeCommand() *cobra.Command {
	opts := &optimizeOptions{}
	cmd := &cobra.Command{
		Use:   "optimize [flags] [file...]",
		Short: "Resize and recompress JPEG, PNG and WEBP images in place",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.files = append(opts.files, args...)
			return runOptimize(cmd, opts)
		},
	}

	defaultQuality := strconv.Itoa(config.DefaultQuality)
	f := cmd.Flags()
	f.StringVar(&opts.root, "root", config.DefaultImagesRoot, "images root")
	f.StringVar(&opts.maxWidth, "max-width", strconv.Itoa(config.DefaultMaxWidth), "resize images wider than this")
	f.StringVar(&opts.jpegQuality, "jpeg-quality", defaultQuality, "JPEG quality (1-100)")
	f.StringVar(&opts.pngQuality, "png-quality", defaultQuality, "PNG quality (1-100)")
	f.StringVar(&opts.webpQuality, "webp-quality", defaultQuality, "WEBP quality (1-100)")
	f.StringArrayVar(&opts.ignore, "ignore", nil, "path to leave untouched (repeatable)")
	f.StringArrayVar(&opts.files, "file", nil, "only optimize this file (repeatable)")
	f.StringVar(&opts.fileList, "file-list", "", "file with NUL- or newline-separated paths to optimize")
	f.StringVar(&opts.cwebp, "cwebp", config.DefaultCwebp, "cwebp binary used for WEBP output")
	f.BoolVar(&opts.dryRun, "dry-run", false, "report changes without writing files")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "log every file and print a per-file report")
	return cmd
}

// apply layers explicitly set flags over the config file values. Numeric
// flags are rejected when non-finite or non-positive.
func (o *optimizeOptions) apply(flags *pflag.FlagSet, cfg config.Optimize) (config.Optimize, error) {
	if flags.Changed("root") {
		cfg.Root = o.root
	}
	if flags.Changed("max-width") {
		v, err := config.ParsePositive("max width", o.maxWidth)
		if err != nil {
			return cfg, err
		}
		cfg.MaxWidth = int(v)
		if cfg.MaxWidth < 1 {
			return cfg, fmt.Errorf("Invalid max width: %s", o.maxWidth)
		}
	}
	for _, q := range []struct {
		flag, name string
		raw        string
		dst        *int
	}{
		{"jpeg-quality", "jpeg quality", o.jpegQuality, &cfg.JPEGQuality},
		{"png-quality", "png quality", o.pngQuality, &cfg.PNGQuality},
		{"webp-quality", "webp quality", o.webpQuality, &cfg.WebPQuality},
	} {
		if !flags.Changed(q.flag) {
			continue
		}
		v, err := config.ParsePositive(q.name, q.raw)
		if err != nil {
			return cfg, err
		}
		*q.dst = config.Quality(v)
	}
	if flags.Changed("ignore") {
		cfg.Ignore = o.ignore
	}
	if flags.Changed("cwebp") {
		cfg.Cwebp = o.cwebp
	}
	if flags.Changed("dry-run") {
		cfg.DryRun = o.dryRun
	}
	if flags.Changed("verbose") {
		cfg.Verbose = o.verbose
	}
	cfg.Files = o.files
	cfg.FileList = o.fileList
	return cfg, cfg.Validate()
}

func runOptimize(cmd *cobra.Command, opts *optimizeOptions) error {
	file, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg, err := opts.apply(cmd.Flags(), file.Optimize)
	if err != nil {
		return err
	}

	logger, err := newLogger(cmd, file.LogFormat, cfg.Verbose)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return err
	}
	if !fileutil.Exists(root) {
		fmt.Fprintf(out, "Images root not found: %s\n", root)
		return nil
	}

	ignore, err := optimize.AbsPaths(cfg.Ignore)
	if err != nil {
		return err
	}

	files, err := optimize.ResolveCandidates(optimize.Inputs{
		Root:     root,
		Ignore:   ignore,
		Files:    cfg.Files,
		FileList: cfg.FileList,
	})
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(out, "No images found to optimize.")
		return nil
	}

	optimizer := optimize.New(cfg, ignore, optimize.NewNativeCodec(cfg.Cwebp), logger)
	tty := isTerminal(out)

	var summary optimize.Summary
	if tty && !cfg.Verbose {
		summary, err = runWithProgress(ctx, optimizer, files)
	} else {
		summary, err = optimizer.Run(ctx, files, nil)
	}
	if err != nil {
		if len(summary.Results) > 0 {
			fmt.Fprintf(out, "Optimized %d file(s); skipped %d; ignored %d.\n", summary.Optimized, summary.Skipped, summary.Ignored)
		}
		return err
	}

	fmt.Fprintf(out, "Optimized %d file(s); skipped %d; ignored %d.\n", summary.Optimized, summary.Skipped, summary.Ignored)
	if tty {
		fmt.Fprintln(out, tui.RenderSummary(optimizeSummaryRows(summary, cfg.DryRun)))
	}
	if cfg.Verbose {
		fmt.Fprintln(out, renderOptimizeReport(root, summary.Results))
	}
	if summary.Failed > 0 {
		return ExitError{Code: 1}
	}
	return nil
}

// runWithProgress drives the optimizer behind the progress view. Pressing
// ctrl+c in the view cancels the run after the file in flight.
func runWithProgress(ctx context.Context, optimizer *optimize.Optimizer, files []string) (optimize.Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := make(chan optimize.ProgressUpdate, 64)
	program := tea.NewProgram(tui.NewModel("platter optimize", updates, cancel), tea.WithContext(ctx))

	uiDone := make(chan struct{})
	go func() {
		_, _ = program.Run()
		close(uiDone)
		// The view may quit before the optimizer does; keep its sends from blocking.
		for range updates {
		}
	}()

	summary, err := optimizer.Run(ctx, files, updates)
	close(updates)
	<-uiDone
	return summary, err
}

func optimizeSummaryRows(summary optimize.Summary, dryRun bool) []tui.SummaryRow {
	saved := tui.FormatBytes(summary.BytesSaved)
	if dryRun {
		saved += " (dry run)"
	}
	return []tui.SummaryRow{
		{Label: "Images checked", Value: strconv.Itoa(summary.Total)},
		{Label: "Optimized", Value: strconv.Itoa(summary.Optimized)},
		{Label: "Skipped", Value: strconv.Itoa(summary.Skipped)},
		{Label: "Ignored", Value: strconv.Itoa(summary.Ignored)},
		{Label: "Failed", Value: strconv.Itoa(summary.Failed), Alert: summary.Failed > 0},
		{Label: "Space saved", Value: saved},
	}
}

func renderOptimizeReport(root string, results []optimize.Result) string {
	rows := make([][]string, 0, len(results))
	for _, res := range results {
		path := res.Path
		if rel, err := filepath.Rel(root, res.Path); err == nil {
			path = filepath.ToSlash(rel)
		}
		before, after, saved := "-", "-", "-"
		if res.OriginalSize > 0 {
			before = tui.FormatBytes(res.OriginalSize)
		}
		if res.NewSize > 0 {
			after = tui.FormatBytes(res.NewSize)
			saved = tui.FormatBytes(res.BytesSaved())
		}
		status := res.Status.String()
		if res.Resized {
			status += " (resized)"
		}
		if res.Err != nil {
			status += ": " + res.Err.Error()
		}
		rows = append(rows, []string{path, status, before, after, saved})
	}
	return renderTable(
		[]string{"File", "Status", "Before", "After", "Saved"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight},
	)
}
