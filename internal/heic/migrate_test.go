package heic

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"platter/internal/config"
	"platter/internal/logging"
)

type fakeConverter struct {
	probeErr error
	fail     map[string]bool
	empty    map[string]bool
	calls    []string
}

func (f *fakeConverter) Name() string { return "heif-convert" }

func (f *fakeConverter) Probe(context.Context) error { return f.probeErr }

func (f *fakeConverter) Convert(_ context.Context, src, dst string) error {
	f.calls = append(f.calls, src)
	base := filepath.Base(src)
	if f.fail[base] {
		return errors.New("decode failed")
	}
	if f.empty[base] {
		return os.WriteFile(dst, nil, 0o644)
	}
	return os.WriteFile(dst, []byte("jpeg\n"), 0o644)
}

type fakeRepo struct {
	root    string
	tracked []string
	err     error
}

func (r fakeRepo) Root(context.Context) (string, error) { return r.root, nil }

func (r fakeRepo) TrackedFiles(context.Context) ([]string, error) { return r.tracked, r.err }

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func snapshot(t *testing.T, root string) map[string]string {
	t.Helper()
	out := map[string]string{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		out[path] = string(data)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func heicConfig() config.Heic {
	cfg := config.Default().Heic
	return cfg
}

func newTestMigrator(t *testing.T, repo string, cfg config.Heic, conv Converter, tracked []string) *Migrator {
	t.Helper()
	return NewMigrator(cfg, repo, fakeRepo{root: repo, tracked: tracked}, conv, logging.NewNop())
}

func TestRunConvertsAndRewritesReferences(t *testing.T) {
	repo := t.TempDir()
	heic := filepath.Join(repo, "assets/images/dishes/sample.heic")
	writeFile(t, heic, "heic")
	writeFile(t, filepath.Join(repo, "index.html"), `<img src="/assets/images/dishes/sample.heic">`)
	writeFile(t, filepath.Join(repo, "_data/menu.yml"), "image: assets/images/dishes/sample.heic\n")
	writeFile(t, filepath.Join(repo, "notes.txt"), "assets/images/dishes/sample.heic")
	tracked := []string{"index.html", "_data/menu.yml", "notes.txt"}

	m := newTestMigrator(t, repo, heicConfig(), &fakeConverter{}, tracked)
	candidates, err := Discover(m.ImagesRoot())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	summary, err := m.Run(context.Background(), candidates)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Converted != 1 || summary.Failed != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if _, err := os.Stat(heic); !os.IsNotExist(err) {
		t.Fatalf("expected source removed, stat err = %v", err)
	}
	jpg := filepath.Join(repo, "assets/images/dishes/sample.jpg")
	if info, err := os.Stat(jpg); err != nil || info.Size() == 0 {
		t.Fatalf("expected non-empty jpg, err = %v", err)
	}

	if got := readFile(t, filepath.Join(repo, "index.html")); got != `<img src="/assets/images/dishes/sample.jpg">` {
		t.Fatalf("index.html = %q", got)
	}
	if got := readFile(t, filepath.Join(repo, "_data/menu.yml")); got != "image: assets/images/dishes/sample.jpg\n" {
		t.Fatalf("menu.yml = %q", got)
	}
	if got := readFile(t, filepath.Join(repo, "notes.txt")); got != "assets/images/dishes/sample.heic" {
		t.Fatalf("notes.txt should be untouched, got %q", got)
	}
	if len(summary.Rewrite.Updated) != 2 {
		t.Fatalf("expected 2 updated files, got %v", summary.Rewrite.Updated)
	}
}

func TestRunSkipsExistingTargetWithoutOverwrite(t *testing.T) {
	repo := t.TempDir()
	heic := filepath.Join(repo, "assets/images/a.HEIC")
	jpg := filepath.Join(repo, "assets/images/a.jpg")
	writeFile(t, heic, "heic")
	writeFile(t, jpg, "original jpeg")
	writeFile(t, filepath.Join(repo, "index.html"), "assets/images/a.HEIC")

	conv := &fakeConverter{}
	m := newTestMigrator(t, repo, heicConfig(), conv, []string{"index.html"})
	candidates, err := Discover(m.ImagesRoot())
	if err != nil {
		t.Fatal(err)
	}
	summary, err := m.Run(context.Background(), candidates)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Skipped != 1 || summary.Failed != 0 || summary.Converted != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(conv.calls) != 0 {
		t.Fatalf("converter should not run, got %v", conv.calls)
	}
	if readFile(t, heic) != "heic" || readFile(t, jpg) != "original jpeg" {
		t.Fatal("source and destination must be unchanged")
	}
	if readFile(t, filepath.Join(repo, "index.html")) != "assets/images/a.HEIC" {
		t.Fatal("reference must not be rewritten for skipped candidate")
	}
}

func TestRunOverwriteReplacesExistingTarget(t *testing.T) {
	repo := t.TempDir()
	heic := filepath.Join(repo, "assets/images/a.heif")
	jpg := filepath.Join(repo, "assets/images/a.jpg")
	writeFile(t, heic, "heif")
	writeFile(t, jpg, "stale")

	cfg := heicConfig()
	cfg.Overwrite = true
	m := newTestMigrator(t, repo, cfg, &fakeConverter{}, nil)
	candidates, _ := Discover(m.ImagesRoot())
	summary, err := m.Run(context.Background(), candidates)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Converted != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if readFile(t, jpg) != "jpeg\n" {
		t.Fatal("expected overwritten jpg")
	}
	if !summary.Rewrite.Skipped {
		t.Fatal("expected rewrite to be skipped without tracked files")
	}
}

func TestRunDryRunTouchesNothing(t *testing.T) {
	repo := t.TempDir()
	writeFile(t, filepath.Join(repo, "assets/images/x/one.heic"), "heic")
	writeFile(t, filepath.Join(repo, "assets/images/two.heif"), "heif")
	writeFile(t, filepath.Join(repo, "assets/images/two.jpg"), "existing")
	writeFile(t, filepath.Join(repo, "index.md"), "![one](/assets/images/x/one.heic)")
	before := snapshot(t, repo)

	cfg := heicConfig()
	cfg.DryRun = true
	cfg.Overwrite = true
	conv := &fakeConverter{probeErr: ErrConverterMissing}
	m := newTestMigrator(t, repo, cfg, conv, []string{"index.md"})
	candidates, _ := Discover(m.ImagesRoot())
	summary, err := m.Run(context.Background(), candidates)
	if err != nil {
		t.Fatalf("dry run should not check the converter: %v", err)
	}
	if len(conv.calls) != 0 {
		t.Fatalf("converter ran in dry-run: %v", conv.calls)
	}
	if summary.Converted != 2 {
		t.Fatalf("expected both candidates reported, got %+v", summary)
	}
	if len(summary.Rewrite.Updated) != 1 {
		t.Fatalf("expected dry-run to report one reference update, got %v", summary.Rewrite.Updated)
	}

	after := snapshot(t, repo)
	if len(after) != len(before) {
		t.Fatalf("file set changed: before %d after %d", len(before), len(after))
	}
	for path, content := range before {
		if after[path] != content {
			t.Fatalf("%s changed in dry-run", path)
		}
	}
}

func TestRunMissingConverterIsFatal(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("PATH lookup semantics differ on windows")
	}
	repo := t.TempDir()
	heic := filepath.Join(repo, "assets/images/a.heic")
	writeFile(t, heic, "heic")
	t.Setenv("PATH", t.TempDir())

	m := newTestMigrator(t, repo, heicConfig(), NewHeifConvert(""), nil)
	candidates, _ := Discover(m.ImagesRoot())
	_, err := m.Run(context.Background(), candidates)
	if !errors.Is(err, ErrConverterMissing) {
		t.Fatalf("expected ErrConverterMissing, got %v", err)
	}
	if !strings.Contains(err.Error(), "heif-convert") {
		t.Fatalf("diagnostic should name the tool: %v", err)
	}
	if readFile(t, heic) != "heic" {
		t.Fatal("source must be untouched")
	}
	if _, err := os.Stat(TargetPath(heic)); !os.IsNotExist(err) {
		t.Fatal("no destination may be created")
	}
}

func TestRunKeepsSourceOnConversionFailure(t *testing.T) {
	repo := t.TempDir()
	bad := filepath.Join(repo, "assets/images/bad.heic")
	empty := filepath.Join(repo, "assets/images/empty.heic")
	good := filepath.Join(repo, "assets/images/good.heic")
	for _, p := range []string{bad, empty, good} {
		writeFile(t, p, "heic")
	}
	writeFile(t, filepath.Join(repo, "page.html"), "assets/images/bad.heic assets/images/good.heic")

	conv := &fakeConverter{
		fail:  map[string]bool{"bad.heic": true},
		empty: map[string]bool{"empty.heic": true},
	}
	m := newTestMigrator(t, repo, heicConfig(), conv, []string{"page.html"})
	candidates, _ := Discover(m.ImagesRoot())
	summary, err := m.Run(context.Background(), candidates)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Failed != 2 || summary.Converted != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	for _, p := range []string{bad, empty} {
		if readFile(t, p) != "heic" {
			t.Fatalf("%s must be preserved", p)
		}
		if _, err := os.Stat(TargetPath(p)); !os.IsNotExist(err) {
			t.Fatalf("%s destination should not remain", p)
		}
	}
	if got := readFile(t, filepath.Join(repo, "page.html")); got != "assets/images/bad.heic assets/images/good.jpg" {
		t.Fatalf("page.html = %q", got)
	}
}

func TestRunSkipsRewriteWhenTrackedFilesUnavailable(t *testing.T) {
	repo := t.TempDir()
	writeFile(t, filepath.Join(repo, "assets/images/a.heic"), "heic")
	writeFile(t, filepath.Join(repo, "index.html"), "assets/images/a.heic")

	m := NewMigrator(heicConfig(), repo, fakeRepo{root: repo, err: errors.New("not a git repository")}, &fakeConverter{}, logging.NewNop())
	candidates, _ := Discover(m.ImagesRoot())
	summary, err := m.Run(context.Background(), candidates)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Converted != 1 || !summary.Rewrite.Skipped {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if readFile(t, filepath.Join(repo, "index.html")) != "assets/images/a.heic" {
		t.Fatal("index.html should be untouched")
	}
}

func TestOnOutcomeObservesEachCandidate(t *testing.T) {
	repo := t.TempDir()
	writeFile(t, filepath.Join(repo, "assets/images/a.heic"), "heic")
	writeFile(t, filepath.Join(repo, "assets/images/b.heic"), "heic")

	m := newTestMigrator(t, repo, heicConfig(), &fakeConverter{}, nil)
	var seen []Status
	m.OnOutcome(func(o Outcome) { seen = append(seen, o.Status) })
	candidates, _ := Discover(m.ImagesRoot())
	if _, err := m.Run(context.Background(), candidates); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 2 || seen[0] != StatusConverted || seen[1] != StatusConverted {
		t.Fatalf("unexpected observed outcomes: %v", seen)
	}
}

func TestImagesRootAbsolute(t *testing.T) {
	abs := t.TempDir()
	cfg := heicConfig()
	cfg.ImagesRoot = abs
	m := NewMigrator(cfg, "/somewhere/else", nil, nil, nil)
	if got := m.ImagesRoot(); got != abs {
		t.Fatalf("ImagesRoot = %q, want %q", got, abs)
	}
}

// cancellingConverter cancels the run once its first conversion lands.
type cancellingConverter struct {
	fakeConverter
	cancel context.CancelFunc
}

func (c *cancellingConverter) Convert(ctx context.Context, src, dst string) error {
	err := c.fakeConverter.Convert(ctx, src, dst)
	c.cancel()
	return err
}

func TestRunCancelledStillRewritesConverted(t *testing.T) {
	repo := t.TempDir()
	first := filepath.Join(repo, "assets/images/a.heic")
	second := filepath.Join(repo, "assets/images/b.heic")
	writeFile(t, first, "heic")
	writeFile(t, second, "heic")
	writeFile(t, filepath.Join(repo, "index.html"), "assets/images/a.heic assets/images/b.heic")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	conv := &cancellingConverter{cancel: cancel}
	m := newTestMigrator(t, repo, heicConfig(), conv, []string{"index.html"})
	candidates, _ := Discover(m.ImagesRoot())
	summary, err := m.Run(ctx, candidates)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	if summary.Converted != 1 || len(summary.Outcomes) != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if _, err := os.Stat(first); !os.IsNotExist(err) {
		t.Fatalf("converted source should be removed, stat err = %v", err)
	}
	if readFile(t, second) != "heic" {
		t.Fatal("second candidate must be untouched")
	}
	if _, err := os.Stat(TargetPath(second)); !os.IsNotExist(err) {
		t.Fatal("second candidate must not be converted")
	}
	if got := readFile(t, filepath.Join(repo, "index.html")); got != "assets/images/a.jpg assets/images/b.heic" {
		t.Fatalf("index.html = %q", got)
	}
}
