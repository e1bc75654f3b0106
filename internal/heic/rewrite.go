package heic

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"

	"platter/internal/fileutil"
)

// RewriteOptions controls reference rewriting.
type RewriteOptions struct {
	RepoRoot   string
	Extensions []string
	DryRun     bool
	Logger     *slog.Logger
}

// RewriteReferences replaces every occurrence of each old path in the
// tracked text files whose extension is allowed. Files that are not valid
// UTF-8 or cannot be read are left alone.
func RewriteReferences(opts RewriteOptions, tracked []string, replacements []Replacement) RewriteResult {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	result := RewriteResult{}
	for _, rel := range tracked {
		if !slices.Contains(opts.Extensions, strings.ToLower(filepath.Ext(rel))) {
			continue
		}
		path := filepath.Join(opts.RepoRoot, filepath.FromSlash(rel))

		raw, err := os.ReadFile(path)
		if err != nil {
			logger.Debug("skip unreadable tracked file", "path", path, "error", err)
			continue
		}
		if _, _, err := transform.Bytes(encoding.UTF8Validator, raw); err != nil {
			logger.Debug("skip non-UTF-8 tracked file", "path", path)
			continue
		}

		text := string(raw)
		updated := ApplyReplacements(text, replacements)
		if updated == text {
			continue
		}

		if opts.DryRun {
			logger.Info(fmt.Sprintf("Would update reference in %s", path))
		} else {
			if err := fileutil.ReplaceFile(path, []byte(updated)); err != nil {
				logger.Warn(fmt.Sprintf("Failed to update reference in %s", path), "error", err)
				continue
			}
			logger.Info(fmt.Sprintf("Updated reference in %s", path))
		}
		result.Updated = append(result.Updated, path)
	}
	return result
}

// ApplyReplacements rewrites bare and root-relative ("/"-prefixed)
// occurrences of each old path. The two passes are independent, so an old
// path that is a prefix of another may be substituted twice.
func ApplyReplacements(text string, replacements []Replacement) string {
	for _, r := range replacements {
		if r.Old == "" {
			continue
		}
		text = strings.ReplaceAll(text, r.Old, r.New)
		text = strings.ReplaceAll(text, "/"+r.Old, "/"+r.New)
	}
	return text
}
