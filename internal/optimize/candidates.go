package optimize

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"platter/internal/fileutil"
)

var supportedExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// IsSupported reports whether path has an extension the optimizer handles.
func IsSupported(path string) bool {
	return supportedExts[strings.ToLower(filepath.Ext(path))]
}

// IsIgnored reports whether path equals or is nested under any ignored path.
func IsIgnored(path string, ignored []string) bool {
	for _, base := range ignored {
		if fileutil.IsWithin(path, base) {
			return true
		}
	}
	return false
}

// AbsPaths resolves entries against the working directory and cleans them.
func AbsPaths(entries []string) ([]string, error) {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e) == "" {
			continue
		}
		abs, err := filepath.Abs(e)
		if err != nil {
			return nil, err
		}
		out = append(out, abs)
	}
	return out, nil
}

var lineBreak = regexp.MustCompile(`\r?\n`)

// LoadFileList reads a list of paths. NUL-separated content (as produced by
// "git diff -z" or "find -print0") wins over newline separation.
func LoadFileList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("File list not found: %s", path)
		}
		return nil, fmt.Errorf("read file list: %w", err)
	}

	var parts []string
	if bytes.IndexByte(data, 0) >= 0 {
		parts = strings.Split(string(data), "\x00")
	} else {
		parts = lineBreak.Split(string(data), -1)
	}

	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}

// Inputs describes where candidates come from. Root and Ignore must be
// absolute and clean.
type Inputs struct {
	Root     string
	Ignore   []string
	Files    []string
	FileList string
}

// Explicit reports whether candidates come from files or a file list.
func (in Inputs) Explicit() bool {
	return in.FileList != "" || len(in.Files) > 0
}

// ResolveCandidates returns the files to optimize. With explicit inputs the
// root walk is skipped and entries are kept only when they exist, are
// supported and lie under the root.
func ResolveCandidates(in Inputs) ([]string, error) {
	if !in.Explicit() {
		return Walk(in.Root, in.Ignore)
	}

	var entries []string
	if in.FileList != "" {
		listPath, err := filepath.Abs(in.FileList)
		if err != nil {
			return nil, err
		}
		listed, err := LoadFileList(listPath)
		if err != nil {
			return nil, err
		}
		entries = append(entries, listed...)
	}
	entries = append(entries, in.Files...)

	seen := make(map[string]bool, len(entries))
	var files []string
	for _, entry := range entries {
		if entry == "" || seen[entry] {
			continue
		}
		seen[entry] = true

		resolved, err := filepath.Abs(entry)
		if err != nil {
			continue
		}
		if !fileutil.IsWithin(resolved, in.Root) || !IsSupported(resolved) {
			continue
		}
		if info, err := os.Stat(resolved); err != nil || info.IsDir() {
			continue
		}
		files = append(files, resolved)
	}
	return files, nil
}

// Walk collects supported files under root, pruning ignored paths.
func Walk(root string, ignored []string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if IsIgnored(path, ignored) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if IsSupported(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
