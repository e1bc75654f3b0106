package heic

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"platter/pkg/imgutil"
)

// IsHEIC reports whether path has a .heic or .heif extension.
func IsHEIC(path string) bool {
	return imgutil.KindFromExt(path) == imgutil.KindHEIF
}

// TargetPath swaps the extension of path for .jpg.
func TargetPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".jpg"
}

// ErrNotDir is returned by Discover when the images root is not a directory.
var ErrNotDir = errors.New("not a directory")

// Discover walks root and returns every HEIC/HEIF regular file in walk
// order. A missing root yields fs.ErrNotExist; a non-directory root yields
// ErrNotDir.
func Discover(root string) ([]Candidate, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &fs.PathError{Op: "discover", Path: root, Err: ErrNotDir}
	}

	var out []Candidate
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if IsHEIC(path) {
			out = append(out, Candidate{Path: path, Target: TargetPath(path)})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
