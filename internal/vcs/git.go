// Package vcs answers the two questions platter asks of version control:
// where the repository root is and which files it tracks.
package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Repo is the version-control capability the HEIC migrator depends on.
type Repo interface {
	Root(ctx context.Context) (string, error)
	TrackedFiles(ctx context.Context) ([]string, error)
}

// Git shells out to the git binary.
type Git struct {
	// Dir is the working directory git runs in. Empty means the process cwd.
	Dir string
	// Command overrides the git binary name.
	Command string
}

func (g Git) command() string {
	if strings.TrimSpace(g.Command) == "" {
		return "git"
	}
	return g.Command
}

// Root returns the repository top-level directory.
func (g Git) Root(ctx context.Context) (string, error) {
	out, err := g.run(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	root := strings.TrimSpace(string(out))
	if root == "" {
		return "", errors.New("git rev-parse returned an empty root")
	}
	return root, nil
}

// TrackedFiles lists paths in the index relative to the repository root.
func (g Git) TrackedFiles(ctx context.Context) ([]string, error) {
	out, err := g.run(ctx, "ls-files", "-z")
	if err != nil {
		return nil, err
	}
	parts := bytes.Split(out, []byte{0})
	files := make([]string, 0, len(parts))
	for _, p := range parts {
		if len(p) == 0 {
			continue
		}
		files = append(files, string(p))
	}
	return files, nil
}

func (g Git) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, g.command(), args...)
	cmd.Dir = g.Dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("git %s: %w (%s)", strings.Join(args, " "), err, msg)
		}
		return nil, fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return out, nil
}

// RootOrWorkingDir resolves the repository root, falling back to the
// current directory when git is unavailable or dir is not a repository.
func RootOrWorkingDir(ctx context.Context, repo Repo) string {
	if repo != nil {
		if root, err := repo.Root(ctx); err == nil {
			return root
		}
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}
