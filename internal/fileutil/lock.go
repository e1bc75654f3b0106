package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another mutating run holds the lock.
var ErrLocked = errors.New("another platter run is already modifying this tree")

// RunLock serializes mutating runs over the same directory tree.
type RunLock struct {
	path string
	lock *flock.Flock
}

// LockPath returns the lock file used for root. It lives in the temp
// directory so the tree itself is never touched by locking.
func LockPath(name, root string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(root)))
	return filepath.Join(os.TempDir(), fmt.Sprintf("platter-%s-%s.lock", name, hex.EncodeToString(sum[:6])))
}

// AcquireRunLock takes the lock for root without blocking.
func AcquireRunLock(name, root string) (*RunLock, error) {
	path := LockPath(name, root)
	l := flock.New(path)
	ok, err := l.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (%s)", ErrLocked, path)
	}
	return &RunLock{path: path, lock: l}, nil
}

// Path returns the lock file location.
func (l *RunLock) Path() string { return l.path }

// Release unlocks and removes the lock file.
func (l *RunLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return err
	}
	_ = os.Remove(l.path)
	return nil
}
