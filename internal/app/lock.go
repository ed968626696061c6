package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/bft-labs/gpwatch/internal/domain"
)

// LockFileName is the single-writer lock kept in the output directory.
const LockFileName = ".gpwatch.lock"

// OutputLock guards an output directory against concurrent writers.
// Both the watch service and one-shot runs hold it while writing.
type OutputLock struct {
	dir  string
	path string
	lock *flock.Flock
}

// NewOutputLock returns an unheld lock for dir.
func NewOutputLock(dir string) *OutputLock {
	path := filepath.Join(dir, LockFileName)
	return &OutputLock{dir: dir, path: path, lock: flock.New(path)}
}

// Path returns the lock file path.
func (l *OutputLock) Path() string {
	return l.path
}

// Acquire creates the output directory if needed and takes the lock without
// blocking. It returns ErrAlreadyRunning when another process holds it.
func (l *OutputLock) Acquire() error {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("%w: create output dir: %v", domain.ErrIO, err)
	}
	ok, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: another gpwatch instance holds %s", domain.ErrAlreadyRunning, l.path)
	}
	return nil
}

// Release drops the lock.
func (l *OutputLock) Release() error {
	return l.lock.Unlock()
}
