// Package instance guards a worker slot on one host with an exclusive file lock.
package instance

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another process already holds the lock
var ErrLocked = errors.New("instance lock is held by another process")

// Lock is an exclusive, process-lifetime lock on a file. A Lock with an
// empty path is a no-op so the lock stays optional.
type Lock struct {
	path     string
	fileLock *flock.Flock
}

// NewLock creates a lock for path without acquiring it
func NewLock(path string) *Lock {
	l := &Lock{path: path}
	if path != "" {
		l.fileLock = flock.New(path)
	}
	return l
}

// Path returns the lock file path
func (l *Lock) Path() string {
	return l.path
}

// Acquire takes the lock, retrying until ctx is done. If ctx has no deadline
// a single attempt is made. The holder's PID is written into the file.
func (l *Lock) Acquire(ctx context.Context) error {
	if l.fileLock == nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	var (
		locked bool
		err    error
	)
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		locked, err = l.fileLock.TryLockContext(ctx, 50*time.Millisecond)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return fmt.Errorf("%w: %s", ErrLocked, l.path)
		}
	} else {
		locked, err = l.fileLock.TryLock()
	}
	if err != nil {
		return fmt.Errorf("failed to acquire instance lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("%w: %s", ErrLocked, l.path)
	}

	if err := os.WriteFile(l.path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0644); err != nil {
		l.fileLock.Unlock()
		return fmt.Errorf("failed to write instance lock: %w", err)
	}
	return nil
}

// Locked reports whether this process holds the lock
func (l *Lock) Locked() bool {
	return l.fileLock != nil && l.fileLock.Locked()
}

// Release drops the lock. The file is left in place; a stale file without a
// holder does not block the next Acquire.
func (l *Lock) Release() error {
	if l.fileLock == nil {
		return nil
	}
	if err := l.fileLock.Unlock(); err != nil {
		return fmt.Errorf("failed to release instance lock: %w", err)
	}
	return nil
}
