package gateways

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/cloudfpga/cfbuild/internal/domain/entities"
)

// FileLocker serializes concurrent signing runs against one project using
// an advisory lock file
type FileLocker struct {
	timeout    time.Duration
	retryDelay time.Duration
}

// NewFileLocker creates a locker that gives up after timeout (0 waits forever)
func NewFileLocker(timeout time.Duration) *FileLocker {
	return &FileLocker{
		timeout:    timeout,
		retryDelay: 100 * time.Millisecond,
	}
}

// Acquire takes an exclusive lock on path, creating its directory if needed
func (l *FileLocker) Acquire(ctx context.Context, path string) (func() error, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, &entities.IOError{Op: "create lock directory for", Path: path, Err: err}
	}

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	lock := flock.New(path)
	locked, err := lock.TryLockContext(ctx, l.retryDelay)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %s held by another process (waited %s)", entities.ErrLocked, path, l.timeout)
		}
		return nil, &entities.IOError{Op: "lock", Path: path, Err: err}
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", entities.ErrLocked, path)
	}

	return lock.Unlock, nil
}
