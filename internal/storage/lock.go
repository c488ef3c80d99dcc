package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const lockFileName = ".lock"

// Lock guards an output root so only one run writes to the tree at a time.
type Lock struct {
	lock   *flock.Flock
	logger *slog.Logger
}

// AcquireLock creates the output root if needed and takes a file lock on
// it. It returns an error if another facefetch process already holds the
// lock.
func AcquireLock(root string, logger *slog.Logger) (*Lock, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("could not create output directory %s: %w", root, err)
	}

	lockPath := filepath.Join(root, lockFileName)
	fileLock := flock.New(lockPath)

	locked, err := fileLock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("could not acquire file lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("output directory %s is locked by another facefetch instance", root)
	}

	logger.Info("Acquired output lock.", "path", lockPath)

	return &Lock{lock: fileLock, logger: logger}, nil
}

// Release gives up the file lock. The lock file itself is left behind as a
// breadcrumb, which is fine.
func (l *Lock) Release() {
	if err := l.lock.Unlock(); err != nil {
		l.logger.Error("Failed to release output lock.", "error", err)
	} else {
		l.logger.Info("Released output lock.")
	}
}
