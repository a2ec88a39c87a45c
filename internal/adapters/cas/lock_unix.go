//go:build unix

package cas

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/sys/unix"
)

func lockFile(ctx context.Context, path string) (func() error, error) {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return nil, zerr.With(domain.Classify(domain.ErrLockFailed, err), "path", path)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, domain.FilePerm) //nolint:gosec // Path is derived from a cache key
	if err != nil {
		return nil, zerr.With(domain.Classify(domain.ErrLockFailed, err), "path", path)
	}
	fd := int(f.Fd()) //nolint:gosec // File descriptors fit in int

	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	for {
		err := unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			break
		}
		if !errors.Is(err, unix.EWOULDBLOCK) && !errors.Is(err, unix.EINTR) {
			_ = f.Close()
			return nil, zerr.With(domain.Classify(domain.ErrLockFailed, err), "path", path)
		}
		select {
		case <-ctx.Done():
			_ = f.Close()
			return nil, zerr.With(domain.Classify(domain.ErrLockFailed, ctx.Err()), "path", path)
		case <-ticker.C:
		}
	}

	return func() error {
		unlockErr := unix.Flock(fd, unix.LOCK_UN)
		closeErr := f.Close()
		return errors.Join(unlockErr, closeErr)
	}, nil
}
