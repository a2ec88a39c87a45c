package cas

import (
	"context"
	"path/filepath"
	"time"

	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/core/ports"
)

var (
	_ ports.KeyLocker = (*FileLocker)(nil)
	_ ports.KeyLocker = NopLocker{}
)

// lockPollInterval is how often a contended lock file is retried.
const lockPollInterval = 50 * time.Millisecond

// FileLocker serializes work on a cache key across processes using advisory lock files.
type FileLocker struct {
	dir string
}

// NewFileLocker creates a FileLocker keeping its lock files below the given cache root.
func NewFileLocker(root string) *FileLocker {
	return &FileLocker{dir: domain.LocksPath(filepath.Clean(root))}
}

// Lock blocks until the lock for key is held or ctx is done.
func (l *FileLocker) Lock(ctx context.Context, key domain.CacheKey) (func() error, error) {
	return lockFile(ctx, filepath.Join(l.dir, key.String()+".lock"))
}

// NopLocker is used when cross-process locking is disabled.
type NopLocker struct{}

// Lock returns immediately.
func (NopLocker) Lock(_ context.Context, _ domain.CacheKey) (func() error, error) {
	return func() error { return nil }, nil
}
