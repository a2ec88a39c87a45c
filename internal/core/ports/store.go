package ports

import (
	"context"

	"go.trai.ch/anvil/internal/core/domain"
)

// CacheStore persists cache entries by key.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type CacheStore interface {
	// Get retrieves the entry for key.
	// Returns nil, nil if not found.
	Get(key domain.CacheKey) (*domain.CacheEntry, error)

	// Put publishes an entry atomically. Readers never observe a partial entry.
	Put(entry domain.CacheEntry) error

	// Delete removes the entry for key. Deleting a missing entry is not an error.
	Delete(key domain.CacheKey) error
}

// KeyLocker provides cross-process exclusion per cache key.
type KeyLocker interface {
	// Lock blocks until the lock for key is held or ctx is done.
	// The returned func releases the lock.
	Lock(ctx context.Context, key domain.CacheKey) (unlock func() error, err error)
}
