package remote

import (
	"context"

	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/core/ports"
)

// Disabled is the RemoteCache used when no remote is configured. It always misses.
type Disabled struct{}

// Fetch implements ports.RemoteCache.
func (Disabled) Fetch(context.Context, domain.CacheKey, string) (*domain.CacheEntry, error) {
	return nil, nil
}

// Push implements ports.RemoteCache.
func (Disabled) Push(context.Context, domain.CacheEntry) error {
	return nil
}

type readOnly struct {
	ports.RemoteCache
}

func (readOnly) Push(context.Context, domain.CacheEntry) error {
	return nil
}

// ReadOnly returns a RemoteCache that fetches from c and never uploads.
func ReadOnly(c ports.RemoteCache) ports.RemoteCache {
	return readOnly{RemoteCache: c}
}
