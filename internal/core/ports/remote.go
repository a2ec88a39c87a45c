package ports

import (
	"context"

	"go.trai.ch/anvil/internal/core/domain"
)

// RemoteCache shares job outputs between machines.
//
//go:generate go run go.uber.org/mock/mockgen -source=remote.go -destination=mocks/mock_remote.go -package=mocks
type RemoteCache interface {
	// Fetch downloads the output stored under key to dest.
	// Returns nil, nil on a miss.
	Fetch(ctx context.Context, key domain.CacheKey, dest string) (*domain.CacheEntry, error)

	// Push uploads the output described by entry.
	Push(ctx context.Context, entry domain.CacheEntry) error
}
