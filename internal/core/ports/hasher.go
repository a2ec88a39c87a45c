package ports

import "go.trai.ch/anvil/internal/core/domain"

// Hasher defines the interface for computing cache keys.
//
//go:generate mockgen -destination=mocks/hasher_mock.go -package=mocks -source=hasher.go
type Hasher interface {
	// Key computes the cache key for the given specification.
	// Input content is part of the key, so any change to an input file changes the key.
	Key(spec domain.KeySpec) (domain.CacheKey, error)
}
