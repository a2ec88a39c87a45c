package cas

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/anvil/internal/adapters/config"
	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/core/ports"
)

const (
	// StoreNodeID is the unique identifier for the cache entry store Graft node.
	StoreNodeID graft.ID = "adapter.cache_store"
	// LockerNodeID is the unique identifier for the key locker Graft node.
	LockerNodeID graft.ID = "adapter.key_locker"
)

func init() {
	graft.Register(graft.Node[ports.CacheStore]{
		ID:        StoreNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.SettingsNodeID},
		Run: func(ctx context.Context) (ports.CacheStore, error) {
			settings, err := graft.Dep[*domain.Settings](ctx)
			if err != nil {
				return nil, err
			}
			return NewStore(settings.Cache.Dir)
		},
	})

	graft.Register(graft.Node[ports.KeyLocker]{
		ID:        LockerNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.SettingsNodeID},
		Run: func(ctx context.Context) (ports.KeyLocker, error) {
			settings, err := graft.Dep[*domain.Settings](ctx)
			if err != nil {
				return nil, err
			}
			if !settings.Cache.CrossProcessLock {
				return NopLocker{}, nil
			}
			return NewFileLocker(settings.Cache.Dir), nil
		},
	})
}
