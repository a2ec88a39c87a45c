package cache

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/anvil/internal/adapters/cas"                //nolint:depguard // Wired in engine wiring
	"go.trai.ch/anvil/internal/adapters/config"             //nolint:depguard // Wired in engine wiring
	"go.trai.ch/anvil/internal/adapters/fs"                 //nolint:depguard // Wired in engine wiring
	"go.trai.ch/anvil/internal/adapters/logger"             //nolint:depguard // Wired in engine wiring
	"go.trai.ch/anvil/internal/adapters/remote"             //nolint:depguard // Wired in engine wiring
	"go.trai.ch/anvil/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/core/ports"
)

// NodeID is the unique identifier for the cache executor Graft node.
const NodeID graft.ID = "engine.cache"

func init() {
	graft.Register(graft.Node[*Executor]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.SettingsNodeID,
			cas.StoreNodeID,
			cas.LockerNodeID,
			fs.VerifierNodeID,
			remote.NodeID,
			progrock.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Executor, error) {
			settings, err := graft.Dep[*domain.Settings](ctx)
			if err != nil {
				return nil, err
			}

			store, err := graft.Dep[ports.CacheStore](ctx)
			if err != nil {
				return nil, err
			}

			locker, err := graft.Dep[ports.KeyLocker](ctx)
			if err != nil {
				return nil, err
			}

			verifier, err := graft.Dep[ports.Verifier](ctx)
			if err != nil {
				return nil, err
			}

			remoteCache, err := graft.Dep[ports.RemoteCache](ctx)
			if err != nil {
				return nil, err
			}

			telemetry, err := graft.Dep[ports.Telemetry](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return NewExecutor(
				store,
				locker,
				verifier,
				remoteCache,
				telemetry,
				log,
				settings.Cache.Enabled,
			), nil
		},
	})
}
