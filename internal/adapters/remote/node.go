package remote

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/anvil/internal/adapters/config"
	"go.trai.ch/anvil/internal/adapters/fs"
	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/core/ports"
)

// NodeID is the unique identifier for the remote cache Graft node.
const NodeID graft.ID = "adapter.remote_cache"

func init() {
	graft.Register(graft.Node[ports.RemoteCache]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.SettingsNodeID, fs.VerifierNodeID},
		Run: func(ctx context.Context) (ports.RemoteCache, error) {
			settings, err := graft.Dep[*domain.Settings](ctx)
			if err != nil {
				return nil, err
			}
			if !settings.Remote.Configured() {
				return Disabled{}, nil
			}
			verifier, err := graft.Dep[ports.Verifier](ctx)
			if err != nil {
				return nil, err
			}
			store, err := NewStore(settings.Remote, verifier)
			if err != nil {
				return nil, err
			}
			if !settings.Remote.Push {
				return ReadOnly(store), nil
			}
			return store, nil
		},
	})
}
