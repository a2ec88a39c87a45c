package maven

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/anvil/internal/adapters/config"
	"go.trai.ch/anvil/internal/adapters/logger"
	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/core/ports"
)

// NodeID is the unique identifier for the artifact resolver Graft node.
const NodeID graft.ID = "adapter.artifacts"

func init() {
	graft.Register(graft.Node[ports.ArtifactResolver]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID, config.SettingsNodeID},
		Run: func(ctx context.Context) (ports.ArtifactResolver, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			settings, err := graft.Dep[*domain.Settings](ctx)
			if err != nil {
				return nil, err
			}
			return NewResolver(log, settings.Repositories...), nil
		},
	})
}
