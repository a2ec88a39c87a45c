package remap

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/anvil/internal/adapters/logger" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/anvil/internal/core/ports"
)

// NodeID is the unique identifier for the remapper Graft node.
const NodeID graft.ID = "engine.remap"

func init() {
	graft.Register(graft.Node[*Remapper]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (*Remapper, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewRemapper(log), nil
		},
	})
}
