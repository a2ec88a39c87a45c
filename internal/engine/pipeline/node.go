package pipeline

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/anvil/internal/adapters/fs"     //nolint:depguard // Wired in engine wiring
	"go.trai.ch/anvil/internal/adapters/logger" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/anvil/internal/adapters/maven"  //nolint:depguard // Wired in engine wiring
	"go.trai.ch/anvil/internal/adapters/shell"  //nolint:depguard // Wired in engine wiring
	"go.trai.ch/anvil/internal/core/ports"
	"go.trai.ch/anvil/internal/engine/cache"
)

// NodeID is the unique identifier for the pipeline runner Graft node.
const NodeID graft.ID = "engine.pipeline"

func init() {
	graft.Register(graft.Node[*Runner]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			cache.NodeID,
			fs.HasherNodeID,
			fs.WalkerNodeID,
			maven.NodeID,
			shell.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Runner, error) {
			executor, err := graft.Dep[*cache.Executor](ctx)
			if err != nil {
				return nil, err
			}

			hasher, err := graft.Dep[ports.Hasher](ctx)
			if err != nil {
				return nil, err
			}

			walker, err := graft.Dep[*fs.Walker](ctx)
			if err != nil {
				return nil, err
			}

			artifacts, err := graft.Dep[ports.ArtifactResolver](ctx)
			if err != nil {
				return nil, err
			}

			tools, err := graft.Dep[ports.ToolExecutor](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return NewRunner(executor, hasher, artifacts, tools, walker, log), nil
		},
	})
}
