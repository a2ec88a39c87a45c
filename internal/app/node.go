package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/anvil/internal/adapters/config"             //nolint:depguard // Wired in app layer
	"go.trai.ch/anvil/internal/adapters/fs"                 //nolint:depguard // Wired in app layer
	"go.trai.ch/anvil/internal/adapters/logger"             //nolint:depguard // Wired in app layer
	"go.trai.ch/anvil/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in app layer
	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/core/ports"
	"go.trai.ch/anvil/internal/engine/cache"
	"go.trai.ch/anvil/internal/engine/pipeline"
	"go.trai.ch/anvil/internal/engine/remap"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	// App Node
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			cache.NodeID,
			remap.NodeID,
			pipeline.NodeID,
			fs.HasherNodeID,
			progrock.NodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	// Components Node
	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			config.SettingsNodeID,
		},
		Run: runComponentsNode,
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	executor, err := graft.Dep[*cache.Executor](ctx)
	if err != nil {
		return nil, err
	}

	remapper, err := graft.Dep[*remap.Remapper](ctx)
	if err != nil {
		return nil, err
	}

	runner, err := graft.Dep[*pipeline.Runner](ctx)
	if err != nil {
		return nil, err
	}

	hasher, err := graft.Dep[ports.Hasher](ctx)
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

	return New(executor, remapper, runner, hasher, telemetry, log), nil
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	app, err := graft.Dep[*App](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	settings, err := graft.Dep[*domain.Settings](ctx)
	if err != nil {
		return nil, err
	}

	return NewComponents(app, log, settings), nil
}
