// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/anvil/internal/adapters/cas"
	_ "go.trai.ch/anvil/internal/adapters/config"
	_ "go.trai.ch/anvil/internal/adapters/fs"
	_ "go.trai.ch/anvil/internal/adapters/logger"
	_ "go.trai.ch/anvil/internal/adapters/maven"
	_ "go.trai.ch/anvil/internal/adapters/remote"
	_ "go.trai.ch/anvil/internal/adapters/shell"
	_ "go.trai.ch/anvil/internal/adapters/telemetry/progrock"
	// Register app and engine nodes.
	_ "go.trai.ch/anvil/internal/app"
	_ "go.trai.ch/anvil/internal/engine/cache"
	_ "go.trai.ch/anvil/internal/engine/pipeline"
	_ "go.trai.ch/anvil/internal/engine/remap"
)
