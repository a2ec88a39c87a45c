package config

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/anvil/internal/core/domain"
)

// SettingsNodeID is the unique identifier for the settings Graft node.
const SettingsNodeID graft.ID = "adapter.settings"

func init() {
	graft.Register(graft.Node[*domain.Settings]{
		ID:        SettingsNodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (*domain.Settings, error) {
			return ResolveSettings(ctx, ".env")
		},
	})
}
