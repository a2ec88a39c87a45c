package config

import (
	"context"
	"os"

	"go.trai.ch/anvil/internal/core/domain"
)

// Overrides holds settings chosen on the command line.
// They take precedence over the settings file and the environment.
type Overrides struct {
	// Path is the settings file to read instead of the default location.
	Path string
	// JSON forces JSON log output.
	JSON bool
}

type overridesKey struct{}

// WithOverrides returns a context carrying o for the settings node.
func WithOverrides(ctx context.Context, o Overrides) context.Context {
	return context.WithValue(ctx, overridesKey{}, o)
}

// OverridesFrom returns the overrides stored in ctx, or the zero value.
func OverridesFrom(ctx context.Context) Overrides {
	o, _ := ctx.Value(overridesKey{}).(Overrides)
	return o
}

// ResolveSettings loads settings for ctx. The file is taken from the context overrides,
// then ANVIL_SETTINGS, then the default file name.
func ResolveSettings(ctx context.Context, envFiles ...string) (*domain.Settings, error) {
	o := OverridesFrom(ctx)
	path := o.Path
	if path == "" {
		path = os.Getenv(SettingsPathEnv)
	}
	if path == "" {
		path = domain.SettingsFileName
	}

	settings, err := LoadSettings(path, envFiles...)
	if err != nil {
		return nil, err
	}
	if o.JSON {
		settings.Log.JSON = true
	}
	return settings, nil
}
