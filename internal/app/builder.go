package app

import (
	"go.trai.ch/anvil/internal/adapters/logger" //nolint:depguard // Log settings are applied in the app layer
	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/core/ports"
)

// Components contains all the initialized application components.
// This struct provides controlled access to components needed by the CLI layer.
type Components struct {
	App      *App
	Logger   ports.Logger
	Settings *domain.Settings
}

// NewComponents creates a new Components struct from dependencies and applies
// the log settings to the logger.
func NewComponents(app *App, log ports.Logger, settings *domain.Settings) *Components {
	if l, ok := log.(*logger.Logger); ok && settings != nil {
		l.SetJSON(settings.Log.JSON)
		l.SetVerbose(settings.Log.Verbose)
	}
	return &Components{
		App:      app,
		Logger:   log,
		Settings: settings,
	}
}
