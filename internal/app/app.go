// Package app implements the application layer for anvil.
package app

import (
	"context"
	"fmt"
	"path/filepath"

	"go.trai.ch/anvil/internal/adapters/config" //nolint:depguard // Configuration documents are read in the app layer
	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/core/ports"
	"go.trai.ch/anvil/internal/engine/cache"
	"go.trai.ch/anvil/internal/engine/jobs"
	"go.trai.ch/anvil/internal/engine/pipeline"
	"go.trai.ch/anvil/internal/engine/remap"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	executor  *cache.Executor
	remapper  *remap.Remapper
	runner    *pipeline.Runner
	hasher    ports.Hasher
	telemetry ports.Telemetry
	logger    ports.Logger
}

// New creates a new App instance.
func New(
	executor *cache.Executor,
	remapper *remap.Remapper,
	runner *pipeline.Runner,
	hasher ports.Hasher,
	telemetry ports.Telemetry,
	log ports.Logger,
) *App {
	return &App{
		executor:  executor,
		remapper:  remapper,
		runner:    runner,
		hasher:    hasher,
		telemetry: telemetry,
		logger:    log,
	}
}

// RemapOptions configures the Remap method.
type RemapOptions struct {
	Input     string
	Output    string
	Mappings  string
	Classpath []string
}

// StepsOptions configures the RunSteps method.
type StepsOptions struct {
	// ConfigPath is the pipeline configuration document.
	ConfigPath string
	// Sides to run. Empty runs every side the configuration declares.
	Sides []string
	// WorkDir defaults to domain.DefaultStepsPath.
	WorkDir string
	// Provided maps step names to files produced by the caller.
	Provided map[string]string
}

// GenerateExtraJar writes the non-class entries of in to out.
func (a *App) GenerateExtraJar(ctx context.Context, in, out string) (cache.Result, error) {
	res, err := a.executor.Execute(ctx, jobs.NewExtraJar(a.hasher, in, out))
	if err != nil {
		return res, zerr.Wrap(err, "failed to generate extra jar")
	}
	a.report("extra", res)
	return res, nil
}

// Remap remaps opts.Input through the mapping table into opts.Output.
func (a *App) Remap(ctx context.Context, opts RemapOptions) (cache.Result, error) {
	if opts.Mappings == "" {
		return cache.Result{}, zerr.Wrap(domain.ErrMissingInput, "no mappings given")
	}
	job := jobs.NewRemap(a.hasher, a.remapper, remap.Request{
		Input:     opts.Input,
		Mappings:  opts.Mappings,
		Classpath: opts.Classpath,
		Output:    opts.Output,
	})
	res, err := a.executor.Execute(ctx, job)
	if err != nil {
		return res, zerr.Wrap(err, "failed to remap archive")
	}
	a.report("remap", res)
	return res, nil
}

// RunSteps parses the pipeline configuration and runs the requested sides.
func (a *App) RunSteps(ctx context.Context, opts StepsOptions) (map[string]*pipeline.Result, error) {
	cfg, err := config.ReadPipeline(opts.ConfigPath)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, zerr.Wrap(err, "invalid configuration")
	}

	sides := opts.Sides
	if len(sides) == 0 {
		sides = cfg.Sides()
	}

	workDir := opts.WorkDir
	if workDir == "" {
		workDir = domain.DefaultStepsPath()
	}
	workDir, err = filepath.Abs(workDir)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to resolve work directory")
	}
	configDir, err := filepath.Abs(filepath.Dir(opts.ConfigPath))
	if err != nil {
		return nil, zerr.Wrap(err, "failed to resolve configuration directory")
	}

	results, err := a.runner.RunSides(ctx, pipeline.Request{
		Config:    cfg,
		WorkDir:   workDir,
		ConfigDir: configDir,
		Provided:  opts.Provided,
	}, sides...)
	if err != nil {
		return results, zerr.Wrap(err, "pipeline execution failed")
	}
	for _, side := range sides {
		a.logger.Info(fmt.Sprintf("%s: %s", side, results[side].Output()))
	}
	return results, nil
}

// ResolveArtifact computes the final naming of an obfuscation output.
func (a *App) ResolveArtifact(spec domain.ArtifactSpec, source, naming *domain.ArtifactSpec) (domain.ResolvedArtifact, error) {
	return spec.Resolve(source, naming)
}

// Close flushes telemetry.
func (a *App) Close() error {
	return a.telemetry.Close()
}

func (a *App) report(op string, res cache.Result) {
	switch {
	case res.Remote:
		a.logger.Info(fmt.Sprintf("%s: %s (remote cache)", op, res.Output))
	case res.Cached:
		a.logger.Info(fmt.Sprintf("%s: %s (cached)", op, res.Output))
	default:
		a.logger.Info(fmt.Sprintf("%s: %s", op, res.Output))
	}
}
