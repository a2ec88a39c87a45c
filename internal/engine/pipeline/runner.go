// Package pipeline executes the steps of an MCP/NeoForm configuration.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	fsadapter "go.trai.ch/anvil/internal/adapters/fs" //nolint:depguard // Job bodies built on adapters
	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/core/ports"
	"go.trai.ch/anvil/internal/engine/cache"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// StepStatus represents the status of a step.
type StepStatus string

const (
	// StatusPending indicates the step is waiting to be executed.
	StatusPending StepStatus = "Pending"
	// StatusRunning indicates the step is currently executing.
	StatusRunning StepStatus = "Running"
	// StatusCompleted indicates the step has finished successfully.
	StatusCompleted StepStatus = "Completed"
	// StatusFailed indicates the step execution failed.
	StatusFailed StepStatus = "Failed"
	// StatusCached indicates the step was skipped because its output was cached.
	StatusCached StepStatus = "Cached"
	// StatusProvided indicates the step's output was supplied by the caller.
	StatusProvided StepStatus = "Provided"
)

// Request describes one side's pipeline run.
type Request struct {
	Config *domain.PipelineConfig
	Side   string
	// WorkDir receives one directory per side and step.
	WorkDir string
	// ConfigDir is the directory relative data paths are resolved against.
	ConfigDir string
	// Provided maps step names to files produced outside the pipeline.
	Provided map[string]string
}

// StepResult describes how one step was satisfied.
type StepResult struct {
	Name   string
	Type   string
	Output string
	Status StepStatus
}

// Result is the outcome of a side's run.
type Result struct {
	Side  string
	Steps []StepResult
}

// Output returns the output of the last step, or "" if the side has no steps.
func (r *Result) Output() string {
	if r == nil || len(r.Steps) == 0 {
		return ""
	}
	return r.Steps[len(r.Steps)-1].Output
}

// Runner executes the steps of a side in declared order, each through the cache executor.
type Runner struct {
	executor  *cache.Executor
	hasher    ports.Hasher
	artifacts ports.ArtifactResolver
	tools     ports.ToolExecutor
	walker    *fsadapter.Walker
	logger    ports.Logger

	mu     sync.RWMutex
	status map[string]StepStatus
}

// NewRunner creates a new Runner.
func NewRunner(
	executor *cache.Executor,
	hasher ports.Hasher,
	artifacts ports.ArtifactResolver,
	tools ports.ToolExecutor,
	walker *fsadapter.Walker,
	logger ports.Logger,
) *Runner {
	return &Runner{
		executor:  executor,
		hasher:    hasher,
		artifacts: artifacts,
		tools:     tools,
		walker:    walker,
		logger:    logger,
		status:    make(map[string]StepStatus),
	}
}

func statusKey(side, step string) string {
	return side + "/" + step
}

func (r *Runner) initStatuses(side string, steps []domain.Step) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, step := range steps {
		r.status[statusKey(side, step.Name)] = StatusPending
	}
}

func (r *Runner) updateStatus(side, step string, status StepStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status[statusKey(side, step)] = status
}

// Status returns the last known status of a step, or "" if it was never scheduled.
func (r *Runner) Status(side, step string) StepStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status[statusKey(side, step)]
}

// Run executes the steps of req.Side in order. Each step's output path is published as
// the variable <name>Output for the steps that follow. The partial result is returned
// together with the first failure.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	if req.Config == nil {
		return nil, zerr.Wrap(domain.ErrConfigFormat, "no pipeline configuration")
	}

	steps := req.Config.Steps(req.Side)
	r.initStatuses(req.Side, steps)
	if len(steps) == 0 {
		r.logger.Warn(fmt.Sprintf("side %q declares no steps", req.Side))
	}

	res := &Result{Side: req.Side, Steps: make([]StepResult, 0, len(steps))}
	vars := make(map[string]string, len(steps))
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		r.updateStatus(req.Side, step.Name, StatusRunning)
		out, status, err := r.runStep(ctx, req, step, vars)
		if err != nil {
			r.updateStatus(req.Side, step.Name, StatusFailed)
			err = zerr.With(zerr.Wrap(err, "step execution failed"), "side", req.Side)
			return res, zerr.With(err, "step", step.Name)
		}
		r.updateStatus(req.Side, step.Name, status)

		vars[OutputVar(step.Name)] = out
		res.Steps = append(res.Steps, StepResult{Name: step.Name, Type: step.Type, Output: out, Status: status})
	}
	return res, nil
}

// RunSides runs several sides concurrently. Steps within a side stay sequential.
// The first failure cancels the remaining sides.
func (r *Runner) RunSides(ctx context.Context, req Request, sides ...string) (map[string]*Result, error) {
	results := make(map[string]*Result, len(sides))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	for _, side := range sides {
		g.Go(func() error {
			sideReq := req
			sideReq.Side = side
			res, err := r.Run(ctx, sideReq)

			mu.Lock()
			results[side] = res
			mu.Unlock()
			return err
		})
	}
	return results, g.Wait()
}

func (r *Runner) runStep(ctx context.Context, req Request, step domain.Step, vars map[string]string) (string, StepStatus, error) {
	if path, ok := req.Provided[step.Name]; ok {
		if _, err := os.Stat(path); err != nil {
			return "", "", zerr.With(domain.Classify(domain.ErrMissingInput, err), "path", path)
		}
		r.logger.Debug(fmt.Sprintf("%s/%s: using provided %s", req.Side, step.Name, path))
		return path, StatusProvided, nil
	}

	dir := filepath.Join(req.WorkDir, req.Side, step.Name)
	output := filepath.Join(dir, "output."+outputExtension(step))
	sc := &scope{
		vars: vars,
		builtins: map[string]string{
			VarOutput: output,
			VarLog:    filepath.Join(dir, "log.txt"),
			VarSide:   req.Side,
		},
		config:    req.Config,
		side:      req.Side,
		configDir: req.ConfigDir,
	}

	values, err := sc.resolveValues(step.Values)
	if err != nil {
		return "", "", err
	}
	sc.own = values

	st := &stepContext{req: req, step: step, dir: dir, output: output, values: values, scope: sc}
	job, err := r.buildJob(ctx, st)
	if err != nil {
		return "", "", err
	}

	res, err := r.executor.Execute(ctx, job)
	if err != nil {
		return "", "", err
	}
	if res.Cached {
		return res.Output, StatusCached, nil
	}
	return res.Output, StatusCompleted, nil
}

func outputExtension(step domain.Step) string {
	if ext, ok := step.Value("outputExtension"); ok && ext != "" {
		return ext
	}
	if step.Type == domain.StepListLibraries {
		return "txt"
	}
	return domain.DefaultExtension
}
