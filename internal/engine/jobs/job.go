// Package jobs provides the job bodies run through the cache executor.
package jobs

import (
	"context"

	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/core/ports"
)

var _ ports.Job = (*Job)(nil)

// Job is a ports.Job whose key is derived from a KeySpec.
type Job struct {
	name   string
	spec   domain.KeySpec
	output string
	hasher ports.Hasher
	run    func(ctx context.Context) error
}

// New creates a Job producing output with run.
func New(hasher ports.Hasher, name string, spec domain.KeySpec, output string, run func(ctx context.Context) error) *Job {
	return &Job{
		name:   name,
		spec:   spec,
		output: output,
		hasher: hasher,
		run:    run,
	}
}

// Name implements ports.Job.
func (j *Job) Name() string {
	return j.name
}

// Key implements ports.Job.
func (j *Job) Key(context.Context) (domain.CacheKey, error) {
	return j.hasher.Key(j.spec)
}

// Output implements ports.Job.
func (j *Job) Output() string {
	return j.output
}

// Run implements ports.Job.
func (j *Job) Run(ctx context.Context) error {
	return j.run(ctx)
}

// Spec returns the key specification.
func (j *Job) Spec() domain.KeySpec {
	return j.spec
}
