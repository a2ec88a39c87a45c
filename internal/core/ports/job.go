// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"go.trai.ch/anvil/internal/core/domain"
)

// Job is an expensive, deterministic unit of work that produces a single output file.
//
//go:generate go run go.uber.org/mock/mockgen -source=job.go -destination=mocks/mock_job.go -package=mocks
type Job interface {
	// Name returns a human-readable identifier used for logging and telemetry.
	Name() string

	// Key computes the job's cache key from its identity, declared inputs and tool versions.
	Key(ctx context.Context) (domain.CacheKey, error)

	// Output returns the path of the file the job produces.
	Output() string

	// Run produces the output. It must either write Output() completely or return an error.
	Run(ctx context.Context) error
}
