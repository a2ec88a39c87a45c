package jobs

import (
	"context"
	"fmt"
	"path/filepath"

	"go.trai.ch/anvil/internal/adapters/archive" //nolint:depguard // Job body built on adapters
	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/core/ports"
)

// ExtraJarID identifies the extra jar job in cache keys.
const ExtraJarID = "extra-jar"

// NewExtraJar returns a job copying every non-class entry of input to output.
func NewExtraJar(hasher ports.Hasher, input, output string) *Job {
	spec := domain.KeySpec{
		Job:    ExtraJarID,
		Inputs: []string{input},
	}
	name := fmt.Sprintf("extra %s", filepath.Base(input))
	return New(hasher, name, spec, output, func(context.Context) error {
		return archive.FilterCopy(input, output, archive.RejectClasses)
	})
}
