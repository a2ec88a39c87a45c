package jobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/core/ports"
	"go.trai.ch/anvil/internal/engine/remap"
)

// RemapID identifies the remap job in cache keys.
const RemapID = "remap"

// NewRemap returns a job remapping req.Input into req.Output.
// The key covers the input, the mappings and every classpath entry that exists.
func NewRemap(hasher ports.Hasher, remapper *remap.Remapper, req remap.Request) *Job {
	inputs := []string{req.Input, req.Mappings}
	for _, entry := range req.Classpath {
		if _, err := os.Stat(entry); err == nil {
			inputs = append(inputs, entry)
		}
	}
	spec := domain.KeySpec{
		Job:    RemapID,
		Inputs: inputs,
	}
	name := fmt.Sprintf("remap %s", filepath.Base(req.Input))
	return New(hasher, name, spec, req.Output, func(ctx context.Context) error {
		return remapper.Remap(ctx, req)
	})
}
