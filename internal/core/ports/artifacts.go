package ports

import (
	"context"

	"go.trai.ch/anvil/internal/core/domain"
)

// ArtifactResolver locates artifacts by maven coordinate.
//
//go:generate go run go.uber.org/mock/mockgen -source=artifacts.go -destination=mocks/mock_artifacts.go -package=mocks
type ArtifactResolver interface {
	// Resolve returns the local file of coord. The repository is a hint for where the artifact
	// was published; resolvers may ignore it.
	//
	// It returns an error wrapping domain.ErrArtifactNotFound if no repository holds the artifact.
	Resolve(ctx context.Context, coord domain.Coordinate, repository string) (domain.ResolvedTool, error)
}
