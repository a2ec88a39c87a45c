package ports

import (
	"context"

	"go.trai.ch/anvil/internal/core/domain"
)

// ToolExecutor runs external jar-packaged tools.
//
//go:generate go run go.uber.org/mock/mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type ToolExecutor interface {
	// Execute runs the invocation to completion.
	//
	// It returns an error wrapping domain.ErrToolFailed if the tool exits unsuccessfully.
	Execute(ctx context.Context, inv domain.ToolInvocation) error
}
