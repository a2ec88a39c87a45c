package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/anvil/internal/adapters/telemetry"
	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/core/ports"
)

func TestInterfaceSatisfaction(_ *testing.T) {
	var _ ports.Telemetry = (*telemetry.NoOp)(nil)
	var _ ports.Vertex = telemetry.NoOpVertex{}
}

func TestNoOp_Record(t *testing.T) {
	tel := telemetry.NewNoOp()

	ctx, v := tel.Record(context.Background(), "remap", ports.WithInputs("extra"))
	require.NotNil(t, v)

	fromCtx, ok := ports.VertexFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, v, fromCtx)

	n, err := v.Stdout().Write([]byte("ignored"))
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	v.Log(domain.LogLevelInfo, "ignored")
	v.Cached()
	v.Complete(errors.New("ignored"))
	assert.NoError(t, tel.Close())
}
