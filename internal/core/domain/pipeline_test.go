package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/anvil/internal/core/domain"
)

func sampleConfig() *domain.PipelineConfig {
	data := map[string]domain.Value{
		"mappings": domain.Str("config/joined.tsrg"),
		"inject":   domain.Str("config/inject/"),
		"patches": domain.Nested(map[string]domain.Value{
			"client": domain.Str("patches/client/"),
			"server": domain.Str("patches/server/"),
		}),
	}
	steps := map[string][]domain.Step{
		"client": {
			{Type: "downloadClient", Name: "downloadClient"},
			{Type: "rename", Name: "rename", Values: map[string]string{"input": "{downloadClientOutput}"}},
		},
		"server": {
			{Type: "strip", Name: "stripServer"},
		},
	}
	functions := map[string]domain.FunctionSpec{
		"rename": {
			Version:    "net.minecraftforge:ForgeAutoRenamingTool:0.1.22:all",
			Repository: domain.DefaultRepository,
			Args:       []string{"--input", "{input}", "--output", "{output}"},
		},
	}
	libraries := map[string][]string{
		"client": {"com.google.guava:guava:31.1-jre"},
	}
	return domain.NewPipelineConfig("1", data, steps, functions, libraries)
}

func TestPipelineConfig_Data(t *testing.T) {
	cfg := sampleConfig()

	tests := []struct {
		name   string
		path   []string
		want   string
		wantOK bool
	}{
		{name: "top-level string", path: []string{"mappings"}, want: "config/joined.tsrg", wantOK: true},
		{name: "nested by side", path: []string{"patches", "client"}, want: "patches/client/", wantOK: true},
		{name: "nested ends on mapping", path: []string{"patches"}, wantOK: false},
		{name: "string reached early", path: []string{"mappings", "client"}, wantOK: false},
		{name: "missing key", path: []string{"patches", "joined"}, wantOK: false},
		{name: "missing top-level", path: []string{"nope"}, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := cfg.Data(tt.path...)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPipelineConfig_DataValue(t *testing.T) {
	cfg := sampleConfig()

	v, ok := cfg.DataValue("patches")
	require.True(t, ok)
	assert.Equal(t, domain.KindNested, v.Kind())

	m, ok := v.AsMap()
	require.True(t, ok)
	assert.Len(t, m, 2)
}

func TestPipelineConfig_UnknownSide(t *testing.T) {
	cfg := sampleConfig()

	assert.Empty(t, cfg.Steps("joined"))
	assert.NotNil(t, cfg.Steps("joined"))
	assert.Empty(t, cfg.Libraries("server"))
	assert.NotNil(t, cfg.Libraries("server"))

	assert.Len(t, cfg.Steps("client"), 2)
	assert.Equal(t, []string{"com.google.guava:guava:31.1-jre"}, cfg.Libraries("client"))
	assert.Equal(t, []string{"client", "server"}, cfg.Sides())
}

func TestPipelineConfig_StepsAreCopies(t *testing.T) {
	cfg := sampleConfig()

	steps := cfg.Steps("client")
	steps[0].Name = "mutated"

	assert.Equal(t, "downloadClient", cfg.Steps("client")[0].Name)
}

func TestPipelineConfig_Function(t *testing.T) {
	cfg := sampleConfig()

	fn, ok := cfg.Function("rename")
	require.True(t, ok)
	coord, err := fn.Coordinate()
	require.NoError(t, err)
	assert.Equal(t, "ForgeAutoRenamingTool", coord.Artifact)
	assert.Equal(t, "all", coord.Classifier)

	_, ok = cfg.Function("decompile")
	assert.False(t, ok)
}

func TestPipelineConfig_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		require.NoError(t, sampleConfig().Validate())
	})

	t.Run("undeclared function", func(t *testing.T) {
		cfg := domain.NewPipelineConfig("1", nil, map[string][]domain.Step{
			"client": {{Type: "decompile", Name: "decompile"}},
		}, nil, nil)

		err := cfg.Validate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrUnknownStepType))
	})

	t.Run("duplicate step name", func(t *testing.T) {
		cfg := domain.NewPipelineConfig("1", nil, map[string][]domain.Step{
			"client": {
				{Type: "strip", Name: "strip"},
				{Type: "strip", Name: "strip"},
			},
		}, nil, nil)

		err := cfg.Validate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrConfigFormat))
	})
}

func TestIsBuiltinStep(t *testing.T) {
	assert.True(t, domain.IsBuiltinStep("strip"))
	assert.True(t, domain.IsBuiltinStep("downloadJson"))
	assert.False(t, domain.IsBuiltinStep("rename"))
}
