package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/anvil/internal/core/domain"
)

func TestParseCoordinate(t *testing.T) {
	tests := []struct {
		input string
		want  domain.Coordinate
	}{
		{
			input: "net.minecraftforge:installertools:1.3.0",
			want:  domain.Coordinate{Group: "net.minecraftforge", Artifact: "installertools", Version: "1.3.0", Extension: "jar"},
		},
		{
			input: "net.minecraftforge:ForgeAutoRenamingTool:0.1.22:all",
			want: domain.Coordinate{
				Group: "net.minecraftforge", Artifact: "ForgeAutoRenamingTool", Version: "0.1.22",
				Classifier: "all", Extension: "jar",
			},
		},
		{
			input: "de.oceanlabs.mcp:mcp_config:1.20.1@zip",
			want:  domain.Coordinate{Group: "de.oceanlabs.mcp", Artifact: "mcp_config", Version: "1.20.1", Extension: "zip"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := domain.ParseCoordinate(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.input, got.String())
		})
	}
}

func TestParseCoordinate_Invalid(t *testing.T) {
	for _, input := range []string{"", "a:b", "a:b:c:d:e", "a::c", "a:b:c@"} {
		t.Run(input, func(t *testing.T) {
			_, err := domain.ParseCoordinate(input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidCoordinate))
		})
	}
}

func TestCoordinate_Path(t *testing.T) {
	c, err := domain.ParseCoordinate("net.minecraftforge:ForgeAutoRenamingTool:0.1.22:all")
	require.NoError(t, err)

	assert.Equal(t, "ForgeAutoRenamingTool-0.1.22-all.jar", c.FileName())
	assert.Equal(t, "net/minecraftforge/ForgeAutoRenamingTool/0.1.22/ForgeAutoRenamingTool-0.1.22-all.jar", c.Path())
	assert.Equal(t, "net/minecraftforge/ForgeAutoRenamingTool/0.1.22/ForgeAutoRenamingTool-0.1.22.pom", c.PomPath())
}
