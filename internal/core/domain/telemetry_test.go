package domain_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/anvil/internal/core/domain"
)

func TestLogLevel(t *testing.T) {
	tests := []struct {
		level domain.LogLevel
		slog  slog.Level
		name  string
	}{
		{domain.LogLevelDebug, slog.LevelDebug, "DEBUG"},
		{domain.LogLevelInfo, slog.LevelInfo, "INFO"},
		{domain.LogLevelWarn, slog.LevelWarn, "WARN"},
		{domain.LogLevelError, slog.LevelError, "ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.level.String())
			assert.Equal(t, tt.slog, slog.Level(tt.level))
		})
	}

	assert.Equal(t, "INFO", domain.LogLevel(999).String())
}
