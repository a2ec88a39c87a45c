package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/anvil/internal/adapters/logger"
	"go.trai.ch/zerr"
)

// captureStderr captures output written to os.Stderr during the execution of fn.
func captureStderr(t *testing.T, fn func()) string {
	t.Helper()

	originalStderr := os.Stderr
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stderr = w
	defer func() { os.Stderr = originalStderr }()

	done := make(chan string, 1)
	go func() {
		buf, _ := io.ReadAll(r)
		done <- string(buf)
	}()

	fn()

	require.NoError(t, w.Close())
	output := <-done
	require.NoError(t, r.Close())
	return output
}

func TestLogger_Levels(t *testing.T) {
	output := captureStderr(t, func() {
		lg := logger.New()
		lg.Info("some message")
		lg.Warn("some warning")
		lg.Error(os.ErrPermission)
	})

	assert.Contains(t, output, "some message")
	assert.Contains(t, output, "INFO")
	assert.Contains(t, output, "some warning")
	assert.Contains(t, output, "WARN")
	assert.Contains(t, output, "permission denied")
	assert.Contains(t, output, "ERROR")
}

func TestLogger_DebugRequiresVerbose(t *testing.T) {
	var buf bytes.Buffer
	lg := logger.NewWithOutput(&buf)

	lg.Debug("hidden")
	assert.Empty(t, buf.String())

	lg.SetVerbose(true)
	lg.Debug("visible")
	assert.Contains(t, buf.String(), "visible")
	assert.Contains(t, buf.String(), "DEBUG")
}

func TestLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	lg := logger.NewWithOutput(&buf)
	lg.SetJSON(true)

	lg.Info("remapped")
	lg.Error(zerr.Wrap(os.ErrNotExist, "missing mappings"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &record))
	assert.Equal(t, "remapped", record["msg"])
	assert.Equal(t, "INFO", record["level"])

	require.NoError(t, json.Unmarshal([]byte(lines[1]), &record))
	assert.Equal(t, "ERROR", record["level"])
	chain, ok := record["error"].(map[string]any)
	require.True(t, ok, "expected a structured error, got %#v", record["error"])
	assert.Equal(t, "missing mappings", chain["msg"])
	assert.Equal(t, "file does not exist", chain["cause"])
}

func TestLogger_SetOutputKeepsMode(t *testing.T) {
	var first, second bytes.Buffer
	lg := logger.NewWithOutput(&first)
	lg.SetJSON(true)
	lg.SetOutput(&second)

	lg.Info("moved")

	assert.Empty(t, first.String())
	assert.True(t, strings.HasPrefix(second.String(), "{"), "expected JSON output, got %q", second.String())
}

func TestLogger_NilErrorIsIgnored(t *testing.T) {
	var buf bytes.Buffer
	lg := logger.NewWithOutput(&buf)

	lg.Error(nil)

	assert.Empty(t, buf.String())
}

func TestFormatChain(t *testing.T) {
	t.Run("plain error", func(t *testing.T) {
		assert.Equal(t, "Error: boom", logger.FormatChain(errors.New("boom")))
	})

	t.Run("zerr chain", func(t *testing.T) {
		root := zerr.New("class file truncated")
		err := zerr.Wrap(zerr.Wrap(root, "failed to read header"), "remap failed")

		got := logger.FormatChain(err)

		assert.Equal(t, strings.Join([]string{
			"Error: remap failed",
			"",
			"  Caused by:",
			"    → failed to read header",
			"    → class file truncated",
		}, "\n"), got)
	})

	t.Run("multi-line message", func(t *testing.T) {
		err := zerr.New("first line\nsecond line")

		assert.Equal(t, "Error: first line\n       second line", logger.FormatChain(err))
	})
}
