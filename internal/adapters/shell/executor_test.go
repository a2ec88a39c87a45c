package shell_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/anvil/internal/adapters/shell"
	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/core/ports"
	"go.trai.ch/anvil/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

// fakeJava writes a shell script standing in for the java executable.
func fakeJava(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "java")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o700)) //nolint:gosec // Test script must be executable
	return path
}

func TestCommand(t *testing.T) {
	inv := domain.ToolInvocation{
		Jar:     "tool.jar",
		JvmArgs: []string{"-Xmx2G"},
		Args:    []string{"--input", "in.jar"},
	}
	assert.Equal(t, []string{"-Xmx2G", "-jar", "tool.jar", "--input", "in.jar"}, shell.Command(inv))

	inv.Classpath = []string{"dep.jar"}
	inv.MainClass = "net.minecraftforge.Main"
	assert.Equal(t, []string{
		"-Xmx2G", "-cp", "tool.jar" + string(os.PathListSeparator) + "dep.jar", "net.minecraftforge.Main",
		"--input", "in.jar",
	}, shell.Command(inv))
}

func TestExecutor_Execute_MultiLineOutput(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)

	gomock.InOrder(
		mockLogger.EXPECT().Debug("-jar tool.jar a b"),
		mockLogger.EXPECT().Debug("line2"),
	)

	executor := shell.NewExecutor(mockLogger, fakeJava(t, `echo "$@"; echo line2`))

	err := executor.Execute(context.Background(), domain.ToolInvocation{
		Name: "rename",
		Jar:  "tool.jar",
		Args: []string{"a", "b"},
		Dir:  t.TempDir(),
	})
	require.NoError(t, err)
}

func TestExecutor_Execute_FragmentedOutput(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)

	mockLogger.EXPECT().Debug("part1part2").Times(1)

	executor := shell.NewExecutor(mockLogger, fakeJava(t, "printf part1; sleep 0.1; echo part2"))

	err := executor.Execute(context.Background(), domain.ToolInvocation{Name: "fragmented", Jar: "tool.jar"})
	require.NoError(t, err)
}

func TestExecutor_Execute_StderrIsWarned(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)

	mockLogger.EXPECT().Warn("careful").Times(1)

	executor := shell.NewExecutor(mockLogger, fakeJava(t, "echo careful >&2"))

	err := executor.Execute(context.Background(), domain.ToolInvocation{Name: "warn", Jar: "tool.jar"})
	require.NoError(t, err)
}

func TestExecutor_Execute_Failure(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Warn("boom").Times(1)

	executor := shell.NewExecutor(mockLogger, fakeJava(t, "echo boom >&2; exit 3"))

	err := executor.Execute(context.Background(), domain.ToolInvocation{Name: "decompile", Jar: "tool.jar"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrToolFailed))
	assert.Contains(t, err.Error(), "exit status 3")
}

func TestExecutor_Execute_LogFile(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Debug(gomock.Any()).AnyTimes()

	executor := shell.NewExecutor(mockLogger, fakeJava(t, "echo remapped 42 classes"))
	logFile := filepath.Join(t.TempDir(), "client", "rename", "log.txt")

	err := executor.Execute(context.Background(), domain.ToolInvocation{Name: "rename", Jar: "tool.jar", LogFile: logFile})
	require.NoError(t, err)

	content, err := os.ReadFile(logFile) //nolint:gosec // Test file with controlled path
	require.NoError(t, err)
	assert.Contains(t, string(content), "-jar tool.jar")
	assert.Contains(t, string(content), "remapped 42 classes")
}

func TestExecutor_Execute_StreamsToVertex(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Debug("hello").Times(1)

	var out, errOut bytesWriter
	vertex := mocks.NewMockVertex(ctrl)
	vertex.EXPECT().Stdout().Return(&out)
	vertex.EXPECT().Stderr().Return(&errOut)

	ctx := ports.ContextWithVertex(context.Background(), vertex)
	executor := shell.NewExecutor(mockLogger, fakeJava(t, "echo hello"))

	require.NoError(t, executor.Execute(ctx, domain.ToolInvocation{Name: "hello", Jar: "tool.jar"}))
	assert.Equal(t, "hello\n", string(out))
}

func TestExecutor_Execute_ClasspathRequiresMainClass(t *testing.T) {
	ctrl := gomock.NewController(t)
	executor := shell.NewExecutor(mocks.NewMockLogger(ctrl), "java")

	err := executor.Execute(context.Background(), domain.ToolInvocation{
		Name:      "rename",
		Jar:       "tool.jar",
		Classpath: []string{"dep.jar"},
	})
	assert.True(t, errors.Is(err, domain.ErrToolFailed))
}

type bytesWriter []byte

func (b *bytesWriter) Write(p []byte) (int, error) {
	*b = append(*b, p...)
	return len(p), nil
}
