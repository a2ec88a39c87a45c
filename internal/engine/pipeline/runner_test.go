package pipeline_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/anvil/internal/adapters/archive"
	"go.trai.ch/anvil/internal/adapters/cas"
	"go.trai.ch/anvil/internal/adapters/config"
	"go.trai.ch/anvil/internal/adapters/fs"
	"go.trai.ch/anvil/internal/adapters/logger"
	"go.trai.ch/anvil/internal/adapters/remote"
	"go.trai.ch/anvil/internal/adapters/telemetry"
	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/core/ports/mocks"
	"go.trai.ch/anvil/internal/engine/cache"
	"go.trai.ch/anvil/internal/engine/pipeline"
	"go.uber.org/mock/gomock"
)

const document = `{
  "version": "1.20.1",
  "data": {
    "mappings": "config/joined.tsrg",
    "inject": "inject/"
  },
  "steps": {
    "client": [
      {"type": "downloadClient"},
      {"type": "strip", "input": "{downloadClientOutput}"},
      {"type": "listLibraries"},
      {"type": "rename", "input": "{stripOutput}"},
      {"type": "inject", "input": "{renameOutput}"}
    ],
    "server": [
      {"type": "downloadServer"},
      {"type": "strip", "input": "{downloadServerOutput}"}
    ]
  },
  "functions": {
    "rename": {
      "version": "net.minecraftforge:ForgeAutoRenamingTool:0.1.22:all",
      "args": ["--input", "{input}", "--output", "{output}", "--names", "{mappings}", "--cfg", "{listLibrariesOutput}"],
      "jvmargs": ["-Xmx2G"]
    }
  },
  "libraries": {
    "client": ["com.google.guava:guava:31.1-jre"]
  }
}`

const renameTool = "net.minecraftforge:ForgeAutoRenamingTool:0.1.22:all"

func writeJar(t *testing.T, path string, names ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), domain.DirPerm))
	f, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	for _, name := range names {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(name))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), domain.DirPerm))
	require.NoError(t, os.WriteFile(path, []byte(content), domain.FilePerm))
}

type harness struct {
	runner    *pipeline.Runner
	artifacts *mocks.MockArtifactResolver
	tools     *mocks.MockToolExecutor
	request   pipeline.Request
	toolJar   string
	guava     string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctrl := gomock.NewController(t)
	dir := t.TempDir()

	configDir := filepath.Join(dir, "neoform")
	writeFile(t, filepath.Join(configDir, "config", "joined.tsrg"), "a net/minecraft/A\n")
	writeFile(t, filepath.Join(configDir, "inject", "net", "minecraft", "package-info.txt"), "injected")

	client := filepath.Join(dir, "downloads", "client.jar")
	writeJar(t, client, "a.class", "b.class", "assets/lang.json")
	server := filepath.Join(dir, "downloads", "server.jar")
	writeJar(t, server, "a.class", "com/google/Library.class")

	h := &harness{
		toolJar: filepath.Join(dir, "repo", "renamer.jar"),
		guava:   filepath.Join(dir, "repo", "guava.jar"),
	}
	writeFile(t, h.toolJar, "tool")
	writeFile(t, h.guava, "guava")

	cfg, err := config.ParsePipeline([]byte(document))
	require.NoError(t, err)

	store, err := cas.NewStore(filepath.Join(dir, "cache"))
	require.NoError(t, err)
	log := logger.NewWithOutput(io.Discard)
	executor := cache.NewExecutor(store, cas.NopLocker{}, fs.NewVerifier(), remote.Disabled{},
		telemetry.NewNoOp(), log, true)

	h.artifacts = mocks.NewMockArtifactResolver(ctrl)
	h.tools = mocks.NewMockToolExecutor(ctrl)
	walker := fs.NewWalker()
	h.runner = pipeline.NewRunner(executor, fs.NewHasher(walker), h.artifacts, h.tools, walker, log)
	h.request = pipeline.Request{
		Config:    cfg,
		Side:      domain.SideClient,
		WorkDir:   filepath.Join(dir, "work"),
		ConfigDir: configDir,
		Provided: map[string]string{
			domain.StepDownloadClient: client,
			domain.StepDownloadServer: server,
		},
	}

	h.artifacts.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, coord domain.Coordinate, _ string) (domain.ResolvedTool, error) {
			if coord.String() == renameTool {
				return domain.ResolvedTool{Coordinate: coord, Path: h.toolJar}, nil
			}
			return domain.ResolvedTool{Coordinate: coord, Path: h.guava}, nil
		}).AnyTimes()
	return h
}

// copyTool emulates the rename tool by copying --input to --output.
func copyTool(t *testing.T) func(context.Context, domain.ToolInvocation) error {
	return func(_ context.Context, inv domain.ToolInvocation) error {
		data, err := os.ReadFile(inv.Args[1])
		require.NoError(t, err)
		return os.WriteFile(inv.Args[3], data, domain.FilePerm)
	}
}

func TestRunner_Run(t *testing.T) {
	h := newHarness(t)

	var invocation domain.ToolInvocation
	h.tools.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, inv domain.ToolInvocation) error {
			invocation = inv
			return copyTool(t)(ctx, inv)
		})

	res, err := h.runner.Run(t.Context(), h.request)
	require.NoError(t, err)
	require.Len(t, res.Steps, 5)

	statuses := make([]pipeline.StepStatus, 0, len(res.Steps))
	for _, step := range res.Steps {
		statuses = append(statuses, step.Status)
	}
	assert.Equal(t, []pipeline.StepStatus{
		pipeline.StatusProvided,
		pipeline.StatusCompleted,
		pipeline.StatusCompleted,
		pipeline.StatusCompleted,
		pipeline.StatusCompleted,
	}, statuses)

	strip := res.Steps[1].Output
	assert.Equal(t, filepath.Join(h.request.WorkDir, "client", "strip", "output.jar"), strip)
	names, err := archive.Entries(strip)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.class"}, names, "only mapped classes survive strip")

	libraries, err := os.ReadFile(res.Steps[2].Output)
	require.NoError(t, err)
	assert.Equal(t, "-e="+h.guava+"\n", string(libraries))
	assert.Equal(t, ".txt", filepath.Ext(res.Steps[2].Output))

	assert.Equal(t, "client/rename", invocation.Name)
	assert.Equal(t, h.toolJar, invocation.Jar)
	assert.Equal(t, []string{"-Xmx2G"}, invocation.JvmArgs)
	assert.Equal(t, []string{
		"--input", strip,
		"--output", res.Steps[3].Output,
		"--names", filepath.Join(h.request.ConfigDir, "config", "joined.tsrg"),
		"--cfg", res.Steps[2].Output,
	}, invocation.Args)
	assert.Equal(t, filepath.Join(h.request.WorkDir, "client", "rename", "log.txt"), invocation.LogFile)

	names, err = archive.Entries(res.Output())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.class", "net/", "net/minecraft/", "net/minecraft/package-info.txt"}, names)
}

func TestRunner_SecondRunIsCached(t *testing.T) {
	h := newHarness(t)
	h.tools.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(copyTool(t)).Times(1)

	_, err := h.runner.Run(t.Context(), h.request)
	require.NoError(t, err)

	res, err := h.runner.Run(t.Context(), h.request)
	require.NoError(t, err)
	for _, step := range res.Steps[1:] {
		assert.Equal(t, pipeline.StatusCached, step.Status, step.Name)
	}
	assert.Equal(t, pipeline.StatusCached, h.runner.Status("client", "rename"))
}

func TestRunner_InputChangeReruns(t *testing.T) {
	h := newHarness(t)
	h.tools.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(copyTool(t)).Times(2)

	_, err := h.runner.Run(t.Context(), h.request)
	require.NoError(t, err)

	writeFile(t, filepath.Join(h.request.ConfigDir, "config", "joined.tsrg"), "a net/minecraft/A\nb net/minecraft/B\n")
	res, err := h.runner.Run(t.Context(), h.request)
	require.NoError(t, err)
	assert.Equal(t, pipeline.StatusCompleted, res.Steps[1].Status)

	names, err := archive.Entries(res.Steps[1].Output)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.class", "b.class"}, names)
}

func TestRunner_UnknownSide(t *testing.T) {
	h := newHarness(t)
	req := h.request
	req.Side = "joined"

	res, err := h.runner.Run(t.Context(), req)
	require.NoError(t, err)
	assert.Empty(t, res.Steps)
	assert.Empty(t, res.Output())
}

func TestRunner_Failures(t *testing.T) {
	tests := []struct {
		name     string
		document string
		provided bool
		want     error
	}{
		{
			name:     "unresolved placeholder",
			document: `{"version": "1", "steps": {"client": [{"type": "strip", "input": "{nothing}"}]}}`,
			want:     domain.ErrUnresolvedPlaceholder,
		},
		{
			name:     "built-in not provided",
			document: `{"version": "1", "steps": {"client": [{"type": "downloadClient"}]}}`,
			want:     domain.ErrUnknownStepType,
		},
		{
			name:     "undeclared function",
			document: `{"version": "1", "steps": {"client": [{"type": "decompile"}]}}`,
			want:     domain.ErrUnknownStepType,
		},
		{
			name:     "strip without input",
			document: `{"version": "1", "steps": {"client": [{"type": "strip"}]}}`,
			want:     domain.ErrConfigFormat,
		},
		{
			name:     "bad function coordinate",
			document: `{"version": "1", "steps": {"client": [{"type": "x"}]}, "functions": {"x": {"version": "nope"}}}`,
			want:     domain.ErrInvalidCoordinate,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			cfg, err := config.ParsePipeline([]byte(tt.document))
			require.NoError(t, err)
			req := h.request
			req.Config = cfg
			req.Provided = nil

			_, err = h.runner.Run(t.Context(), req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Equal(t, pipeline.StatusFailed, h.runner.Status("client", cfg.Steps("client")[0].Name))
		})
	}
}

func TestRunner_ToolFailureStopsSide(t *testing.T) {
	h := newHarness(t)
	h.tools.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(domain.ErrToolFailed)

	res, err := h.runner.Run(t.Context(), h.request)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrToolFailed)
	assert.ErrorIs(t, err, domain.ErrJobFailed)
	assert.Len(t, res.Steps, 3)
	assert.Equal(t, pipeline.StatusPending, h.runner.Status("client", "inject"))
	assert.NoFileExists(t, filepath.Join(h.request.WorkDir, "client", "rename", "output.jar"))
}

func TestRunner_RunSides(t *testing.T) {
	h := newHarness(t)
	h.tools.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(copyTool(t))

	results, err := h.runner.RunSides(t.Context(), h.request, domain.SideClient, domain.SideServer)
	require.NoError(t, err)
	require.Contains(t, results, domain.SideClient)
	require.Contains(t, results, domain.SideServer)

	names, err := archive.Entries(results[domain.SideServer].Output())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.class"}, names)
	assert.Len(t, results[domain.SideClient].Steps, 5)
}
