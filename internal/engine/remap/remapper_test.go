package remap_test

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/anvil/internal/adapters/archive"
	"go.trai.ch/anvil/internal/adapters/jvm"
	"go.trai.ch/anvil/internal/adapters/logger"
	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/engine/remap"
)

const srg = `# obfuscated 1.20.1
CL: a net/minecraft/world/Entity
CL: e net/minecraft/world/LivingEntity
CL: b net/minecraft/world/entity/Player
MD: a/c (La;)V net/minecraft/world/Entity/copyFrom (Lnet/minecraft/world/Entity;)V
`

var stamp = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type entry struct {
	name string
	data []byte
}

func writeJar(t *testing.T, path string, entries ...entry) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	for _, e := range entries {
		fw, err := w.CreateHeader(&zip.FileHeader{Name: e.name, Method: zip.Deflate, Modified: stamp})
		require.NoError(t, err)
		_, err = fw.Write(e.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
}

func readJar(t *testing.T, path string) map[string][]byte {
	t.Helper()
	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	out := make(map[string][]byte)
	for _, f := range r.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		out[f.Name] = data
	}
	return out
}

type workspace struct {
	dir       string
	input     string
	mappings  string
	classpath string
}

func newWorkspace(t *testing.T) *workspace {
	t.Helper()
	dir := t.TempDir()
	ws := &workspace{
		dir:       dir,
		input:     filepath.Join(dir, "client.jar"),
		mappings:  filepath.Join(dir, "joined.srg"),
		classpath: filepath.Join(dir, "library.jar"),
	}

	// b extends e extends a, but e only exists on the classpath.
	child := jvm.NewClass("b", "e")
	child.AddMethod(0x0001, "c", "(La;)V")
	child.AddRef(jvm.TagMethodref, "b", "c", "(La;)V")
	childBytes, err := child.Encode()
	require.NoError(t, err)

	parentBytes, err := jvm.NewClass("e", "a").Encode()
	require.NoError(t, err)

	writeJar(t, ws.input,
		entry{name: "assets/"},
		entry{name: "assets/lang.json", data: []byte(`{"key":"value"}`)},
		entry{name: "b.class", data: childBytes},
	)
	writeJar(t, ws.classpath, entry{name: "e.class", data: parentBytes})
	require.NoError(t, os.WriteFile(ws.mappings, []byte(srg), domain.FilePerm))
	return ws
}

func newRemapper() *remap.Remapper {
	return remap.NewRemapper(logger.NewWithOutput(io.Discard))
}

func TestRemap_ExternalSuperclass(t *testing.T) {
	ws := newWorkspace(t)
	out := filepath.Join(ws.dir, "out", "client-mapped.jar")

	err := newRemapper().Remap(t.Context(), remap.Request{
		Input:     ws.input,
		Mappings:  ws.mappings,
		Classpath: []string{ws.classpath},
		Output:    out,
	})
	require.NoError(t, err)

	names, err := archive.Entries(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"assets/", "assets/lang.json", "net/minecraft/world/entity/Player.class"}, names)

	entries := readJar(t, out)
	assert.JSONEq(t, `{"key":"value"}`, string(entries["assets/lang.json"]))

	cf, err := jvm.Decode(entries["net/minecraft/world/entity/Player.class"])
	require.NoError(t, err)
	assert.Equal(t, "net/minecraft/world/entity/Player", cf.Name())
	assert.Equal(t, "net/minecraft/world/LivingEntity", cf.SuperName())
	require.Len(t, cf.Methods, 1)
	assert.Equal(t, "copyFrom", cf.Utf8(cf.Methods[0].NameIndex))
	assert.Equal(t, "(Lnet/minecraft/world/Entity;)V", cf.Utf8(cf.Methods[0].DescIndex))
}

func TestRemap_WithoutClasspathKeepsInheritedNames(t *testing.T) {
	ws := newWorkspace(t)
	out := filepath.Join(ws.dir, "out.jar")

	err := newRemapper().Remap(t.Context(), remap.Request{Input: ws.input, Mappings: ws.mappings, Output: out})
	require.NoError(t, err)

	cf, err := jvm.Decode(readJar(t, out)["net/minecraft/world/entity/Player.class"])
	require.NoError(t, err)
	assert.Equal(t, "c", cf.Utf8(cf.Methods[0].NameIndex))
}

func TestRemap_Reproducible(t *testing.T) {
	ws := newWorkspace(t)
	first := filepath.Join(ws.dir, "first.jar")
	second := filepath.Join(ws.dir, "second.jar")

	for _, out := range []string{first, second} {
		err := newRemapper().Remap(t.Context(), remap.Request{
			Input:     ws.input,
			Mappings:  ws.mappings,
			Classpath: []string{ws.classpath},
			Output:    out,
		})
		require.NoError(t, err)
	}

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRemap_InPlace(t *testing.T) {
	ws := newWorkspace(t)

	err := newRemapper().Remap(t.Context(), remap.Request{
		Input:     ws.input,
		Mappings:  ws.mappings,
		Classpath: []string{ws.classpath},
		Output:    ws.input,
	})
	require.NoError(t, err)
	assert.Contains(t, readJar(t, ws.input), "net/minecraft/world/entity/Player.class")
}

func TestRemap_VersionedEntryKeepsPrefix(t *testing.T) {
	ws := newWorkspace(t)
	classBytes, err := jvm.NewClass("a", "java/lang/Object").Encode()
	require.NoError(t, err)
	input := filepath.Join(ws.dir, "versioned.jar")
	writeJar(t, input,
		entry{name: "a.class", data: classBytes},
		entry{name: "META-INF/versions/9/a.class", data: classBytes},
	)
	out := filepath.Join(ws.dir, "versioned-mapped.jar")

	err = newRemapper().Remap(t.Context(), remap.Request{Input: input, Mappings: ws.mappings, Output: out})
	require.NoError(t, err)

	entries := readJar(t, out)
	assert.Len(t, entries, 2)
	assert.Contains(t, entries, "net/minecraft/world/Entity.class")
	require.Contains(t, entries, "META-INF/versions/9/net/minecraft/world/Entity.class")

	cf, err := jvm.Decode(entries["META-INF/versions/9/net/minecraft/world/Entity.class"])
	require.NoError(t, err)
	assert.Equal(t, "net/minecraft/world/Entity", cf.Name())
}

func TestRemap_Failures(t *testing.T) {
	ws := newWorkspace(t)
	corrupt := filepath.Join(ws.dir, "corrupt.jar")
	writeJar(t, corrupt, entry{name: "b.class", data: []byte{0xCA, 0xFE}})
	badMappings := filepath.Join(ws.dir, "bad.srg")
	require.NoError(t, os.WriteFile(badMappings, []byte("CL: a\n"), domain.FilePerm))

	tests := []struct {
		name string
		req  remap.Request
		want error
	}{
		{
			name: "missing input",
			req:  remap.Request{Input: filepath.Join(ws.dir, "absent.jar"), Mappings: ws.mappings},
			want: domain.ErrMissingInput,
		},
		{
			name: "missing mappings",
			req:  remap.Request{Input: ws.input, Mappings: filepath.Join(ws.dir, "absent.srg")},
			want: domain.ErrMappingLoad,
		},
		{
			name: "malformed mappings",
			req:  remap.Request{Input: ws.input, Mappings: badMappings},
			want: domain.ErrMappingLoad,
		},
		{
			name: "corrupt class",
			req:  remap.Request{Input: corrupt, Mappings: ws.mappings},
			want: domain.ErrClassFormat,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.Output = filepath.Join(t.TempDir(), "out.jar")
			err := newRemapper().Remap(t.Context(), tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.NoFileExists(t, tt.req.Output)
		})
	}
}
