package fs_test

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/anvil/internal/adapters/fs"
	"go.trai.ch/anvil/internal/core/domain"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), domain.DirPerm))
		require.NoError(t, os.WriteFile(path, []byte(content), domain.FilePerm))
	}
}

func TestWalker_WalkFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		".git/config":                           "git config",
		".anvil/cache/entries/0a.json":          "{}",
		"net/minecraft/package-info.java":       "package net.minecraft;",
		"net/minecraft/server/package-info.txt": "server",
		"META-INF/MANIFEST.MF":                  "Manifest-Version: 1.0",
		"patches/a.java.patch":                  "--- a",
		"notes.log":                             "log",
	})

	var rel []string
	for path := range fs.NewWalker().WalkFiles(root, []string{"patches", "*.log"}) {
		r, err := filepath.Rel(root, path)
		require.NoError(t, err)
		rel = append(rel, filepath.ToSlash(r))
	}

	assert.Equal(t, []string{
		"META-INF/MANIFEST.MF",
		"net/minecraft/package-info.java",
		"net/minecraft/server/package-info.txt",
	}, rel)
}

func TestWalker_StopsEarly(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "a", "b.txt": "b", "c.txt": "c"})

	var seen []string
	for path := range fs.NewWalker().WalkFiles(root, nil) {
		seen = append(seen, filepath.Base(path))
		if len(seen) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"a.txt", "b.txt"}, seen)
}

func TestWalker_MissingRoot(t *testing.T) {
	paths := slices.Collect(fs.NewWalker().WalkFiles(filepath.Join(t.TempDir(), "absent"), nil))
	assert.Empty(t, paths)
}

func TestHasher_ComputeFileHash(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"client.jar": "PK jar", "copy.jar": "PK jar", "other.jar": "PK other"})
	hasher := fs.NewHasher(fs.NewWalker())

	first, err := hasher.ComputeFileHash(filepath.Join(dir, "client.jar"))
	require.NoError(t, err)
	assert.NotZero(t, first)

	same, err := hasher.ComputeFileHash(filepath.Join(dir, "copy.jar"))
	require.NoError(t, err)
	assert.Equal(t, first, same)

	other, err := hasher.ComputeFileHash(filepath.Join(dir, "other.jar"))
	require.NoError(t, err)
	assert.NotEqual(t, first, other)

	_, err = hasher.ComputeFileHash(filepath.Join(dir, "absent.jar"))
	require.ErrorIs(t, err, domain.ErrFileOpenFailed)
}
