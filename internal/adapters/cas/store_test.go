package cas_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/anvil/internal/adapters/cas"
	"go.trai.ch/anvil/internal/core/domain"
)

const testKey domain.CacheKey = "0123456789abcdef"

func TestStore_PutAndGet(t *testing.T) {
	store, err := cas.NewStore(t.TempDir())
	require.NoError(t, err)

	entry := domain.CacheEntry{
		Key:          testKey,
		Job:          "extra-jar",
		Output:       "/tmp/extra.jar",
		OutputDigest: "abc",
		Size:         42,
		Timestamp:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Put(entry))

	got, err := store.Get(testKey)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entry, *got)
}

func TestStore_GetMissing(t *testing.T) {
	store, err := cas.NewStore(t.TempDir())
	require.NoError(t, err)

	got, err := store.Get(testKey)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_Persistence(t *testing.T) {
	root := t.TempDir()

	store1, err := cas.NewStore(root)
	require.NoError(t, err)
	require.NoError(t, store1.Put(domain.CacheEntry{Key: testKey, Output: "out.jar", OutputDigest: "xyz"}))

	store2, err := cas.NewStore(root)
	require.NoError(t, err)

	got, err := store2.Get(testKey)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "xyz", got.OutputDigest)
}

func TestStore_OmitZero(t *testing.T) {
	store, err := cas.NewStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Put(domain.CacheEntry{Key: testKey, Output: "out.jar", OutputDigest: "xyz"}))

	content, err := os.ReadFile(filepath.Join(store.Dir(), testKey.String()+".json"))
	require.NoError(t, err)

	jsonStr := string(content)
	assert.NotContains(t, jsonStr, "timestamp")
	assert.NotContains(t, jsonStr, "size")
	assert.NotContains(t, jsonStr, `"job"`)
	assert.Contains(t, jsonStr, "output_digest")
}

func TestStore_NoTemporaryFilesLeft(t *testing.T) {
	store, err := cas.NewStore(t.TempDir())
	require.NoError(t, err)

	for range 3 {
		require.NoError(t, store.Put(domain.CacheEntry{Key: testKey, Output: "out.jar", OutputDigest: "xyz"}))
	}

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, strings.HasSuffix(entries[0].Name(), ".tmp"))
}

func TestStore_CorruptEntry(t *testing.T) {
	store, err := cas.NewStore(t.TempDir())
	require.NoError(t, err)

	path := filepath.Join(store.Dir(), testKey.String()+".json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err = store.Get(testKey)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCacheIntegrity))
	assert.True(t, errors.Is(err, domain.ErrStoreUnmarshalFailed))

	require.NoError(t, store.Delete(testKey))
	got, err := store.Get(testKey)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_EntryForOtherKey(t *testing.T) {
	store, err := cas.NewStore(t.TempDir())
	require.NoError(t, err)

	path := filepath.Join(store.Dir(), testKey.String()+".json")
	require.NoError(t, os.WriteFile(path, []byte(`{"key":"fedcba9876543210","output":"a","output_digest":"b"}`), 0o600))

	_, err = store.Get(testKey)
	assert.True(t, errors.Is(err, domain.ErrCacheIntegrity))
}

func TestStore_RejectsMalformedKey(t *testing.T) {
	store, err := cas.NewStore(t.TempDir())
	require.NoError(t, err)

	err = store.Put(domain.CacheEntry{Key: "../escape", Output: "a", OutputDigest: "b"})
	require.Error(t, err)

	_, err = store.Get("../escape")
	require.Error(t, err)
}

func TestStore_DeleteMissing(t *testing.T) {
	store, err := cas.NewStore(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, store.Delete(testKey))
}
