// Package cas implements the persistent cache entry registry and its key-scoped locks.
package cas

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.CacheStore = (*Store)(nil)

// Store implements ports.CacheStore with one JSON file per cache key.
// Entries are published by writing a temporary file and renaming it into place,
// so concurrent readers see either the previous state or the complete entry.
type Store struct {
	dir string
}

// NewStore creates a new Store below the given cache root.
func NewStore(root string) (*Store, error) {
	dir := domain.EntriesPath(filepath.Clean(root))
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return nil, zerr.With(domain.Classify(domain.ErrStoreCreateFailed, err), "path", dir)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory holding entry files.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) entryPath(key domain.CacheKey) (string, error) {
	if !key.Valid() {
		return "", zerr.With(zerr.Wrap(domain.ErrCacheIntegrity, "malformed cache key"), "key", key.String())
	}
	return filepath.Join(s.dir, key.String()+".json"), nil
}

// Get retrieves the entry for key.
// Returns nil, nil if not found. An unreadable or inconsistent entry yields domain.ErrCacheIntegrity.
func (s *Store) Get(key domain.CacheKey) (*domain.CacheEntry, error) {
	path, err := s.entryPath(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path) //nolint:gosec // Path is derived from a validated key
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(domain.Classify(domain.ErrStoreReadFailed, err), "path", path)
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		cause := domain.Classify(domain.ErrStoreUnmarshalFailed, err)
		return nil, zerr.With(domain.Classify(domain.ErrCacheIntegrity, cause), "path", path)
	}
	if entry.Key != key || entry.Output == "" || entry.OutputDigest == "" {
		return nil, zerr.With(zerr.Wrap(domain.ErrCacheIntegrity, "cache entry is incomplete"), "path", path)
	}
	return &entry, nil
}

// Put publishes the entry atomically.
func (s *Store) Put(entry domain.CacheEntry) error {
	path, err := s.entryPath(entry.Key)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return domain.Classify(domain.ErrStoreMarshalFailed, err)
	}

	return WriteFileAtomic(path, data)
}

// Delete removes the entry for key. Deleting a missing entry is not an error.
func (s *Store) Delete(key domain.CacheKey) error {
	path, err := s.entryPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return zerr.With(zerr.Wrap(err, "failed to delete cache entry"), "path", path)
	}
	return nil
}

// WriteFileAtomic writes data to a temporary file next to path and renames it into place.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.With(domain.Classify(domain.ErrStoreCreateFailed, err), "path", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return zerr.With(domain.Classify(domain.ErrStoreWriteFailed, err), "path", path)
	}
	tmpName := tmp.Name()

	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(tmpName, domain.FilePerm)
	}
	if err == nil {
		err = os.Rename(tmpName, path)
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return zerr.With(domain.Classify(domain.ErrStoreWriteFailed, err), "path", path)
	}
	return nil
}
