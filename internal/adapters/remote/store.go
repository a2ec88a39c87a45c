// Package remote shares cache outputs through an S3-compatible object store.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	defaultRegion = "us-east-1"
	objectPrefix  = "anvil/"
)

// Store implements ports.RemoteCache. Each entry is two objects: <key>.bin holds the output
// and <key>.json holds the entry. The entry is uploaded last so a visible entry always has
// its output.
type Store struct {
	objects  objects
	verifier ports.Verifier
}

// NewStore connects to the configured bucket. The bucket is created on first upload.
func NewStore(settings domain.RemoteSettings, verifier ports.Verifier) (*Store, error) {
	endpoint := strings.TrimSpace(settings.Endpoint)
	if endpoint == "" {
		return nil, zerr.Wrap(domain.ErrRemoteCache, "remote endpoint is required")
	}
	bucketName := strings.TrimSpace(settings.Bucket)
	if bucketName == "" {
		return nil, zerr.Wrap(domain.ErrRemoteCache, "remote bucket is required")
	}
	region := strings.TrimSpace(settings.Region)
	if region == "" {
		region = defaultRegion
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(settings.AccessKey, settings.SecretKey, ""),
		Secure: settings.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, zerr.With(domain.Classify(domain.ErrRemoteCache, err), "endpoint", endpoint)
	}
	return newStore(&bucket{client: client, name: bucketName, region: region}, verifier), nil
}

func newStore(objects objects, verifier ports.Verifier) *Store {
	return &Store{objects: objects, verifier: verifier}
}

// Fetch implements ports.RemoteCache. The downloaded output is verified against the entry's
// digest before it is moved to dest.
func (s *Store) Fetch(ctx context.Context, key domain.CacheKey, dest string) (*domain.CacheEntry, error) {
	if !key.Valid() {
		return nil, zerr.With(zerr.Wrap(domain.ErrRemoteCache, "invalid cache key"), "key", key.String())
	}

	entry, err := s.readEntry(ctx, key)
	if err != nil || entry == nil {
		return nil, err
	}

	body, err := s.objects.get(ctx, outputObject(key))
	if errors.Is(err, errObjectNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, zerr.With(domain.Classify(domain.ErrRemoteCache, err), "key", key.String())
	}
	defer func() {
		_ = body.Close()
	}()

	if err := os.MkdirAll(filepath.Dir(dest), domain.DirPerm); err != nil {
		return nil, zerr.With(domain.Classify(domain.ErrRemoteCache, err), "path", dest)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.remote")
	if err != nil {
		return nil, zerr.With(domain.Classify(domain.ErrRemoteCache, err), "path", dest)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	size, err := io.Copy(tmp, body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, zerr.With(domain.Classify(domain.ErrRemoteCache, err), "key", key.String())
	}

	digest, err := s.verifier.Digest(tmpName)
	if err != nil {
		return nil, err
	}
	if digest != entry.OutputDigest {
		err := zerr.Wrap(domain.ErrRemoteCache, "remote output does not match its digest")
		return nil, zerr.With(zerr.With(err, "key", key.String()), "digest", digest)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return nil, zerr.With(domain.Classify(domain.ErrRemoteCache, err), "path", dest)
	}

	entry.Output = dest
	entry.Size = size
	return entry, nil
}

func (s *Store) readEntry(ctx context.Context, key domain.CacheKey) (*domain.CacheEntry, error) {
	body, err := s.objects.get(ctx, entryObject(key))
	if errors.Is(err, errObjectNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, zerr.With(domain.Classify(domain.ErrRemoteCache, err), "key", key.String())
	}
	defer func() {
		_ = body.Close()
	}()

	var entry domain.CacheEntry
	if err := json.NewDecoder(body).Decode(&entry); err != nil {
		return nil, zerr.With(domain.Classify(domain.ErrRemoteCache, err), "key", key.String())
	}
	if entry.Key != key || entry.OutputDigest == "" {
		return nil, zerr.With(zerr.Wrap(domain.ErrRemoteCache, "remote entry does not match its key"), "key", key.String())
	}
	return &entry, nil
}

// Push implements ports.RemoteCache.
func (s *Store) Push(ctx context.Context, entry domain.CacheEntry) error {
	if !entry.Key.Valid() {
		return zerr.With(zerr.Wrap(domain.ErrRemoteCache, "invalid cache key"), "key", entry.Key.String())
	}

	f, err := os.Open(entry.Output)
	if err != nil {
		return zerr.With(domain.Classify(domain.ErrRemoteCache, err), "path", entry.Output)
	}
	defer func() {
		_ = f.Close()
	}()
	info, err := f.Stat()
	if err != nil {
		return zerr.With(domain.Classify(domain.ErrRemoteCache, err), "path", entry.Output)
	}

	if err := s.objects.put(ctx, outputObject(entry.Key), f, info.Size(), "application/octet-stream"); err != nil {
		return zerr.With(domain.Classify(domain.ErrRemoteCache, err), "key", entry.Key.String())
	}

	remote := entry
	remote.Output = filepath.Base(entry.Output)
	data, err := json.Marshal(remote)
	if err != nil {
		return zerr.With(domain.Classify(domain.ErrRemoteCache, err), "key", entry.Key.String())
	}
	if err := s.objects.put(ctx, entryObject(entry.Key), bytes.NewReader(data), int64(len(data)), "application/json"); err != nil {
		return zerr.With(domain.Classify(domain.ErrRemoteCache, err), "key", entry.Key.String())
	}
	return nil
}

func entryObject(key domain.CacheKey) string {
	return objectPrefix + key.String() + ".json"
}

func outputObject(key domain.CacheKey) string {
	return objectPrefix + key.String() + ".bin"
}
