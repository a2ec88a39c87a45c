package fs

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Hasher = (*Hasher)(nil)

// Hasher derives cache keys from a job's identity, tools, parameters and input content.
type Hasher struct {
	walker *Walker
}

// NewHasher creates a new Hasher.
func NewHasher(walker *Walker) *Hasher {
	return &Hasher{walker: walker}
}

// ComputeFileHash computes the XXHash of a file's content.
func (h *Hasher) ComputeFileHash(path string) (uint64, error) {
	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return 0, zerr.With(domain.Classify(domain.ErrFileOpenFailed, err), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	hasher := xxhash.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return 0, zerr.With(domain.Classify(domain.ErrFileHashFailed, err), "path", path)
	}

	return hasher.Sum64(), nil
}

// Key computes a single fingerprint of the job name, tool identifiers, parameters and input files.
// Any change to any of them changes the key. Inputs are labelled by position, not by location,
// so the same content at another path yields the same key.
func (h *Hasher) Key(spec domain.KeySpec) (domain.CacheKey, error) {
	hasher := xxhash.New()

	_, _ = hasher.WriteString(spec.Job)
	_, _ = hasher.Write([]byte{0})

	for _, tool := range spec.Tools {
		_, _ = hasher.WriteString(tool)
		_, _ = hasher.Write([]byte{0})
	}
	_, _ = hasher.Write([]byte{0}) // Section separator

	h.hashParams(spec.Params, hasher)

	for i, input := range spec.Inputs {
		if err := h.hashPath(i, input, hasher); err != nil {
			return "", err
		}
	}

	return domain.CacheKey(fmt.Sprintf("%016x", hasher.Sum64())), nil
}

// hashParams hashes named parameters in a deterministic order.
func (h *Hasher) hashParams(params map[string]string, hasher *xxhash.Digest) {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		_, _ = hasher.WriteString(k)
		_, _ = hasher.Write([]byte{'='})
		_, _ = hasher.WriteString(params[k])
		_, _ = hasher.Write([]byte{0})
	}
	_, _ = hasher.Write([]byte{0})
}

func (h *Hasher) hashPath(index int, path string, mainHasher io.Writer) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return zerr.With(zerr.Wrap(domain.ErrMissingInput, "input not found"), "path", path)
		}
		return zerr.With(zerr.Wrap(err, "failed to stat input"), "path", path)
	}

	label := "#" + strconv.Itoa(index)
	if !info.IsDir() {
		return h.hashFile(label, path, mainHasher)
	}

	_, _ = mainHasher.Write([]byte(label + "/"))
	_, _ = mainHasher.Write([]byte{0})
	for filePath := range h.walker.WalkFiles(path, nil) {
		rel, err := filepath.Rel(path, filePath)
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to relativize input"), "path", filePath)
		}
		if err := h.hashFile(filepath.ToSlash(rel), filePath, mainHasher); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hasher) hashFile(label, path string, mainHasher io.Writer) error {
	_, _ = mainHasher.Write([]byte(label))
	_, _ = mainHasher.Write([]byte{0})

	hash, err := h.ComputeFileHash(path)
	if err != nil {
		return err
	}

	if err := binary.Write(mainHasher, binary.LittleEndian, hash); err != nil {
		return zerr.Wrap(err, "failed to write hash to digest")
	}
	return nil
}
