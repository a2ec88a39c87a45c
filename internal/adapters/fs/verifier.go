package fs

import (
	"encoding/hex"
	"io"
	"os"

	"github.com/zeebo/blake3"
	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Verifier = (*Verifier)(nil)

// Verifier computes BLAKE3 digests of job outputs.
type Verifier struct{}

// NewVerifier creates a new Verifier.
func NewVerifier() *Verifier {
	return &Verifier{}
}

// Digest returns the hex BLAKE3-256 digest of the file at path.
func (v *Verifier) Digest(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return "", zerr.With(domain.Classify(domain.ErrFileOpenFailed, err), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", zerr.With(domain.Classify(domain.ErrFileHashFailed, err), "path", path)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Matches reports whether the file at path exists and has the expected digest.
// A missing file is a mismatch, not an error.
func (v *Verifier) Matches(path, expected string) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, zerr.With(zerr.Wrap(err, "failed to stat output"), "path", path)
	}
	got, err := v.Digest(path)
	if err != nil {
		return false, err
	}
	return got == expected, nil
}
