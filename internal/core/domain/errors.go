package domain

import (
	"fmt"

	"go.trai.ch/zerr"
)

var (
	// ErrConfigFormat is returned when a pipeline configuration document is malformed or incomplete.
	ErrConfigFormat = zerr.New("invalid configuration document")

	// ErrMissingInput is returned when a required input file or artifact is absent at execution time.
	ErrMissingInput = zerr.New("missing input")

	// ErrCacheIntegrity is returned when a registered cache entry's output is missing or corrupted.
	ErrCacheIntegrity = zerr.New("cache entry integrity check failed")

	// ErrArchiveIO is returned when reading or writing an archive entry fails.
	ErrArchiveIO = zerr.New("archive i/o failed")

	// ErrMappingLoad is returned when a mapping source is unreadable or malformed.
	ErrMappingLoad = zerr.New("failed to load mappings")

	// ErrClassFormat is returned when a class file cannot be decoded or encoded.
	ErrClassFormat = zerr.New("invalid class file")

	// ErrUnknownStepType is returned when a step type is neither a built-in nor a declared function.
	ErrUnknownStepType = zerr.New("unknown step type")

	// ErrUnresolvedPlaceholder is returned when a {placeholder} cannot be resolved at execution time.
	ErrUnresolvedPlaceholder = zerr.New("unresolved placeholder")

	// ErrToolFailed is returned when an external tool exits unsuccessfully.
	ErrToolFailed = zerr.New("tool execution failed")

	// ErrArtifactNotFound is returned when a coordinate cannot be located in any repository.
	ErrArtifactNotFound = zerr.New("artifact not found")

	// ErrInvalidCoordinate is returned when a maven coordinate string cannot be parsed.
	ErrInvalidCoordinate = zerr.New("invalid artifact coordinate, expected group:artifact:version[:classifier][@extension]")

	// ErrSettingsLoad is returned when the settings file cannot be read or parsed.
	ErrSettingsLoad = zerr.New("failed to load settings")

	// ErrRemoteCache is returned when the remote cache cannot be reached or is misconfigured.
	ErrRemoteCache = zerr.New("remote cache operation failed")

	// ErrJobFailed is returned when a cached job body fails.
	ErrJobFailed = zerr.New("job execution failed")

	// ErrKeyComputationFailed is returned when a job's cache key cannot be computed.
	ErrKeyComputationFailed = zerr.New("failed to compute cache key")

	// ErrStoreCreateFailed is returned when the cache entry directory cannot be created.
	ErrStoreCreateFailed = zerr.New("failed to create cache entry directory")

	// ErrStoreReadFailed is returned when a cache entry cannot be read.
	ErrStoreReadFailed = zerr.New("failed to read cache entry")

	// ErrStoreUnmarshalFailed is returned when a cache entry cannot be unmarshaled.
	ErrStoreUnmarshalFailed = zerr.New("failed to unmarshal cache entry")

	// ErrStoreMarshalFailed is returned when a cache entry cannot be marshaled.
	ErrStoreMarshalFailed = zerr.New("failed to marshal cache entry")

	// ErrStoreWriteFailed is returned when a cache entry cannot be written.
	ErrStoreWriteFailed = zerr.New("failed to write cache entry")

	// ErrLockFailed is returned when the cross-process lock for a key cannot be acquired.
	ErrLockFailed = zerr.New("failed to acquire cache lock")

	// ErrFileOpenFailed is returned when a file cannot be opened.
	ErrFileOpenFailed = zerr.New("failed to open file")

	// ErrFileHashFailed is returned when hashing a file fails.
	ErrFileHashFailed = zerr.New("failed to hash file content")
)

// Classify returns an error that matches both kind and cause under errors.Is.
// A nil cause yields a wrapper around kind alone.
func Classify(kind, cause error) error {
	if cause == nil {
		return zerr.Wrap(kind, "")
	}
	return fmt.Errorf("%w: %w", kind, cause)
}
