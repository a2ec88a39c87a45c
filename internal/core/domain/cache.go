package domain

import (
	"regexp"
	"time"
)

// CacheKey is an opaque fingerprint of a job's identity, declared inputs and tool versions.
// Two jobs with the same key are expected to produce identical output.
type CacheKey string

var cacheKeyPattern = regexp.MustCompile(`^[0-9a-f]{16,64}$`)

// String returns the key as a string.
func (k CacheKey) String() string {
	return string(k)
}

// Valid reports whether the key is a well-formed lowercase hex fingerprint.
// Keys are used as file names, so anything else is rejected.
func (k CacheKey) Valid() bool {
	return cacheKeyPattern.MatchString(string(k))
}

// KeySpec describes everything that contributes to a job's cache key.
type KeySpec struct {
	// Job is the stable identity of the job (e.g. "extra-jar", "step:client/rename").
	Job string
	// Inputs are files (or directories) whose content is part of the key.
	Inputs []string
	// Tools are tool or version identifiers (e.g. maven coordinates).
	Tools []string
	// Params are additional named parameters, hashed in key order.
	Params map[string]string
}

// CacheEntry records a completed job execution.
// Entries are written once and never modified in place.
type CacheEntry struct {
	Key          CacheKey  `json:"key"`
	Job          string    `json:"job,omitzero"`
	Output       string    `json:"output"`
	OutputDigest string    `json:"output_digest"`
	Size         int64     `json:"size,omitzero"`
	Timestamp    time.Time `json:"timestamp,omitzero"`
}
