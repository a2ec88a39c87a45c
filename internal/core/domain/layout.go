package domain

import "path/filepath"

const (
	// AnvilDirName is the name of the internal workspace directory.
	AnvilDirName = ".anvil"

	// CacheDirName is the name of the cache directory.
	CacheDirName = "cache"

	// EntriesDirName is the name of the directory holding published cache entries.
	EntriesDirName = "entries"

	// LocksDirName is the name of the directory holding cross-process lock files.
	LocksDirName = "locks"

	// StepsDirName is the name of the directory holding pipeline step outputs.
	StepsDirName = "steps"

	// SettingsFileName is the name of the settings file.
	SettingsFileName = "anvil.yaml"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// DefaultCachePath returns the default root directory of the build cache.
// It joins .anvil and cache.
func DefaultCachePath() string {
	return filepath.Join(AnvilDirName, CacheDirName)
}

// DefaultStepsPath returns the default working directory for pipeline steps.
// It joins .anvil and steps.
func DefaultStepsPath() string {
	return filepath.Join(AnvilDirName, StepsDirName)
}

// EntriesPath returns the entry directory below a cache root.
func EntriesPath(cacheRoot string) string {
	return filepath.Join(cacheRoot, EntriesDirName)
}

// LocksPath returns the lock directory below a cache root.
func LocksPath(cacheRoot string) string {
	return filepath.Join(cacheRoot, LocksDirName)
}
