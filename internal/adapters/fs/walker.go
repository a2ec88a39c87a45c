// Package fs provides file system adapters for walking, fingerprinting and digesting files.
package fs

import (
	"io/fs"
	"iter"
	"path/filepath"

	"go.trai.ch/anvil/internal/core/domain"
)

// Walker provides file walking functionality.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields all files below root in lexical order, skipping .git, .anvil and ignored names.
// Yielded paths include root as a prefix.
func (w *Walker) WalkFiles(root string, ignores []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if path != root && w.ignored(d, ignores) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if d.IsDir() {
				return nil
			}

			if !yield(path) {
				return filepath.SkipAll
			}

			return nil
		})
	}
}

// ignored reports whether an entry matches the built-in or caller-provided ignore patterns.
func (w *Walker) ignored(d fs.DirEntry, ignores []string) bool {
	name := d.Name()

	if d.IsDir() && (name == ".git" || name == domain.AnvilDirName) {
		return true
	}

	for _, ignore := range ignores {
		if matched, _ := filepath.Match(ignore, name); matched {
			return true
		}
	}
	return false
}
