package archive

import (
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
	fsadapter "go.trai.ch/anvil/internal/adapters/fs"
	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/zerr"
)

// ReproducibleTime is the modification time given to entries that have no source timestamp.
var ReproducibleTime = time.Date(1980, time.February, 1, 0, 0, 0, 0, time.UTC)

// Inject copies src to dst and appends every file below dir as an entry relative to dir.
// Entries already present in src are kept and the injected file is skipped.
// Injected files are added in lexical order with a fixed timestamp.
func Inject(src, dst, dir string, walker *fsadapter.Walker) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		if os.IsNotExist(err) {
			return zerr.With(zerr.Wrap(domain.ErrMissingInput, "source archive not found"), "path", src)
		}
		return archiveError(err, "failed to open source archive", src)
	}
	defer r.Close() //nolint:errcheck // Read side close

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return zerr.With(zerr.Wrap(domain.ErrMissingInput, "inject directory not found"), "path", dir)
	}

	present := make(map[string]bool, len(r.File))
	for _, f := range r.File {
		present[f.Name] = true
	}

	return WriteAtomic(dst, func(w *zip.Writer) error {
		if err := CopyEntries(w, &r.Reader, nil, src); err != nil {
			return err
		}
		for file := range walker.WalkFiles(dir, nil) {
			rel, err := filepath.Rel(dir, file)
			if err != nil {
				return archiveError(err, "failed to relativize injected file", file)
			}
			name := filepath.ToSlash(rel)
			if present[name] {
				continue
			}
			if err := ensureParents(w, name, present); err != nil {
				return entryError(err, "failed to write directory entry", dst, name)
			}
			data, err := os.ReadFile(file) //nolint:gosec // Path comes from walking the inject directory
			if err != nil {
				return archiveError(err, "failed to read injected file", file)
			}
			if err := WriteBytes(w, name, ReproducibleTime, data); err != nil {
				return entryError(err, "failed to write injected entry", dst, name)
			}
			present[name] = true
		}
		return nil
	})
}

// ensureParents writes directory entries for every missing parent of name.
func ensureParents(w *zip.Writer, name string, present map[string]bool) error {
	dir := path.Dir(name)
	if dir == "." || dir == "/" {
		return nil
	}
	var missing []string
	for d := dir; d != "." && d != "/"; d = path.Dir(d) {
		if present[d+"/"] {
			break
		}
		missing = append(missing, d+"/")
	}
	for i := len(missing) - 1; i >= 0; i-- {
		if err := WriteDir(w, strings.TrimSuffix(missing[i], "/"), ReproducibleTime); err != nil {
			return err
		}
		present[missing[i]] = true
	}
	return nil
}
