// Package archive streams zip archives entry by entry.
package archive

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/zerr"
)

// archiveError attaches the archive path to an ErrArchiveIO failure.
func archiveError(cause error, msg, path string) error {
	return zerr.With(zerr.Wrap(domain.Classify(domain.ErrArchiveIO, cause), msg), "path", path)
}

// entryError attaches the archive path and entry name to an ErrArchiveIO failure.
func entryError(cause error, msg, path, entry string) error {
	return zerr.With(archiveError(cause, msg, path), "entry", entry)
}

// WriteAtomic creates the archive at dst by letting fill write its entries into a temporary
// file that is renamed into place on success. On failure no file is left at dst.
func WriteAtomic(dst string, fill func(w *zip.Writer) error) (err error) {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return archiveError(err, "failed to create output directory", dst)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return archiveError(err, "failed to create output archive", dst)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	zw := zip.NewWriter(tmp)
	if err := fill(zw); err != nil {
		_ = zw.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		return archiveError(err, "failed to finalize output archive", dst)
	}
	if err := tmp.Close(); err != nil {
		return archiveError(err, "failed to close output archive", dst)
	}
	if err := os.Chmod(tmpName, domain.FilePerm); err != nil {
		return archiveError(err, "failed to set output archive permissions", dst)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return archiveError(err, "failed to publish output archive", dst)
	}
	return nil
}

// CopyEntries writes the entries of r to w in their natural order.
// Directory entries are always written; file entries are streamed when keep reports true.
// A nil keep copies everything.
func CopyEntries(w *zip.Writer, r *zip.Reader, keep Predicate, srcPath string) error {
	for _, f := range r.File {
		if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
			if err := WriteDir(w, f.Name, f.Modified); err != nil {
				return entryError(err, "failed to write directory entry", srcPath, f.Name)
			}
			continue
		}
		if keep != nil && !keep(f.Name) {
			continue
		}
		if err := CopyFile(w, f); err != nil {
			return entryError(err, "failed to copy entry", srcPath, f.Name)
		}
	}
	return nil
}

// CopyFile streams a single file entry byte for byte, preserving its name,
// compression method and modification time.
func CopyFile(w *zip.Writer, f *zip.File) error {
	return CopyFileAs(w, f, f.Name)
}

// CopyFileAs streams a single file entry under a new name.
func CopyFileAs(w *zip.Writer, f *zip.File, name string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close() //nolint:errcheck // Read side close

	out, err := w.CreateHeader(&zip.FileHeader{
		Name:          name,
		Method:        f.Method,
		Modified:      f.Modified,
		Comment:       f.Comment,
		ExternalAttrs: f.ExternalAttrs,
	})
	if err != nil {
		return err
	}
	_, err = io.Copy(out, rc)
	return err
}

// WriteDir writes a zero-length directory entry. A trailing slash is added if missing.
func WriteDir(w *zip.Writer, name string, modified time.Time) error {
	if !strings.HasSuffix(name, "/") {
		name += "/"
	}
	_, err := w.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Store,
		Modified: modified,
	})
	return err
}

// WriteBytes writes a file entry with the given content.
func WriteBytes(w *zip.Writer, name string, modified time.Time, data []byte) error {
	out, err := w.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: modified,
	})
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

// FilterCopy copies src to dst, keeping directory entries and the file entries accepted by keep.
// Entry order, content and timestamps are preserved. On failure dst is not created.
func FilterCopy(src, dst string, keep Predicate) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		if os.IsNotExist(err) {
			return zerr.With(zerr.Wrap(domain.ErrMissingInput, "source archive not found"), "path", src)
		}
		return archiveError(err, "failed to open source archive", src)
	}
	defer r.Close() //nolint:errcheck // Read side close

	return WriteAtomic(dst, func(w *zip.Writer) error {
		return CopyEntries(w, &r.Reader, keep, src)
	})
}

// Entries lists the entry names of the archive at path in their natural order.
func Entries(path string) ([]string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, archiveError(err, "failed to open archive", path)
	}
	defer r.Close() //nolint:errcheck // Read side close

	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	return names, nil
}
