// Package remap rewrites class archives through a mapping table.
package remap

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"go.trai.ch/anvil/internal/adapters/archive"   //nolint:depguard // Job body built on adapters
	"go.trai.ch/anvil/internal/adapters/classpath" //nolint:depguard // Job body built on adapters
	"go.trai.ch/anvil/internal/adapters/jvm"       //nolint:depguard // Job body built on adapters
	"go.trai.ch/anvil/internal/adapters/mappings"  //nolint:depguard // Job body built on adapters
	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/core/ports"
	"go.trai.ch/zerr"
)

const classSuffix = ".class"

// Request describes a single remap invocation.
type Request struct {
	// Input is the archive to remap.
	Input string
	// Mappings is an SRG or TSRG file.
	Mappings string
	// Classpath lists jars and class directories consulted for ancestors outside Input.
	Classpath []string
	// Output is where the remapped archive is written.
	Output string
}

// Remapper applies mapping tables to archives.
type Remapper struct {
	logger    ports.Logger
	cacheSize int
}

// NewRemapper creates a new Remapper.
func NewRemapper(logger ports.Logger) *Remapper {
	return &Remapper{logger: logger, cacheSize: classpath.DefaultCacheSize}
}

// Remap writes a copy of req.Input with every class renamed and rewritten through the mappings
// in req.Mappings. Non-class entries are copied unchanged. Entry order and timestamps are kept,
// so the same inputs always produce the same bytes. On failure req.Output is not created.
func (r *Remapper) Remap(ctx context.Context, req Request) error {
	if _, err := os.Stat(req.Input); err != nil {
		return zerr.With(domain.Classify(domain.ErrMissingInput, err), "path", req.Input)
	}

	scratch, err := os.MkdirTemp("", "anvil-remap-*")
	if err != nil {
		return zerr.Wrap(err, "failed to create scratch directory")
	}
	defer func() {
		_ = os.RemoveAll(scratch)
	}()

	input := filepath.Join(scratch, "input.jar")
	if err := copyFile(req.Input, input); err != nil {
		return zerr.With(domain.Classify(domain.ErrArchiveIO, err), "path", req.Input)
	}

	table, err := mappings.Load(req.Mappings)
	if err != nil {
		return err
	}

	zr, err := zip.OpenReader(input)
	if err != nil {
		return zerr.With(domain.Classify(domain.ErrArchiveIO, err), "path", req.Input)
	}
	defer func() {
		_ = zr.Close()
	}()

	provider, err := classpath.NewProvider(req.Classpath, r.cacheSize)
	if err != nil {
		return err
	}
	defer func() {
		_ = provider.Close()
	}()

	table.SetInheritanceResolver(classpath.Joint(classpath.NewArchive(&zr.Reader).Lookup, provider.Lookup))

	var classes int
	err = archive.WriteAtomic(req.Output, func(w *zip.Writer) error {
		for _, f := range zr.File {
			if err := ctx.Err(); err != nil {
				return err
			}
			if f.FileInfo().IsDir() || !strings.HasSuffix(f.Name, classSuffix) {
				if err := archive.CopyFile(w, f); err != nil {
					return entryError(err, req.Input, f.Name)
				}
				continue
			}
			if err := remapEntry(w, f, table); err != nil {
				return zerr.With(err, "entry", f.Name)
			}
			classes++
		}
		return nil
	})
	if err != nil {
		return zerr.With(err, "input", req.Input)
	}

	r.logger.Debug(fmt.Sprintf("remapped %d classes from %s with %d class mappings",
		classes, filepath.Base(req.Input), table.ClassCount()))
	return nil
}

func remapEntry(w *zip.Writer, f *zip.File, table *domain.MappingTable) error {
	data, err := readEntry(f)
	if err != nil {
		return domain.Classify(domain.ErrArchiveIO, err)
	}

	out, name, err := jvm.RemapEntry(f.Name, data, table)
	if err != nil {
		return err
	}

	fw, err := w.CreateHeader(&zip.FileHeader{
		Name:          name,
		Method:        f.Method,
		Modified:      f.Modified,
		ExternalAttrs: f.ExternalAttrs,
	})
	if err != nil {
		return domain.Classify(domain.ErrArchiveIO, err)
	}
	if _, err := fw.Write(out); err != nil {
		return domain.Classify(domain.ErrArchiveIO, err)
	}
	return nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close() //nolint:errcheck // Read side close
	return io.ReadAll(rc)
}

func entryError(cause error, path, entry string) error {
	return zerr.With(zerr.With(domain.Classify(domain.ErrArchiveIO, cause), "path", path), "entry", entry)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return err
	}
	defer in.Close() //nolint:errcheck // Read side close

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, domain.FilePerm) //nolint:gosec // Scratch path
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
