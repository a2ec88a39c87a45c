package classpath

import (
	"io"
	"strings"
	"sync"

	"github.com/klauspost/compress/zip"
	"go.trai.ch/anvil/internal/adapters/jvm"
	"go.trai.ch/anvil/internal/core/domain"
)

const classSuffix = ".class"

// Archive answers lookups from the class entries of an open zip.
// Headers are decoded on first use and kept for the lifetime of the Archive.
type Archive struct {
	entries map[string]*zip.File

	mu      sync.Mutex
	decoded map[string]*domain.ClassInfo
}

// NewArchive indexes the class entries of r.
func NewArchive(r *zip.Reader) *Archive {
	a := &Archive{
		entries: make(map[string]*zip.File),
		decoded: make(map[string]*domain.ClassInfo),
	}
	for _, f := range r.File {
		if name, ok := strings.CutSuffix(f.Name, classSuffix); ok && name != "" {
			a.entries[name] = f
		}
	}
	return a
}

// Lookup implements domain.ClassLookup.
func (a *Archive) Lookup(name string) (domain.ClassInfo, bool) {
	if _, ok := a.entries[name]; !ok {
		return domain.ClassInfo{}, false
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if info, ok := a.decoded[name]; ok {
		if info == nil {
			return domain.ClassInfo{}, false
		}
		return *info, true
	}

	info, ok := a.load(name)
	if !ok {
		a.decoded[name] = nil
		return domain.ClassInfo{}, false
	}
	a.decoded[name] = &info
	return info, true
}

// load decodes a class header without caching it.
func (a *Archive) load(name string) (domain.ClassInfo, bool) {
	f, ok := a.entries[name]
	if !ok {
		return domain.ClassInfo{}, false
	}
	info, err := readEntry(f)
	if err != nil {
		return domain.ClassInfo{}, false
	}
	return info, true
}

func readEntry(f *zip.File) (domain.ClassInfo, error) {
	rc, err := f.Open()
	if err != nil {
		return domain.ClassInfo{}, err
	}
	defer func() {
		_ = rc.Close()
	}()

	data, err := io.ReadAll(rc)
	if err != nil {
		return domain.ClassInfo{}, err
	}
	return jvm.ReadInfo(data)
}
