package classpath

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/hashicorp/golang-lru/v2"
	"github.com/klauspost/compress/zip"
	"go.trai.ch/anvil/internal/adapters/jvm"
	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/zerr"
)

// DefaultCacheSize bounds the number of parsed class headers a Provider keeps.
const DefaultCacheSize = 8192

type cached struct {
	info  domain.ClassInfo
	found bool
}

// Provider answers lookups from an ordered classpath of jars and class directories.
// Parsed headers, including misses, are kept in an LRU.
type Provider struct {
	roots   []string
	jars    []*zip.ReadCloser
	indexes []*Archive
	cache   *lru.Cache[string, cached]
}

// NewProvider opens every jar on the classpath. Entries that do not exist are skipped.
func NewProvider(entries []string, cacheSize int) (*Provider, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, cached](cacheSize)
	if err != nil {
		return nil, err
	}

	p := &Provider{cache: cache}
	for _, entry := range entries {
		info, err := os.Stat(entry)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			_ = p.Close()
			return nil, zerr.With(domain.Classify(domain.ErrMissingInput, err), "path", entry)
		}
		if info.IsDir() {
			p.roots = append(p.roots, entry)
			p.indexes = append(p.indexes, nil)
			continue
		}

		zr, err := zip.OpenReader(entry)
		if err != nil {
			_ = p.Close()
			return nil, zerr.With(domain.Classify(domain.ErrArchiveIO, err), "path", entry)
		}
		p.jars = append(p.jars, zr)
		p.roots = append(p.roots, entry)
		p.indexes = append(p.indexes, NewArchive(&zr.Reader))
	}
	return p, nil
}

// Lookup implements domain.ClassLookup. Classpath entries are searched in order.
func (p *Provider) Lookup(name string) (domain.ClassInfo, bool) {
	if c, ok := p.cache.Get(name); ok {
		return c.info, c.found
	}

	c := cached{}
	for i, root := range p.roots {
		if idx := p.indexes[i]; idx != nil {
			if info, ok := idx.load(name); ok {
				c = cached{info: info, found: true}
				break
			}
			continue
		}
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(name)+classSuffix))
		if err != nil {
			continue
		}
		if info, err := jvm.ReadInfo(data); err == nil {
			c = cached{info: info, found: true}
			break
		}
	}
	p.cache.Add(name, c)
	return c.info, c.found
}

// Close releases the open jars.
func (p *Provider) Close() error {
	var errs []error
	for _, zr := range p.jars {
		if err := zr.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	p.jars = nil
	return errors.Join(errs...)
}
