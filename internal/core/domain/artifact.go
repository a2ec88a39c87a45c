package domain

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.trai.ch/zerr"
)

// ArtifactSpec captures the declared naming overrides of an obfuscation output.
// Empty fields are unset and fall back during Resolve.
type ArtifactSpec struct {
	Name       string
	Extension  string
	Classifier string
	Date       time.Time
	SourceFile string
	Classpath  []string
}

// ResolvedArtifact is the immutable outcome of ArtifactSpec.Resolve.
type ResolvedArtifact struct {
	Name       string
	Extension  string
	Classifier string
	Date       time.Time
	SourceFile string
	Classpath  []string
}

// FileName returns name[-classifier].extension.
func (r ResolvedArtifact) FileName() string {
	name := r.Name
	if r.Classifier != "" {
		name += "-" + r.Classifier
	}
	if r.Extension != "" {
		name += "." + r.Extension
	}
	return name
}

// Resolve computes the final naming once, in a fixed order per field:
// the explicit value, then the source artifact's value, then the naming spec's
// declared value, then a value derived from the source file.
// Either source or naming may be nil.
func (s ArtifactSpec) Resolve(source, naming *ArtifactSpec) (ResolvedArtifact, error) {
	if source == nil {
		source = &ArtifactSpec{}
	}
	if naming == nil {
		naming = &ArtifactSpec{}
	}

	file := firstNonEmpty(s.SourceFile, source.SourceFile)
	base := filepath.Base(file)
	ext := strings.TrimPrefix(filepath.Ext(base), ".")

	r := ResolvedArtifact{
		SourceFile: file,
		Name:       firstNonEmpty(s.Name, source.Name, naming.Name, strings.TrimSuffix(base, filepath.Ext(base))),
		Extension:  firstNonEmpty(s.Extension, source.Extension, naming.Extension, ext),
		Classifier: firstNonEmpty(s.Classifier, source.Classifier, naming.Classifier),
		Classpath:  slices.Clone(s.Classpath),
	}
	if r.Classpath == nil {
		r.Classpath = slices.Clone(source.Classpath)
	}
	if r.Classpath == nil {
		r.Classpath = slices.Clone(naming.Classpath)
	}

	switch {
	case !s.Date.IsZero():
		r.Date = s.Date
	case !source.Date.IsZero():
		r.Date = source.Date
	case !naming.Date.IsZero():
		r.Date = naming.Date
	case file != "":
		if info, err := os.Stat(file); err == nil {
			r.Date = info.ModTime()
		}
	}

	if r.Name == "" || r.Name == "." {
		return ResolvedArtifact{}, zerr.Wrap(ErrMissingInput, "artifact name cannot be derived without a source file")
	}
	return r, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
