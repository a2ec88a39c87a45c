package domain

import (
	"path"
	"strings"

	"go.trai.ch/zerr"
)

// DefaultExtension is the artifact extension used when a coordinate omits one.
const DefaultExtension = "jar"

// Coordinate is a maven artifact coordinate: group:artifact:version[:classifier][@extension].
type Coordinate struct {
	Group      string
	Artifact   string
	Version    string
	Classifier string
	Extension  string
}

// ParseCoordinate parses a maven coordinate string.
func ParseCoordinate(s string) (Coordinate, error) {
	raw := strings.TrimSpace(s)
	ext := DefaultExtension
	if before, after, found := strings.Cut(raw, "@"); found {
		raw, ext = before, after
	}

	parts := strings.Split(raw, ":")
	if len(parts) < 3 || len(parts) > 4 || ext == "" {
		return Coordinate{}, zerr.With(zerr.Wrap(ErrInvalidCoordinate, "malformed coordinate"), "coordinate", s)
	}
	for _, p := range parts {
		if p == "" {
			return Coordinate{}, zerr.With(zerr.Wrap(ErrInvalidCoordinate, "empty coordinate segment"), "coordinate", s)
		}
	}

	c := Coordinate{
		Group:     parts[0],
		Artifact:  parts[1],
		Version:   parts[2],
		Extension: ext,
	}
	if len(parts) == 4 {
		c.Classifier = parts[3]
	}
	return c, nil
}

// String renders the coordinate in its canonical form.
func (c Coordinate) String() string {
	var b strings.Builder
	b.WriteString(c.Group)
	b.WriteByte(':')
	b.WriteString(c.Artifact)
	b.WriteByte(':')
	b.WriteString(c.Version)
	if c.Classifier != "" {
		b.WriteByte(':')
		b.WriteString(c.Classifier)
	}
	if c.Extension != "" && c.Extension != DefaultExtension {
		b.WriteByte('@')
		b.WriteString(c.Extension)
	}
	return b.String()
}

// FileName returns artifact-version[-classifier].extension.
func (c Coordinate) FileName() string {
	name := c.Artifact + "-" + c.Version
	if c.Classifier != "" {
		name += "-" + c.Classifier
	}
	ext := c.Extension
	if ext == "" {
		ext = DefaultExtension
	}
	return name + "." + ext
}

// Path returns the slash-separated path of the artifact inside a maven repository.
func (c Coordinate) Path() string {
	return path.Join(strings.ReplaceAll(c.Group, ".", "/"), c.Artifact, c.Version, c.FileName())
}

// PomPath returns the slash-separated path of the artifact's POM inside a maven repository.
func (c Coordinate) PomPath() string {
	pom := Coordinate{Group: c.Group, Artifact: c.Artifact, Version: c.Version, Extension: "pom"}
	return pom.Path()
}
