package maven

import (
	"strings"

	"github.com/vifraa/gopom"
	"go.trai.ch/anvil/internal/core/domain"
)

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// runtimeDependencies returns the non-optional compile and runtime dependencies declared by a POM.
// Dependencies whose version cannot be resolved are skipped.
func runtimeDependencies(project *gopom.Project) []domain.Coordinate {
	if project.Dependencies == nil {
		return nil
	}

	props := properties(project)
	var deps []domain.Coordinate
	for _, dep := range *project.Dependencies {
		switch deref(dep.Scope) {
		case "", "compile", "runtime":
		default:
			continue
		}
		if deref(dep.Optional) == "true" {
			continue
		}

		version := interpolate(deref(dep.Version), props)
		if version == "" || strings.Contains(version, "${") {
			continue
		}
		ext := deref(dep.Type)
		if ext == "" || ext == "bundle" {
			ext = domain.DefaultExtension
		}
		deps = append(deps, domain.Coordinate{
			Group:      interpolate(deref(dep.GroupID), props),
			Artifact:   deref(dep.ArtifactID),
			Version:    version,
			Classifier: deref(dep.Classifier),
			Extension:  ext,
		})
	}
	return deps
}

// properties collects the values available to ${...} placeholders.
func properties(project *gopom.Project) map[string]string {
	props := make(map[string]string)
	if project.Properties != nil {
		for k, v := range project.Properties.Entries {
			props[k] = strings.TrimSpace(v)
		}
	}

	group, version := deref(project.GroupID), deref(project.Version)
	if project.Parent != nil {
		if group == "" {
			group = deref(project.Parent.GroupID)
		}
		if version == "" {
			version = deref(project.Parent.Version)
		}
		props["project.parent.version"] = deref(project.Parent.Version)
		props["project.parent.groupId"] = deref(project.Parent.GroupID)
	}
	for _, prefix := range []string{"project.", "pom.", ""} {
		props[prefix+"groupId"] = group
		props[prefix+"version"] = version
		props[prefix+"artifactId"] = deref(project.ArtifactID)
	}
	return props
}

func interpolate(s string, props map[string]string) string {
	for range 8 {
		start := strings.Index(s, "${")
		if start < 0 {
			return s
		}
		end := strings.IndexByte(s[start:], '}')
		if end < 0 {
			return s
		}
		value, ok := props[s[start+2:start+end]]
		if !ok {
			return s
		}
		s = s[:start] + value + s[start+end+1:]
	}
	return s
}
