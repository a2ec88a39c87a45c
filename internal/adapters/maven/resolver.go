// Package maven resolves artifacts from local maven-layout repositories.
package maven

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/vifraa/gopom"
	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/core/ports"
	"go.trai.ch/zerr"
)

// Resolver implements ports.ArtifactResolver over local repositories.
// Runtime dependencies are collected transitively from POMs; the nearest declaration of an
// artifact wins.
type Resolver struct {
	logger       ports.Logger
	repositories []string
}

// NewResolver creates a Resolver searching the given repository roots in order.
func NewResolver(logger ports.Logger, repositories ...string) *Resolver {
	return &Resolver{logger: logger, repositories: repositories}
}

// Resolve implements ports.ArtifactResolver. A file:// or filesystem repository hint is searched
// before the configured roots; remote URLs are ignored.
func (r *Resolver) Resolve(ctx context.Context, coord domain.Coordinate, repository string) (domain.ResolvedTool, error) {
	repos := r.searchPath(repository)

	path, ok := locate(coord, repos)
	if !ok {
		err := zerr.Wrap(domain.ErrArtifactNotFound, "artifact is not in any local repository")
		err = zerr.With(err, "coordinate", coord.String())
		return domain.ResolvedTool{}, zerr.With(err, "repositories", strings.Join(repos, string(os.PathListSeparator)))
	}

	tool := domain.ResolvedTool{Coordinate: coord, Path: path}
	if coord.Extension != "" && coord.Extension != domain.DefaultExtension {
		return tool, nil
	}
	tool.MainClass = mainClass(path)

	deps, err := r.dependencies(ctx, coord, repos)
	if err != nil {
		return domain.ResolvedTool{}, err
	}
	tool.Dependencies = deps
	return tool, nil
}

func (r *Resolver) searchPath(hint string) []string {
	repos := make([]string, 0, len(r.repositories)+1)
	if local := localRepository(hint); local != "" {
		repos = append(repos, local)
	} else if hint != "" {
		r.logger.Debug(fmt.Sprintf("ignoring remote repository %s", hint))
	}
	for _, repo := range r.repositories {
		if len(repos) == 0 || repo != repos[0] {
			repos = append(repos, repo)
		}
	}
	return repos
}

// localRepository returns the directory named by a file:// URL or a filesystem path.
func localRepository(hint string) string {
	if hint == "" {
		return ""
	}
	if u, err := url.Parse(hint); err == nil && u.Scheme != "" {
		if u.Scheme != "file" {
			return ""
		}
		hint = u.Path
	}
	if info, err := os.Stat(hint); err == nil && info.IsDir() {
		return filepath.Clean(hint)
	}
	return ""
}

func locate(coord domain.Coordinate, repos []string) (string, bool) {
	rel := filepath.FromSlash(coord.Path())
	for _, repo := range repos {
		candidate := filepath.Join(repo, rel)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

func (r *Resolver) dependencies(ctx context.Context, root domain.Coordinate, repos []string) ([]string, error) {
	seen := map[string]bool{root.Group + ":" + root.Artifact: true}
	queue := []domain.Coordinate{root}
	var paths []string

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		current := queue[0]
		queue = queue[1:]

		for _, dep := range r.readPOM(current, repos) {
			key := dep.Group + ":" + dep.Artifact
			if seen[key] {
				continue
			}
			seen[key] = true

			path, ok := locate(dep, repos)
			if !ok {
				r.logger.Warn(fmt.Sprintf("dependency %s of %s is not in any local repository", dep, current))
				continue
			}
			paths = append(paths, path)
			queue = append(queue, dep)
		}
	}
	return paths, nil
}

func (r *Resolver) readPOM(coord domain.Coordinate, repos []string) []domain.Coordinate {
	pomCoord := domain.Coordinate{Group: coord.Group, Artifact: coord.Artifact, Version: coord.Version, Extension: "pom"}
	path, ok := locate(pomCoord, repos)
	if !ok {
		return nil
	}
	project, err := gopom.Parse(path)
	if err != nil {
		r.logger.Warn(fmt.Sprintf("skipping unreadable POM %s: %v", path, err))
		return nil
	}
	return runtimeDependencies(project)
}
