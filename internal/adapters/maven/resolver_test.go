package maven_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/anvil/internal/adapters/maven"
	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

const toolPOM = `<?xml version="1.0" encoding="UTF-8"?>
<project>
  <modelVersion>4.0.0</modelVersion>
  <groupId>net.neoforged.installertools</groupId>
  <artifactId>installertools</artifactId>
  <version>2.1.0</version>
  <properties>
    <jopt.version>6.0</jopt.version>
  </properties>
  <dependencies>
    <dependency>
      <groupId>net.sf.jopt-simple</groupId>
      <artifactId>jopt-simple</artifactId>
      <version>${jopt.version}</version>
    </dependency>
    <dependency>
      <groupId>org.junit</groupId>
      <artifactId>junit</artifactId>
      <version>5.0</version>
      <scope>test</scope>
    </dependency>
    <dependency>
      <groupId>org.optional</groupId>
      <artifactId>extra</artifactId>
      <version>1.0</version>
      <optional>true</optional>
    </dependency>
    <dependency>
      <groupId>org.absent</groupId>
      <artifactId>absent</artifactId>
      <version>${project.version}</version>
    </dependency>
  </dependencies>
</project>
`

const joptPOM = `<project>
  <groupId>net.sf.jopt-simple</groupId>
  <artifactId>jopt-simple</artifactId>
  <version>6.0</version>
  <dependencies>
    <dependency>
      <groupId>org.ow2.asm</groupId>
      <artifactId>asm</artifactId>
      <version>9.7</version>
      <scope>runtime</scope>
    </dependency>
    <dependency>
      <groupId>net.neoforged.installertools</groupId>
      <artifactId>installertools</artifactId>
      <version>2.1.0</version>
    </dependency>
  </dependencies>
</project>
`

func put(t *testing.T, repo, rel string, data []byte) string {
	t.Helper()
	path := filepath.Join(repo, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func jar(t *testing.T, manifest string) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tmp.jar")
	f, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	if manifest != "" {
		fw, err := w.Create("META-INF/MANIFEST.MF")
		require.NoError(t, err)
		_, err = fw.Write([]byte(manifest))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func TestResolver_Resolve(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Cond(func(msg any) bool {
		return strings.Contains(msg.(string), "org.absent:absent:2.1.0")
	})).Times(1)

	repo := t.TempDir()
	toolJar := put(t, repo, "net/neoforged/installertools/installertools/2.1.0/installertools-2.1.0.jar",
		jar(t, "Manifest-Version: 1.0\r\nMain-Class: net.neoforged.installertools.\r\n ConsoleTool\r\n\r\nName: other\r\nMain-Class: wrong\r\n"))
	put(t, repo, "net/neoforged/installertools/installertools/2.1.0/installertools-2.1.0.pom", []byte(toolPOM))
	jopt := put(t, repo, "net/sf/jopt-simple/jopt-simple/6.0/jopt-simple-6.0.jar", jar(t, ""))
	put(t, repo, "net/sf/jopt-simple/jopt-simple/6.0/jopt-simple-6.0.pom", []byte(joptPOM))
	asm := put(t, repo, "org/ow2/asm/asm/9.7/asm-9.7.jar", jar(t, ""))
	put(t, repo, "org/optional/extra/1.0/extra-1.0.jar", jar(t, ""))

	resolver := maven.NewResolver(log, filepath.Join(t.TempDir(), "empty"), repo)
	coord, err := domain.ParseCoordinate("net.neoforged.installertools:installertools:2.1.0")
	require.NoError(t, err)

	tool, err := resolver.Resolve(context.Background(), coord, "https://maven.neoforged.net/releases")
	require.NoError(t, err)
	assert.Equal(t, toolJar, tool.Path)
	assert.Equal(t, "net.neoforged.installertools.ConsoleTool", tool.MainClass)
	assert.Equal(t, []string{jopt, asm}, tool.Dependencies)
}

func TestResolver_RepositoryHint(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)

	hinted := t.TempDir()
	configured := t.TempDir()
	rel := "net/minecraftforge/srgutils/0.5/srgutils-0.5-fatjar.jar"
	want := put(t, hinted, rel, jar(t, ""))
	put(t, configured, rel, jar(t, ""))

	coord, err := domain.ParseCoordinate("net.minecraftforge:srgutils:0.5:fatjar")
	require.NoError(t, err)

	tool, err := maven.NewResolver(log, configured).Resolve(context.Background(), coord, "file://"+hinted)
	require.NoError(t, err)
	assert.Equal(t, want, tool.Path)
	assert.Empty(t, tool.MainClass)
	assert.Empty(t, tool.Dependencies)
}

func TestResolver_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)

	coord, err := domain.ParseCoordinate("net.neoforged:missing:1.0")
	require.NoError(t, err)

	_, err = maven.NewResolver(log, t.TempDir()).Resolve(context.Background(), coord, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrArtifactNotFound))
}

func TestResolver_NonJarExtension(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)

	repo := t.TempDir()
	want := put(t, repo, "net/minecraft/mappings/1.0/mappings-1.0.tsrg", []byte("a b\n"))

	coord, err := domain.ParseCoordinate("net.minecraft:mappings:1.0@tsrg")
	require.NoError(t, err)

	tool, err := maven.NewResolver(log, repo).Resolve(context.Background(), coord, "")
	require.NoError(t, err)
	assert.Equal(t, want, tool.Path)
}
