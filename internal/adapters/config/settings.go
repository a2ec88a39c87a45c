package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ANVIL_"

// SettingsPathEnv names the environment variable that overrides the settings file location.
const SettingsPathEnv = EnvPrefix + "SETTINGS"

// LoadSettings reads settings from the YAML file at path, then applies .env files and
// ANVIL_* environment overrides. A missing settings file yields the defaults.
// Missing env files are ignored.
func LoadSettings(path string, envFiles ...string) (*domain.Settings, error) {
	settings := domain.DefaultSettings()

	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &settings); err != nil {
			return nil, zerr.With(domain.Classify(domain.ErrSettingsLoad, err), "path", path)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, zerr.With(domain.Classify(domain.ErrSettingsLoad, err), "path", path)
	}

	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, zerr.With(domain.Classify(domain.ErrSettingsLoad, err), "path", envFile)
		}
	}

	if err := applyEnv(&settings); err != nil {
		return nil, err
	}

	if settings.Cache.Dir == "" {
		settings.Cache.Dir = domain.DefaultCachePath()
	}
	if settings.Java.Executable == "" {
		settings.Java.Executable = "java"
	}
	if len(settings.Repositories) == 0 {
		settings.Repositories = []string{filepath.Join("~", ".m2", "repository")}
	}
	for i, repo := range settings.Repositories {
		settings.Repositories[i] = expandHome(repo)
	}
	settings.Cache.Dir = expandHome(settings.Cache.Dir)

	return &settings, nil
}

// applyEnv overrides settings from ANVIL_* variables.
func applyEnv(s *domain.Settings) error {
	strs := map[string]*string{
		"CACHE_DIR":         &s.Cache.Dir,
		"REMOTE_ENDPOINT":   &s.Remote.Endpoint,
		"REMOTE_BUCKET":     &s.Remote.Bucket,
		"REMOTE_REGION":     &s.Remote.Region,
		"REMOTE_ACCESS_KEY": &s.Remote.AccessKey,
		"REMOTE_SECRET_KEY": &s.Remote.SecretKey,
		"JAVA":              &s.Java.Executable,
	}
	for name, dst := range strs {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"CACHE_ENABLED":  &s.Cache.Enabled,
		"CACHE_LOCK":     &s.Cache.CrossProcessLock,
		"REMOTE_USE_SSL": &s.Remote.UseSSL,
		"REMOTE_PUSH":    &s.Remote.Push,
		"LOG_JSON":       &s.Log.JSON,
		"LOG_VERBOSE":    &s.Log.Verbose,
	}
	for name, dst := range bools {
		v, ok := os.LookupEnv(EnvPrefix + name)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return zerr.With(domain.Classify(domain.ErrSettingsLoad, err), "variable", EnvPrefix+name)
		}
		*dst = b
	}

	if v, ok := os.LookupEnv(EnvPrefix + "REPOSITORIES"); ok {
		s.Repositories = filepath.SplitList(v)
	}
	return nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
