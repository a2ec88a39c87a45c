// Package config loads tool settings and parses step pipeline configuration documents.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/tidwall/jsonc"
	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/zerr"
)

// ReadPipeline reads and parses the configuration document at path.
func ReadPipeline(path string) (*domain.PipelineConfig, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read pipeline config"), "path", path)
	}
	cfg, err := ParsePipeline(data)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return cfg, nil
}

// ParsePipeline parses a JSON configuration document. Comments and trailing commas are accepted.
// Any structural problem yields domain.ErrConfigFormat and no partial model.
func ParsePipeline(raw []byte) (*domain.PipelineConfig, error) {
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(raw)))
	dec.UseNumber()

	var doc pipelineDocument
	if err := dec.Decode(&doc); err != nil {
		return nil, domain.Classify(domain.ErrConfigFormat, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, zerr.Wrap(domain.ErrConfigFormat, "unexpected content after document")
	}

	if doc.Version == nil {
		return nil, formatError("missing required field", "field", "version")
	}

	data, err := normalizeData(doc.Data, nil)
	if err != nil {
		return nil, err
	}

	steps := make(map[string][]domain.Step, len(doc.Steps))
	for _, side := range sortedKeys(doc.Steps) {
		list := make([]domain.Step, 0, len(doc.Steps[side]))
		for i, body := range doc.Steps[side] {
			step, err := normalizeStep(body)
			if err != nil {
				return nil, zerr.With(zerr.With(err, "side", side), "index", i)
			}
			list = append(list, step)
		}
		steps[side] = list
	}

	functions := make(map[string]domain.FunctionSpec, len(doc.Functions))
	for _, name := range sortedKeys(doc.Functions) {
		dto := doc.Functions[name]
		if dto.Version == nil || *dto.Version == "" {
			return nil, formatError("function is missing its version", "function", name)
		}
		repo := domain.DefaultRepository
		if dto.Repo != nil && *dto.Repo != "" {
			repo = *dto.Repo
		}
		args, err := stringList(dto.Args, "args")
		if err != nil {
			return nil, zerr.With(err, "function", name)
		}
		jvmArgs, err := stringList(dto.JvmArgs, "jvmargs")
		if err != nil {
			return nil, zerr.With(err, "function", name)
		}
		functions[name] = domain.FunctionSpec{
			Version:    *dto.Version,
			Repository: repo,
			Args:       args,
			JvmArgs:    jvmArgs,
		}
	}

	libraries := make(map[string][]string, len(doc.Libraries))
	for side, list := range doc.Libraries {
		coords, err := stringList(list, "libraries")
		if err != nil {
			return nil, zerr.With(err, "side", side)
		}
		libraries[side] = coords
	}

	return domain.NewPipelineConfig(*doc.Version, data, steps, functions, libraries), nil
}

// normalizeStep extracts type and name from a generically decoded step object
// and stringifies every other value. Numbers keep their JSON text, booleans become
// "true"/"false" and null becomes the empty string. Nested objects and arrays are rejected.
func normalizeStep(body map[string]any) (domain.Step, error) {
	rawType, ok := body[stepTypeKey]
	if !ok {
		return domain.Step{}, formatError("step is missing its type", "field", stepTypeKey)
	}
	stepType, ok := rawType.(string)
	if !ok || stepType == "" {
		return domain.Step{}, formatError("step type must be a non-empty string", "field", stepTypeKey)
	}

	name := stepType
	if rawName, ok := body[stepNameKey]; ok {
		s, ok := rawName.(string)
		if !ok {
			return domain.Step{}, formatError("step name must be a string", "field", stepNameKey)
		}
		if s != "" {
			name = s
		}
	}

	values := make(map[string]string, len(body))
	for key, raw := range body {
		if key == stepTypeKey || key == stepNameKey {
			continue
		}
		s, ok := scalarString(raw)
		if !ok {
			return domain.Step{}, zerr.With(formatError("step value must be a scalar", "field", key), "step", name)
		}
		values[key] = s
	}

	return domain.Step{Type: stepType, Name: name, Values: values}, nil
}

// normalizeData converts the generic data tree into tagged values.
func normalizeData(tree map[string]any, path []string) (map[string]domain.Value, error) {
	out := make(map[string]domain.Value, len(tree))
	for key, raw := range tree {
		switch v := raw.(type) {
		case map[string]any:
			nested, err := normalizeData(v, append(path, key))
			if err != nil {
				return nil, err
			}
			out[key] = domain.Nested(nested)
		default:
			s, ok := scalarString(v)
			if !ok {
				return nil, formatError("data values must be strings or objects", "field", strings.Join(append(path, key), "."))
			}
			out[key] = domain.Str(s)
		}
	}
	return out, nil
}

func scalarString(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case bool:
		if v {
			return "true", true
		}
		return "false", true
	case nil:
		return "", true
	default:
		return "", false
	}
}

func formatError(msg, key, value string) error {
	return zerr.With(zerr.Wrap(domain.ErrConfigFormat, msg), key, value)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
