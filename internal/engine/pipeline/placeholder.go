package pipeline

import (
	"path/filepath"
	"regexp"
	"slices"

	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/zerr"
)

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// Built-in placeholder names.
const (
	VarOutput = "output"
	VarLog    = "log"
	VarSide   = "side"
)

// OutputVar returns the variable under which a step publishes its output path.
func OutputVar(step string) string {
	return step + "Output"
}

// scope resolves {name} tokens. Names are looked up in the step's own values, then the outputs
// published by earlier steps, then the built-ins, then the data tree.
type scope struct {
	own       map[string]string
	vars      map[string]string
	builtins  map[string]string
	config    *domain.PipelineConfig
	side      string
	configDir string
}

func (s *scope) lookup(name string) (string, bool) {
	if v, ok := s.own[name]; ok {
		return v, true
	}
	if v, ok := s.vars[name]; ok {
		return v, true
	}
	if v, ok := s.builtins[name]; ok {
		return v, true
	}
	return s.data(name)
}

// data returns a data entry as an absolute path. Mappings keyed by side are looked up for the current side.
func (s *scope) data(name string) (string, bool) {
	v, ok := s.config.DataValue(name)
	if !ok {
		return "", false
	}
	str, ok := v.AsString()
	if !ok {
		if str, ok = s.config.Data(name, s.side); !ok {
			return "", false
		}
	}
	if s.configDir != "" && !filepath.IsAbs(str) {
		str = filepath.Join(s.configDir, filepath.FromSlash(str))
	}
	return str, true
}

func (s *scope) resolve(text string) (string, error) {
	var missing string
	out := placeholderPattern.ReplaceAllStringFunc(text, func(token string) string {
		name := token[1 : len(token)-1]
		v, ok := s.lookup(name)
		if !ok {
			if missing == "" {
				missing = name
			}
			return token
		}
		return v
	})
	if missing != "" {
		err := zerr.With(zerr.Wrap(domain.ErrUnresolvedPlaceholder, "no value for placeholder"), "placeholder", missing)
		return "", zerr.With(err, "text", text)
	}
	return out, nil
}

func (s *scope) resolveList(texts []string) ([]string, error) {
	out := make([]string, 0, len(texts))
	for _, text := range texts {
		v, err := s.resolve(text)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// resolveValues resolves every step value in key order.
func (s *scope) resolveValues(values map[string]string) (map[string]string, error) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make(map[string]string, len(values))
	for _, k := range keys {
		v, err := s.resolve(values[k])
		if err != nil {
			return nil, zerr.With(err, "value", k)
		}
		out[k] = v
	}
	return out, nil
}
