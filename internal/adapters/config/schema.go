package config

import (
	"bytes"
	"encoding/json"

	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/zerr"
)

// pipelineDocument is the wire shape of an MCP/NeoForm step configuration.
// Data and step bodies are decoded generically and normalized afterwards.
type pipelineDocument struct {
	Version   *string
	Data      map[string]any
	Steps     map[string][]map[string]any
	Functions map[string]functionDTO
	Libraries map[string][]*string
}

// functionDTO represents an external tool declaration in the configuration.
type functionDTO struct {
	Version *string
	Repo    *string
	Args    []*string
	JvmArgs []*string
}

const (
	stepTypeKey = "type"
	stepNameKey = "name"
)

// UnmarshalJSON matches member names exactly. Members that differ only in case are not recognized.
func (d *pipelineDocument) UnmarshalJSON(raw []byte) error {
	obj, err := decodeObject(raw)
	if err != nil {
		return err
	}
	if err := obj.field("version", &d.Version); err != nil {
		return err
	}
	if err := obj.field("data", &d.Data); err != nil {
		return err
	}
	if err := obj.field("steps", &d.Steps); err != nil {
		return err
	}
	if err := obj.field("functions", &d.Functions); err != nil {
		return err
	}
	return obj.field("libraries", &d.Libraries)
}

// UnmarshalJSON matches member names exactly. Members that differ only in case are not recognized.
func (f *functionDTO) UnmarshalJSON(raw []byte) error {
	obj, err := decodeObject(raw)
	if err != nil {
		return err
	}
	if err := obj.field("version", &f.Version); err != nil {
		return err
	}
	if err := obj.field("repo", &f.Repo); err != nil {
		return err
	}
	if err := obj.field("args", &f.Args); err != nil {
		return err
	}
	return obj.field("jvmargs", &f.JvmArgs)
}

// rawObject holds the undecoded members of a JSON object keyed by their exact names.
type rawObject map[string]json.RawMessage

func decodeObject(raw []byte) (rawObject, error) {
	var obj rawObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, domain.Classify(domain.ErrConfigFormat, err)
	}
	return obj, nil
}

// field decodes the member named key into dst. An absent member leaves dst untouched.
func (o rawObject) field(key string, dst any) error {
	raw, ok := o[key]
	if !ok {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return zerr.With(domain.Classify(domain.ErrConfigFormat, err), "field", key)
	}
	return nil
}

// stringList dereferences a decoded string array. A null element is a format error.
func stringList(list []*string, field string) ([]string, error) {
	out := make([]string, 0, len(list))
	for i, s := range list {
		if s == nil {
			return nil, zerr.With(formatError("list element must be a string", "field", field), "index", i)
		}
		out = append(out, *s)
	}
	return out, nil
}
