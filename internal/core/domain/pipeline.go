package domain

import (
	"slices"

	"go.trai.ch/zerr"
)

// DefaultRepository is the maven repository used for functions that do not declare one.
const DefaultRepository = "https://libraries.minecraft.net/"

const (
	// SideClient is the client side of the pipeline.
	SideClient = "client"
	// SideServer is the server side of the pipeline.
	SideServer = "server"
	// SideJoined is the merged client and server side of the pipeline.
	SideJoined = "joined"
)

// Built-in step types understood without a function declaration.
const (
	StepDownloadManifest = "downloadManifest"
	StepDownloadJSON     = "downloadJson"
	StepDownloadClient   = "downloadClient"
	StepDownloadServer   = "downloadServer"
	StepStrip            = "strip"
	StepListLibraries    = "listLibraries"
	StepInject           = "inject"
	StepPatch            = "patch"
)

var builtinSteps = []string{
	StepDownloadManifest,
	StepDownloadJSON,
	StepDownloadClient,
	StepDownloadServer,
	StepStrip,
	StepListLibraries,
	StepInject,
	StepPatch,
}

// IsBuiltinStep reports whether stepType is handled without a function declaration.
func IsBuiltinStep(stepType string) bool {
	return slices.Contains(builtinSteps, stepType)
}

// Step is one named stage of a side's pipeline.
type Step struct {
	Type   string
	Name   string
	Values map[string]string
}

// Value returns a step value by key.
func (s Step) Value(key string) (string, bool) {
	v, ok := s.Values[key]
	return v, ok
}

// FunctionSpec describes an external versioned tool invocation.
type FunctionSpec struct {
	// Version is the maven coordinate of the tool jar.
	Version    string
	Repository string
	Args       []string
	JvmArgs    []string
}

// Coordinate parses the function's tool coordinate.
func (f FunctionSpec) Coordinate() (Coordinate, error) {
	return ParseCoordinate(f.Version)
}

// PipelineConfig is the parsed MCP/NeoForm step configuration.
// It is immutable after construction.
type PipelineConfig struct {
	version   string
	data      Value
	steps     map[string][]Step
	functions map[string]FunctionSpec
	libraries map[string][]string
}

// NewPipelineConfig assembles a PipelineConfig. Nil maps are treated as empty.
func NewPipelineConfig(
	version string,
	data map[string]Value,
	steps map[string][]Step,
	functions map[string]FunctionSpec,
	libraries map[string][]string,
) *PipelineConfig {
	if steps == nil {
		steps = map[string][]Step{}
	}
	if functions == nil {
		functions = map[string]FunctionSpec{}
	}
	if libraries == nil {
		libraries = map[string][]string{}
	}
	return &PipelineConfig{
		version:   version,
		data:      Nested(data),
		steps:     steps,
		functions: functions,
		libraries: libraries,
	}
}

// Version returns the schema version declared by the document.
func (c *PipelineConfig) Version() string {
	return c.version
}

// Sides returns the sides that declare steps, sorted.
func (c *PipelineConfig) Sides() []string {
	sides := make([]string, 0, len(c.steps))
	for side := range c.steps {
		sides = append(sides, side)
	}
	slices.Sort(sides)
	return sides
}

// Steps returns the ordered steps of a side. Unknown sides yield an empty slice.
func (c *PipelineConfig) Steps(side string) []Step {
	steps, ok := c.steps[side]
	if !ok {
		return []Step{}
	}
	return slices.Clone(steps)
}

// Libraries returns the library coordinates of a side. Unknown sides yield an empty slice.
func (c *PipelineConfig) Libraries(side string) []string {
	libs, ok := c.libraries[side]
	if !ok {
		return []string{}
	}
	return slices.Clone(libs)
}

// Function looks up a function by name.
func (c *PipelineConfig) Function(name string) (FunctionSpec, bool) {
	fn, ok := c.functions[name]
	return fn, ok
}

// Data performs a nested lookup in the data tree and returns the string found at the end of path.
// It reports false if any key is missing, if a string is reached before path is consumed,
// or if path ends on a nested mapping.
func (c *PipelineConfig) Data(path ...string) (string, bool) {
	v, ok := c.data.Lookup(path...)
	if !ok {
		return "", false
	}
	return v.AsString()
}

// DataValue performs a nested lookup in the data tree and returns the raw Value.
func (c *PipelineConfig) DataValue(path ...string) (Value, bool) {
	return c.data.Lookup(path...)
}

// Validate checks that every step type resolves to a built-in or a declared function
// and that step names are unique within a side.
func (c *PipelineConfig) Validate() error {
	for _, side := range c.Sides() {
		seen := make(map[string]bool, len(c.steps[side]))
		for _, step := range c.steps[side] {
			if _, ok := c.functions[step.Type]; !ok && !IsBuiltinStep(step.Type) {
				err := zerr.With(zerr.Wrap(ErrUnknownStepType, "step references an undeclared function"), "side", side)
				return zerr.With(zerr.With(err, "step", step.Name), "type", step.Type)
			}
			if seen[step.Name] {
				err := zerr.With(zerr.Wrap(ErrConfigFormat, "duplicate step name"), "side", side)
				return zerr.With(err, "step", step.Name)
			}
			seen[step.Name] = true
		}
	}
	return nil
}
