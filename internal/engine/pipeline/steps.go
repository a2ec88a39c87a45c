package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"go.trai.ch/anvil/internal/adapters/archive"  //nolint:depguard // Job bodies built on adapters
	"go.trai.ch/anvil/internal/adapters/cas"      //nolint:depguard // Job bodies built on adapters
	"go.trai.ch/anvil/internal/adapters/mappings" //nolint:depguard // Job bodies built on adapters
	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/engine/jobs"
	"go.trai.ch/zerr"
)

type stepContext struct {
	req    Request
	step   domain.Step
	dir    string
	output string
	values map[string]string
	scope  *scope
}

func (st *stepContext) name() string {
	return st.req.Side + "/" + st.step.Name
}

// input returns a required step value.
func (st *stepContext) input(key string) (string, error) {
	v, ok := st.values[key]
	if !ok || v == "" {
		err := zerr.With(zerr.Wrap(domain.ErrConfigFormat, "step is missing a required value"), "step", st.step.Name)
		return "", zerr.With(err, "value", key)
	}
	return v, nil
}

// keySpec builds the cache key specification of a step. Paths below the work and config
// directories are hashed relative to them, and every referenced file that exists is hashed by content.
func (st *stepContext) keySpec(tools []string, args ...[]string) domain.KeySpec {
	pairs := []string{st.dir, "{dir}"}
	if st.req.WorkDir != "" {
		pairs = append(pairs, st.req.WorkDir, "{workdir}")
	}
	if st.req.ConfigDir != "" {
		pairs = append(pairs, st.req.ConfigDir, "{config}")
	}
	relative := strings.NewReplacer(pairs...)

	params := map[string]string{"side": st.req.Side}
	var inputs []string
	seen := make(map[string]bool)
	collect := func(v string) {
		if v == "" || seen[v] || strings.HasPrefix(v, st.dir) {
			return
		}
		if _, err := os.Stat(v); err == nil {
			seen[v] = true
			inputs = append(inputs, v)
		}
	}

	keys := make([]string, 0, len(st.values))
	for k := range st.values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		params["value."+k] = relative.Replace(st.values[k])
		collect(st.values[k])
	}
	for i, list := range args {
		for j, arg := range list {
			params["arg."+strconv.Itoa(i)+"."+strconv.Itoa(j)] = relative.Replace(arg)
			collect(arg)
		}
	}

	return domain.KeySpec{
		Job:    "step:" + st.step.Type,
		Inputs: inputs,
		Tools:  tools,
		Params: params,
	}
}

func (r *Runner) buildJob(ctx context.Context, st *stepContext) (*jobs.Job, error) {
	if fn, ok := st.req.Config.Function(st.step.Type); ok {
		return r.functionJob(ctx, st, fn)
	}

	switch st.step.Type {
	case domain.StepStrip:
		return r.stripJob(st)
	case domain.StepListLibraries:
		return r.listLibrariesJob(ctx, st)
	case domain.StepInject:
		return r.injectJob(st)
	}

	if domain.IsBuiltinStep(st.step.Type) {
		err := zerr.Wrap(domain.ErrUnknownStepType, "built-in step must be provided by the caller")
		return nil, zerr.With(err, "type", st.step.Type)
	}
	return nil, zerr.With(zerr.Wrap(domain.ErrUnknownStepType, "step references an undeclared function"), "type", st.step.Type)
}

func (r *Runner) functionJob(ctx context.Context, st *stepContext, fn domain.FunctionSpec) (*jobs.Job, error) {
	coord, err := fn.Coordinate()
	if err != nil {
		return nil, zerr.With(err, "function", st.step.Type)
	}
	tool, err := r.artifacts.Resolve(ctx, coord, fn.Repository)
	if err != nil {
		return nil, err
	}

	args, err := st.scope.resolveList(fn.Args)
	if err != nil {
		return nil, err
	}
	jvmArgs, err := st.scope.resolveList(fn.JvmArgs)
	if err != nil {
		return nil, err
	}

	inv := domain.ToolInvocation{
		Name:    st.name(),
		Jar:     tool.Path,
		JvmArgs: jvmArgs,
		Args:    args,
		Dir:     st.dir,
		LogFile: st.scope.builtins[VarLog],
	}
	if len(tool.Dependencies) > 0 && tool.MainClass != "" {
		inv.Classpath = tool.Dependencies
		inv.MainClass = tool.MainClass
	}

	spec := st.keySpec([]string{coord.String()}, args, jvmArgs)
	spec.Inputs = append([]string{tool.Path}, spec.Inputs...)
	spec.Inputs = append(spec.Inputs, tool.Dependencies...)

	return jobs.New(r.hasher, st.name(), spec, st.output, func(ctx context.Context) error {
		return r.tools.Execute(ctx, inv)
	}), nil
}

// stripJob keeps only class entries. When the configuration declares mappings, only mapped classes are kept.
func (r *Runner) stripJob(st *stepContext) (*jobs.Job, error) {
	input, err := st.input("input")
	if err != nil {
		return nil, err
	}
	mappingsPath, hasMappings := st.scope.data("mappings")

	spec := st.keySpec(nil)
	if hasMappings && !slices.Contains(spec.Inputs, mappingsPath) {
		spec.Inputs = append(spec.Inputs, mappingsPath)
	}

	return jobs.New(r.hasher, st.name(), spec, st.output, func(context.Context) error {
		keep := archive.Predicate(archive.OnlyClasses)
		if hasMappings {
			table, err := mappings.Load(mappingsPath)
			if err != nil {
				return err
			}
			keep = archive.All(keep, func(name string) bool {
				return table.HasClass(archive.ClassName(name))
			})
		}
		return archive.FilterCopy(input, st.output, keep)
	}), nil
}

// listLibrariesJob writes one "-e=<path>" line per library of the side.
func (r *Runner) listLibrariesJob(ctx context.Context, st *stepContext) (*jobs.Job, error) {
	libraries := st.req.Config.Libraries(st.req.Side)
	paths := make([]string, 0, len(libraries))
	coords := make([]string, 0, len(libraries))
	for _, lib := range libraries {
		coord, err := domain.ParseCoordinate(lib)
		if err != nil {
			return nil, zerr.With(err, "library", lib)
		}
		resolved, err := r.artifacts.Resolve(ctx, coord, domain.DefaultRepository)
		if err != nil {
			return nil, err
		}
		paths = append(paths, resolved.Path)
		coords = append(coords, coord.String())
	}

	spec := st.keySpec(coords)
	spec.Inputs = append(spec.Inputs, paths...)

	return jobs.New(r.hasher, st.name(), spec, st.output, func(context.Context) error {
		var b strings.Builder
		for _, path := range paths {
			fmt.Fprintf(&b, "-e=%s\n", path)
		}
		return cas.WriteFileAtomic(st.output, []byte(b.String()))
	}), nil
}

// injectJob adds the files of the "inject" data directory to the input jar.
// Without such a directory the input is copied unchanged.
func (r *Runner) injectJob(st *stepContext) (*jobs.Job, error) {
	input, err := st.input("input")
	if err != nil {
		return nil, err
	}
	dir, hasDir := st.scope.data("inject")
	if hasDir {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			hasDir = false
		}
	}

	spec := st.keySpec(nil)
	if hasDir {
		spec.Inputs = append(spec.Inputs, dir)
	}

	return jobs.New(r.hasher, st.name(), spec, st.output, func(context.Context) error {
		if !hasDir {
			r.logger.Debug(fmt.Sprintf("%s: nothing to inject", st.name()))
			return archive.FilterCopy(input, st.output, nil)
		}
		return archive.Inject(input, st.output, filepath.Clean(dir), r.walker)
	}), nil
}
