// Package app implements the application layer for recon.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.trai.ch/recon/internal/adapters/watcher" //nolint:depguard // Wired in app layer
	"go.trai.ch/recon/internal/core/domain"
	"go.trai.ch/recon/internal/core/ports"
	"go.trai.ch/recon/internal/engine/inline"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	planner      ports.BuildPlanner
	inline       *inline.Engine
	closure      ports.ClosureEngine
	expander     ports.ModuleExpander
	store        ports.ArtifactStore
	watcher      ports.Watcher
	logger       ports.Logger
	out          io.Writer
	debounce     time.Duration
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	planner ports.BuildPlanner,
	inlineEngine *inline.Engine,
	closure ports.ClosureEngine,
	expander ports.ModuleExpander,
	store ports.ArtifactStore,
	w ports.Watcher,
	log ports.Logger,
) *App {
	return &App{
		configLoader: loader,
		planner:      planner,
		inline:       inlineEngine,
		closure:      closure,
		expander:     expander,
		store:        store,
		watcher:      w,
		logger:       log,
		out:          os.Stdout,
		debounce:     watcher.DefaultDebounceWindow,
	}
}

// WithOutput sets the writer results are printed to.
func (a *App) WithOutput(w io.Writer) *App {
	a.out = w
	return a
}

// WithDebounce sets the window watch mode waits for further changes.
func (a *App) WithDebounce(window time.Duration) *App {
	a.debounce = window
	return a
}

// Options are the configuration overrides shared by every command.
type Options struct {
	// Revision overrides the language revision, empty keeps the configured one.
	Revision string
	// Directives are name=value pairs.
	Directives []string
	// SearchPath directories are searched before the configured ones.
	SearchPath []string
	LibDir     string
	Force      bool
	Quiet      bool
	// JSON prints results and log records as JSON.
	JSON bool
}

// Build generates the translation unit of every module.
// A failing module does not stop the others.
func (a *App) Build(ctx context.Context, paths []string, opts Options) error {
	cfg, err := a.configuration(opts)
	if err != nil {
		return err
	}
	modules, err := a.modules(paths)
	if err != nil {
		return err
	}

	refs, buildErr := a.planner.BuildAll(ctx, modules, cfg)
	if err := a.report(modules, refs, opts.JSON); err != nil {
		return err
	}
	return buildErr
}

// report prints one line per built module. Failed modules have a zero ref
// and are skipped.
func (a *App) report(modules []domain.Module, refs []domain.ArtifactRef, asJSON bool) error {
	for i, ref := range refs {
		if ref.UnitPath == "" {
			continue
		}
		if asJSON {
			if err := a.writeJSON(ref); err != nil {
				return err
			}
			continue
		}
		status := "built"
		if ref.Reused {
			status = "reused"
		}
		a.printf("%s %s -> %s\n", status, a.relative(modules[i].Path), ref.UnitPath)
	}
	return nil
}

// LoadOptions configures the load command.
type LoadOptions struct {
	Options
	// Call names a function of the module to call with Args.
	Call string
	Args []string
}

// Load compiles a module into this process and prints its public globals,
// or the result of calling one of its functions.
func (a *App) Load(ctx context.Context, path string, opts LoadOptions) error {
	cfg, err := a.configuration(opts.Options)
	if err != nil {
		return err
	}
	module, err := domain.NewModule(path)
	if err != nil {
		return err
	}

	ref, err := a.planner.PlanAndLoad(ctx, module, cfg)
	if err != nil {
		return err
	}

	if opts.Call == "" {
		return a.printGlobals(publicSymbols(ref.Loaded), opts.JSON)
	}

	fn, ok := ref.Loaded.Lookup(opts.Call)
	if !ok {
		return zerr.With(zerr.Wrap(domain.ErrSymbolNotFound, "cannot call"), "symbol", opts.Call)
	}
	callable, ok := fn.(domain.Callable)
	if !ok {
		return zerr.With(zerr.New("symbol is not callable"), "symbol", opts.Call)
	}

	args := make([]any, len(opts.Args))
	for i, raw := range opts.Args {
		args[i] = parseValue(raw)
	}
	result, err := callable.Call(args...)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "call failed"), "symbol", opts.Call)
	}
	return a.printValue(result, opts.JSON)
}

// InlineOptions configures the inline command.
type InlineOptions struct {
	Options
	// Args are name=value pairs passed to the snippet.
	Args []string
}

// Inline compiles and runs a code snippet.
func (a *App) Inline(ctx context.Context, code string, opts InlineOptions) error {
	cfg, err := a.configuration(opts.Options)
	if err != nil {
		return err
	}

	args := make([]inline.Arg, 0, len(opts.Args))
	for _, pair := range opts.Args {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return zerr.With(zerr.New("argument must be name=value"), "argument", pair)
		}
		args = append(args, inline.Arg{Name: name, Value: parseValue(raw)})
	}

	res, err := a.inline.Run(ctx, code, args, cfg)
	if err != nil {
		return err
	}
	if globals, ok := res.Value.(map[string]any); ok {
		return a.printGlobals(globals, opts.JSON)
	}
	return a.printValue(res.Value, opts.JSON)
}

// DepsOptions configures the deps command.
type DepsOptions struct {
	Options
	// Key prints the cache key of the translation unit.
	Key bool
	// Graph prints the typed edges and any import cycles.
	Graph bool
}

type depsReport struct {
	Module  string     `json:"module"`
	Closure []string   `json:"closure"`
	Key     string     `json:"key,omitempty"`
	Edges   []edgeJSON `json:"edges,omitempty"`
	Cycles  []string   `json:"cycles,omitempty"`
}

type edgeJSON struct {
	From string `json:"from"`
	To   string `json:"to"`
	Kind string `json:"kind"`
	Name string `json:"name,omitempty"`
}

// Deps prints the transitive closure of a module.
func (a *App) Deps(ctx context.Context, path string, opts DepsOptions) error {
	cfg, err := a.configuration(opts.Options)
	if err != nil {
		return err
	}
	module, err := domain.NewModule(path)
	if err != nil {
		return err
	}

	a.closure.SetSearchPath(cfg.SearchPath)
	set, err := a.closure.Closure(ctx, module.Path)
	if err != nil {
		return err
	}
	report := depsReport{Module: module.Path, Closure: set.Paths()}

	if opts.Key {
		plan, err := a.planner.Plan(ctx, module, cfg, domain.VariantUnit)
		if err != nil {
			return err
		}
		report.Key = plan.Key.String()
	}

	if opts.Graph {
		edges, err := a.closure.Edges(ctx, module.Path)
		if err != nil {
			return err
		}
		for _, e := range edges {
			report.Edges = append(report.Edges, edgeJSON{From: e.From, To: e.Path, Kind: e.Kind.String(), Name: e.Name})
		}
		if report.Cycles, err = a.closure.Cycles(ctx, module.Path); err != nil {
			return err
		}
	}

	if opts.JSON {
		return a.writeJSON(report)
	}

	for _, p := range report.Closure {
		a.printf("%s\n", a.relative(p))
	}
	if report.Key != "" {
		a.printf("key %s\n", report.Key)
	}
	for _, e := range report.Edges {
		label := e.Kind
		if e.Name != "" {
			label += " " + e.Name
		}
		a.printf("%s -> %s (%s)\n", a.relative(e.From), a.relative(e.To), label)
	}
	for _, c := range report.Cycles {
		files := strings.Split(c, domain.CycleSeparator)
		for i, f := range files {
			files[i] = a.relative(f)
		}
		a.printf("cycle %s\n", strings.Join(files, domain.CycleSeparator))
	}
	return nil
}

// Clean removes every persisted artifact below the lib dir.
func (a *App) Clean(ctx context.Context, opts Options) error {
	cfg, err := a.configuration(opts)
	if err != nil {
		return err
	}
	a.logger.Info("removing " + cfg.LibDir + "...")
	if err := a.store.Clean(ctx, cfg.LibDir); err != nil {
		return zerr.Wrap(err, "failed to remove artifact cache")
	}
	a.logger.Info("removed " + cfg.LibDir)
	return nil
}

// configuration loads recon.yaml from the working directory and applies opts.
func (a *App) configuration(opts Options) (domain.Configuration, error) {
	if opts.JSON {
		if l, ok := a.logger.(interface{ SetJSON(enable bool) }); ok {
			l.SetJSON(true)
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return domain.Configuration{}, zerr.Wrap(err, "failed to get working directory")
	}
	cfg, err := a.configLoader.Load(cwd)
	if err != nil {
		return domain.Configuration{}, zerr.Wrap(err, "failed to load configuration")
	}

	if opts.Revision != "" {
		if cfg.Revision, err = domain.ParseRevision(opts.Revision); err != nil {
			return domain.Configuration{}, err
		}
	}

	for _, pair := range opts.Directives {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return domain.Configuration{}, zerr.With(
				zerr.Wrap(domain.ErrInvalidDirectiveValue, "directive must be name=value"), "directive", pair)
		}
		if cfg.Directives, err = cfg.Directives.With(strings.TrimSpace(name), value); err != nil {
			return domain.Configuration{}, err
		}
	}

	if len(opts.SearchPath) > 0 {
		dirs := make([]string, 0, len(opts.SearchPath)+len(cfg.SearchPath))
		for _, dir := range opts.SearchPath {
			abs, err := filepath.Abs(dir)
			if err != nil {
				return domain.Configuration{}, zerr.With(zerr.Wrap(err, "invalid search path"), "path", dir)
			}
			dirs = append(dirs, abs)
		}
		cfg.SearchPath = append(dirs, cfg.SearchPath...)
	}

	if opts.LibDir != "" {
		if cfg.LibDir, err = filepath.Abs(opts.LibDir); err != nil {
			return domain.Configuration{}, zerr.With(zerr.Wrap(err, "invalid lib dir"), "path", opts.LibDir)
		}
	}
	cfg.Force = cfg.Force || opts.Force
	cfg.Quiet = cfg.Quiet || opts.Quiet
	return cfg, nil
}

// modules expands files, directories and glob patterns into modules.
func (a *App) modules(args []string) ([]domain.Module, error) {
	if len(args) == 0 {
		return nil, domain.ErrNoModulesSpecified
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to get working directory")
	}
	paths, err := a.expander.Expand(args, cwd)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, zerr.With(domain.ErrNoModulesSpecified, "args", strings.Join(args, " "))
	}

	modules := make([]domain.Module, 0, len(paths))
	var errs error
	for _, p := range paths {
		m, err := domain.NewModule(p)
		if err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		modules = append(modules, m)
	}
	return modules, errs
}

func (a *App) printGlobals(globals map[string]any, asJSON bool) error {
	if asJSON {
		out := make(map[string]any, len(globals))
		for name, v := range globals {
			out[name] = jsonValue(v)
		}
		return a.writeJSON(out)
	}
	for _, name := range slices.Sorted(maps.Keys(globals)) {
		a.printf("%s = %s\n", name, formatValue(globals[name]))
	}
	return nil
}

func (a *App) printValue(v any, asJSON bool) error {
	if asJSON {
		return a.writeJSON(jsonValue(v))
	}
	a.printf("%s\n", formatValue(v))
	return nil
}

func (a *App) writeJSON(v any) error {
	if err := json.NewEncoder(a.out).Encode(v); err != nil {
		return zerr.Wrap(err, "failed to write result")
	}
	return nil
}

func (a *App) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}

// relative shortens path against the working directory when it lies below it.
func (a *App) relative(path string) string {
	cwd, err := os.Getwd()
	if err != nil {
		return path
	}
	if !within(path, cwd) {
		return path
	}
	rel, _ := filepath.Rel(cwd, path)
	return rel
}

func publicSymbols(m *domain.LoadedModule) map[string]any {
	out := make(map[string]any)
	for _, name := range m.Names() {
		if strings.HasPrefix(name, "_") {
			continue
		}
		out[name], _ = m.Lookup(name)
	}
	return out
}
