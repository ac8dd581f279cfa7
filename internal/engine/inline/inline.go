// Package inline compiles code snippets into cached modules and runs them.
package inline

import (
	"cmp"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/recon/internal/core/domain"
	"go.trai.ch/recon/internal/core/ports"
	"go.trai.ch/zerr"
)

// invokeName is the function a snippet with a top-level return is wrapped in.
const invokeName = "__invoke"

// ErrArgumentsWithoutReturn is returned when arguments are passed to a
// snippet that has no top-level return to receive them.
var ErrArgumentsWithoutReturn = zerr.New("arguments need a snippet with a top-level return")

// Arg is one named argument of a snippet.
type Arg struct {
	Name string
	// Type is the declared C type. Empty means it is derived from Value.
	Type  string
	Value any
}

// Result is what running a snippet produced.
type Result struct {
	// Value is the return value, or the public globals as map[string]any
	// for a snippet without a top-level return.
	Value  any
	Module domain.Module
	Ref    domain.ArtifactRef
}

// Engine turns snippets into modules below the lib dir and loads them
// through the build planner, so repeated snippets hit its caches.
type Engine struct {
	planner ports.BuildPlanner
}

// NewEngine creates a new Engine.
func NewEngine(planner ports.BuildPlanner) *Engine {
	return &Engine{planner: planner}
}

// Run compiles code with args and runs it.
func (e *Engine) Run(ctx context.Context, code string, args []Arg, cfg domain.Configuration) (Result, error) {
	code = dedent(code)
	args = slices.SortedFunc(slices.Values(args), func(a, b Arg) int {
		return cmp.Compare(a.Name, b.Name)
	})
	for i := range args {
		if args[i].Type == "" {
			args[i].Type = TypeOf(args[i].Value)
		}
	}

	wrap := hasTopLevelReturn(code)
	if !wrap && len(args) > 0 {
		return Result{}, ErrArgumentsWithoutReturn
	}

	src := code
	if wrap {
		src = wrapInvoke(code, args)
	}

	path := filepath.Join(cfg.LibDir, domain.InlinePrefix+Key(code, args, cfg)+domain.ExtImplementation)
	if err := writeSource(path, src, cfg.Force); err != nil {
		return Result{}, err
	}

	module := domain.Module{Path: path}
	ref, err := e.planner.PlanAndLoad(ctx, module, cfg)
	if err != nil {
		return Result{}, err
	}
	res := Result{Module: module, Ref: ref}

	if !wrap {
		res.Value = publicGlobals(ref.Loaded)
		return res, nil
	}

	fn, ok := ref.Loaded.Lookup(invokeName)
	if !ok {
		return Result{}, zerr.With(zerr.Wrap(domain.ErrSymbolNotFound, "inline module has no entry point"), "module", path)
	}
	callable, ok := fn.(domain.Callable)
	if !ok {
		return Result{}, zerr.With(zerr.New("inline entry point is not callable"), "module", path)
	}

	values := make([]any, len(args))
	for i, a := range args {
		values[i] = a.Value
	}
	res.Value, err = callable.Call(values...)
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// Key hashes everything that decides the generated module: the code, the
// argument names and types in name order, and the configuration.
func Key(code string, args []Arg, cfg domain.Configuration) string {
	h := xxhash.New()
	_, _ = h.WriteString(code)
	_, _ = h.Write([]byte{0})
	for _, a := range args {
		_, _ = h.WriteString(a.Name)
		_, _ = h.Write([]byte{':'})
		_, _ = h.WriteString(a.Type)
		_, _ = h.Write([]byte{0})
	}
	_, _ = h.WriteString(cfg.Fingerprint().String())
	return strconv.FormatUint(h.Sum64(), 16)
}

// TypeOf returns the C type an argument value is declared with. Values with
// no C equivalent stay untyped.
func TypeOf(v any) string {
	switch v.(type) {
	case bool:
		return "bint"
	case int, int64:
		return "long"
	case float64:
		return "double"
	default:
		return ""
	}
}

func writeSource(path, src string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return &domain.CacheIOError{Path: path, Op: "stat", Cause: err}
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return &domain.CacheIOError{Path: dir, Op: "mkdir", Cause: err}
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return &domain.CacheIOError{Path: path, Op: "write", Cause: err}
	}
	_, err = tmp.WriteString(src)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmp.Name(), path)
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return &domain.CacheIOError{Path: path, Op: "write", Cause: err}
	}
	return nil
}

func wrapInvoke(code string, args []Arg) string {
	params := make([]string, len(args))
	for i, a := range args {
		params[i] = strings.TrimSpace(a.Type + " " + a.Name)
	}

	var b strings.Builder
	b.WriteString("def " + invokeName + "(" + strings.Join(params, ", ") + "):\n")
	for line := range strings.Lines(code) {
		if strings.TrimSpace(line) == "" {
			b.WriteString("\n")
			continue
		}
		b.WriteString("    " + strings.TrimRight(line, "\n") + "\n")
	}
	return b.String()
}

// hasTopLevelReturn reports whether an unindented line of code is a return.
func hasTopLevelReturn(code string) bool {
	for line := range strings.Lines(code) {
		line = strings.TrimRight(line, "\r\n")
		if line == "return" || strings.HasPrefix(line, "return ") || strings.HasPrefix(line, "return(") {
			return true
		}
	}
	return false
}

// dedent removes the indentation shared by every non-blank line.
func dedent(code string) string {
	var lines []string
	for line := range strings.Lines(code) {
		lines = append(lines, strings.TrimRight(line, "\r\n"))
	}

	prefix := ""
	first := true
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if first {
			prefix, first = indent, false
			continue
		}
		for !strings.HasPrefix(indent, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}

	var b strings.Builder
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			continue
		}
		b.WriteString(strings.TrimPrefix(line, prefix) + "\n")
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func publicGlobals(m *domain.LoadedModule) map[string]any {
	out := make(map[string]any)
	for _, name := range m.Names() {
		if strings.HasPrefix(name, "_") {
			continue
		}
		v, _ := m.Lookup(name)
		out[name] = v
	}
	return out
}
