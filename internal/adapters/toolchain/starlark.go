// Package toolchain compiles generated units into runnable modules.
package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
	"go.trai.ch/recon/internal/core/domain"
	"go.trai.ch/recon/internal/core/ports"
	"go.trai.ch/zerr"
)

// fileOptions admit the top-level rebinding and control flow the
// generated units use.
var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

// noPredeclared leaves every free name to the universe: units get True,
// len, range and the other built-ins and nothing else.
func noPredeclared(string) bool { return false }

// Starlark runs generated Starlark units in process.
type Starlark struct{}

// NewStarlark creates a Starlark toolchain.
func NewStarlark() *Starlark {
	return &Starlark{}
}

// CompileAndLink compiles unit, executes its top level and returns the
// frozen module together with the compiled program.
func (s *Starlark) CompileAndLink(
	ctx context.Context,
	name string,
	unit []byte,
) (*domain.LoadedModule, []byte, error) {
	_, prog, err := starlark.SourceProgramOptions(fileOptions, name, unit, noPredeclared)
	if err != nil {
		return nil, nil, zerr.With(zerr.Wrap(err, "failed to compile unit"), "module", name)
	}

	var compiled bytes.Buffer
	if err := prog.Write(&compiled); err != nil {
		return nil, nil, zerr.With(zerr.Wrap(err, "failed to encode compiled program"), "module", name)
	}

	loaded, err := s.run(ctx, name, prog)
	if err != nil {
		return nil, nil, err
	}
	return loaded, compiled.Bytes(), nil
}

// Load executes a program previously produced by CompileAndLink.
func (s *Starlark) Load(ctx context.Context, name string, native []byte) (*domain.LoadedModule, error) {
	prog, err := starlark.CompiledProgram(bytes.NewReader(native))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to decode compiled program"), "module", name)
	}
	return s.run(ctx, name, prog)
}

func (s *Starlark) run(ctx context.Context, name string, prog *starlark.Program) (*domain.LoadedModule, error) {
	out := io.Discard
	if v, ok := ports.VertexFromContext(ctx); ok {
		out = v.Stdout()
	}

	thread := &starlark.Thread{
		Name: name,
		Print: func(_ *starlark.Thread, msg string) {
			_, _ = fmt.Fprintln(out, msg)
		},
	}
	stop := context.AfterFunc(ctx, func() {
		thread.Cancel(context.Cause(ctx).Error())
	})
	defer stop()

	globals, err := prog.Init(thread, nil)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		wrapped := zerr.With(zerr.Wrap(err, "failed to run module"), "module", name)
		var evalErr *starlark.EvalError
		if errors.As(err, &evalErr) {
			wrapped = zerr.With(wrapped, "backtrace", evalErr.Backtrace())
		}
		return nil, wrapped
	}
	globals.Freeze()

	symbols := make(map[string]any, len(globals))
	for _, key := range globals.Keys() {
		symbols[key] = toGo(globals[key])
	}
	return &domain.LoadedModule{Name: name, Symbols: symbols}, nil
}

// function exposes a Starlark callable as a domain.Callable.
type function struct {
	fn starlark.Callable
}

func (f *function) Name() string {
	return f.fn.Name()
}

// Call invokes the function on a fresh thread with Go arguments.
func (f *function) Call(args ...any) (any, error) {
	sargs := make(starlark.Tuple, len(args))
	for i, arg := range args {
		v, err := fromGo(arg)
		if err != nil {
			return nil, zerr.With(zerr.With(zerr.Wrap(err, "invalid argument"), "function", f.Name()), "argument", i)
		}
		sargs[i] = v
	}

	thread := &starlark.Thread{Name: f.Name()}
	result, err := starlark.Call(thread, f.fn, sargs, nil)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "call failed"), "function", f.Name())
	}
	return toGo(result), nil
}

func toGo(v starlark.Value) any {
	switch v := v.(type) {
	case starlark.NoneType:
		return nil
	case starlark.Bool:
		return bool(v)
	case starlark.Int:
		if i, ok := v.Int64(); ok {
			return i
		}
		return v.BigInt()
	case starlark.Float:
		return float64(v)
	case starlark.String:
		return string(v)
	case starlark.Bytes:
		return []byte(v)
	case starlark.Tuple:
		return iterToGo(v)
	case *starlark.List:
		return iterToGo(v)
	case *starlark.Set:
		return iterToGo(v)
	case *starlark.Dict:
		out := make(map[string]any, v.Len())
		for _, item := range v.Items() {
			key, ok := starlark.AsString(item[0])
			if !ok {
				key = item[0].String()
			}
			out[key] = toGo(item[1])
		}
		return out
	case starlark.Callable:
		return &function{fn: v}
	default:
		return v.String()
	}
}

func iterToGo(v starlark.Iterable) []any {
	iter := v.Iterate()
	defer iter.Done()

	out := []any{}
	var item starlark.Value
	for iter.Next(&item) {
		out = append(out, toGo(item))
	}
	return out
}

func fromGo(v any) (starlark.Value, error) {
	switch v := v.(type) {
	case nil:
		return starlark.None, nil
	case bool:
		return starlark.Bool(v), nil
	case int:
		return starlark.MakeInt(v), nil
	case int64:
		return starlark.MakeInt64(v), nil
	case float64:
		return starlark.Float(v), nil
	case string:
		return starlark.String(v), nil
	case []any:
		elems := make([]starlark.Value, len(v))
		for i, e := range v {
			sv, err := fromGo(e)
			if err != nil {
				return nil, err
			}
			elems[i] = sv
		}
		return starlark.NewList(elems), nil
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		d := starlark.NewDict(len(v))
		for _, k := range keys {
			sv, err := fromGo(v[k])
			if err != nil {
				return nil, err
			}
			if err := d.SetKey(starlark.String(k), sv); err != nil {
				return nil, err
			}
		}
		return d, nil
	default:
		return nil, zerr.With(zerr.New("unsupported argument type"), "type", fmt.Sprintf("%T", v))
	}
}
