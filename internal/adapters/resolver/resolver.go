// Package resolver discovers the direct structural dependencies of source files.
package resolver

import (
	"context"
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/recon/internal/core/domain"
	"go.trai.ch/recon/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.DependencyResolver = (*Resolver)(nil)

// builtinModules never resolve to files.
var builtinModules = map[string]bool{
	"cython":  true,
	"libc":    true,
	"libcpp":  true,
	"cpython": true,
	"posix":   true,
}

// Resolver finds companion, include, cimport and package edges by
// pre-parsing source files. It keeps no state between calls.
type Resolver struct{}

// New creates a new Resolver.
func New() *Resolver {
	return &Resolver{}
}

// DirectDependencies returns the files path depends on directly. Included
// fragments are inlined, so their own dependencies are part of the result.
func (r *Resolver) DirectDependencies(
	ctx context.Context,
	path string,
	searchPath []string,
) (domain.DependencySet, []domain.DependencyEdge, error) {
	path = filepath.Clean(path)
	w := &walk{
		searchPath: searchPath,
		deps:       domain.NewDependencySet(),
		visited:    map[string]bool{path: true},
	}
	if err := w.file(ctx, path, true); err != nil {
		return domain.DependencySet{}, nil, err
	}
	return w.deps, w.edges, nil
}

// walk is the state of one DirectDependencies call.
type walk struct {
	searchPath []string
	deps       domain.DependencySet
	edges      []domain.DependencyEdge
	// visited guards include cycles.
	visited map[string]bool
}

func (w *walk) add(from, path string, kind domain.EdgeKind, name string) {
	if w.deps.Add(path) {
		w.edges = append(w.edges, domain.DependencyEdge{From: from, Path: path, Kind: kind, Name: name})
	}
}

func (w *walk) file(ctx context.Context, path string, top bool) error {
	src, err := os.ReadFile(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		cause := zerr.With(zerr.Wrap(err, "failed to read source"), "path", path)
		if errors.Is(err, iofs.ErrNotExist) {
			cause = zerr.With(zerr.Wrap(domain.ErrModuleNotFound, "failed to read source"), "path", path)
		}
		return &domain.ResolutionError{Module: path, Cause: cause}
	}

	if top {
		if companion, ok := domain.CompanionPath(path); ok && isFile(companion) {
			w.add(path, companion, domain.EdgeCompanion, "")
		}
	}

	for _, stmt := range Scan(src) {
		if err := ctx.Err(); err != nil {
			return err
		}

		switch stmt.kind {
		case stmtInclude:
			target, ok := w.findInclude(filepath.Dir(path), stmt.module)
			if !ok {
				return notFound(path, stmt, "include not found")
			}
			w.add(path, target, domain.EdgeInclude, stmt.module)
			if w.visited[target] {
				continue
			}
			w.visited[target] = true
			if err := w.file(ctx, target, false); err != nil {
				return err
			}
		case stmtCImport:
			if err := w.cimport(path, stmt); err != nil {
				return err
			}
		case stmtFromCImport:
			if err := w.fromCImport(path, stmt); err != nil {
				return err
			}
		}
	}

	if top {
		w.ancestors(path)
	}
	return nil
}

func (w *walk) findInclude(dir, name string) (string, bool) {
	if filepath.IsAbs(name) {
		return name, isFile(name)
	}
	for _, base := range w.bases(dir) {
		candidate := filepath.Join(base, name)
		if isFile(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// bases returns the directories searched for a reference made from dir.
func (w *walk) bases(dir string) []string {
	return append([]string{dir}, w.searchPath...)
}

func (w *walk) cimport(from string, stmt statement) error {
	if isBuiltin(stmt.module) {
		return nil
	}
	bases, dotted := w.relativeBases(from, stmt.module)
	if dotted == "" {
		return notFound(from, stmt, "relative cimport needs a module name")
	}
	base, target, err := resolveModule(bases, dotted)
	if err != nil {
		return wrapResolve(from, stmt, err)
	}
	w.addModule(from, base, dotted, target)
	return nil
}

func (w *walk) fromCImport(from string, stmt statement) error {
	if isBuiltin(stmt.module) {
		return nil
	}
	bases, dotted := w.relativeBases(from, stmt.module)

	found := false
	var moduleErr error
	if dotted != "" {
		base, target, err := resolveModule(bases, dotted)
		switch {
		case err == nil:
			w.addModule(from, base, dotted, target)
			bases = []string{base}
			found = true
		case errors.Is(err, domain.ErrAmbiguousDependency):
			return wrapResolve(from, stmt, err)
		default:
			moduleErr = err
		}
	} else if init := filepath.Join(bases[0], "__init__"+domain.ExtDeclaration); isFile(init) {
		w.add(from, init, domain.EdgeImport, stmt.module)
		found = true
	}

	// Imported names may be submodules of a package.
	for _, name := range stmt.names {
		if name == "*" {
			continue
		}
		sub := name
		if dotted != "" {
			sub = dotted + "." + name
		}
		base, target, err := resolveModule(bases, sub)
		if err != nil {
			continue
		}
		w.addModule(from, base, sub, target)
		found = true
	}

	if !found {
		if moduleErr == nil {
			moduleErr = domain.ErrDependencyNotFound
		}
		return wrapResolve(from, stmt, moduleErr)
	}
	return nil
}

// relativeBases strips leading dots from module. Each dot after the first
// moves one directory up from the importing file.
func (w *walk) relativeBases(from, module string) ([]string, string) {
	if !strings.HasPrefix(module, ".") {
		return w.bases(filepath.Dir(from)), module
	}
	rest := strings.TrimLeft(module, ".")
	dir := filepath.Dir(from)
	for range len(module) - len(rest) - 1 {
		dir = filepath.Dir(dir)
	}
	return []string{dir}, rest
}

// addModule records the declaration file of a cimported module together
// with the package declaration files enclosing it.
func (w *walk) addModule(from, base, dotted, target string) {
	parts := strings.Split(dotted, ".")
	dir := base
	for i, part := range parts[:len(parts)-1] {
		dir = filepath.Join(dir, part)
		init := filepath.Join(dir, "__init__"+domain.ExtDeclaration)
		if isFile(init) {
			w.add(from, init, domain.EdgeAncestor, strings.Join(parts[:i+1], "."))
		}
	}
	w.add(from, target, domain.EdgeImport, dotted)
}

// ancestors adds the __init__.pxd of every enclosing package of path.
func (w *walk) ancestors(path string) {
	dir := filepath.Dir(path)
	for isPackage(dir) {
		init := filepath.Join(dir, "__init__"+domain.ExtDeclaration)
		if init != path && isFile(init) {
			w.add(path, init, domain.EdgeAncestor, "")
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

// resolveModule finds dotted as base/a/b.pxd or base/a/b/__init__.pxd in the
// first base that has either.
func resolveModule(bases []string, dotted string) (string, string, error) {
	rel := filepath.Join(strings.Split(dotted, ".")...)
	for _, base := range bases {
		modFile := filepath.Join(base, rel+domain.ExtDeclaration)
		pkgFile := filepath.Join(base, rel, "__init__"+domain.ExtDeclaration)
		hasMod, hasPkg := isFile(modFile), isFile(pkgFile)
		switch {
		case hasMod && hasPkg:
			return "", "", zerr.With(zerr.Wrap(domain.ErrAmbiguousDependency, "module and package both match"), "dir", base)
		case hasMod:
			return base, modFile, nil
		case hasPkg:
			return base, pkgFile, nil
		}
	}
	return "", "", domain.ErrDependencyNotFound
}

func isBuiltin(module string) bool {
	head, _, _ := strings.Cut(module, ".")
	return builtinModules[head]
}

func isPackage(dir string) bool {
	for _, marker := range domain.PackageMarkers {
		if isFile(filepath.Join(dir, marker)) {
			return true
		}
	}
	return false
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func notFound(from string, stmt statement, msg string) error {
	return wrapResolve(from, stmt, zerr.Wrap(domain.ErrDependencyNotFound, msg))
}

func wrapResolve(from string, stmt statement, cause error) error {
	return &domain.ResolutionError{
		Module:    from,
		Reference: stmt.module,
		Cause:     zerr.With(zerr.Wrap(cause, "unresolved reference"), "line", stmt.line),
	}
}
