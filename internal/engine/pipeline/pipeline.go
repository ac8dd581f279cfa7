// Package pipeline runs the front-end and back-end over one planned module.
package pipeline

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/recon/internal/core/domain"
	"go.trai.ch/recon/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Pipeline = (*Pipeline)(nil)

// Pipeline scans, parses and generates a module, then hands the unit to the
// toolchain of the requested variant.
type Pipeline struct {
	scanner    ports.Scanner
	parser     ports.Parser
	generators ports.GeneratorSet
	closure    ports.ClosureEngine
	toolchain  ports.Toolchain
	native     ports.NativeCompiler
}

// New creates a new Pipeline.
func New(
	scanner ports.Scanner,
	parser ports.Parser,
	generators ports.GeneratorSet,
	closure ports.ClosureEngine,
	toolchain ports.Toolchain,
	native ports.NativeCompiler,
) *Pipeline {
	return &Pipeline{
		scanner:    scanner,
		parser:     parser,
		generators: generators,
		closure:    closure,
		toolchain:  toolchain,
		native:     native,
	}
}

// Run builds the module of plan for plan.Variant.
func (p *Pipeline) Run(ctx context.Context, plan domain.BuildPlan, cfg domain.Configuration) (domain.BuildOutput, error) {
	gen, err := p.generators.For(plan.Variant)
	if err != nil {
		return domain.BuildOutput{}, err
	}

	edges, err := p.closure.Edges(ctx, plan.Module.Path)
	if err != nil {
		return domain.BuildOutput{}, err
	}

	u := &unit{
		p:       p,
		closure: plan.Closure,
		edges:   newEdgeIndex(edges),
		parsed:  make(map[string]parsedFile),
	}
	tree, err := u.load(plan.Module.Path)
	if err != nil {
		return domain.BuildOutput{}, err
	}

	scope, err := u.scope(plan.Module.Path, tree)
	if err != nil {
		return domain.BuildOutput{}, err
	}

	src, err := gen.Generate(tree, scope, cfg)
	if err != nil {
		return domain.BuildOutput{}, err
	}
	out := domain.BuildOutput{Unit: src, UnitExt: gen.Extension()}

	if err := ctx.Err(); err != nil {
		return domain.BuildOutput{}, err
	}

	switch plan.Variant {
	case domain.VariantLoaded:
		loaded, native, err := p.toolchain.CompileAndLink(toolchainContext(ctx, cfg), scope.Module, src)
		if err != nil {
			return domain.BuildOutput{}, err
		}
		out.Loaded = loaded
		out.Native = native
	case domain.VariantUnit:
		native, err := p.compileNative(ctx, plan, cfg, out)
		if err != nil {
			return domain.BuildOutput{}, err
		}
		out.Native = native
	}
	return out, nil
}

// compileNative runs the configured native command over the unit in a
// scratch directory and returns what the command wrote to {output}.
func (p *Pipeline) compileNative(
	ctx context.Context,
	plan domain.BuildPlan,
	cfg domain.Configuration,
	out domain.BuildOutput,
) ([]byte, error) {
	if len(cfg.NativeCommand) == 0 || p.native == nil {
		return nil, nil
	}

	dir, err := os.MkdirTemp("", "recon-native-*")
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create native build directory")
	}
	defer func() { _ = os.RemoveAll(dir) }()

	name := plan.Module.Name()
	unitPath := filepath.Join(dir, name+out.UnitExt)
	outputPath := filepath.Join(dir, name+".bin")
	if err := os.WriteFile(unitPath, out.Unit, domain.PrivateFilePerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to write unit for native build"), "path", unitPath)
	}

	stdout, stderr := outputs(ctx, cfg)
	if err := p.native.Compile(ctx, cfg.NativeCommand, unitPath, outputPath, stdout, stderr); err != nil {
		return nil, err
	}

	//nolint:gosec // Path is inside the scratch directory
	native, err := os.ReadFile(outputPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to read native output"), "path", outputPath)
	}
	return native, nil
}

// outputs returns where toolchain output of the current vertex goes.
func outputs(ctx context.Context, cfg domain.Configuration) (io.Writer, io.Writer) {
	v, ok := ports.VertexFromContext(ctx)
	if !ok || cfg.Quiet {
		return io.Discard, io.Discard
	}
	return v.Stdout(), v.Stderr()
}

// toolchainContext hides the vertex from the toolchain in quiet mode.
func toolchainContext(ctx context.Context, cfg domain.Configuration) context.Context {
	if cfg.Quiet {
		return ports.ContextWithVertex(ctx, nil)
	}
	return ctx
}

type edgeRef struct {
	from string
	name string
}

// edgeIndex answers which file a reference written in one file resolved to.
type edgeIndex struct {
	byRef map[domain.EdgeKind]map[edgeRef]string
	// byName holds the first target seen for a name, for edges the resolver
	// recorded from another file first.
	byName map[domain.EdgeKind]map[string]string
}

func newEdgeIndex(edges []domain.DependencyEdge) *edgeIndex {
	idx := &edgeIndex{
		byRef:  make(map[domain.EdgeKind]map[edgeRef]string),
		byName: make(map[domain.EdgeKind]map[string]string),
	}
	for _, e := range edges {
		if e.Name == "" {
			continue
		}
		if idx.byRef[e.Kind] == nil {
			idx.byRef[e.Kind] = make(map[edgeRef]string)
			idx.byName[e.Kind] = make(map[string]string)
		}
		idx.byRef[e.Kind][edgeRef{from: e.From, name: e.Name}] = e.Path
		if _, ok := idx.byName[e.Kind][e.Name]; !ok {
			idx.byName[e.Kind][e.Name] = e.Path
		}
	}
	return idx
}

func (idx *edgeIndex) find(kind domain.EdgeKind, from, name string) (string, bool) {
	if path, ok := idx.byRef[kind][edgeRef{from: from, name: name}]; ok {
		return path, true
	}
	path, ok := idx.byName[kind][name]
	return path, ok
}

type parsedFile struct {
	src  []byte
	tree *domain.SyntaxTree
}

// unit holds the state of one Run.
type unit struct {
	p       *Pipeline
	closure domain.DependencySet
	edges   *edgeIndex
	parsed  map[string]parsedFile
	// splicing guards include cycles.
	splicing []string
}

// load parses path and splices every included fragment in place.
func (u *unit) load(path string) (*domain.SyntaxTree, error) {
	src, tree, err := u.parse(path)
	if err != nil {
		return nil, err
	}

	out := &domain.SyntaxTree{File: path}
	out.AddSource(path, src)
	stmts, err := u.splice(out, path, tree.Stmts)
	if err != nil {
		return nil, err
	}
	out.Stmts = stmts
	return out, nil
}

func (u *unit) splice(out *domain.SyntaxTree, from string, stmts []domain.Stmt) ([]domain.Stmt, error) {
	result := make([]domain.Stmt, 0, len(stmts))
	for _, stmt := range stmts {
		inc, ok := stmt.(*domain.IncludeStmt)
		if !ok {
			result = append(result, stmt)
			continue
		}

		target, ok := u.edges.find(domain.EdgeInclude, from, inc.Path)
		if !ok {
			return nil, &domain.Diagnostic{Pos: inc.Pos(), Msg: "include not found: " + inc.Path}
		}
		for _, active := range u.splicing {
			if active == target {
				return nil, &domain.Diagnostic{Pos: inc.Pos(), Msg: "recursive include of " + inc.Path}
			}
		}

		src, frag, err := u.parse(target)
		if err != nil {
			return nil, err
		}
		out.AddSource(target, src)

		u.splicing = append(u.splicing, target)
		inner, err := u.splice(out, target, frag.Stmts)
		u.splicing = u.splicing[:len(u.splicing)-1]
		if err != nil {
			return nil, err
		}
		result = append(result, inner...)
	}
	return result, nil
}

// parse reads and parses path once per Run.
func (u *unit) parse(path string) ([]byte, *domain.SyntaxTree, error) {
	if f, ok := u.parsed[path]; ok {
		return f.src, f.tree, nil
	}

	//nolint:gosec // Path comes from the dependency closure
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, zerr.With(zerr.Wrap(err, "failed to read source"), "path", path)
	}

	tokens, err := u.p.scanner.Tokenize(path, src)
	if err != nil {
		return nil, nil, err
	}
	tree, err := u.p.parser.Parse(domain.NewTokenStream(tokens))
	if err != nil {
		return nil, nil, err
	}
	u.parsed[path] = parsedFile{src: src, tree: tree}
	return src, tree, nil
}

// scope collects the declarations visible to the module at path: its own
// cdefs, those of its companion file, and those of every cimported module.
func (u *unit) scope(path string, tree *domain.SyntaxTree) (*domain.Scope, error) {
	scope := domain.NewScope(domain.ModuleName(path))

	if err := u.bind(scope, path, tree.Stmts); err != nil {
		return nil, err
	}

	// A companion created after the closure was computed stays invisible
	// until the next invalidation.
	if companion, ok := domain.CompanionPath(path); ok && u.closure.Contains(companion) {
		decl, err := u.load(companion)
		if err != nil {
			return nil, err
		}
		if err := u.bind(scope, companion, decl.Stmts); err != nil {
			return nil, err
		}
	}
	return scope, nil
}

// bind adds the top-level declarations and cimports of stmts to scope.
func (u *unit) bind(scope *domain.Scope, file string, stmts []domain.Stmt) error {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *domain.CDefStmt:
			scope.Own[s.Name] = domain.Declaration{Module: scope.Module, Name: s.Name, Type: s.Type, Pos: s.Pos()}
		case *domain.CImportStmt:
			for _, name := range s.Names {
				if err := u.bindModule(scope, file, name); err != nil {
					return err
				}
			}
		case *domain.FromCImportStmt:
			if err := u.bindNames(scope, file, s); err != nil {
				return err
			}
		}
	}
	return nil
}

// bindModule makes the declarations of one cimported module visible under
// its bound name. Modules with no declaration file, such as libc, bind nothing.
func (u *unit) bindModule(scope *domain.Scope, file string, name domain.ImportName) error {
	dotted := strings.TrimLeft(name.Module, ".")
	if name.Alias == "" && strings.Contains(dotted, ".") {
		// `cimport a.b` binds the package a.
		head, _, _ := strings.Cut(dotted, ".")
		if _, bound := scope.Imported[head]; bound {
			return nil
		}
		dotted = head
	}

	decls, ok, err := u.declarations(domain.EdgeImport, file, dotted)
	if err != nil || !ok {
		return err
	}
	scope.Imported[name.Bound()] = domain.ImportedModule{Module: dotted, Decls: decls}
	return nil
}

// bindNames handles `from m cimport x`. Each name is either a declaration of
// m or a submodule of the package m.
func (u *unit) bindNames(scope *domain.Scope, file string, s *domain.FromCImportStmt) error {
	dotted := strings.TrimLeft(s.Module, ".")
	decls, found, err := u.declarations(domain.EdgeImport, file, dotted)
	if err != nil {
		return err
	}

	for _, name := range s.Names {
		if name == "*" {
			for n, d := range decls {
				scope.Names[n] = d
			}
			continue
		}
		if d, ok := decls[name]; ok {
			scope.Names[name] = d
			continue
		}

		sub := name
		if dotted != "" {
			sub = dotted + "." + name
		}
		subDecls, ok, err := u.declarations(domain.EdgeImport, file, sub)
		if err != nil {
			return err
		}
		if ok {
			scope.Imported[name] = domain.ImportedModule{Module: sub, Decls: subDecls}
			continue
		}
		if found {
			return &domain.Diagnostic{Pos: s.Pos(), Msg: "cimported module " + dotted + " has no attribute " + name}
		}
	}
	return nil
}

// declarations returns the cdefs of the declaration file a reference from
// file resolved to, owned by the module named dotted.
func (u *unit) declarations(kind domain.EdgeKind, file, dotted string) (map[string]domain.Declaration, bool, error) {
	target, ok := u.edges.find(kind, file, dotted)
	if !ok {
		target, ok = u.edges.find(domain.EdgeAncestor, file, dotted)
	}
	if !ok {
		return nil, false, nil
	}

	tree, err := u.load(target)
	if err != nil {
		return nil, false, err
	}
	decls := make(map[string]domain.Declaration)
	for _, stmt := range tree.Stmts {
		if s, ok := stmt.(*domain.CDefStmt); ok {
			decls[s.Name] = domain.Declaration{Module: dotted, Name: s.Name, Type: s.Type, Pos: s.Pos()}
		}
	}
	return decls, true, nil
}
