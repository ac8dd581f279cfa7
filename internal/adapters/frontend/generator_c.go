package frontend

import (
	"cmp"
	"maps"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"go.trai.ch/recon/internal/build"
	"go.trai.ch/recon/internal/core/domain"
	"go.trai.ch/recon/internal/core/ports"
)

var _ ports.Generator = (*CGenerator)(nil)

// CGenerator renders the translation unit of the persisted variant.
type CGenerator struct{}

// NewCGenerator creates a new CGenerator.
func NewCGenerator() *CGenerator {
	return &CGenerator{}
}

// Extension returns ".c".
func (g *CGenerator) Extension() string {
	return ".c"
}

// Generate renders tree as a C-like unit: one static per declaration of the
// module, one extern per cimported declaration, one function per def and an
// exec function holding the module-level statements.
func (g *CGenerator) Generate(tree *domain.SyntaxTree, scope *domain.Scope, cfg domain.Configuration) ([]byte, error) {
	mod := cIdent(scope.Module)
	cw := &cWriter{
		tree: tree,
		printer: &printer{
			dialect:   dialectC,
			revision:  cfg.EffectiveRevision(),
			cdivision: cfg.Directives.Bool("cdivision"),
			scope:     scope,
			own: func(d domain.Declaration) string {
				return mod + "_" + d.Name
			},
		},
	}

	cw.line("/* Generated by recon " + build.Version + " */")
	cw.line("/* module: " + scope.Module + " */")
	cw.line("/* revision: " + cw.printer.revision.String() + " */")
	cw.line("/* directives: " + overridesString(cfg.Directives) + " */")
	cw.line("")
	cw.line(`#include "Python.h"`)

	if decls := sortedDecls(scope.Own); len(decls) > 0 {
		cw.line("")
		for _, d := range decls {
			cw.line("static " + cDecl(d.Type, mod+"_"+d.Name) + ";")
		}
	}
	if foreign := foreignDecls(scope); len(foreign) > 0 {
		cw.line("")
		for _, d := range foreign {
			cw.line("extern " + cDecl(d.Type, foreignName(d)) + ";")
		}
	}

	for _, stmt := range tree.Stmts {
		if fn, ok := stmt.(*domain.FuncDefStmt); ok {
			if err := cw.function(mod, fn); err != nil {
				return nil, err
			}
		}
	}

	cw.line("")
	cw.line("static int __pyx_module_exec_" + mod + "(void) {")
	for _, stmt := range tree.Stmts {
		if _, ok := stmt.(*domain.FuncDefStmt); ok {
			continue
		}
		if err := cw.stmt(stmt, "  "); err != nil {
			return nil, err
		}
	}
	cw.line("  return 0;")
	cw.line("}")
	return []byte(cw.b.String()), nil
}

type cWriter struct {
	b       strings.Builder
	tree    *domain.SyntaxTree
	printer *printer
}

func (cw *cWriter) line(s string) {
	cw.b.WriteString(s)
	cw.b.WriteByte('\n')
}

// echo writes the source line of stmt as a comment.
func (cw *cWriter) echo(stmt domain.Stmt, indent string) {
	pos := stmt.Pos()
	src := strings.TrimSpace(cw.tree.Line(pos))
	src = strings.ReplaceAll(src, "*/", "*[inserted by recon]/")
	cw.line(indent + `/* "` + filepath.Base(pos.File) + `":` + strconv.Itoa(pos.Line))
	cw.line(indent + " * " + src)
	cw.line(indent + " */")
}

func (cw *cWriter) function(mod string, fn *domain.FuncDefStmt) error {
	params := make([]string, 0, len(fn.Params))
	locals := make(map[string]string, len(fn.Params))
	for _, p := range fn.Params {
		if p.Name == "" {
			continue
		}
		ctype := p.Type
		if ctype == "" {
			ctype = "object"
		}
		locals[p.Name] = ctype
		params = append(params, cDecl(ctype, p.Name))
	}
	if len(params) == 0 {
		params = append(params, "void")
	}

	cw.printer.locals = locals
	defer func() { cw.printer.locals = nil }()

	cw.line("")
	cw.line("static PyObject *__pyx_pf_" + mod + "_" + fn.Name + "(" + strings.Join(params, ", ") + ") {")
	cw.echo(fn, "  ")
	if fn.Inline != nil {
		// The statement shares the line of the def, which is already echoed.
		if err := cw.emit(inlineStmt(fn.Inline), "  "); err != nil {
			return err
		}
	}
	for _, stmt := range fn.Body {
		if err := cw.stmt(stmt, "  "); err != nil {
			return err
		}
	}
	cw.line("}")
	return nil
}

func (cw *cWriter) stmt(stmt domain.Stmt, indent string) error {
	cw.echo(stmt, indent)
	return cw.emit(stmt, indent)
}

func (cw *cWriter) emit(stmt domain.Stmt, indent string) error {
	p := cw.printer
	switch s := stmt.(type) {
	case *domain.CDefStmt:
		return cw.cdef(s, indent)
	case *domain.AssignStmt:
		return cw.assign(s, indent)
	case *domain.ReturnStmt:
		if len(s.Value) == 0 {
			cw.line(indent + "return Py_None;")
			return nil
		}
		cw.line(indent + "return " + p.renderSpan(s.Value) + ";")
	case *domain.BlockStmt:
		cw.line(indent + "{")
		for _, inner := range s.Body {
			if err := cw.stmt(inner, indent+"  "); err != nil {
				return err
			}
		}
		cw.line(indent + "}")
	case *domain.ExprStmt:
		if len(s.Tokens) == 1 && s.Tokens[0].Is("pass") {
			return nil
		}
		cw.line(indent + p.renderSpan(s.Tokens) + ";")
	}
	return nil
}

func (cw *cWriter) cdef(s *domain.CDefStmt, indent string) error {
	p := cw.printer
	if p.locals != nil {
		p.locals[s.Name] = s.Type
		decl := cDecl(s.Type, s.Name)
		if s.Value == nil {
			cw.line(indent + decl + ";")
			return nil
		}
		value, err := p.coerce(s.Value, s.Type)
		if err != nil {
			return err
		}
		cw.line(indent + decl + " = " + value + ";")
		return nil
	}

	if s.Value == nil {
		return nil
	}
	if s.Type == "object" {
		cw.line(indent + `__Pyx_SetGlobal("` + s.Name + `", ` + p.renderSpan(s.Value) + ");")
		return nil
	}
	spelled := p.own(domain.Declaration{Module: p.scope.Module, Name: s.Name})
	if sym, ok := p.lookup("", s.Name); ok {
		spelled = sym.spelled
	}
	value, err := p.coerce(s.Value, s.Type)
	if err != nil {
		return err
	}
	cw.line(indent + spelled + " = " + value + ";")
	return nil
}

func (cw *cWriter) assign(s *domain.AssignStmt, indent string) error {
	p := cw.printer
	if s.Qualifier != "" {
		if _, imported := p.scope.Imported[s.Qualifier]; imported {
			sym, err := checkForeign(p, s)
			if err != nil {
				return err
			}
			value, err := p.coerce(s.Value, sym.ctype)
			if err != nil {
				return err
			}
			cw.line(indent + sym.spelled + " = " + value + ";")
			return nil
		}
		cw.line(indent + "__Pyx_SetAttr(" + p.atom(s.Tokens[0]) + `, "` + s.Name + `", ` + p.renderSpan(s.Value) + ");")
		return nil
	}

	if sym, ok := p.lookup("", s.Name); ok && sym.ctype != "object" {
		value, err := p.coerce(s.Value, sym.ctype)
		if err != nil {
			return err
		}
		cw.line(indent + sym.spelled + " = " + value + ";")
		return nil
	}
	if p.locals != nil {
		if _, ok := p.locals[s.Name]; !ok {
			p.locals[s.Name] = "object"
			cw.line(indent + "PyObject *" + s.Name + " = " + p.renderSpan(s.Value) + ";")
			return nil
		}
		cw.line(indent + s.Name + " = " + p.renderSpan(s.Value) + ";")
		return nil
	}
	cw.line(indent + `__Pyx_SetGlobal("` + s.Name + `", ` + p.renderSpan(s.Value) + ");")
	return nil
}

// checkForeign resolves an assignment to an attribute of a cimported module.
// The attribute must be declared by that module.
func checkForeign(p *printer, s *domain.AssignStmt) (symbol, error) {
	sym, ok := p.lookup(s.Qualifier, s.Name)
	if !ok {
		imported := p.scope.Imported[s.Qualifier]
		return symbol{}, &domain.Diagnostic{
			Pos: s.Tokens[2].Start,
			Msg: "cimported module " + imported.Module + " has no attribute " + s.Name,
		}
	}
	return sym, nil
}

// cDecl spells a declaration of name with a source-level type.
func cDecl(ctype, name string) string {
	switch ctype {
	case "object", "":
		return "PyObject *" + name
	case "bint":
		return "int " + name
	}
	if strings.HasSuffix(ctype, "*") {
		return ctype + name
	}
	return ctype + " " + name
}

func cIdent(module string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(module)
}

func sortedDecls(m map[string]domain.Declaration) []domain.Declaration {
	return slices.SortedFunc(maps.Values(m), func(a, b domain.Declaration) int {
		return cmp.Or(cmp.Compare(a.Module, b.Module), cmp.Compare(a.Name, b.Name))
	})
}

// foreignDecls returns every declaration owned by another module that the
// scope can reach, once each.
func foreignDecls(scope *domain.Scope) []domain.Declaration {
	seen := make(map[string]domain.Declaration)
	for _, imported := range scope.Imported {
		for _, d := range imported.Decls {
			seen[foreignName(d)] = d
		}
	}
	for _, d := range scope.Names {
		seen[foreignName(d)] = d
	}
	return sortedDecls(seen)
}

func overridesString(d domain.Directives) string {
	overrides := d.Overrides()
	if len(overrides) == 0 {
		return "default"
	}
	names := slices.Sorted(maps.Keys(overrides))
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "=" + overrides[name]
	}
	return strings.Join(parts, ", ")
}
