package frontend

import (
	"strings"

	"go.trai.ch/recon/internal/build"
	"go.trai.ch/recon/internal/core/domain"
	"go.trai.ch/recon/internal/core/ports"
)

var _ ports.Generator = (*StarlarkGenerator)(nil)

// StarlarkGenerator renders the interactive variant as a Starlark program.
// Types are erased; the revision decides how integer division is spelled.
type StarlarkGenerator struct{}

// NewStarlarkGenerator creates a new StarlarkGenerator.
func NewStarlarkGenerator() *StarlarkGenerator {
	return &StarlarkGenerator{}
}

// Extension returns ".star".
func (g *StarlarkGenerator) Extension() string {
	return ".star"
}

// Generate renders tree. Storage declared outside the module body, in the
// companion file or a cimported module, is bound to its zero value first.
func (g *StarlarkGenerator) Generate(tree *domain.SyntaxTree, scope *domain.Scope, cfg domain.Configuration) ([]byte, error) {
	sw := &starWriter{
		printer: &printer{
			dialect:  dialectStarlark,
			revision: cfg.EffectiveRevision(),
			scope:    scope,
			own: func(d domain.Declaration) string {
				return d.Name
			},
		},
	}

	sw.line("# Generated by recon " + build.Version)
	sw.line("# module: " + scope.Module)
	sw.line("# revision: " + sw.printer.revision.String())

	declared := make(map[string]bool)
	for _, stmt := range tree.Stmts {
		if s, ok := stmt.(*domain.CDefStmt); ok {
			declared[s.Name] = true
		}
	}
	var prologue []string
	for _, d := range sortedDecls(scope.Own) {
		if !declared[d.Name] {
			prologue = append(prologue, d.Name+" = "+zeroValue(d.Type, dialectStarlark))
		}
	}
	for _, d := range foreignDecls(scope) {
		prologue = append(prologue, foreignName(d)+" = "+zeroValue(d.Type, dialectStarlark))
	}
	if len(prologue) > 0 {
		sw.line("")
		for _, l := range prologue {
			sw.line(l)
		}
	}

	sw.line("")
	for _, stmt := range tree.Stmts {
		if err := sw.stmt(stmt); err != nil {
			return nil, err
		}
	}
	return []byte(sw.b.String()), nil
}

type starWriter struct {
	b       strings.Builder
	printer *printer
}

func (sw *starWriter) line(s string) {
	sw.b.WriteString(s)
	sw.b.WriteByte('\n')
}

// indentOf keeps the source column of stmt.
func indentOf(stmt domain.Stmt) string {
	col := stmt.Pos().Col
	if col <= 1 {
		return ""
	}
	return strings.Repeat(" ", col-1)
}

func (sw *starWriter) stmt(stmt domain.Stmt) error {
	text, err := sw.render(stmt)
	if err != nil {
		return err
	}
	if text != "" {
		sw.line(indentOf(stmt) + text)
	}

	switch s := stmt.(type) {
	case *domain.FuncDefStmt:
		defer func() { sw.printer.locals = nil }()
		return sw.body(s.Body)
	case *domain.BlockStmt:
		return sw.body(s.Body)
	}
	return nil
}

func (sw *starWriter) body(stmts []domain.Stmt) error {
	for _, inner := range stmts {
		if err := sw.stmt(inner); err != nil {
			return err
		}
	}
	return nil
}

// render returns the line for stmt without indentation. Compound statements
// return their header only.
func (sw *starWriter) render(stmt domain.Stmt) (string, error) {
	p := sw.printer
	switch s := stmt.(type) {
	case *domain.CImportStmt, *domain.FromCImportStmt, *domain.IncludeStmt:
		return "# " + rawText(stmt.Span()), nil
	case *domain.CDefStmt:
		if p.locals != nil {
			p.locals[s.Name] = s.Type
		}
		if s.Value == nil {
			return s.Name + " = " + zeroValue(s.Type, dialectStarlark), nil
		}
		value, err := p.coerce(s.Value, s.Type)
		if err != nil {
			return "", err
		}
		return s.Name + " = " + value, nil
	case *domain.AssignStmt:
		return sw.assign(s)
	case *domain.ReturnStmt:
		if len(s.Value) == 0 {
			return "return", nil
		}
		return "return " + p.renderSpan(s.Value), nil
	case *domain.FuncDefStmt:
		return sw.funcHeader(s)
	case *domain.BlockStmt:
		return sw.blockHeader(s), nil
	default:
		return p.renderSpan(stmt.Span()), nil
	}
}

func (sw *starWriter) assign(s *domain.AssignStmt) (string, error) {
	p := sw.printer
	if s.Qualifier != "" {
		if _, imported := p.scope.Imported[s.Qualifier]; imported {
			sym, err := checkForeign(p, s)
			if err != nil {
				return "", err
			}
			value, err := p.coerce(s.Value, sym.ctype)
			if err != nil {
				return "", err
			}
			return sym.spelled + " = " + value, nil
		}
		return s.Qualifier + "." + s.Name + " = " + p.renderSpan(s.Value), nil
	}

	if sym, ok := p.lookup("", s.Name); ok && sym.ctype != "object" {
		value, err := p.coerce(s.Value, sym.ctype)
		if err != nil {
			return "", err
		}
		return sym.spelled + " = " + value, nil
	}
	return s.Name + " = " + p.renderSpan(s.Value), nil
}

// funcHeader drops parameter types. A one-line def keeps its statement.
// The typed parameters stay visible to the printer for the body.
func (sw *starWriter) funcHeader(fn *domain.FuncDefStmt) (string, error) {
	p := sw.printer
	locals := make(map[string]string, len(fn.Params))
	params := make([]string, 0, len(fn.Params))
	for _, param := range fn.Params {
		text := param.Star + param.Name
		if param.Default != nil {
			text += "=" + p.renderSpan(param.Default)
		}
		params = append(params, text)
		if param.Name != "" {
			locals[param.Name] = param.Type
		}
	}
	p.locals = locals

	header := "def " + fn.Name + "(" + strings.Join(params, ", ") + "):"
	if fn.Inline == nil {
		return header, nil
	}
	inline, err := sw.render(inlineStmt(fn.Inline))
	if err != nil {
		return "", err
	}
	return header + " " + inline, nil
}

// blockHeader renders the condition of if, elif and while; other headers
// pass through verbatim.
func (sw *starWriter) blockHeader(s *domain.BlockStmt) string {
	head := s.Tokens
	switch {
	case len(head) > 2 && (head[0].Is("if") || head[0].Is("elif") || head[0].Is("while")):
		return head[0].Text + " " + sw.printer.renderSpan(head[1:len(head)-1]) + ":"
	default:
		return rawText(head)
	}
}
