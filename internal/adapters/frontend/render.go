package frontend

import (
	"strings"

	"go.trai.ch/recon/internal/core/domain"
)

type numKind int

const (
	numUnknown numKind = iota
	numInt
	numFloat
)

func kindOfType(ctype string) numKind {
	switch {
	case domain.IsIntType(ctype):
		return numInt
	case domain.IsFloatType(ctype):
		return numFloat
	default:
		return numUnknown
	}
}

type dialect int

const (
	dialectC dialect = iota
	dialectStarlark
)

// symbol is a name the module can see, as a generator spells it.
type symbol struct {
	spelled string
	ctype   string
}

// printer renders expressions for one generator. It knows the scope of the
// module and, inside a function, the typed parameters.
type printer struct {
	dialect   dialect
	revision  domain.LanguageRevision
	cdivision bool
	scope     *domain.Scope
	// own spells a declaration of the module itself.
	own    func(d domain.Declaration) string
	locals map[string]string
}

// lookup resolves a bare name or an attribute of a cimported module.
func (p *printer) lookup(qualifier, name string) (symbol, bool) {
	if qualifier == "" {
		if ctype, ok := p.locals[name]; ok {
			return symbol{spelled: name, ctype: ctype}, true
		}
		if d, ok := p.scope.Own[name]; ok {
			return symbol{spelled: p.own(d), ctype: d.Type}, true
		}
		if d, ok := p.scope.Names[name]; ok {
			return symbol{spelled: foreignName(d), ctype: d.Type}, true
		}
		return symbol{}, false
	}
	if p.locals != nil {
		if _, shadowed := p.locals[qualifier]; shadowed {
			return symbol{}, false
		}
	}
	imported, ok := p.scope.Imported[qualifier]
	if !ok {
		return symbol{}, false
	}
	d, ok := imported.Decls[name]
	if !ok {
		return symbol{}, false
	}
	return symbol{spelled: foreignName(d), ctype: d.Type}, true
}

// foreignName spells storage owned by a cimported module.
func foreignName(d domain.Declaration) string {
	return strings.ReplaceAll(d.Module, ".", "_") + "_" + d.Name
}

// renderSpan renders a token span, falling back to the source text when the
// expression syntax is outside what the renderer understands.
func (p *printer) renderSpan(toks []domain.Token) string {
	e, err := parseExpr(toks)
	if err != nil {
		return rawText(toks)
	}
	return p.render(e)
}

func (p *printer) kind(e expr) numKind {
	switch e := e.(type) {
	case *atomExpr:
		switch e.tok.Kind {
		case domain.TokenInt:
			return numInt
		case domain.TokenFloat:
			return numFloat
		case domain.TokenName:
			if sym, ok := p.lookup("", e.tok.Text); ok {
				return kindOfType(sym.ctype)
			}
		}
	case *attrExpr:
		if q, ok := e.x.(*atomExpr); ok && q.tok.Kind == domain.TokenName {
			if sym, ok := p.lookup(q.tok.Text, e.name.Text); ok {
				return kindOfType(sym.ctype)
			}
		}
	case *parenExpr:
		return p.kind(e.x)
	case *unaryExpr:
		if e.op.Is("-") || e.op.Is("+") || e.op.Is("~") {
			return p.kind(e.x)
		}
	case *binaryExpr:
		kx, ky := p.kind(e.x), p.kind(e.y)
		if kx == numUnknown || ky == numUnknown {
			return numUnknown
		}
		switch e.op {
		case "/":
			if kx == numInt && ky == numInt && p.revision == domain.RevisionLegacy {
				return numInt
			}
			return numFloat
		case "+", "-", "*", "//", "%", "**":
			if kx == numInt && ky == numInt {
				return numInt
			}
			return numFloat
		}
	}
	return numUnknown
}

func (p *printer) render(e expr) string {
	switch e := e.(type) {
	case *atomExpr:
		return p.atom(e.tok)
	case *attrExpr:
		if q, ok := e.x.(*atomExpr); ok && q.tok.Kind == domain.TokenName {
			if sym, ok := p.lookup(q.tok.Text, e.name.Text); ok {
				return sym.spelled
			}
		}
		return p.render(e.x) + "." + e.name.Text
	case *callExpr:
		return p.render(e.fn) + "(" + p.renderList(e.args) + ")"
	case *kwargExpr:
		return e.name.Text + "=" + p.render(e.value)
	case *indexExpr:
		return p.render(e.x) + "[" + p.render(e.index) + "]"
	case *unaryExpr:
		return p.unary(e)
	case *binaryExpr:
		return p.binary(e)
	case *parenExpr:
		return "(" + p.render(e.x) + ")"
	case *collectionExpr:
		body := p.renderList(e.elems)
		if e.tuple && len(e.elems) == 1 {
			body += ","
		}
		return e.open.Text + body + e.close
	case *pairExpr:
		return p.render(e.key) + ": " + p.render(e.value)
	default:
		return ""
	}
}

func (p *printer) renderList(elems []expr) string {
	parts := make([]string, len(elems))
	for i, el := range elems {
		parts[i] = p.render(el)
	}
	return strings.Join(parts, ", ")
}

func (p *printer) atom(tok domain.Token) string {
	if tok.Kind != domain.TokenName {
		return tok.Text
	}
	if sym, ok := p.lookup("", tok.Text); ok {
		return sym.spelled
	}
	if p.dialect == dialectC {
		switch tok.Text {
		case "True":
			return "1"
		case "False":
			return "0"
		case "None":
			return "Py_None"
		}
	}
	return tok.Text
}

func (p *printer) unary(e *unaryExpr) string {
	x := p.render(e.x)
	switch {
	case e.op.Is("not") && p.dialect == dialectC:
		return "!" + x
	case e.op.Is("not"):
		return "not " + x
	default:
		return e.op.Text + x
	}
}

func (p *printer) binary(e *binaryExpr) string {
	x, y := p.render(e.x), p.render(e.y)
	bothInt := p.kind(e.x) == numInt && p.kind(e.y) == numInt

	if p.dialect == dialectStarlark {
		if e.op == "/" && bothInt && p.revision == domain.RevisionLegacy {
			return x + " // " + y
		}
		return x + " " + e.op + " " + y
	}

	switch e.op {
	case "/":
		switch {
		case bothInt && p.revision == domain.RevisionLegacy && p.cdivision:
			return x + " / " + y
		case bothInt && p.revision == domain.RevisionLegacy:
			return "__Pyx_div_long(" + x + ", " + y + ")"
		case bothInt:
			return "((double)(" + x + ") / (" + y + "))"
		}
	case "//":
		if bothInt && !p.cdivision {
			return "__Pyx_div_long(" + x + ", " + y + ")"
		}
		if bothInt {
			return x + " / " + y
		}
		return "floor(" + x + " / " + y + ")"
	case "**":
		return "pow(" + x + ", " + y + ")"
	case "and":
		return x + " && " + y
	case "or":
		return x + " || " + y
	}
	return x + " " + e.op + " " + y
}

// coerce renders a value assigned to storage of type ctype. Numeric literals
// take the form of the target type.
func (p *printer) coerce(value []domain.Token, ctype string) (string, error) {
	e, err := parseExpr(value)
	if err != nil {
		return rawText(value), nil //nolint:nilerr // unparsed values pass through verbatim
	}

	lit, sign := e, ""
	if u, ok := e.(*unaryExpr); ok && (u.op.Is("-") || u.op.Is("+")) {
		lit, sign = u.x, u.op.Text
	}
	atom, ok := lit.(*atomExpr)
	if !ok {
		return p.render(e), nil
	}

	switch {
	case atom.tok.Kind == domain.TokenInt && domain.IsFloatType(ctype) && isDecimal(atom.tok.Text):
		return sign + strings.ReplaceAll(atom.tok.Text, "_", "") + ".0", nil
	case atom.tok.Kind == domain.TokenFloat && domain.IsIntType(ctype):
		return "", &domain.Diagnostic{
			Pos: atom.tok.Start,
			Msg: "cannot assign float literal " + atom.tok.Text + " to " + ctype,
		}
	}
	return p.render(e), nil
}

// zeroValue is the initial value of storage declared without one.
func zeroValue(ctype string, d dialect) string {
	switch {
	case ctype == "bint" && d == dialectStarlark:
		return "False"
	case domain.IsIntType(ctype):
		return "0"
	case domain.IsFloatType(ctype):
		return "0.0"
	case d == dialectStarlark:
		return "None"
	default:
		return "NULL"
	}
}

func isDecimal(lit string) bool {
	for i := range len(lit) {
		if !isDigit(lit[i]) && lit[i] != '_' {
			return false
		}
	}
	return true
}
