package frontend

import (
	"strconv"
	"strings"

	"go.trai.ch/recon/internal/core/domain"
	"go.trai.ch/recon/internal/core/ports"
)

var _ ports.Parser = (*Parser)(nil)

// compoundKeywords open a statement with an indented body.
var compoundKeywords = map[string]bool{
	"if": true, "elif": true, "else": true, "for": true, "while": true,
	"with": true, "try": true, "except": true, "finally": true, "class": true,
}

// Parser builds statement-level syntax trees. Expressions stay token spans.
type Parser struct{}

// NewParser creates a new Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse consumes tokens up to EOF.
func (p *Parser) Parse(tokens *domain.TokenStream) (*domain.SyntaxTree, error) {
	tree := &domain.SyntaxTree{File: tokens.Peek().Start.File}
	ps := &parseState{ts: tokens}

	stmts, err := ps.block(true)
	if err != nil {
		return nil, err
	}
	tree.Stmts = stmts
	return tree, nil
}

type parseState struct {
	ts *domain.TokenStream
}

func errorAt(tok domain.Token, msg string) error {
	return &domain.Diagnostic{Pos: tok.Start, Msg: msg}
}

// block parses statements until DEDENT, or EOF at the top level.
func (ps *parseState) block(top bool) ([]domain.Stmt, error) {
	var stmts []domain.Stmt
	for {
		tok := ps.ts.Peek()
		switch tok.Kind {
		case domain.TokenEOF:
			if !top {
				return nil, errorAt(tok, "unexpected end of file in indented block")
			}
			return stmts, nil
		case domain.TokenDedent:
			if top {
				return nil, errorAt(tok, "unexpected dedent")
			}
			ps.ts.Next()
			return stmts, nil
		case domain.TokenIndent:
			return nil, errorAt(tok, "unexpected indent")
		case domain.TokenNewline:
			ps.ts.Next()
			continue
		}

		parsed, err := ps.statement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, parsed...)
	}
}

// header consumes the tokens of one logical line, NEWLINE excluded.
func (ps *parseState) header() []domain.Token {
	var toks []domain.Token
	for {
		tok := ps.ts.Peek()
		if tok.Kind == domain.TokenNewline || tok.Kind == domain.TokenEOF {
			if tok.Kind == domain.TokenNewline {
				ps.ts.Next()
			}
			return toks
		}
		toks = append(toks, ps.ts.Next())
	}
}

// body parses the indented suite after a header ending in ':'.
func (ps *parseState) body(head []domain.Token) ([]domain.Stmt, error) {
	if tok := ps.ts.Peek(); tok.Kind != domain.TokenIndent {
		return nil, errorAt(tok, "expected an indented block after "+strconv.Quote(head[0].Text))
	}
	ps.ts.Next()
	return ps.block(false)
}

func (ps *parseState) statement() ([]domain.Stmt, error) {
	head := ps.header()
	first := head[0]

	switch {
	case first.Is("include"):
		s, err := parseInclude(head)
		return one(s, err)
	case first.Is("cimport"):
		s, err := parseCImport(head)
		return one(s, err)
	case first.Is("from") && containsName(head, "cimport"):
		s, err := parseFromCImport(head)
		return one(s, err)
	case first.Is("def") || ((first.Is("cdef") || first.Is("cpdef")) && isFuncHeader(head)):
		s, err := ps.funcDef(head)
		return one(s, err)
	case (first.Is("cdef") || first.Is("cpdef")) && endsWithColon(head):
		return ps.compound(head)
	case first.Is("cdef") || first.Is("cpdef"):
		return parseCDef(head)
	case first.Is("return"):
		return []domain.Stmt{&domain.ReturnStmt{StmtBase: base(head), Value: head[1:]}}, nil
	case first.Kind == domain.TokenName && compoundKeywords[first.Text] && endsWithColon(head):
		return ps.compound(head)
	}

	if s, ok := parseAssign(head); ok {
		return []domain.Stmt{s}, nil
	}
	return []domain.Stmt{&domain.ExprStmt{StmtBase: base(head)}}, nil
}

func (ps *parseState) compound(head []domain.Token) ([]domain.Stmt, error) {
	body, err := ps.body(head)
	if err != nil {
		return nil, err
	}
	return []domain.Stmt{&domain.BlockStmt{StmtBase: base(head), Body: body}}, nil
}

func one(s domain.Stmt, err error) ([]domain.Stmt, error) {
	if err != nil {
		return nil, err
	}
	return []domain.Stmt{s}, nil
}

func base(head []domain.Token) domain.StmtBase {
	return domain.StmtBase{Tokens: head}
}

func containsName(toks []domain.Token, name string) bool {
	for _, t := range toks {
		if t.Kind == domain.TokenName && t.Text == name {
			return true
		}
	}
	return false
}

func endsWithColon(toks []domain.Token) bool {
	return toks[len(toks)-1].Is(":")
}

// isFuncHeader reports whether a cdef line declares a function: a name
// directly followed by '(' before any '='.
func isFuncHeader(head []domain.Token) bool {
	for i := 1; i < len(head)-1; i++ {
		if head[i].Is("=") {
			return false
		}
		if head[i].Kind == domain.TokenName && head[i+1].Is("(") {
			return true
		}
	}
	return false
}

func parseInclude(head []domain.Token) (domain.Stmt, error) {
	if len(head) != 2 || head[1].Kind != domain.TokenString {
		return nil, errorAt(head[0], "expected a quoted path after include")
	}
	path, err := unquote(head[1].Text)
	if err != nil {
		return nil, errorAt(head[1], "invalid include path")
	}
	return &domain.IncludeStmt{StmtBase: base(head), Path: path}, nil
}

// dottedName reads NAME ('.' NAME)* starting at i, with optional leading dots.
func dottedName(toks []domain.Token, i int, leadingDots bool) (string, int, bool) {
	var b strings.Builder
	if leadingDots {
		for i < len(toks) && (toks[i].Is(".") || toks[i].Is("...")) {
			b.WriteString(toks[i].Text)
			i++
		}
	}
	if i >= len(toks) || toks[i].Kind != domain.TokenName || toks[i].Is("cimport") {
		if leadingDots && b.Len() > 0 {
			return b.String(), i, true
		}
		return "", i, false
	}
	b.WriteString(toks[i].Text)
	i++
	for i+1 < len(toks) && toks[i].Is(".") && toks[i+1].Kind == domain.TokenName {
		b.WriteString(".")
		b.WriteString(toks[i+1].Text)
		i += 2
	}
	return b.String(), i, true
}

func parseCImport(head []domain.Token) (domain.Stmt, error) {
	stmt := &domain.CImportStmt{StmtBase: base(head)}
	i := 1
	for {
		name, next, ok := dottedName(head, i, false)
		if !ok {
			return nil, errorAt(tokenAt(head, i), "expected module name after cimport")
		}
		imp := domain.ImportName{Module: name}
		i = next
		if i < len(head) && head[i].Is("as") {
			if i+1 >= len(head) || head[i+1].Kind != domain.TokenName {
				return nil, errorAt(tokenAt(head, i+1), "expected alias after as")
			}
			imp.Alias = head[i+1].Text
			i += 2
		}
		stmt.Names = append(stmt.Names, imp)

		if i == len(head) {
			return stmt, nil
		}
		if !head[i].Is(",") {
			return nil, errorAt(head[i], "expected ',' between cimported modules")
		}
		i++
	}
}

func parseFromCImport(head []domain.Token) (domain.Stmt, error) {
	module, i, ok := dottedName(head, 1, true)
	if !ok {
		return nil, errorAt(tokenAt(head, 1), "expected module name after from")
	}
	if i >= len(head) || !head[i].Is("cimport") {
		return nil, errorAt(tokenAt(head, i), "expected cimport")
	}
	i++

	stmt := &domain.FromCImportStmt{StmtBase: base(head), Module: module}
	end := len(head)
	if i < end && head[i].Is("(") && head[end-1].Is(")") {
		i++
		end--
	}
	for i < end {
		tok := head[i]
		switch {
		case tok.Is("*"):
			stmt.Names = append(stmt.Names, "*")
		case tok.Kind == domain.TokenName:
			if i+1 < end && head[i+1].Is("as") {
				return nil, errorAt(head[i+1], "aliases are not supported in from-cimport")
			}
			stmt.Names = append(stmt.Names, tok.Text)
		default:
			return nil, errorAt(tok, "expected a name to cimport")
		}
		i++
		if i < end && head[i].Is(",") {
			i++
		}
	}
	if len(stmt.Names) == 0 {
		return nil, errorAt(tokenAt(head, i), "expected a name to cimport")
	}
	return stmt, nil
}

// parseCDef handles `cdef [type words] name [= value] (, name [= value])*`.
// A single word declares an untyped object.
func parseCDef(head []domain.Token) ([]domain.Stmt, error) {
	rest := head[1:]
	if len(rest) > 0 && (rest[0].Is("public") || rest[0].Is("readonly")) {
		rest = rest[1:]
	}

	groups := splitTopLevel(rest, ",")
	first := groups[0]
	declEnd := indexOf(first, "=")
	if declEnd < 0 {
		declEnd = len(first)
	}
	if declEnd == 0 {
		return nil, errorAt(head[0], "expected a declaration after cdef")
	}

	nameTok := first[declEnd-1]
	if nameTok.Kind != domain.TokenName {
		return nil, errorAt(nameTok, "expected a name in cdef declaration")
	}
	typeTokens := first[:declEnd-1]
	typ := "object"
	if len(typeTokens) > 0 {
		typ = joinType(typeTokens)
	}

	var stmts []domain.Stmt
	for i, group := range groups {
		decl := group
		if i == 0 {
			decl = group[declEnd-1:]
		}
		if len(decl) == 0 || decl[0].Kind != domain.TokenName {
			return nil, errorAt(tokenAt(decl, 0), "expected a name in cdef declaration")
		}
		stmt := &domain.CDefStmt{
			StmtBase:   base(head),
			Type:       typ,
			Name:       decl[0].Text,
			TypeTokens: typeTokens,
			NameToken:  decl[0],
		}
		if len(decl) > 1 {
			if !decl[1].Is("=") || len(decl) == 2 {
				return nil, errorAt(decl[1], "expected '=' and a value")
			}
			stmt.Value = decl[2:]
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

func (ps *parseState) funcDef(head []domain.Token) (domain.Stmt, error) {
	open := indexOf(head, "(")
	if open < 1 || head[open-1].Kind != domain.TokenName {
		return nil, errorAt(head[0], "expected a function name")
	}
	closeIdx := matching(head, open)
	if closeIdx < 0 {
		return nil, errorAt(head[open], "unclosed parameter list")
	}

	colon := -1
	for i := closeIdx + 1; i < len(head); i++ {
		if head[i].Is(":") {
			colon = i
			break
		}
	}
	if colon < 0 {
		return nil, errorAt(head[len(head)-1], "expected ':' after function signature")
	}

	params, err := parseParams(head[open+1 : closeIdx])
	if err != nil {
		return nil, err
	}
	fn := &domain.FuncDefStmt{
		StmtBase: base(head),
		Name:     head[open-1].Text,
		Params:   params,
	}

	if colon < len(head)-1 {
		fn.Inline = head[colon+1:]
		return fn, nil
	}
	fn.Body, err = ps.body(head)
	if err != nil {
		return nil, err
	}
	return fn, nil
}

func parseParams(toks []domain.Token) ([]domain.Param, error) {
	if len(toks) == 0 {
		return nil, nil
	}
	var params []domain.Param
	for _, group := range splitTopLevel(toks, ",") {
		if len(group) == 0 {
			continue
		}
		var p domain.Param
		if eq := indexOf(group, "="); eq >= 0 {
			p.Default = group[eq+1:]
			group = group[:eq]
		}
		if len(group) > 0 && (group[0].Is("*") || group[0].Is("**")) {
			p.Star = group[0].Text
			group = group[1:]
		}
		if len(group) == 0 {
			// A bare * separates keyword-only parameters.
			params = append(params, p)
			continue
		}
		last := group[len(group)-1]
		if last.Kind != domain.TokenName {
			return nil, errorAt(last, "expected a parameter name")
		}
		p.Name = last.Text
		p.TypeTokens = group[:len(group)-1]
		if len(p.TypeTokens) > 0 {
			p.Type = joinType(p.TypeTokens)
		}
		params = append(params, p)
	}
	return params, nil
}

// inlineStmt classifies the statement after the colon of a one-line def.
func inlineStmt(toks []domain.Token) domain.Stmt {
	if toks[0].Is("return") {
		return &domain.ReturnStmt{StmtBase: base(toks), Value: toks[1:]}
	}
	if s, ok := parseAssign(toks); ok {
		return s
	}
	return &domain.ExprStmt{StmtBase: base(toks)}
}

// parseAssign recognizes `name = value` and `qualifier.name = value`.
func parseAssign(head []domain.Token) (domain.Stmt, bool) {
	switch {
	case len(head) >= 3 && head[0].Kind == domain.TokenName && head[1].Is("="):
		return &domain.AssignStmt{StmtBase: base(head), Name: head[0].Text, Value: head[2:]}, true
	case len(head) >= 5 && head[0].Kind == domain.TokenName && head[1].Is(".") &&
		head[2].Kind == domain.TokenName && head[3].Is("="):
		return &domain.AssignStmt{
			StmtBase:  base(head),
			Qualifier: head[0].Text,
			Name:      head[2].Text,
			Value:     head[4:],
		}, true
	default:
		return nil, false
	}
}

// splitTopLevel splits toks at sep outside brackets.
func splitTopLevel(toks []domain.Token, sep string) [][]domain.Token {
	var out [][]domain.Token
	depth, start := 0, 0
	for i, t := range toks {
		switch {
		case t.Is("(") || t.Is("[") || t.Is("{"):
			depth++
		case t.Is(")") || t.Is("]") || t.Is("}"):
			depth--
		case depth == 0 && t.Is(sep):
			out = append(out, toks[start:i])
			start = i + 1
		}
	}
	return append(out, toks[start:])
}

func indexOf(toks []domain.Token, text string) int {
	for i, t := range toks {
		if t.Is(text) {
			return i
		}
	}
	return -1
}

// matching returns the index of the bracket closing toks[open].
func matching(toks []domain.Token, open int) int {
	depth := 0
	for i := open; i < len(toks); i++ {
		switch {
		case toks[i].Is("(") || toks[i].Is("[") || toks[i].Is("{"):
			depth++
		case toks[i].Is(")") || toks[i].Is("]") || toks[i].Is("}"):
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func tokenAt(toks []domain.Token, i int) domain.Token {
	if i < len(toks) {
		return toks[i]
	}
	if len(toks) == 0 {
		return domain.Token{}
	}
	return toks[len(toks)-1]
}

// joinType renders type words such as "unsigned long" or "double *".
func joinType(toks []domain.Token) string {
	parts := make([]string, len(toks))
	for i, t := range toks {
		parts[i] = t.Text
	}
	return strings.Join(parts, " ")
}

func unquote(lit string) (string, error) {
	lit = strings.TrimLeft(lit, "rbuRBU")
	if strings.HasPrefix(lit, "'") && len(lit) >= 2 {
		lit = `"` + strings.ReplaceAll(lit[1:len(lit)-1], `"`, `\"`) + `"`
	}
	return strconv.Unquote(lit)
}
