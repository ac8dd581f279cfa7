package domain

import "strings"

// Diagnostic is a front-end error tied to a source position.
type Diagnostic struct {
	Pos Position
	Msg string
}

func (d *Diagnostic) Error() string {
	return d.Pos.String() + ": " + d.Msg
}

// SyntaxTree is the parsed form of one source file.
type SyntaxTree struct {
	File  string
	Stmts []Stmt
	// Sources holds the lines of File and of every fragment spliced into
	// Stmts, keyed by path.
	Sources map[string][]string
}

// AddSource records the text of path for Line lookups.
func (t *SyntaxTree) AddSource(path string, src []byte) {
	if t.Sources == nil {
		t.Sources = make(map[string][]string)
	}
	t.Sources[path] = strings.Split(string(src), "\n")
}

// Line returns the source line at pos, or "" when it is unknown.
func (t *SyntaxTree) Line(pos Position) string {
	lines := t.Sources[pos.File]
	if pos.Line < 1 || pos.Line > len(lines) {
		return ""
	}
	return strings.TrimRight(lines[pos.Line-1], "\r")
}

// Stmt is one statement of a SyntaxTree.
type Stmt interface {
	// Pos returns the position of the first token.
	Pos() Position
	// Span returns every token of the statement header, without any nested body.
	Span() []Token
}

// StmtBase carries the header tokens shared by every statement type.
type StmtBase struct {
	Tokens []Token
}

func (s StmtBase) Pos() Position {
	if len(s.Tokens) == 0 {
		return Position{}
	}
	return s.Tokens[0].Start
}

func (s StmtBase) Span() []Token { return s.Tokens }

// ImportName is one target of a cimport statement.
type ImportName struct {
	Module string
	Alias  string
}

// Bound returns the name the import is visible under.
func (n ImportName) Bound() string {
	if n.Alias != "" {
		return n.Alias
	}
	head, _, _ := strings.Cut(n.Module, ".")
	return head
}

// CImportStmt is `cimport a, b.c as d`.
type CImportStmt struct {
	StmtBase
	Names []ImportName
}

// FromCImportStmt is `from a.b cimport x, y`.
type FromCImportStmt struct {
	StmtBase
	Module string
	Names  []string
}

// IncludeStmt is `include "frag.pxi"`.
type IncludeStmt struct {
	StmtBase
	Path string
}

// CDefStmt declares a typed name, optionally with an initial value.
type CDefStmt struct {
	StmtBase
	// Type is "object" when the declaration has no C type.
	Type string
	Name string
	// TypeTokens covers the type words, empty for untyped declarations.
	TypeTokens []Token
	NameToken  Token
	Value      []Token
}

// AssignStmt is `name = value` or `qualifier.name = value`.
type AssignStmt struct {
	StmtBase
	Qualifier string
	Name      string
	Value     []Token
}

// Param is one parameter of a def.
type Param struct {
	// Type is empty for untyped parameters.
	Type       string
	Name       string
	TypeTokens []Token
	// Star is "*" or "**" for variadic parameters.
	Star    string
	Default []Token
}

// FuncDefStmt is a def with its body.
type FuncDefStmt struct {
	StmtBase
	Name   string
	Params []Param
	// Inline holds the statement after the colon of a one-line def.
	Inline []Token
	Body   []Stmt
}

// BlockStmt is any other compound statement such as if, for or while.
type BlockStmt struct {
	StmtBase
	Body []Stmt
}

// ReturnStmt is `return value`.
type ReturnStmt struct {
	StmtBase
	Value []Token
}

// ExprStmt is any statement the front-end passes through unchanged.
type ExprStmt struct {
	StmtBase
}

// Declaration is one cdef visible to a module.
type Declaration struct {
	// Module is the name of the module that owns the storage.
	Module string
	Name   string
	Type   string
	Pos    Position
}

// ImportedModule is the declaration table of one cimported module.
type ImportedModule struct {
	Module string
	Decls  map[string]Declaration
}

// Scope is everything the generator needs to know beyond the tree itself.
type Scope struct {
	Module string
	// Own holds declarations from the module and its companion file.
	Own map[string]Declaration
	// Imported maps each bound cimport name to the module behind it.
	Imported map[string]ImportedModule
	// Names holds declarations pulled in by from-cimport.
	Names map[string]Declaration
}

// NewScope returns an empty scope for module.
func NewScope(module string) *Scope {
	return &Scope{
		Module:   module,
		Own:      make(map[string]Declaration),
		Imported: make(map[string]ImportedModule),
		Names:    make(map[string]Declaration),
	}
}

// Resolve finds the declaration behind an unqualified name.
func (s *Scope) Resolve(name string) (Declaration, bool) {
	if d, ok := s.Own[name]; ok {
		return d, true
	}
	d, ok := s.Names[name]
	return d, ok
}

// C type families.
var (
	floatTypes = map[string]bool{"float": true, "double": true, "long double": true}
	intTypes   = map[string]bool{
		"int": true, "long": true, "short": true, "char": true, "long long": true,
		"unsigned": true, "unsigned int": true, "unsigned long": true, "size_t": true,
		"Py_ssize_t": true, "bint": true,
	}
)

// IsFloatType reports whether a C type holds floating-point values.
func IsFloatType(t string) bool { return floatTypes[t] }

// IsIntType reports whether a C type holds integer values.
func IsIntType(t string) bool { return intTypes[t] }
