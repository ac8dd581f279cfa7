// Package frontend turns source files into syntax trees and generated units.
package frontend

import (
	"bytes"
	"strings"

	"go.trai.ch/recon/internal/core/domain"
	"go.trai.ch/recon/internal/core/ports"
)

var _ ports.Scanner = (*Scanner)(nil)

// Operators, longest first within each length.
var (
	ops3 = []string{"**=", "//=", ">>=", "<<=", "..."}
	ops2 = []string{
		"**", "//", "==", "!=", "<=", ">=", "<<", ">>", "->", ":=",
		"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "@=",
	}
	ops1 = "+-*/%&|^~<>()[]{},:.;@=!"
)

// tabWidth is the column multiple a tab advances indentation to.
const tabWidth = 8

// Scanner tokenizes source text. It is stateless and safe for concurrent use.
type Scanner struct{}

// NewScanner creates a new Scanner.
func NewScanner() *Scanner {
	return &Scanner{}
}

// Tokenize returns the tokens of src followed by EOF. Comments are dropped and
// NEWLINE is suppressed inside brackets. Failures are *domain.Diagnostic.
func (s *Scanner) Tokenize(path string, src []byte) ([]domain.Token, error) {
	lx := &lexer{
		path:    path,
		src:     src,
		line:    1,
		col:     1,
		indents: []int{0},
		bol:     true,
	}
	if err := lx.run(); err != nil {
		return nil, err
	}
	return lx.tokens, nil
}

// lexer is the state of one Tokenize call.
type lexer struct {
	path string
	src  []byte
	off  int
	line int
	col  int

	tokens  []domain.Token
	indents []int
	depth   int
	// bol is set at the beginning of a logical line.
	bol bool
}

func (lx *lexer) pos() domain.Position {
	return domain.Position{File: lx.path, Line: lx.line, Col: lx.col, Offset: lx.off}
}

func (lx *lexer) eof() bool {
	return lx.off >= len(lx.src)
}

func (lx *lexer) peek() byte {
	if lx.eof() {
		return 0
	}
	return lx.src[lx.off]
}

func (lx *lexer) peekAt(n int) byte {
	if lx.off+n >= len(lx.src) {
		return 0
	}
	return lx.src[lx.off+n]
}

func (lx *lexer) bump() byte {
	b := lx.src[lx.off]
	lx.off++
	if b == '\n' {
		lx.line++
		lx.col = 1
	} else {
		lx.col++
	}
	return b
}

func (lx *lexer) emit(kind domain.TokenKind, start domain.Position) {
	lx.tokens = append(lx.tokens, domain.Token{
		Kind:  kind,
		Text:  string(lx.src[start.Offset:lx.off]),
		Start: start,
		End:   lx.pos(),
	})
}

func (lx *lexer) errorf(pos domain.Position, msg string) error {
	return &domain.Diagnostic{Pos: pos, Msg: msg}
}

func (lx *lexer) run() error {
	for {
		if lx.bol && lx.depth == 0 {
			if err := lx.indentation(); err != nil {
				return err
			}
		}
		if lx.eof() {
			break
		}

		start := lx.pos()
		c := lx.peek()
		switch {
		case c == '#':
			for !lx.eof() && lx.peek() != '\n' {
				lx.bump()
			}
		case c == '\\' && (lx.peekAt(1) == '\n' || (lx.peekAt(1) == '\r' && lx.peekAt(2) == '\n')):
			for lx.bump() != '\n' {
			}
		case c == '\n':
			lx.bump()
			if lx.depth == 0 {
				lx.tokens = append(lx.tokens, domain.Token{
					Kind: domain.TokenNewline, Text: "\n", Start: start, End: lx.pos(),
				})
				lx.bol = true
			}
		case c == ' ' || c == '\t' || c == '\r' || c == '\f':
			lx.bump()
		case isIdentStart(c):
			if err := lx.scanIdent(start); err != nil {
				return err
			}
		case isDigit(c) || (c == '.' && isDigit(lx.peekAt(1))):
			lx.scanNumber(start)
		case c == '"' || c == '\'':
			if err := lx.scanString(start); err != nil {
				return err
			}
		default:
			if err := lx.scanOperator(start); err != nil {
				return err
			}
		}
	}
	return lx.finish()
}

// indentation measures the leading whitespace of a line and emits INDENT or
// DEDENT tokens. Blank and comment-only lines are skipped entirely.
func (lx *lexer) indentation() error {
	for {
		width := 0
	measure:
		for !lx.eof() {
			switch lx.peek() {
			case ' ':
				width++
			case '\t':
				width = (width/tabWidth + 1) * tabWidth
			case '\f', '\r':
			default:
				break measure
			}
			lx.bump()
		}
		if lx.eof() {
			return nil
		}
		if c := lx.peek(); c == '\n' || c == '#' {
			for !lx.eof() && lx.peek() != '\n' {
				lx.bump()
			}
			if !lx.eof() {
				lx.bump()
			}
			continue
		}

		lx.bol = false
		start := lx.pos()
		top := lx.indents[len(lx.indents)-1]
		switch {
		case width > top:
			lx.indents = append(lx.indents, width)
			lx.tokens = append(lx.tokens, domain.Token{Kind: domain.TokenIndent, Start: start, End: start})
		case width < top:
			for width < lx.indents[len(lx.indents)-1] {
				lx.indents = lx.indents[:len(lx.indents)-1]
				lx.tokens = append(lx.tokens, domain.Token{Kind: domain.TokenDedent, Start: start, End: start})
			}
			if width != lx.indents[len(lx.indents)-1] {
				return lx.errorf(start, "unindent does not match any outer indentation level")
			}
		}
		return nil
	}
}

func (lx *lexer) finish() error {
	end := lx.pos()
	if lx.depth > 0 {
		return lx.errorf(end, "unexpected end of file inside brackets")
	}
	if n := len(lx.tokens); n > 0 && lx.tokens[n-1].Kind != domain.TokenNewline &&
		lx.tokens[n-1].Kind != domain.TokenDedent {
		lx.tokens = append(lx.tokens, domain.Token{Kind: domain.TokenNewline, Start: end, End: end})
	}
	for len(lx.indents) > 1 {
		lx.indents = lx.indents[:len(lx.indents)-1]
		lx.tokens = append(lx.tokens, domain.Token{Kind: domain.TokenDedent, Start: end, End: end})
	}
	lx.tokens = append(lx.tokens, domain.Token{Kind: domain.TokenEOF, Start: end, End: end})
	return nil
}

func (lx *lexer) scanIdent(start domain.Position) error {
	for !lx.eof() && isIdentContinue(lx.peek()) {
		lx.bump()
	}
	word := string(lx.src[start.Offset:lx.off])
	if c := lx.peek(); (c == '"' || c == '\'') && isStringPrefix(word) {
		return lx.scanString(start)
	}
	lx.emit(domain.TokenName, start)
	return nil
}

func (lx *lexer) scanNumber(start domain.Position) {
	kind := domain.TokenInt
	if lx.peek() == '0' && (lx.peekAt(1) == 'x' || lx.peekAt(1) == 'X' ||
		lx.peekAt(1) == 'o' || lx.peekAt(1) == 'O' || lx.peekAt(1) == 'b' || lx.peekAt(1) == 'B') {
		lx.bump()
		lx.bump()
		for !lx.eof() && (isHexDigit(lx.peek()) || lx.peek() == '_') {
			lx.bump()
		}
		lx.emit(kind, start)
		return
	}

	lx.digits()
	if lx.peek() == '.' && lx.peekAt(1) != '.' {
		kind = domain.TokenFloat
		lx.bump()
		lx.digits()
	}
	if c := lx.peek(); c == 'e' || c == 'E' {
		next := lx.peekAt(1)
		if isDigit(next) || ((next == '+' || next == '-') && isDigit(lx.peekAt(2))) {
			kind = domain.TokenFloat
			lx.bump()
			if next == '+' || next == '-' {
				lx.bump()
			}
			lx.digits()
		}
	}
	lx.emit(kind, start)
}

func (lx *lexer) digits() {
	for !lx.eof() && (isDigit(lx.peek()) || lx.peek() == '_') {
		lx.bump()
	}
}

// scanString consumes a single- or triple-quoted literal whose prefix, if
// any, has already been consumed.
func (lx *lexer) scanString(start domain.Position) error {
	quote := lx.bump()
	triple := lx.peek() == quote && lx.peekAt(1) == quote
	if triple {
		lx.bump()
		lx.bump()
	}

	for {
		if lx.eof() {
			return lx.errorf(start, "unterminated string literal")
		}
		c := lx.bump()
		switch {
		case c == '\\':
			if !lx.eof() {
				lx.bump()
			}
		case c == '\n' && !triple:
			return lx.errorf(start, "unterminated string literal")
		case c == quote && !triple:
			lx.emit(domain.TokenString, start)
			return nil
		case c == quote && lx.peek() == quote && lx.peekAt(1) == quote:
			lx.bump()
			lx.bump()
			lx.emit(domain.TokenString, start)
			return nil
		}
	}
}

func (lx *lexer) scanOperator(start domain.Position) error {
	rest := lx.src[lx.off:]
	for _, set := range [][]string{ops3, ops2} {
		for _, op := range set {
			if bytes.HasPrefix(rest, []byte(op)) {
				for range len(op) {
					lx.bump()
				}
				lx.emit(domain.TokenOp, start)
				return nil
			}
		}
	}

	c := lx.peek()
	if strings.IndexByte(ops1, c) < 0 {
		return lx.errorf(start, "unexpected character "+quoteByte(c))
	}
	lx.bump()
	switch c {
	case '(', '[', '{':
		lx.depth++
	case ')', ']', '}':
		if lx.depth == 0 {
			return lx.errorf(start, "unmatched "+quoteByte(c))
		}
		lx.depth--
	}
	lx.emit(domain.TokenOp, start)
	return nil
}

func quoteByte(c byte) string {
	return "'" + string(rune(c)) + "'"
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentContinue(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isStringPrefix(word string) bool {
	switch strings.ToLower(word) {
	case "r", "b", "u", "f", "br", "rb", "fr", "rf":
		return true
	default:
		return false
	}
}
