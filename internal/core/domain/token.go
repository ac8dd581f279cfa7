package domain

import (
	"fmt"
	"path/filepath"
)

// TokenKind classifies a scanned token.
type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenName
	TokenInt
	TokenFloat
	TokenString
	TokenOp
	TokenNewline
	TokenIndent
	TokenDedent
)

func (k TokenKind) String() string {
	switch k {
	case TokenEOF:
		return "EOF"
	case TokenName:
		return "NAME"
	case TokenInt:
		return "INT"
	case TokenFloat:
		return "FLOAT"
	case TokenString:
		return "STRING"
	case TokenOp:
		return "OP"
	case TokenNewline:
		return "NEWLINE"
	case TokenIndent:
		return "INDENT"
	case TokenDedent:
		return "DEDENT"
	default:
		return "UNKNOWN"
	}
}

// Position is a location in a source file. Line and Col are 1-based.
type Position struct {
	File   string
	Line   int
	Col    int
	Offset int
}

func (p Position) String() string {
	return fmt.Sprintf("%s:%d:%d", filepath.Base(p.File), p.Line, p.Col)
}

// Token is one scanner symbol with the text it covers.
type Token struct {
	Kind  TokenKind
	Text  string
	Start Position
	End   Position
}

// Is reports whether t is an operator or name with the given text.
func (t Token) Is(text string) bool {
	return (t.Kind == TokenOp || t.Kind == TokenName) && t.Text == text
}

// TokenStream hands out scanned tokens one at a time and remembers where
// the consumer is. A stream belongs to one file and one parse.
type TokenStream struct {
	tokens []Token
	pos    int
}

// NewTokenStream wraps tokens. A trailing EOF token is added when missing.
func NewTokenStream(tokens []Token) *TokenStream {
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != TokenEOF {
		var end Position
		if len(tokens) > 0 {
			end = tokens[len(tokens)-1].End
		}
		tokens = append(tokens, Token{Kind: TokenEOF, Start: end, End: end})
	}
	return &TokenStream{tokens: tokens}
}

// Peek returns the next token without consuming it.
func (s *TokenStream) Peek() Token {
	return s.tokens[s.pos]
}

// PeekAt returns the token n positions ahead, or EOF past the end.
func (s *TokenStream) PeekAt(n int) Token {
	if s.pos+n >= len(s.tokens) {
		return s.tokens[len(s.tokens)-1]
	}
	return s.tokens[s.pos+n]
}

// Next consumes and returns the next token. At EOF it keeps returning EOF.
func (s *TokenStream) Next() Token {
	t := s.tokens[s.pos]
	if s.pos < len(s.tokens)-1 {
		s.pos++
	}
	return t
}

// Done reports whether only EOF is left.
func (s *TokenStream) Done() bool {
	return s.tokens[s.pos].Kind == TokenEOF
}

// Reset rewinds the stream to its first token.
func (s *TokenStream) Reset() {
	s.pos = 0
}
