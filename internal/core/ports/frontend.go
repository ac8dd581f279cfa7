package ports

import (
	"go.trai.ch/recon/internal/core/domain"
	"go.trai.ch/zerr"
)

// Scanner turns source text into tokens. It keeps no state between files.
//
//go:generate go run go.uber.org/mock/mockgen -source=frontend.go -destination=mocks/mock_frontend.go -package=mocks
type Scanner interface {
	Tokenize(path string, src []byte) ([]domain.Token, error)
}

// Parser builds a statement-level syntax tree.
// Failures are *domain.Diagnostic values carrying a source position.
type Parser interface {
	Parse(tokens *domain.TokenStream) (*domain.SyntaxTree, error)
}

// Generator renders a syntax tree as the output of one artifact variant.
type Generator interface {
	// Extension is the file extension of generated units, dot included.
	Extension() string
	Generate(tree *domain.SyntaxTree, scope *domain.Scope, cfg domain.Configuration) ([]byte, error)
}

// GeneratorSet holds one Generator per artifact variant.
type GeneratorSet map[domain.ArtifactVariant]Generator

// For returns the generator registered for v.
func (s GeneratorSet) For(v domain.ArtifactVariant) (Generator, error) {
	g, ok := s[v]
	if !ok {
		return nil, zerr.With(zerr.New("no generator for variant"), "variant", v.String())
	}
	return g, nil
}
