package domain_test

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/recon/internal/core/domain"
	"go.trai.ch/zerr"
)

func TestErrorKinds(t *testing.T) {
	cause := zerr.New("missing.pxi")

	t.Run("resolution", func(t *testing.T) {
		var err error = &domain.ResolutionError{Module: "/src/a.pyx", Reference: "missing.pxi", Cause: cause}
		wrapped := zerr.Wrap(err, "closure failed")

		require.ErrorIs(t, wrapped, domain.ErrResolution)
		require.ErrorIs(t, wrapped, cause)
		assert.NotErrorIs(t, wrapped, domain.ErrBuild)

		var re *domain.ResolutionError
		require.ErrorAs(t, wrapped, &re)
		assert.Equal(t, "/src/a.pyx", re.Module)
		assert.Equal(t, "cannot resolve missing.pxi from /src/a.pyx: missing.pxi", err.Error())
	})

	t.Run("build", func(t *testing.T) {
		var err error = &domain.BuildError{Module: "/src/b.pyx", Cause: cause}
		require.ErrorIs(t, err, domain.ErrBuild)

		var be *domain.BuildError
		require.ErrorAs(t, err, &be)
		assert.Equal(t, "/src/b.pyx", be.Module)
	})

	t.Run("cache io", func(t *testing.T) {
		var err error = &domain.CacheIOError{Path: "/lib", Op: "write", Cause: os.ErrPermission}
		require.ErrorIs(t, err, domain.ErrCacheIO)
		require.ErrorIs(t, err, os.ErrPermission)
		assert.Equal(t, "artifact cache write /lib: permission denied", err.Error())
	})

	t.Run("nil cause", func(t *testing.T) {
		err := &domain.BuildError{Module: "/src/b.pyx"}
		assert.True(t, errors.Is(err, domain.ErrBuild))
		assert.Equal(t, "build failed for /src/b.pyx", err.Error())
	})
}

func TestDependencySet(t *testing.T) {
	s := domain.NewDependencySet("/src/b.pyx")
	assert.True(t, s.Add("/src/a.pxd"))
	assert.False(t, s.Add("/src/a.pxd"))

	other := domain.NewDependencySet("/src/b.pxd", "/src/a.pxd")
	s.Union(other)

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []string{"/src/a.pxd", "/src/b.pxd", "/src/b.pyx"}, s.Paths())
	assert.True(t, s.Equal(domain.NewDependencySet("/src/b.pxd", "/src/b.pyx", "/src/a.pxd")))
	assert.False(t, s.Equal(other))

	var zero domain.DependencySet
	assert.True(t, zero.Add("/x"))
}

func TestCompanionPath(t *testing.T) {
	p, ok := domain.CompanionPath("/src/a.pyx")
	assert.True(t, ok)
	assert.Equal(t, "/src/a.pxd", p)

	p, ok = domain.CompanionPath("/src/a.py")
	assert.True(t, ok)
	assert.Equal(t, "/src/a.pxd", p)

	_, ok = domain.CompanionPath("/src/a.pxd")
	assert.False(t, ok)

	assert.Equal(t, domain.KindInclude, domain.KindOf("/src/frag.pxi"))
	assert.Equal(t, domain.KindUnknown, domain.KindOf("/src/readme.md"))
	assert.Equal(t, "a", domain.ModuleName("/src/a.pyx"))
}

func TestNewModule(t *testing.T) {
	_, err := domain.NewModule("notes.txt")
	require.ErrorIs(t, err, domain.ErrUnsupportedModule)

	m, err := domain.NewModule("pkg/a.pyx")
	require.NoError(t, err)
	assert.True(t, len(m.Path) > len("pkg/a.pyx"))
	assert.Equal(t, "a", m.Name())
}

func TestTokenStream(t *testing.T) {
	toks := []domain.Token{
		{Kind: domain.TokenName, Text: "cimport"},
		{Kind: domain.TokenName, Text: "a"},
		{Kind: domain.TokenNewline, Text: "\n"},
	}
	s := domain.NewTokenStream(toks)

	assert.True(t, s.Peek().Is("cimport"))
	assert.Equal(t, "a", s.PeekAt(1).Text)
	assert.Equal(t, domain.TokenEOF, s.PeekAt(10).Kind)

	assert.Equal(t, "cimport", s.Next().Text)
	assert.Equal(t, "a", s.Next().Text)
	assert.Equal(t, domain.TokenNewline, s.Next().Kind)
	assert.True(t, s.Done())
	assert.Equal(t, domain.TokenEOF, s.Next().Kind, "EOF repeats")

	s.Reset()
	assert.Equal(t, "cimport", s.Peek().Text)
}

func TestLoadedModule(t *testing.T) {
	var nilModule *domain.LoadedModule
	_, ok := nilModule.Lookup("x")
	assert.False(t, ok)

	m := &domain.LoadedModule{Symbols: map[string]any{"b": 2.0, "a": int64(1)}}
	assert.Equal(t, []string{"a", "b"}, m.Names())
	v, ok := m.Lookup("b")
	assert.True(t, ok)
	assert.InDelta(t, 2.0, v, 0)
}
