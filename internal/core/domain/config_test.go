package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/recon/internal/core/domain"
	"go.trai.ch/zerr"
)

func TestParseRevision(t *testing.T) {
	tests := []struct {
		in      string
		want    domain.LanguageRevision
		wantErr bool
	}{
		{in: "legacy", want: domain.RevisionLegacy},
		{in: "2", want: domain.RevisionLegacy},
		{in: "Current", want: domain.RevisionCurrent},
		{in: "3str", want: domain.RevisionCurrent},
		{in: "4", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := domain.ParseRevision(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrUnknownRevision)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewDirectives(t *testing.T) {
	t.Run("known directives", func(t *testing.T) {
		d, err := domain.NewDirectives(map[string]any{
			"boundscheck":   false,
			"cdivision":     "True",
			"c_string_type": "unicode",
		})
		require.NoError(t, err)
		assert.False(t, d.Bool("boundscheck"))
		assert.True(t, d.Bool("cdivision"))
		assert.Equal(t, "unicode", d.Value("c_string_type"))
		assert.True(t, d.Bool("wraparound"), "unset directives keep their default")
	})

	t.Run("unknown directive", func(t *testing.T) {
		_, err := domain.NewDirectives(map[string]any{"fast_math": true})
		require.ErrorIs(t, err, domain.ErrUnknownDirective)

		var zErr *zerr.Error
		require.ErrorAs(t, err, &zErr)
		assert.Equal(t, "fast_math", zErr.Metadata()["directive"])
	})

	t.Run("wrong value kind", func(t *testing.T) {
		_, err := domain.NewDirectives(map[string]any{"boundscheck": 3})
		require.ErrorIs(t, err, domain.ErrInvalidDirectiveValue)
	})

	t.Run("enum outside choices", func(t *testing.T) {
		_, err := domain.NewDirectives(map[string]any{"c_string_encoding": "latin1"})
		require.ErrorIs(t, err, domain.ErrInvalidDirectiveValue)
	})
}

func TestDirectives_Overrides(t *testing.T) {
	d, err := domain.NewDirectives(map[string]any{"boundscheck": true, "nonecheck": true})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"nonecheck": "true"}, d.Overrides())
}

func TestConfiguration_Fingerprint(t *testing.T) {
	base := domain.DefaultConfiguration()

	legacy := base
	legacy.Revision = domain.RevisionLegacy
	assert.NotEqual(t, base.Fingerprint(), legacy.Fingerprint(), "revision must change the fingerprint")

	withDirective := base
	withDirective.Directives, _ = base.Directives.With("cdivision", true)
	assert.NotEqual(t, base.Fingerprint(), withDirective.Fingerprint(), "directives must change the fingerprint")

	explicitDefault := base
	explicitDefault.Directives, _ = base.Directives.With("boundscheck", true)
	assert.Equal(t, base.Fingerprint(), explicitDefault.Fingerprint(), "an explicit default equals an omitted one")

	outputOnly := base
	outputOnly.LibDir = "/elsewhere"
	outputOnly.Force = true
	outputOnly.Quiet = true
	outputOnly.SearchPath = []string{"/include"}
	assert.Equal(t, base.Fingerprint(), outputOnly.Fingerprint())

	unset := base
	unset.Revision = domain.RevisionUnset
	assert.Equal(t, base.Fingerprint(), unset.Fingerprint(), "unset resolves to current")
}

func TestConfiguration_ResolveModule(t *testing.T) {
	cfg := domain.DefaultConfiguration()
	cfg.Revision = domain.RevisionLegacy

	m := cfg.ResolveModule(domain.Module{Path: "/src/a.pyx"})
	assert.Equal(t, domain.RevisionLegacy, m.Revision)

	pinned := cfg.ResolveModule(domain.Module{Path: "/src/a.pyx", Revision: domain.RevisionCurrent})
	assert.Equal(t, domain.RevisionCurrent, pinned.Revision)
}
