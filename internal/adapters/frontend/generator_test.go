package frontend_test

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/recon/internal/adapters/frontend"
	"go.trai.ch/recon/internal/core/domain"
)

const unitSource = `cimport a
cdef int n = 3
a.x = 2
def f(int p, int q): return p / q
`

const loadedSource = `cimport a
cdef int n = 3
a.x = 2
def f(int p, int q): return p / q
def g(x):
    if x > n:
        return x * x
    return n
`

func scopeWithForeign(ctype string) *domain.Scope {
	scope := domain.NewScope("b")
	scope.Own["n"] = domain.Declaration{Module: "b", Name: "n", Type: "int"}
	scope.Imported["a"] = domain.ImportedModule{
		Module: "a",
		Decls:  map[string]domain.Declaration{"x": {Module: "a", Name: "x", Type: ctype}},
	}
	return scope
}

func config(t *testing.T, revision domain.LanguageRevision, directives map[string]any) domain.Configuration {
	t.Helper()
	cfg := domain.DefaultConfiguration()
	cfg.Revision = revision
	d, err := domain.NewDirectives(directives)
	require.NoError(t, err)
	cfg.Directives = d
	return cfg
}

func TestCGenerator_Golden(t *testing.T) {
	tree := parse(t, "/src/b.pyx", unitSource)
	out, err := frontend.NewCGenerator().Generate(tree, scopeWithForeign("int"), config(t, domain.RevisionCurrent, nil))
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "unit_current", out)
}

func TestCGenerator_Division(t *testing.T) {
	tests := []struct {
		name       string
		revision   domain.LanguageRevision
		directives map[string]any
		want       string
	}{
		{name: "current", revision: domain.RevisionCurrent, want: "return ((double)(p) / (q));"},
		{name: "legacy", revision: domain.RevisionLegacy, want: "return __Pyx_div_long(p, q);"},
		{
			name:       "legacy cdivision",
			revision:   domain.RevisionLegacy,
			directives: map[string]any{"cdivision": true},
			want:       "return p / q;",
		},
	}

	tree := parse(t, "/src/b.pyx", unitSource)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := frontend.NewCGenerator().Generate(tree, scopeWithForeign("int"), config(t, tt.revision, tt.directives))
			require.NoError(t, err)
			assert.Contains(t, string(out), tt.want)
		})
	}
}

func TestCGenerator_ForeignTypeDrivesLiteral(t *testing.T) {
	tree := parse(t, "/src/b.pyx", unitSource)
	cfg := config(t, domain.RevisionCurrent, nil)

	asInt, err := frontend.NewCGenerator().Generate(tree, scopeWithForeign("int"), cfg)
	require.NoError(t, err)
	assert.Contains(t, string(asInt), "  a_x = 2;\n")

	asFloat, err := frontend.NewCGenerator().Generate(tree, scopeWithForeign("float"), cfg)
	require.NoError(t, err)
	assert.Contains(t, string(asFloat), "  a_x = 2.0;\n")
	assert.Contains(t, string(asFloat), "extern float a_x;")
}

func TestCGenerator_UndeclaredForeignAttribute(t *testing.T) {
	tree := parse(t, "/src/b.pyx", "cimport a\na.y = 1\n")
	_, err := frontend.NewCGenerator().Generate(tree, scopeWithForeign("int"), config(t, domain.RevisionCurrent, nil))
	require.Error(t, err)

	var diag *domain.Diagnostic
	require.ErrorAs(t, err, &diag)
	assert.Equal(t, "b.pyx:2:3: cimported module a has no attribute y", diag.Error())
}

func TestCGenerator_FloatLiteralIntoInt(t *testing.T) {
	tree := parse(t, "/src/b.pyx", "cdef int n = 2.5\n")
	_, err := frontend.NewCGenerator().Generate(tree, scopeWithForeign("int"), config(t, domain.RevisionCurrent, nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot assign float literal 2.5 to int")
}

func TestStarlarkGenerator_Golden(t *testing.T) {
	tree := parse(t, "/src/b.pyx", loadedSource)
	out, err := frontend.NewStarlarkGenerator().Generate(tree, scopeWithForeign("double"), config(t, domain.RevisionLegacy, nil))
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "loaded_legacy", out)
}

func TestStarlarkGenerator_CurrentDivision(t *testing.T) {
	tree := parse(t, "/src/b.pyx", loadedSource)
	out, err := frontend.NewStarlarkGenerator().Generate(tree, scopeWithForeign("double"), config(t, domain.RevisionCurrent, nil))
	require.NoError(t, err)
	assert.Contains(t, string(out), "def f(p, q): return p / q\n")
}

func TestGenerator_Extensions(t *testing.T) {
	assert.Equal(t, ".c", frontend.NewCGenerator().Extension())
	assert.Equal(t, ".star", frontend.NewStarlarkGenerator().Extension())
}
