package pipeline_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/recon/internal/adapters/frontend"
	"go.trai.ch/recon/internal/adapters/fs"
	"go.trai.ch/recon/internal/adapters/resolver"
	"go.trai.ch/recon/internal/adapters/toolchain"
	"go.trai.ch/recon/internal/core/domain"
	"go.trai.ch/recon/internal/core/ports"
	"go.trai.ch/recon/internal/core/ports/mocks"
	"go.trai.ch/recon/internal/engine/closure"
	"go.trai.ch/recon/internal/engine/pipeline"
	"go.uber.org/mock/gomock"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
}

type fixture struct {
	engine   *closure.Engine
	pipeline *pipeline.Pipeline
}

func newFixture(native ports.NativeCompiler) *fixture {
	engine := closure.NewEngine(fs.NewFingerprinter(), resolver.New())
	return &fixture{
		engine: engine,
		pipeline: pipeline.New(
			frontend.NewScanner(),
			frontend.NewParser(),
			ports.GeneratorSet{
				domain.VariantUnit:   frontend.NewCGenerator(),
				domain.VariantLoaded: frontend.NewStarlarkGenerator(),
			},
			engine,
			toolchain.NewStarlark(),
			native,
		),
	}
}

func (f *fixture) run(t *testing.T, path string, variant domain.ArtifactVariant, cfg domain.Configuration) (domain.BuildOutput, error) {
	t.Helper()
	ctx := context.Background()
	set, err := f.engine.Closure(ctx, path)
	require.NoError(t, err)
	plan := domain.BuildPlan{Module: domain.Module{Path: path}, Variant: variant, Closure: set}
	return f.pipeline.Run(ctx, plan, cfg)
}

func TestPipeline_Unit(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"a.pxd": "cdef int x\n",
		"b.pxd": "cimport a\ncdef int n\n",
		"b.pyx": "n = 3\na.x = 2\n",
	})

	out, err := newFixture(nil).run(t, filepath.Join(root, "b.pyx"), domain.VariantUnit, domain.DefaultConfiguration())
	require.NoError(t, err)

	assert.Equal(t, ".c", out.UnitExt)
	assert.Empty(t, out.Native)
	assert.Nil(t, out.Loaded)

	unit := string(out.Unit)
	assert.Contains(t, unit, "static int b_n;")
	assert.Contains(t, unit, "extern int a_x;")
	assert.Contains(t, unit, "  b_n = 3;")
	assert.Contains(t, unit, "  a_x = 2;")
}

func TestPipeline_UnitFollowsForeignType(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"a.pxd": "cdef float x\n",
		"b.pxd": "cimport a\n",
		"b.pyx": "a.x = 2\n",
	})

	out, err := newFixture(nil).run(t, filepath.Join(root, "b.pyx"), domain.VariantUnit, domain.DefaultConfiguration())
	require.NoError(t, err)
	assert.Contains(t, string(out.Unit), "  a_x = 2.0;")
}

func TestPipeline_Loaded(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"a.pxd":    "cdef int x\n",
		"b.pyx":    "cimport a\ninclude \"frag.pxi\"\na.x = 2\nz = y + 1\ndef get():\n    return a.x\n",
		"frag.pxi": "y = 41\n",
	})

	out, err := newFixture(nil).run(t, filepath.Join(root, "b.pyx"), domain.VariantLoaded, domain.DefaultConfiguration())
	require.NoError(t, err)

	assert.Equal(t, ".star", out.UnitExt)
	assert.NotEmpty(t, out.Native, "the compiled program is the native byproduct")
	require.NotNil(t, out.Loaded)
	assert.Equal(t, "b", out.Loaded.Name)

	z, ok := out.Loaded.Lookup("z")
	require.True(t, ok)
	assert.Equal(t, int64(42), z)

	get, ok := out.Loaded.Lookup("get")
	require.True(t, ok)
	got, err := get.(domain.Callable).Call()
	require.NoError(t, err)
	assert.Equal(t, int64(2), got)
}

func TestPipeline_FromCImport(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"a.pxd": "cdef int x\n",
		"b.pyx": "from a cimport x\ny = x + 1\n",
	})

	out, err := newFixture(nil).run(t, filepath.Join(root, "b.pyx"), domain.VariantLoaded, domain.DefaultConfiguration())
	require.NoError(t, err)

	y, ok := out.Loaded.Lookup("y")
	require.True(t, ok)
	assert.Equal(t, int64(1), y)
}

func TestPipeline_Diagnostics(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  string
	}{
		{
			name:  "syntax",
			files: map[string]string{"b.pyx": "def (:\n"},
		},
		{
			name: "undeclared foreign attribute",
			files: map[string]string{
				"a.pxd": "cdef int x\n",
				"b.pyx": "cimport a\na.w = 1\n",
			},
			want: "cimported module a has no attribute w",
		},
		{
			name: "missing from-cimport name",
			files: map[string]string{
				"a.pxd": "cdef int x\n",
				"b.pyx": "from a cimport w\n",
			},
			want: "cimported module a has no attribute w",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeFiles(t, root, tt.files)

			_, err := newFixture(nil).run(t, filepath.Join(root, "b.pyx"), domain.VariantUnit, domain.DefaultConfiguration())
			require.Error(t, err)

			var diag *domain.Diagnostic
			require.ErrorAs(t, err, &diag)
			assert.Equal(t, filepath.Join(root, "b.pyx"), diag.Pos.File)
			if tt.want != "" {
				assert.Equal(t, tt.want, diag.Msg)
			}
		})
	}
}

func TestPipeline_NativeCommand(t *testing.T) {
	ctrl := gomock.NewController(t)
	native := mocks.NewMockNativeCompiler(ctrl)

	root := t.TempDir()
	writeFiles(t, root, map[string]string{"b.pyx": "y = 1\n"})

	cfg := domain.DefaultConfiguration()
	cfg.NativeCommand = []string{"cc", "{unit}", "-o", "{output}"}

	native.EXPECT().
		Compile(gomock.Any(), cfg.NativeCommand, gomock.Any(), gomock.Any(), io.Discard, io.Discard).
		DoAndReturn(func(_ context.Context, _ []string, unitPath, outputPath string, _, _ io.Writer) error {
			assert.Equal(t, "b.c", filepath.Base(unitPath))
			unit, err := os.ReadFile(unitPath)
			if err != nil {
				return err
			}
			return os.WriteFile(outputPath, append([]byte("native:"), unit[:2]...), 0o600)
		})

	out, err := newFixture(native).run(t, filepath.Join(root, "b.pyx"), domain.VariantUnit, cfg)
	require.NoError(t, err)
	assert.Equal(t, "native:/*", string(out.Native))
}

func TestPipeline_NativeCommandWithoutOutput(t *testing.T) {
	ctrl := gomock.NewController(t)
	native := mocks.NewMockNativeCompiler(ctrl)

	root := t.TempDir()
	writeFiles(t, root, map[string]string{"b.pyx": "y = 1\n"})

	cfg := domain.DefaultConfiguration()
	cfg.NativeCommand = []string{"true"}
	native.EXPECT().Compile(gomock.Any(), cfg.NativeCommand, gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	out, err := newFixture(native).run(t, filepath.Join(root, "b.pyx"), domain.VariantUnit, cfg)
	require.NoError(t, err)
	assert.Empty(t, out.Native)
}

func TestPipeline_CompanionOutsideClosure(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"b.pyx": "n = 1\n"})
	path := filepath.Join(root, "b.pyx")

	f := newFixture(nil)
	set, err := f.engine.Closure(context.Background(), path)
	require.NoError(t, err)

	// Created after the closure was memoized.
	writeFiles(t, root, map[string]string{"b.pxd": "cdef int n\n"})

	plan := domain.BuildPlan{Module: domain.Module{Path: path}, Variant: domain.VariantUnit, Closure: set}
	out, err := f.pipeline.Run(context.Background(), plan, domain.DefaultConfiguration())
	require.NoError(t, err)
	assert.NotContains(t, string(out.Unit), "static int b_n;")
}

func TestPipeline_UnitIncludes(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"m.pyx":         "include \"frag.pxi\"\nz = 2\n",
		"frag.pxi":      "include \"sub/inner.pxi\"\ny = 41\n",
		"sub/inner.pxi": "w = 7\n",
	})

	out, err := newFixture(nil).run(t, filepath.Join(root, "m.pyx"), domain.VariantUnit, domain.DefaultConfiguration())
	require.NoError(t, err)

	unit := string(out.Unit)
	assert.Contains(t, unit, `__Pyx_SetGlobal("w", 7);`)
	assert.Contains(t, unit, `__Pyx_SetGlobal("y", 41);`)
	assert.Contains(t, unit, `__Pyx_SetGlobal("z", 2);`)
}

func TestPipeline_LoadedUsesBuiltins(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"b.pyx": "x = len([1, 2])\n"})

	out, err := newFixture(nil).run(t, filepath.Join(root, "b.pyx"), domain.VariantLoaded, domain.DefaultConfiguration())
	require.NoError(t, err)

	x, ok := out.Loaded.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, int64(2), x)
}
