package planner_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/recon/internal/adapters/cas"
	"go.trai.ch/recon/internal/adapters/frontend"
	"go.trai.ch/recon/internal/adapters/fs"
	"go.trai.ch/recon/internal/adapters/resolver"
	"go.trai.ch/recon/internal/adapters/telemetry/progrock"
	"go.trai.ch/recon/internal/adapters/toolchain"
	"go.trai.ch/recon/internal/core/domain"
	"go.trai.ch/recon/internal/core/ports"
	"go.trai.ch/recon/internal/core/ports/mocks"
	"go.trai.ch/recon/internal/engine/artifact"
	"go.trai.ch/recon/internal/engine/closure"
	"go.trai.ch/recon/internal/engine/pipeline"
	"go.trai.ch/recon/internal/engine/planner"
	"go.uber.org/mock/gomock"
)

// countingPipeline counts pipeline runs per module.
type countingPipeline struct {
	next ports.Pipeline

	mu   sync.Mutex
	runs map[string]int
}

func (c *countingPipeline) Run(ctx context.Context, plan domain.BuildPlan, cfg domain.Configuration) (domain.BuildOutput, error) {
	c.mu.Lock()
	c.runs[plan.Module.Path]++
	c.mu.Unlock()
	return c.next.Run(ctx, plan, cfg)
}

func (c *countingPipeline) count(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runs[path]
}

type env struct {
	root     string
	cfg      domain.Configuration
	engine   *closure.Engine
	cache    *artifact.Cache
	pipeline *countingPipeline
	planner  *planner.Planner
}

func newEnv(t *testing.T, files map[string]string) *env {
	t.Helper()
	root := t.TempDir()
	writeFiles(t, root, files)

	cfg := domain.DefaultConfiguration()
	cfg.LibDir = filepath.Join(root, ".recon", "cache")

	e := &env{root: root, cfg: cfg}
	e.restart(t)
	return e
}

// restart replaces every in-process cache, as a new process would.
func (e *env) restart(t *testing.T) {
	t.Helper()
	ctrl := gomock.NewController(t)

	store, err := cas.NewStore(mocks.NewMockLogger(ctrl))
	require.NoError(t, err)

	e.engine = closure.NewEngine(fs.NewFingerprinter(), resolver.New())
	e.cache = artifact.NewCache()
	tc := toolchain.NewStarlark()
	e.pipeline = &countingPipeline{
		next: pipeline.New(
			frontend.NewScanner(),
			frontend.NewParser(),
			ports.GeneratorSet{
				domain.VariantUnit:   frontend.NewCGenerator(),
				domain.VariantLoaded: frontend.NewStarlarkGenerator(),
			},
			e.engine,
			tc,
			toolchain.NewShell(),
		),
		runs: make(map[string]int),
	}
	e.planner = planner.New(e.engine, e.cache, store, e.pipeline, tc, progrock.New())
}

func (e *env) module(name string) domain.Module {
	return domain.Module{Path: filepath.Join(e.root, name)}
}

func (e *env) path(name string) string {
	return filepath.Join(e.root, name)
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
}

func readUnit(t *testing.T, ref domain.ArtifactRef) string {
	t.Helper()
	data, err := os.ReadFile(ref.UnitPath)
	require.NoError(t, err)
	return string(data)
}

func TestPlanner_Idempotent(t *testing.T) {
	e := newEnv(t, map[string]string{
		"a.pxd": "cdef int x\n",
		"b.pxd": "cimport a\n",
		"b.pyx": "a.x = 2\n",
	})
	ctx := context.Background()

	first, err := e.planner.PlanAndBuild(ctx, e.module("b.pyx"), e.cfg)
	require.NoError(t, err)
	second, err := e.planner.PlanAndBuild(ctx, e.module("b.pyx"), e.cfg)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, e.pipeline.count(e.path("b.pyx")))
	assert.Equal(t, 1, e.cache.Len())
	assert.False(t, first.Reused)
	assert.Contains(t, readUnit(t, first), "  a_x = 2;")
}

func TestPlanner_ReusesPersistedArtifact(t *testing.T) {
	e := newEnv(t, map[string]string{"n.pyx": "y = 1\n"})
	ctx := context.Background()

	built, err := e.planner.PlanAndBuild(ctx, e.module("n.pyx"), e.cfg)
	require.NoError(t, err)

	e.restart(t)
	reused, err := e.planner.PlanAndBuild(ctx, e.module("n.pyx"), e.cfg)
	require.NoError(t, err)

	assert.True(t, reused.Reused)
	assert.Equal(t, built.Key, reused.Key)
	assert.Equal(t, built.UnitPath, reused.UnitPath)
	assert.Equal(t, 0, e.pipeline.count(e.path("n.pyx")))
}

func TestPlanner_InvalidationCorrectness(t *testing.T) {
	e := newEnv(t, map[string]string{
		"a.pxd": "cdef int x\n",
		"b.pxd": "cimport a\n",
		"b.pyx": "a.x = 2\n",
		"n.pyx": "y = 1\n",
	})
	ctx := context.Background()
	wantClosure := []string{e.path("a.pxd"), e.path("b.pxd"), e.path("b.pyx")}

	before, err := e.planner.PlanAndBuild(ctx, e.module("b.pyx"), e.cfg)
	require.NoError(t, err)
	sibling, err := e.planner.PlanAndBuild(ctx, e.module("n.pyx"), e.cfg)
	require.NoError(t, err)
	assert.Contains(t, readUnit(t, before), "  a_x = 2;")

	set, err := e.engine.Closure(ctx, e.path("b.pyx"))
	require.NoError(t, err)
	assert.Equal(t, wantClosure, set.Paths())

	writeFiles(t, e.root, map[string]string{"a.pxd": "cdef float x\n"})

	stale, err := e.planner.PlanAndBuild(ctx, e.module("b.pyx"), e.cfg)
	require.NoError(t, err)
	assert.Equal(t, before, stale, "memoized fingerprints hide the edit until Invalidate")

	e.planner.Invalidate()

	after, err := e.planner.PlanAndBuild(ctx, e.module("b.pyx"), e.cfg)
	require.NoError(t, err)
	assert.NotEqual(t, before.Key, after.Key)
	assert.Contains(t, readUnit(t, after), "  a_x = 2.0;")

	siblingAfter, err := e.planner.PlanAndBuild(ctx, e.module("n.pyx"), e.cfg)
	require.NoError(t, err)
	assert.Equal(t, sibling, siblingAfter)
	assert.Equal(t, 1, e.pipeline.count(e.path("n.pyx")))

	set, err = e.engine.Closure(ctx, e.path("b.pyx"))
	require.NoError(t, err)
	assert.Equal(t, wantClosure, set.Paths())
}

func TestPlanner_ConfigurationSensitivity(t *testing.T) {
	e := newEnv(t, map[string]string{"m.pyx": "def f(int a, int b): return a / b\n"})
	ctx := context.Background()

	legacy := e.cfg
	legacy.Revision = domain.RevisionLegacy
	current := e.cfg
	current.Revision = domain.RevisionCurrent

	legacyPlan, err := e.planner.Plan(ctx, e.module("m.pyx"), legacy, domain.VariantLoaded)
	require.NoError(t, err)
	currentPlan, err := e.planner.Plan(ctx, e.module("m.pyx"), current, domain.VariantLoaded)
	require.NoError(t, err)
	assert.NotEqual(t, legacyPlan.Key, currentPlan.Key)

	call := func(cfg domain.Configuration) any {
		t.Helper()
		ref, err := e.planner.PlanAndLoad(ctx, e.module("m.pyx"), cfg)
		require.NoError(t, err)
		fn, ok := ref.Loaded.Lookup("f")
		require.True(t, ok)
		got, err := fn.(domain.Callable).Call(5, 2)
		require.NoError(t, err)
		return got
	}

	assert.Equal(t, int64(2), call(legacy))
	assert.InDelta(t, 2.5, call(current), 1e-9)
	assert.Equal(t, 2, e.cache.Len())
}

func TestPlanner_ModuleRevisionWins(t *testing.T) {
	e := newEnv(t, map[string]string{"m.pyx": "x = 1\n"})
	ctx := context.Background()

	tagged := e.module("m.pyx")
	tagged.Revision = domain.RevisionLegacy

	plan, err := e.planner.Plan(ctx, tagged, e.cfg, domain.VariantUnit)
	require.NoError(t, err)
	assert.Equal(t, domain.RevisionLegacy, plan.Module.Revision)

	untagged, err := e.planner.Plan(ctx, e.module("m.pyx"), e.cfg, domain.VariantUnit)
	require.NoError(t, err)
	assert.Equal(t, domain.RevisionCurrent, untagged.Module.Revision)
	assert.NotEqual(t, plan.Key, untagged.Key)
}

func TestPlanner_VariantsDoNotShareEntries(t *testing.T) {
	e := newEnv(t, map[string]string{"m.pyx": "x = 1\n"})
	ctx := context.Background()

	unit, err := e.planner.PlanAndBuild(ctx, e.module("m.pyx"), e.cfg)
	require.NoError(t, err)
	loaded, err := e.planner.PlanAndLoad(ctx, e.module("m.pyx"), e.cfg)
	require.NoError(t, err)

	assert.NotEqual(t, unit.Key, loaded.Key)
	assert.Equal(t, ".c", filepath.Ext(unit.UnitPath))
	assert.Equal(t, ".star", filepath.Ext(loaded.UnitPath))
	assert.NotEmpty(t, loaded.NativePath)
}

func TestPlanner_LoadFromPersistedProgram(t *testing.T) {
	e := newEnv(t, map[string]string{"m.pyx": "x = 40 + 2\n"})
	ctx := context.Background()

	_, err := e.planner.PlanAndLoad(ctx, e.module("m.pyx"), e.cfg)
	require.NoError(t, err)

	e.restart(t)
	ref, err := e.planner.PlanAndLoad(ctx, e.module("m.pyx"), e.cfg)
	require.NoError(t, err)
	assert.True(t, ref.Reused)
	assert.Equal(t, 0, e.pipeline.count(e.path("m.pyx")))

	x, ok := ref.Loaded.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, int64(42), x)
}

func TestPlanner_Concurrent(t *testing.T) {
	e := newEnv(t, map[string]string{
		"a.pxd": "cdef int x\n",
		"b.pxd": "cimport a\n",
		"b.pyx": "a.x = 2\n",
	})
	ctx := context.Background()

	const callers = 16
	refs := make([]domain.ArtifactRef, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			refs[i], errs[i] = e.planner.PlanAndBuild(ctx, e.module("b.pyx"), e.cfg)
		}()
	}
	wg.Wait()

	for i := range callers {
		require.NoError(t, errs[i])
		assert.Equal(t, refs[0], refs[i])
	}
	assert.Equal(t, 1, e.pipeline.count(e.path("b.pyx")))
}

func TestPlanner_CompanionCreatedLater(t *testing.T) {
	e := newEnv(t, map[string]string{"b.pyx": "n = 1\n"})
	ctx := context.Background()

	first, err := e.planner.PlanAndBuild(ctx, e.module("b.pyx"), e.cfg)
	require.NoError(t, err)

	writeFiles(t, e.root, map[string]string{"b.pxd": "cdef int n\n"})

	again, err := e.planner.PlanAndBuild(ctx, e.module("b.pyx"), e.cfg)
	require.NoError(t, err)
	assert.Equal(t, first, again)
	set, err := e.engine.Closure(ctx, e.path("b.pyx"))
	require.NoError(t, err)
	assert.False(t, set.Contains(e.path("b.pxd")))

	e.planner.Invalidate()

	after, err := e.planner.PlanAndBuild(ctx, e.module("b.pyx"), e.cfg)
	require.NoError(t, err)
	assert.NotEqual(t, first.Key, after.Key)
	assert.Contains(t, readUnit(t, after), "static int b_n;")
	set, err = e.engine.Closure(ctx, e.path("b.pyx"))
	require.NoError(t, err)
	assert.True(t, set.Contains(e.path("b.pxd")))
}

func TestPlanner_FailedBuildIsNotCached(t *testing.T) {
	e := newEnv(t, map[string]string{
		"b.pyx": "def (:\n",
		"n.pyx": "y = 1\n",
	})
	ctx := context.Background()

	refs, err := e.planner.BuildAll(ctx, []domain.Module{e.module("b.pyx"), e.module("n.pyx")}, e.cfg)
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrBuild)

	var buildErr *domain.BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Equal(t, e.path("b.pyx"), buildErr.Module)
	var diag *domain.Diagnostic
	require.ErrorAs(t, err, &diag)

	assert.Empty(t, refs[0].UnitPath)
	assert.NotEmpty(t, refs[1].UnitPath, "a failing module does not poison its sibling")
	assert.Equal(t, 1, e.cache.Len())

	writeFiles(t, e.root, map[string]string{"b.pyx": "def f():\n    return 1\n"})
	e.planner.Invalidate()

	ref, err := e.planner.PlanAndBuild(ctx, e.module("b.pyx"), e.cfg)
	require.NoError(t, err)
	assert.NotEmpty(t, ref.UnitPath)
}

func TestPlanner_ResolutionError(t *testing.T) {
	e := newEnv(t, map[string]string{"b.pyx": "cimport missing\n"})

	_, err := e.planner.PlanAndBuild(context.Background(), e.module("b.pyx"), e.cfg)
	require.ErrorIs(t, err, domain.ErrResolution)
	assert.False(t, errors.Is(err, domain.ErrBuild))
	assert.Equal(t, 0, e.pipeline.count(e.path("b.pyx")))
}

func TestPlanner_CacheIOError(t *testing.T) {
	e := newEnv(t, map[string]string{"b.pyx": "y = 1\n"})
	writeFiles(t, e.root, map[string]string{"lib": "not a directory"})
	e.cfg.LibDir = e.path("lib")

	_, err := e.planner.PlanAndBuild(context.Background(), e.module("b.pyx"), e.cfg)
	require.ErrorIs(t, err, domain.ErrCacheIO)
	assert.False(t, errors.Is(err, domain.ErrBuild))
	assert.Equal(t, 0, e.cache.Len())
}

func TestPlanner_Force(t *testing.T) {
	e := newEnv(t, map[string]string{"b.pyx": "y = 1\n"})
	ctx := context.Background()
	e.cfg.Force = true

	first, err := e.planner.PlanAndBuild(ctx, e.module("b.pyx"), e.cfg)
	require.NoError(t, err)
	second, err := e.planner.PlanAndBuild(ctx, e.module("b.pyx"), e.cfg)
	require.NoError(t, err)

	assert.Equal(t, 2, e.pipeline.count(e.path("b.pyx")))
	assert.Equal(t, first.Key, second.Key)
	assert.Equal(t, first.UnitPath, second.UnitPath)
	assert.False(t, second.Reused)
}

func TestPlanner_SessionRecorded(t *testing.T) {
	e := newEnv(t, map[string]string{"b.pyx": "y = 1\n"})
	ctx := context.Background()

	ref, err := e.planner.PlanAndBuild(ctx, e.module("b.pyx"), e.cfg)
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	store, err := cas.NewStore(mocks.NewMockLogger(ctrl))
	require.NoError(t, err)
	m, err := store.ReadManifest(e.cfg.LibDir, ref.Key)
	require.NoError(t, err)
	assert.Equal(t, e.planner.Session(), m.Session)
	require.Len(t, m.Closure, 1)
	assert.Equal(t, e.path("b.pyx"), m.Closure[0].Path)
}

func TestPlanner_VertexStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	closureEngine := mocks.NewMockClosureEngine(ctrl)
	fingerprints := mocks.NewMockFingerprinter(ctrl)
	store := mocks.NewMockArtifactStore(ctrl)
	pl := mocks.NewMockPipeline(ctrl)
	telemetry := mocks.NewMockTelemetry(ctrl)
	vertex := mocks.NewMockVertex(ctrl)

	const path = "/src/b.pyx"
	module := domain.Module{Path: path}
	cfg := domain.DefaultConfiguration()
	fp := domain.Fingerprint{Path: path, ModTime: 1, Size: 2, Digest: 3}

	closureEngine.EXPECT().SetSearchPath(gomock.Any()).AnyTimes()
	closureEngine.EXPECT().Closure(gomock.Any(), path).Return(domain.NewDependencySet(path), nil).Times(2)
	closureEngine.EXPECT().Fingerprinter().Return(fingerprints).Times(2)
	fingerprints.EXPECT().Fingerprint(gomock.Any(), path).Return(fp, nil).Times(2)
	telemetry.EXPECT().Record(gomock.Any(), "unit "+path).
		DoAndReturn(func(ctx context.Context, _ string) (context.Context, ports.Vertex) {
			return ports.ContextWithVertex(ctx, vertex), vertex
		}).Times(2)

	out := domain.BuildOutput{Unit: []byte("unit"), UnitExt: ".c"}
	saved := domain.ArtifactRef{Module: path, UnitPath: "/lib/units/b.c"}
	gomock.InOrder(
		store.EXPECT().Lookup(gomock.Any(), cfg.LibDir, gomock.Any()).Return(domain.ArtifactRef{}, false, nil),
		pl.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any()).Return(out, nil),
		store.EXPECT().Save(gomock.Any(), cfg.LibDir, gomock.Any(), out).Return(saved, nil),
		vertex.EXPECT().Complete(nil),
		vertex.EXPECT().Cached(),
	)

	p := planner.New(closureEngine, artifact.NewCache(), store, pl, mocks.NewMockToolchain(ctrl), telemetry)
	ctx := context.Background()

	first, err := p.PlanAndBuild(ctx, module, cfg)
	require.NoError(t, err)
	second, err := p.PlanAndBuild(ctx, module, cfg)
	require.NoError(t, err)
	assert.Equal(t, saved, first)
	assert.Equal(t, first, second)
}
