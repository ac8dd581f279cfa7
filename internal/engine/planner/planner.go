// Package planner decides, per module, whether an artifact can be reused or
// must be regenerated.
package planner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.trai.ch/recon/internal/core/domain"
	"go.trai.ch/recon/internal/core/ports"
	"go.trai.ch/recon/internal/engine/artifact"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

var _ ports.BuildPlanner = (*Planner)(nil)

// Planner resolves closures, derives cache keys and delegates to the
// artifact cache. It keeps no state across calls beyond the closure engine
// and the artifact cache it holds.
type Planner struct {
	closure   ports.ClosureEngine
	cache     ports.ArtifactCache
	store     ports.ArtifactStore
	pipeline  ports.Pipeline
	toolchain ports.Toolchain
	telemetry ports.Telemetry
	session   string
}

// New creates a new Planner. Every manifest it writes records a fresh session ID.
func New(
	closure ports.ClosureEngine,
	cache ports.ArtifactCache,
	store ports.ArtifactStore,
	pipeline ports.Pipeline,
	toolchain ports.Toolchain,
	telemetry ports.Telemetry,
) *Planner {
	return &Planner{
		closure:   closure,
		cache:     cache,
		store:     store,
		pipeline:  pipeline,
		toolchain: toolchain,
		telemetry: telemetry,
		session:   uuid.NewString(),
	}
}

// Session returns the ID recorded in manifests written by this planner.
func (p *Planner) Session() string {
	return p.session
}

// Plan resolves the closure of module and derives its cache key.
func (p *Planner) Plan(
	ctx context.Context,
	module domain.Module,
	cfg domain.Configuration,
	variant domain.ArtifactVariant,
) (domain.BuildPlan, error) {
	module = cfg.ResolveModule(module)
	cfg.Revision = module.Revision

	p.closure.SetSearchPath(cfg.SearchPath)
	set, err := p.closure.Closure(ctx, module.Path)
	if err != nil {
		return domain.BuildPlan{}, err
	}

	fingerprints := p.closure.Fingerprinter()
	fps := make([]domain.Fingerprint, 0, set.Len())
	var own domain.Fingerprint
	for _, path := range set.Paths() {
		fp, err := fingerprints.Fingerprint(ctx, path)
		if err != nil {
			return domain.BuildPlan{}, zerr.With(zerr.Wrap(err, "failed to fingerprint dependency"), "module", module.Path)
		}
		if path == module.Path {
			own = fp
		}
		fps = append(fps, fp)
	}

	configFp := cfg.Fingerprint()
	return domain.BuildPlan{
		Module:       module,
		Variant:      variant,
		Closure:      set,
		Fingerprints: fps,
		Config:       configFp,
		Directives:   cfg.Directives.String(),
		Key:          domain.NewCacheKey(own, fps, configFp, variant),
		Session:      p.session,
	}, nil
}

// PlanAndBuild returns the translation unit of module.
func (p *Planner) PlanAndBuild(ctx context.Context, module domain.Module, cfg domain.Configuration) (domain.ArtifactRef, error) {
	return p.build(ctx, module, cfg, domain.VariantUnit)
}

// PlanAndLoad returns module compiled and loaded in this process. The
// compiled program is persisted, so a later process loads it without
// regenerating.
func (p *Planner) PlanAndLoad(ctx context.Context, module domain.Module, cfg domain.Configuration) (domain.ArtifactRef, error) {
	return p.build(ctx, module, cfg, domain.VariantLoaded)
}

// Invalidate drops every memoized closure and fingerprint.
// Artifacts already built stay in the artifact cache under their old keys.
func (p *Planner) Invalidate() {
	p.closure.InvalidateAll()
}

// BuildAll builds modules in parallel through the same caches. A failing
// module does not stop the others; the returned refs line up with modules
// and are zero for failed ones.
func (p *Planner) BuildAll(ctx context.Context, modules []domain.Module, cfg domain.Configuration) ([]domain.ArtifactRef, error) {
	refs := make([]domain.ArtifactRef, len(modules))

	var (
		mu   sync.Mutex
		errs error
		g    errgroup.Group
	)
	for i, module := range modules {
		g.Go(func() error {
			ref, err := p.PlanAndBuild(ctx, module, cfg)
			if err != nil {
				mu.Lock()
				errs = errors.Join(errs, err)
				mu.Unlock()
				return nil
			}
			refs[i] = ref
			return nil
		})
	}
	_ = g.Wait()
	return refs, errs
}

func (p *Planner) build(
	ctx context.Context,
	module domain.Module,
	cfg domain.Configuration,
	variant domain.ArtifactVariant,
) (domain.ArtifactRef, error) {
	plan, err := p.Plan(ctx, module, cfg, variant)
	if err != nil {
		return domain.ArtifactRef{}, err
	}
	cfg.Revision = plan.Module.Revision

	ctx, vertex := p.telemetry.Record(ctx, variant.String()+" "+plan.Module.Path)

	if cfg.Force {
		ref, err := p.produce(ctx, plan, cfg)
		if err != nil {
			err = artifact.AsBuildError(plan.Module.Path, err)
		}
		vertex.Complete(err)
		return ref, err
	}

	var built atomic.Bool
	ref, err := p.cache.GetOrBuild(ctx, plan.Key, plan.Module.Path, func(ctx context.Context) (domain.ArtifactRef, error) {
		built.Store(true)
		return p.produce(ctx, plan, cfg)
	})
	switch {
	case err != nil:
		vertex.Complete(err)
	case built.Load() && !ref.Reused:
		vertex.Complete(nil)
	default:
		vertex.Cached()
	}
	return ref, err
}

// produce returns the persisted artifact for plan, or runs the pipeline and
// persists its output. Force skips the persisted lookup.
func (p *Planner) produce(ctx context.Context, plan domain.BuildPlan, cfg domain.Configuration) (domain.ArtifactRef, error) {
	if !cfg.Force {
		ref, ok, err := p.store.Lookup(ctx, cfg.LibDir, plan)
		if err != nil {
			return domain.ArtifactRef{}, err
		}
		if ok {
			if plan.Variant == domain.VariantLoaded {
				return p.load(ctx, ref, plan, cfg)
			}
			return ref, nil
		}
	}

	out, err := p.pipeline.Run(ctx, plan, cfg)
	if err != nil {
		return domain.ArtifactRef{}, err
	}
	return p.store.Save(ctx, cfg.LibDir, plan, out)
}

// load runs a persisted compiled program.
func (p *Planner) load(ctx context.Context, ref domain.ArtifactRef, plan domain.BuildPlan, cfg domain.Configuration) (domain.ArtifactRef, error) {
	native, err := p.store.ReadNative(ctx, ref)
	if err != nil {
		return domain.ArtifactRef{}, err
	}
	if cfg.Quiet {
		ctx = ports.ContextWithVertex(ctx, nil)
	}
	loaded, err := p.toolchain.Load(ctx, plan.Module.Name(), native)
	if err != nil {
		return domain.ArtifactRef{}, err
	}
	ref.Loaded = loaded
	return ref, nil
}
