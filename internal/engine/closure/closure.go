// Package closure computes memoized transitive dependency closures.
package closure

import (
	"context"
	"slices"
	"strconv"
	"sync"

	"go.trai.ch/recon/internal/core/domain"
	"go.trai.ch/recon/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

var _ ports.ClosureEngine = (*Engine)(nil)

// Engine expands direct dependencies into transitive closures and memoizes
// them until InvalidateAll. It owns the fingerprint cache it invalidates.
type Engine struct {
	fingerprints ports.Fingerprinter
	resolver     ports.DependencyResolver

	mu         sync.RWMutex
	gen        uint64
	searchPath []string
	graph      *domain.Graph
	direct     map[string]domain.DependencySet
	closures   map[string]domain.DependencySet
	group      singleflight.Group
}

// NewEngine creates a new Engine.
func NewEngine(fingerprints ports.Fingerprinter, resolver ports.DependencyResolver) *Engine {
	return &Engine{
		fingerprints: fingerprints,
		resolver:     resolver,
		graph:        domain.NewGraph(),
		direct:       make(map[string]domain.DependencySet),
		closures:     make(map[string]domain.DependencySet),
	}
}

// Fingerprinter returns the fingerprint cache owned by the engine.
func (e *Engine) Fingerprinter() ports.Fingerprinter {
	return e.fingerprints
}

// SetSearchPath replaces the directories used to resolve references.
// Changing them drops every memo.
func (e *Engine) SetSearchPath(dirs []string) {
	e.mu.Lock()
	if slices.Equal(e.searchPath, dirs) {
		e.mu.Unlock()
		return
	}
	e.searchPath = slices.Clone(dirs)
	e.resetLocked()
	e.mu.Unlock()

	e.fingerprints.InvalidateAll()
}

// InvalidateAll drops every memoized closure, edge list and fingerprint.
func (e *Engine) InvalidateAll() {
	e.mu.Lock()
	e.resetLocked()
	e.mu.Unlock()

	e.fingerprints.InvalidateAll()
}

func (e *Engine) resetLocked() {
	e.gen++
	e.graph = domain.NewGraph()
	clear(e.direct)
	clear(e.closures)
}

// Closure returns every file reachable from path through resolver edges,
// path included. The result is a copy the caller may modify.
func (e *Engine) Closure(ctx context.Context, path string) (domain.DependencySet, error) {
	e.mu.RLock()
	set, ok := e.closures[path]
	gen := e.gen
	searchPath := e.searchPath
	e.mu.RUnlock()
	if ok {
		return set.Clone(), nil
	}

	key := strconv.FormatUint(gen, 10) + "\x00" + path
	// The flight outlives any single waiter, so it must not inherit cancellation.
	flightCtx := context.WithoutCancel(ctx)
	ch := e.group.DoChan(key, func() (any, error) {
		return e.expand(flightCtx, gen, path, searchPath)
	})

	select {
	case <-ctx.Done():
		return domain.DependencySet{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.DependencySet{}, res.Err
		}
		return res.Val.(domain.DependencySet).Clone(), nil //nolint:forcetypeassert // flight only returns sets
	}
}

// expand runs a breadth-first walk from path. Every file is resolved at most
// once, so cycles terminate.
func (e *Engine) expand(ctx context.Context, gen uint64, path string, searchPath []string) (domain.DependencySet, error) {
	closure := domain.NewDependencySet(path)
	queue := []string{path}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		deps, err := e.directDependencies(ctx, gen, current, searchPath)
		if err != nil {
			return domain.DependencySet{}, err
		}
		for _, dep := range deps.Paths() {
			if closure.Add(dep) {
				queue = append(queue, dep)
			}
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen != gen {
		return closure, nil
	}
	if _, err := e.graph.Node(path); err != nil {
		return domain.DependencySet{}, zerr.With(err, "module", path)
	}
	e.closures[path] = closure
	return closure, nil
}

// directDependencies returns the memoized direct set of path, asking the
// resolver on a miss. The set and its edges enter the memo together.
func (e *Engine) directDependencies(
	ctx context.Context,
	gen uint64,
	path string,
	searchPath []string,
) (domain.DependencySet, error) {
	e.mu.RLock()
	deps, ok := e.direct[path]
	e.mu.RUnlock()
	if ok {
		return deps, nil
	}

	deps, edges, err := e.resolver.DirectDependencies(ctx, path, searchPath)
	if err != nil {
		return domain.DependencySet{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen != gen {
		return deps, nil
	}
	if _, ok := e.direct[path]; ok {
		return deps, nil
	}
	for _, edge := range edges {
		if err := e.graph.AddEdge(edge); err != nil {
			return domain.DependencySet{}, zerr.With(err, "module", path)
		}
	}
	e.direct[path] = deps
	return deps, nil
}

// Edges returns the typed edges that make up the closure of path.
func (e *Engine) Edges(ctx context.Context, path string) ([]domain.DependencyEdge, error) {
	members, err := e.Closure(ctx, path)
	if err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []domain.DependencyEdge
	for edge := range e.graph.Edges() {
		if members.Contains(edge.From) {
			out = append(out, edge)
		}
	}
	return out, nil
}

// Cycles returns the import cycles reachable from path, formatted as
// "a -> b -> a". Cycles are legal and only reported.
func (e *Engine) Cycles(ctx context.Context, path string) ([]string, error) {
	if _, err := e.Closure(ctx, path); err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	start, ok := e.graph.Lookup(path)
	if !ok {
		return nil, nil
	}
	return e.graph.Cycles(start), nil
}
