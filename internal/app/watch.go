package app

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"go.trai.ch/recon/internal/adapters/watcher" //nolint:depguard // Wired in app layer
	"go.trai.ch/zerr"
)

// Watch builds modules, then rebuilds them whenever a source file below the
// working directory changes. Every batch of changes invalidates all memoized
// closures and fingerprints before the rebuild. Build failures are logged and
// watching continues until ctx is cancelled or the watcher stops.
func (a *App) Watch(ctx context.Context, paths []string, opts Options) error {
	cfg, err := a.configuration(opts)
	if err != nil {
		return err
	}
	modules, err := a.modules(paths)
	if err != nil {
		return err
	}
	root, err := os.Getwd()
	if err != nil {
		return zerr.Wrap(err, "failed to get working directory")
	}

	var mu sync.Mutex
	rebuild := func() {
		mu.Lock()
		defer mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		refs, err := a.planner.BuildAll(ctx, modules, cfg)
		if reportErr := a.report(modules, refs, opts.JSON); reportErr != nil {
			a.logger.Error(reportErr)
		}
		if err != nil {
			a.logger.Error(err)
		}
	}

	rebuild()

	if err := a.watcher.Start(ctx, root); err != nil {
		return zerr.Wrap(err, "failed to start watcher")
	}
	defer func() {
		_ = a.watcher.Stop()
	}()

	debouncer := watcher.NewDebouncer(a.debounce, func(changed []string) {
		a.logger.Info(strconv.Itoa(len(changed)) + " file(s) changed, rebuilding")
		a.planner.Invalidate()
		rebuild()
	})

	a.logger.Info("watching " + root + " for changes")
	for event := range a.watcher.Events() {
		if within(event.Path, cfg.LibDir) {
			continue
		}
		debouncer.Add(event.Path)
	}
	debouncer.Flush()
	return nil
}

// within reports whether path lies in dir.
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
