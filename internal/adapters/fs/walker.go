// Package fs provides file system adapters for fingerprinting and finding source modules.
package fs

import (
	"io/fs"
	"iter"
	"path/filepath"

	"go.trai.ch/recon/internal/core/domain"
)

// skipDirs are never descended into.
var skipDirs = map[string]bool{
	".git":              true,
	".jj":               true,
	domain.ReconDirName: true,
	"__pycache__":       true,
	"node_modules":      true,
}

// Walker provides file walking functionality.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkModules yields every implementation module below root in lexical order,
// skipping VCS, cache and ignored directories.
func (w *Walker) WalkModules(root string, ignores []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if skip, action := w.shouldSkip(d, ignores); skip {
				return action
			}

			if d.IsDir() || domain.KindOf(path) != domain.KindImplementation {
				return nil
			}
			if filepath.Base(path) == "__init__"+filepath.Ext(path) {
				return nil
			}

			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// shouldSkip reports whether d is excluded, and the WalkDir result to return for it.
func (w *Walker) shouldSkip(d fs.DirEntry, ignores []string) (bool, error) {
	name := d.Name()

	if d.IsDir() && skipDirs[name] {
		return true, filepath.SkipDir
	}

	for _, ignore := range ignores {
		if matched, _ := filepath.Match(ignore, name); matched {
			if d.IsDir() {
				return true, filepath.SkipDir
			}
			return true, nil
		}
	}

	return false, nil
}
