package fs

import (
	"os"
	"path/filepath"
	"slices"

	"go.trai.ch/recon/internal/core/domain"
	"go.trai.ch/recon/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ModuleExpander = (*Expander)(nil)

// Expander turns command line arguments into module paths.
type Expander struct {
	walker *Walker
}

// NewExpander creates a new Expander.
func NewExpander(walker *Walker) *Expander {
	return &Expander{walker: walker}
}

// Expand resolves each argument against root. Files are taken as they are,
// directories contribute every module below them, and anything else is
// treated as a glob pattern. The result is absolute, sorted and deduplicated.
func (e *Expander) Expand(args []string, root string) ([]string, error) {
	unique := make(map[string]struct{})

	for _, arg := range args {
		path := arg
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}

		matches, err := e.expandOne(path)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			abs, err := filepath.Abs(m)
			if err != nil {
				return nil, zerr.With(zerr.Wrap(err, "failed to resolve module path"), "path", m)
			}
			unique[abs] = struct{}{}
		}
	}

	result := make([]string, 0, len(unique))
	for p := range unique {
		result = append(result, p)
	}
	slices.Sort(result)

	return result, nil
}

func (e *Expander) expandOne(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err == nil {
		if !info.IsDir() {
			if domain.KindOf(path) == domain.KindUnknown {
				return nil, zerr.With(zerr.Wrap(domain.ErrUnsupportedModule, "invalid module"), "path", path)
			}
			return []string{path}, nil
		}
		return slices.Collect(e.walker.WalkModules(path, nil)), nil
	}

	matches, globErr := filepath.Glob(path)
	if globErr != nil {
		return nil, zerr.With(zerr.Wrap(globErr, "failed to glob path"), "path", path)
	}
	if len(matches) == 0 {
		return nil, zerr.With(zerr.Wrap(domain.ErrModuleNotFound, "input not found"), "path", path)
	}

	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if domain.KindOf(m) == domain.KindImplementation {
			out = append(out, m)
		}
	}
	return out, nil
}
