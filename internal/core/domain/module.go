package domain

import (
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// Source file extensions understood by the toolchain.
const (
	ExtImplementation = ".pyx"
	ExtPure           = ".py"
	ExtDeclaration    = ".pxd"
	ExtInclude        = ".pxi"
)

// PackageMarkers are the file names whose presence turns a directory into a package.
var PackageMarkers = []string{"__init__.py", "__init__.pyx", "__init__.pxd"}

// SourceKind classifies a file by the role its extension gives it.
type SourceKind int

const (
	// KindUnknown is any file without a recognized extension.
	KindUnknown SourceKind = iota
	// KindImplementation is a .pyx or .py module.
	KindImplementation
	// KindDeclaration is a .pxd companion or standalone declaration module.
	KindDeclaration
	// KindInclude is a .pxi fragment inserted textually.
	KindInclude
)

// KindOf returns the source kind of path.
func KindOf(path string) SourceKind {
	switch filepath.Ext(path) {
	case ExtImplementation, ExtPure:
		return KindImplementation
	case ExtDeclaration:
		return KindDeclaration
	case ExtInclude:
		return KindInclude
	default:
		return KindUnknown
	}
}

// Module is a compiler-pipeline input source file.
type Module struct {
	// Path is absolute and cleaned.
	Path string
	// Revision is RevisionUnset until a configuration resolves it.
	Revision LanguageRevision
}

// NewModule returns a Module for path, made absolute against the working directory.
func NewModule(path string) (Module, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Module{}, zerr.With(zerr.Wrap(err, "failed to resolve module path"), "path", path)
	}
	if KindOf(abs) == KindUnknown {
		return Module{}, zerr.With(zerr.Wrap(ErrUnsupportedModule, "invalid module"), "path", abs)
	}
	return Module{Path: abs}, nil
}

// Name returns the dotted module name derived from the file stem.
func (m Module) Name() string {
	return ModuleName(m.Path)
}

// ModuleName returns the file stem of path, which is also the prefix used for
// generated C identifiers.
func ModuleName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// CompanionPath returns the same-stem declaration file beside path, and false
// when path is not an implementation module.
func CompanionPath(path string) (string, bool) {
	if KindOf(path) != KindImplementation {
		return "", false
	}
	return strings.TrimSuffix(path, filepath.Ext(path)) + ExtDeclaration, true
}

// EdgeKind is the reason one file depends on another.
type EdgeKind int

const (
	// EdgeCompanion links a module to its same-stem declaration file.
	EdgeCompanion EdgeKind = iota
	// EdgeInclude links a file to a fragment it includes verbatim.
	EdgeInclude
	// EdgeImport links a file to the declaration file of a cimported module.
	EdgeImport
	// EdgeAncestor links a file to the declaration file of an enclosing package.
	EdgeAncestor
)

// String returns the edge kind as printed by the deps command.
func (k EdgeKind) String() string {
	switch k {
	case EdgeCompanion:
		return "companion"
	case EdgeInclude:
		return "include"
	case EdgeImport:
		return "cimport"
	case EdgeAncestor:
		return "package"
	default:
		return "unknown"
	}
}

// DependencyEdge is one discovered structural dependency.
type DependencyEdge struct {
	From string
	Path string
	Kind EdgeKind
	// Name is the reference as written in source, empty for implicit edges.
	Name string
}

// DependencySet is a set of absolute file paths.
type DependencySet struct {
	paths map[string]struct{}
}

// NewDependencySet returns a set holding paths.
func NewDependencySet(paths ...string) DependencySet {
	s := DependencySet{paths: make(map[string]struct{}, len(paths))}
	for _, p := range paths {
		s.paths[p] = struct{}{}
	}
	return s
}

// Add inserts path and reports whether it was new.
func (s *DependencySet) Add(path string) bool {
	if s.paths == nil {
		s.paths = make(map[string]struct{})
	}
	if _, ok := s.paths[path]; ok {
		return false
	}
	s.paths[path] = struct{}{}
	return true
}

// Union adds every member of other.
func (s *DependencySet) Union(other DependencySet) {
	for p := range other.paths {
		s.Add(p)
	}
}

// Clone returns an independent copy of s.
func (s DependencySet) Clone() DependencySet {
	return NewDependencySet(s.Paths()...)
}

// Contains reports whether path is a member.
func (s DependencySet) Contains(path string) bool {
	_, ok := s.paths[path]
	return ok
}

// Len returns the number of members.
func (s DependencySet) Len() int {
	return len(s.paths)
}

// Paths returns the members in lexical order.
func (s DependencySet) Paths() []string {
	out := make([]string, 0, len(s.paths))
	for p := range s.paths {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Equal reports whether both sets hold the same members.
func (s DependencySet) Equal(other DependencySet) bool {
	if s.Len() != other.Len() {
		return false
	}
	for p := range s.paths {
		if !other.Contains(p) {
			return false
		}
	}
	return true
}
