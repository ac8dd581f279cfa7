package domain

import (
	"go.trai.ch/zerr"
)

var (
	// ErrResolution is the sentinel matched by every ResolutionError.
	ErrResolution = zerr.New("dependency resolution failed")

	// ErrBuild is the sentinel matched by every BuildError.
	ErrBuild = zerr.New("build failed")

	// ErrCacheIO is the sentinel matched by every CacheIOError.
	ErrCacheIO = zerr.New("artifact cache I/O failed")

	// ErrModuleNotFound is returned when a module path does not exist on disk.
	ErrModuleNotFound = zerr.New("module not found")

	// ErrDependencyNotFound is returned when an include or cimport names a file
	// that is not on the search path.
	ErrDependencyNotFound = zerr.New("dependency not found")

	// ErrAmbiguousDependency is returned when a cimport matches both a module
	// declaration file and a package declaration file in the same directory.
	ErrAmbiguousDependency = zerr.New("ambiguous dependency")

	// ErrUnknownDirective is returned when a configuration names a directive
	// outside the recognized set.
	ErrUnknownDirective = zerr.New("unknown compiler directive")

	// ErrInvalidDirectiveValue is returned when a directive value has the wrong kind.
	ErrInvalidDirectiveValue = zerr.New("invalid compiler directive value")

	// ErrUnknownRevision is returned when a language revision cannot be parsed.
	ErrUnknownRevision = zerr.New("unknown language revision")

	// ErrUnsupportedModule is returned when a path does not carry a source extension.
	ErrUnsupportedModule = zerr.New("unsupported module type")

	// ErrSymbolNotFound is returned when a loaded module does not export a name.
	ErrSymbolNotFound = zerr.New("symbol not found")

	// ErrNoModulesSpecified is returned when a command needs at least one module.
	ErrNoModulesSpecified = zerr.New("no modules specified")
)

// ResolutionError reports a referenced dependency that is missing or ambiguous.
type ResolutionError struct {
	// Module is the file whose statement could not be resolved.
	Module string
	// Reference is the include path or dotted cimport name as written.
	Reference string
	Cause     error
}

func (e *ResolutionError) Error() string {
	msg := "cannot resolve " + e.Module
	if e.Reference != "" {
		msg = "cannot resolve " + e.Reference + " from " + e.Module
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes both the sentinel and the cause.
func (e *ResolutionError) Unwrap() []error {
	return []error{ErrResolution, e.Cause}
}

// BuildError reports a failure of the external pipeline for one module.
type BuildError struct {
	Module string
	Cause  error
}

func (e *BuildError) Error() string {
	if e.Cause == nil {
		return "build failed for " + e.Module
	}
	return "build failed for " + e.Module + ": " + e.Cause.Error()
}

// Unwrap exposes both the sentinel and the cause.
func (e *BuildError) Unwrap() []error {
	return []error{ErrBuild, e.Cause}
}

// CacheIOError reports that the persisted artifact directory is unreadable or unwritable.
type CacheIOError struct {
	Path string
	Op   string
	// Cause is the underlying filesystem error.
	Cause error
}

func (e *CacheIOError) Error() string {
	msg := "artifact cache " + e.Op + " " + e.Path
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes both the sentinel and the cause.
func (e *CacheIOError) Unwrap() []error {
	return []error{ErrCacheIO, e.Cause}
}
