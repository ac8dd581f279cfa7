package domain

import (
	"maps"
	"slices"
	"time"
)

// ArtifactRef points at the output produced for one cache key.
// It is created once per key and never mutated afterwards.
type ArtifactRef struct {
	Key     CacheKey        `json:"key"`
	Module  string          `json:"module"`
	Variant ArtifactVariant `json:"variant"`
	// UnitPath is the generated translation unit on persistent storage.
	UnitPath string `json:"unit_path,omitzero"`
	// NativePath is the native byproduct, if any.
	NativePath string `json:"native_path,omitzero"`
	// Loaded is set for the interactive variant only.
	Loaded *LoadedModule `json:"-"`
	// Reused reports that the artifact came from the persisted store
	// rather than a fresh pipeline run.
	Reused    bool      `json:"reused,omitzero"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// Callable is a loaded function that can be invoked with Go values.
type Callable interface {
	Name() string
	Call(args ...any) (any, error)
}

// LoadedModule is an executable module plus the symbol table extracted from it.
type LoadedModule struct {
	Name    string
	Symbols map[string]any
}

// Lookup returns the value bound to name.
func (m *LoadedModule) Lookup(name string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.Symbols[name]
	return v, ok
}

// Names returns the exported names in lexical order.
func (m *LoadedModule) Names() []string {
	if m == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(m.Symbols))
}

// BuildOutput is what one pipeline run produced, before it is persisted.
type BuildOutput struct {
	// Unit is the generated translation unit.
	Unit []byte
	// UnitExt is the file extension of Unit, dot included.
	UnitExt string
	// Native is the native byproduct, empty when none was produced.
	Native []byte
	Loaded *LoadedModule
}
