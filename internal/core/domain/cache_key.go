package domain

import (
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/cespare/xxhash/v2"
)

// ArtifactVariant selects which back-end produced an artifact.
type ArtifactVariant int

const (
	// VariantUnit is a generated translation unit on persistent storage.
	VariantUnit ArtifactVariant = iota
	// VariantLoaded is a module loaded into the running process.
	VariantLoaded
)

func (v ArtifactVariant) String() string {
	if v == VariantLoaded {
		return "loaded"
	}
	return "unit"
}

// CacheKey decides artifact reuse. Equal keys mean equal inputs.
type CacheKey uint64

// NewCacheKey combines the module fingerprint, the fingerprints of its
// closure, the configuration fingerprint and the variant.
// The closure part is order-independent: folded sums are sorted before hashing.
func NewCacheKey(module Fingerprint, closure []Fingerprint, cfg ConfigFingerprint, variant ArtifactVariant) CacheKey {
	sums := make([]uint64, len(closure))
	for i, fp := range closure {
		sums[i] = fp.Sum()
	}
	slices.Sort(sums)

	h := xxhash.New()
	var buf [8]byte
	write := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = h.Write(buf[:])
	}

	write(module.Sum())
	write(uint64(len(sums)))
	for _, s := range sums {
		write(s)
	}
	write(uint64(cfg))
	write(uint64(variant)) //nolint:gosec // small enum
	return CacheKey(h.Sum64())
}

// String returns the key as 16 hex digits.
func (k CacheKey) String() string {
	return fmt.Sprintf("%016x", uint64(k))
}

// BuildPlan is everything the planner derives before consulting the cache.
type BuildPlan struct {
	Module       Module
	Variant      ArtifactVariant
	Closure      DependencySet
	Fingerprints []Fingerprint
	Config       ConfigFingerprint
	// Directives is the resolved directive string recorded in manifests.
	Directives string
	Key        CacheKey
	// Session identifies the planner session that derived the plan.
	Session string
}
