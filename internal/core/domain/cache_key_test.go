package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/recon/internal/core/domain"
)

func TestNewCacheKey(t *testing.T) {
	mod := domain.Fingerprint{Path: "/src/b.pyx", ModTime: 1, Size: 8, Digest: 0xb}
	companion := domain.Fingerprint{Path: "/src/b.pxd", ModTime: 2, Size: 10, Digest: 0xbd}
	imported := domain.Fingerprint{Path: "/src/a.pxd", ModTime: 3, Size: 11, Digest: 0xad}
	cfg := domain.DefaultConfiguration().Fingerprint()

	key := domain.NewCacheKey(mod, []domain.Fingerprint{mod, companion, imported}, cfg, domain.VariantUnit)

	t.Run("closure order does not matter", func(t *testing.T) {
		shuffled := domain.NewCacheKey(mod, []domain.Fingerprint{imported, mod, companion}, cfg, domain.VariantUnit)
		assert.Equal(t, key, shuffled)
	})

	t.Run("declaration content changes the key", func(t *testing.T) {
		edited := imported
		edited.Digest = 0xae
		other := domain.NewCacheKey(mod, []domain.Fingerprint{mod, companion, edited}, cfg, domain.VariantUnit)
		assert.NotEqual(t, key, other)
	})

	t.Run("configuration changes the key", func(t *testing.T) {
		legacy := domain.DefaultConfiguration()
		legacy.Revision = domain.RevisionLegacy
		other := domain.NewCacheKey(mod, []domain.Fingerprint{mod, companion, imported}, legacy.Fingerprint(), domain.VariantUnit)
		assert.NotEqual(t, key, other)
	})

	t.Run("variant changes the key", func(t *testing.T) {
		other := domain.NewCacheKey(mod, []domain.Fingerprint{mod, companion, imported}, cfg, domain.VariantLoaded)
		assert.NotEqual(t, key, other)
	})

	t.Run("closure membership changes the key", func(t *testing.T) {
		other := domain.NewCacheKey(mod, []domain.Fingerprint{mod, companion}, cfg, domain.VariantUnit)
		assert.NotEqual(t, key, other)
	})

	assert.Len(t, key.String(), 16)
}

func TestShardedPath(t *testing.T) {
	key := domain.CacheKey(0x0123456789abcdef)
	assert.Equal(t, "/lib/units/01/23456789abcdef.c", domain.ShardedPath("/lib/units", key, ".c"))
}
