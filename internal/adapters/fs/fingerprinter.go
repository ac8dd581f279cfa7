package fs

import (
	"context"
	"errors"
	"io"
	iofs "io/fs"
	"os"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/recon/internal/core/domain"
	"go.trai.ch/recon/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

var _ ports.Fingerprinter = (*Fingerprinter)(nil)

// Fingerprinter memoizes file fingerprints per path until InvalidateAll.
type Fingerprinter struct {
	mu    sync.RWMutex
	memo  map[string]domain.Fingerprint
	gen   uint64
	group singleflight.Group
}

// NewFingerprinter creates a new Fingerprinter.
func NewFingerprinter() *Fingerprinter {
	return &Fingerprinter{memo: make(map[string]domain.Fingerprint)}
}

// Fingerprint returns the memoized fingerprint of path, computing it once.
// Concurrent first requests for the same path share one computation.
func (f *Fingerprinter) Fingerprint(ctx context.Context, path string) (domain.Fingerprint, error) {
	f.mu.RLock()
	fp, ok := f.memo[path]
	gen := f.gen
	f.mu.RUnlock()
	if ok {
		return fp, nil
	}

	// The generation is part of the flight key so a caller arriving after
	// InvalidateAll never joins a computation that started before it.
	key := strconv.FormatUint(gen, 10) + "\x00" + path
	ch := f.group.DoChan(key, func() (any, error) {
		fp, err := ComputeFingerprint(path)
		if err != nil {
			return domain.Fingerprint{}, err
		}
		f.mu.Lock()
		if f.gen == gen {
			f.memo[path] = fp
		}
		f.mu.Unlock()
		return fp, nil
	})

	select {
	case <-ctx.Done():
		return domain.Fingerprint{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.Fingerprint{}, res.Err
		}
		return res.Val.(domain.Fingerprint), nil //nolint:forcetypeassert // flight only returns fingerprints
	}
}

// InvalidateAll forgets every memoized fingerprint.
func (f *Fingerprinter) InvalidateAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gen++
	clear(f.memo)
}

// ComputeFingerprint stats and hashes path without consulting any memo.
func ComputeFingerprint(path string) (domain.Fingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return domain.Fingerprint{}, zerr.With(zerr.Wrap(domain.ErrModuleNotFound, "failed to fingerprint file"), "path", path)
		}
		return domain.Fingerprint{}, zerr.With(zerr.Wrap(err, "failed to stat file"), "path", path)
	}

	digest, err := ComputeFileHash(path)
	if err != nil {
		return domain.Fingerprint{}, err
	}

	return domain.Fingerprint{
		Path:    path,
		ModTime: info.ModTime().UnixNano(),
		Size:    info.Size(),
		Digest:  digest,
	}, nil
}

// ComputeFileHash computes the XXHash of a file's content.
func ComputeFileHash(path string) (uint64, error) {
	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to open file"), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	hasher := xxhash.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to hash file content"), "path", path)
	}

	return hasher.Sum64(), nil
}
