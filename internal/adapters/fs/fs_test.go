package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/recon/internal/adapters/fs"
	"go.trai.ch/recon/internal/core/domain"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestComputeFileHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.pxd")
	writeFile(t, path, "cdef int x\n")

	hash1, err := fs.ComputeFileHash(path)
	require.NoError(t, err)
	assert.NotZero(t, hash1)

	hash2, err := fs.ComputeFileHash(path)
	require.NoError(t, err)
	assert.Equal(t, hash1, hash2, "expected deterministic hash")
}

func TestFingerprinter_Memoized(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "a.pxd")
	writeFile(t, path, "cdef int x\n")

	f := fs.NewFingerprinter()
	first, err := f.Fingerprint(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, path, first.Path)
	assert.Equal(t, int64(len("cdef int x\n")), first.Size)

	again, err := f.Fingerprint(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	// The memo answers until invalidated, even after an edit.
	writeFile(t, path, "cdef float x\n")
	stale, err := f.Fingerprint(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, first, stale)

	f.InvalidateAll()
	fresh, err := f.Fingerprint(ctx, path)
	require.NoError(t, err)
	assert.NotEqual(t, first.Digest, fresh.Digest)
}

func TestFingerprinter_MissingFile(t *testing.T) {
	f := fs.NewFingerprinter()
	_, err := f.Fingerprint(context.Background(), filepath.Join(t.TempDir(), "missing.pxd"))
	require.ErrorIs(t, err, domain.ErrModuleNotFound)
}

func TestFingerprinter_CancelledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.pyx")
	writeFile(t, path, "x = 1\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := fs.NewFingerprinter()
	fp, err := f.Fingerprint(ctx, path)
	if err != nil {
		// Either the flight or the cancellation may win the select.
		require.ErrorIs(t, err, context.Canceled)
		return
	}
	assert.Equal(t, path, fp.Path)
}

func TestFingerprinter_Concurrent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	paths := []string{filepath.Join(dir, "a.pxd"), filepath.Join(dir, "b.pxd")}
	for _, p := range paths {
		writeFile(t, p, p)
	}

	f := fs.NewFingerprinter()
	const workers = 16
	results := make([]domain.Fingerprint, workers)

	var wg sync.WaitGroup
	for i := range workers {
		wg.Go(func() {
			fp, err := f.Fingerprint(ctx, paths[i%2])
			assert.NoError(t, err)
			results[i] = fp
		})
	}
	wg.Wait()

	for i := range workers {
		assert.Equal(t, results[i%2], results[i])
	}
	assert.NotEqual(t, results[0], results[1])
}

func TestWalker_WalkModules(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".git", "hooks.pyx"), "")
	writeFile(t, filepath.Join(root, ".recon", "cache", "x.pyx"), "")
	writeFile(t, filepath.Join(root, "ignored", "skip.pyx"), "")
	writeFile(t, filepath.Join(root, "pkg", "__init__.py"), "")
	writeFile(t, filepath.Join(root, "pkg", "a.pyx"), "")
	writeFile(t, filepath.Join(root, "pkg", "a.pxd"), "")
	writeFile(t, filepath.Join(root, "b.py"), "")
	writeFile(t, filepath.Join(root, "README.md"), "")

	walker := fs.NewWalker()
	var got []string
	for path := range walker.WalkModules(root, []string{"ignored"}) {
		rel, err := filepath.Rel(root, path)
		require.NoError(t, err)
		got = append(got, rel)
	}

	assert.Equal(t, []string{"b.py", filepath.Join("pkg", "a.pyx")}, got)
}

func TestExpander_Expand(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.pyx"), "")
	writeFile(t, filepath.Join(root, "b.pyx"), "")
	writeFile(t, filepath.Join(root, "src", "c.pyx"), "")
	writeFile(t, filepath.Join(root, "notes.txt"), "")

	e := fs.NewExpander(fs.NewWalker())

	t.Run("files, dirs and globs", func(t *testing.T) {
		got, err := e.Expand([]string{"a.pyx", "src", "*.pyx"}, root)
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(root, "a.pyx"),
			filepath.Join(root, "b.pyx"),
			filepath.Join(root, "src", "c.pyx"),
		}, got)
	})

	t.Run("no matches", func(t *testing.T) {
		_, err := e.Expand([]string{"missing/*.pyx"}, root)
		require.ErrorIs(t, err, domain.ErrModuleNotFound)
	})

	t.Run("unsupported file", func(t *testing.T) {
		_, err := e.Expand([]string{"notes.txt"}, root)
		require.ErrorIs(t, err, domain.ErrUnsupportedModule)
	})

	t.Run("malformed glob", func(t *testing.T) {
		_, err := e.Expand([]string{"["}, root)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to glob path")
	})
}
