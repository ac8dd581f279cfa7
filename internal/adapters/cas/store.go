// Package cas persists generated artifacts in a key-addressed layout.
package cas

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
	"go.trai.ch/recon/internal/core/domain"
	"go.trai.ch/recon/internal/core/ports"
	"go.trai.ch/zerr"
)

// manifestSchema is bumped whenever Manifest changes shape.
const manifestSchema uint16 = 1

const (
	manifestExt = ".mp"
	nativeExt   = ".bin"
)

// Manifest maps one cache key to the files it produced.
type Manifest struct {
	Schema     uint16          `msgpack:"schema"`
	Key        string          `msgpack:"key"`
	Module     string          `msgpack:"module"`
	Variant    string          `msgpack:"variant"`
	Revision   string          `msgpack:"revision"`
	Directives string          `msgpack:"directives"`
	UnitPath   string          `msgpack:"unit_path"`
	NativePath string          `msgpack:"native_path,omitempty"`
	Closure    []ManifestInput `msgpack:"closure"`
	Session    string          `msgpack:"session"`
	CreatedAt  time.Time       `msgpack:"created_at"`
}

// ManifestInput records one closure member as it was when the key was derived.
type ManifestInput struct {
	Path    string `msgpack:"path"`
	ModTime int64  `msgpack:"mtime"`
	Size    int64  `msgpack:"size"`
	Digest  uint64 `msgpack:"digest"`
}

// Store implements ports.ArtifactStore on the local filesystem.
type Store struct {
	logger  ports.Logger
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	now     func() time.Time
}

// NewStore creates a Store. Warnings about unusable manifests go to logger.
func NewStore(logger ports.Logger) (*Store, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create manifest encoder")
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create manifest decoder")
	}
	return &Store{logger: logger, encoder: enc, decoder: dec, now: time.Now}, nil
}

// ManifestPath returns where the manifest for key lives below libDir.
func ManifestPath(libDir string, key domain.CacheKey) string {
	return domain.ShardedPath(filepath.Join(libDir, domain.ManifestsDirName), key, manifestExt)
}

// Lookup returns the persisted artifact for plan.
// A missing, undecodable or outdated manifest is a miss. So is a manifest
// whose files were removed behind its back.
func (s *Store) Lookup(_ context.Context, libDir string, plan domain.BuildPlan) (domain.ArtifactRef, bool, error) {
	path := ManifestPath(libDir, plan.Key)

	m, err := s.readManifest(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.ArtifactRef{}, false, nil
		}
		if errors.Is(err, domain.ErrCacheIO) {
			return domain.ArtifactRef{}, false, err
		}
		s.logger.Warn("ignoring unreadable manifest " + path + ": " + err.Error())
		return domain.ArtifactRef{}, false, nil
	}

	if m.Schema != manifestSchema || m.Key != plan.Key.String() || m.Variant != plan.Variant.String() {
		s.logger.Warn("ignoring outdated manifest " + path)
		return domain.ArtifactRef{}, false, nil
	}

	for _, p := range []string{m.UnitPath, m.NativePath} {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return domain.ArtifactRef{}, false, nil
			}
			return domain.ArtifactRef{}, false, &domain.CacheIOError{Path: p, Op: "stat", Cause: err}
		}
	}

	return domain.ArtifactRef{
		Key:        plan.Key,
		Module:     m.Module,
		Variant:    plan.Variant,
		UnitPath:   m.UnitPath,
		NativePath: m.NativePath,
		Reused:     true,
		CreatedAt:  m.CreatedAt,
	}, true, nil
}

func (s *Store) readManifest(path string) (*Manifest, error) {
	//nolint:gosec // Path is derived from the lib dir and a cache key
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, &domain.CacheIOError{Path: path, Op: "read", Cause: err}
	}

	raw, err := s.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to decompress manifest")
	}

	var m Manifest
	if err := msgpack.Unmarshal(raw, &m); err != nil {
		return nil, zerr.Wrap(err, "failed to decode manifest")
	}
	return &m, nil
}

// Save writes the unit, the native byproduct and the manifest for plan.
// Each file is written to a temporary name and renamed into place, so a
// concurrent reader sees either the old file or the new one.
func (s *Store) Save(
	_ context.Context,
	libDir string,
	plan domain.BuildPlan,
	out domain.BuildOutput,
) (domain.ArtifactRef, error) {
	ref := domain.ArtifactRef{
		Key:       plan.Key,
		Module:    plan.Module.Path,
		Variant:   plan.Variant,
		UnitPath:  domain.ShardedPath(filepath.Join(libDir, domain.UnitsDirName), plan.Key, out.UnitExt),
		Loaded:    out.Loaded,
		CreatedAt: s.now(),
	}

	if err := writeAtomic(ref.UnitPath, out.Unit); err != nil {
		return domain.ArtifactRef{}, err
	}

	if len(out.Native) > 0 {
		ref.NativePath = domain.ShardedPath(filepath.Join(libDir, domain.NativeDirName), plan.Key, nativeExt)
		if err := writeAtomic(ref.NativePath, out.Native); err != nil {
			return domain.ArtifactRef{}, err
		}
	}

	m := Manifest{
		Schema:     manifestSchema,
		Key:        plan.Key.String(),
		Module:     plan.Module.Path,
		Variant:    plan.Variant.String(),
		Revision:   plan.Module.Revision.String(),
		Directives: plan.Directives,
		UnitPath:   ref.UnitPath,
		NativePath: ref.NativePath,
		Closure:    make([]ManifestInput, len(plan.Fingerprints)),
		Session:    plan.Session,
		CreatedAt:  ref.CreatedAt,
	}
	for i, fp := range plan.Fingerprints {
		m.Closure[i] = ManifestInput{Path: fp.Path, ModTime: fp.ModTime, Size: fp.Size, Digest: fp.Digest}
	}

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.UseCompactInts(true)
	if err := enc.Encode(&m); err != nil {
		return domain.ArtifactRef{}, zerr.With(zerr.Wrap(err, "failed to encode manifest"), "key", m.Key)
	}

	if err := writeAtomic(ManifestPath(libDir, plan.Key), s.encoder.EncodeAll(buf.Bytes(), nil)); err != nil {
		return domain.ArtifactRef{}, err
	}
	return ref, nil
}

// ReadNative returns the native byproduct recorded in ref.
func (s *Store) ReadNative(_ context.Context, ref domain.ArtifactRef) ([]byte, error) {
	if ref.NativePath == "" {
		return nil, zerr.With(zerr.New("artifact has no native byproduct"), "key", ref.Key.String())
	}
	data, err := os.ReadFile(ref.NativePath)
	if err != nil {
		return nil, &domain.CacheIOError{Path: ref.NativePath, Op: "read", Cause: err}
	}
	return data, nil
}

// Clean removes libDir and everything below it.
func (s *Store) Clean(_ context.Context, libDir string) error {
	if err := os.RemoveAll(libDir); err != nil {
		return &domain.CacheIOError{Path: libDir, Op: "remove", Cause: err}
	}
	return nil
}

// ReadManifest decodes the manifest stored for key below libDir.
func (s *Store) ReadManifest(libDir string, key domain.CacheKey) (*Manifest, error) {
	return s.readManifest(ManifestPath(libDir, key))
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return &domain.CacheIOError{Path: dir, Op: "mkdir", Cause: err}
	}

	f, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return &domain.CacheIOError{Path: path, Op: "write", Cause: err}
	}
	tmp := f.Name()

	_, err = f.Write(data)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(tmp, domain.FilePerm)
	}
	if err == nil {
		err = os.Rename(tmp, path)
	}
	if err != nil {
		_ = os.Remove(tmp)
		return &domain.CacheIOError{Path: path, Op: "write", Cause: err}
	}
	return nil
}
