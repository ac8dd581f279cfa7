package domain

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint identifies one observed state of a file.
// It is comparable; equal values mean the file was not seen to change.
type Fingerprint struct {
	Path    string
	ModTime int64
	Size    int64
	Digest  uint64
}

// Sum folds every field into a single value used for key combination.
func (f Fingerprint) Sum() uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(f.Path)
	_, _ = h.Write([]byte{0})
	var buf [24]byte
	binary.LittleEndian.PutUint64(buf[0:], uint64(f.ModTime)) //nolint:gosec // bit pattern only
	binary.LittleEndian.PutUint64(buf[8:], uint64(f.Size))    //nolint:gosec // bit pattern only
	binary.LittleEndian.PutUint64(buf[16:], f.Digest)
	_, _ = h.Write(buf[:])
	return h.Sum64()
}

// String returns the content digest as 16 hex digits.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x", f.Digest)
}

// ConfigFingerprint identifies the semantically relevant part of a Configuration.
type ConfigFingerprint uint64

// String returns the fingerprint as 16 hex digits.
func (c ConfigFingerprint) String() string {
	return fmt.Sprintf("%016x", uint64(c))
}
