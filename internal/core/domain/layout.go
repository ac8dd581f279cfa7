package domain

import "path/filepath"

const (
	// ReconDirName is the name of the project-local state directory.
	ReconDirName = ".recon"

	// ConfigFileName is the name of the project configuration file.
	ConfigFileName = "recon.yaml"

	// UnitsDirName holds generated translation units inside the lib dir.
	UnitsDirName = "units"

	// NativeDirName holds native byproducts inside the lib dir.
	NativeDirName = "native"

	// ManifestsDirName holds per-key manifests inside the lib dir.
	ManifestsDirName = "manifests"

	// InlinePrefix starts the file name of every generated inline module.
	InlinePrefix = "_recon_inline_"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600
)

// ShardedPath splits a cache key into a two-level layout below dir:
// dir/<first two hex digits>/<rest><ext>.
func ShardedPath(dir string, key CacheKey, ext string) string {
	name := key.String()
	return filepath.Join(dir, name[:2], name[2:]+ext)
}
