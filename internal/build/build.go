// Package build holds build-time information.
package build

// Version is the application version.
// It defaults to "dev" and can be overwritten by linker flags.
// The version is part of every configuration fingerprint, so a new release
// never reuses artifacts generated by an older one.
var Version = "dev"

// Commit and Date are set by linker flags in release builds.
var (
	Commit = "none"
	Date   = "unknown"
)
