// Package config provides configuration management for the intact
// directory-integrity auditor.
package config

// Default configuration values for intact.
const (
	// DefaultPath is the default directory to audit when none is specified.
	DefaultPath = "."

	// DefaultManifestName is the manifest file name inside the audited
	// directory when no explicit manifest path is given.
	DefaultManifestName = ".intact"

	// DefaultVerifyMode is the default verification strategy.
	DefaultVerifyMode = "full"
)

// DefaultExclusions contains patterns excluded from scanning by default.
// The manifest file and emitted change logs must never audit themselves.
var DefaultExclusions = []string{
	".intact",
	".intact.tmp",
	"intact-*.log",
}
