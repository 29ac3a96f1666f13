// Package config provides configuration management for dupesweep.
package config

// Default configuration values for dupesweep.
const (
	// DefaultMinSize is the minimum file size to include in scans.
	DefaultMinSize = "0"

	// DefaultPath is the default path to scan when none is specified.
	DefaultPath = "."

	// DefaultConfigDir is the default configuration directory path.
	DefaultConfigDir = "~/.config/dupesweep"

	// DefaultAlgorithm is the content hash used when none is configured.
	DefaultAlgorithm = "sha256"

	// DefaultCacheSize is the prefix digest cache capacity in streaming mode.
	DefaultCacheSize = 10000

	// DefaultMmapThreshold is the file size from which full hashes read
	// through a memory map.
	DefaultMmapThreshold = "64MiB"

	// DefaultOutput is the report format.
	DefaultOutput = "pretty"

	// DefaultLogMaxSize is the log size at which the file is rotated.
	DefaultLogMaxSize = "5MB"

	// DefaultLogMaxBackups is the number of rotated log files kept.
	DefaultLogMaxBackups = 3
)

// DefaultExclusions contains paths that should be excluded from scanning by default.
var DefaultExclusions = []string{
	"/proc",
	"/sys",
	"/dev",
}

// DefaultComponentLevels holds per-component log levels.
var DefaultComponentLevels = map[string]string{
	"engine":   "info",
	"scanner":  "info",
	"tuner":    "info",
	"executor": "warn",
	"diag":     "warn",
}
