// Package scanner lists the regular files under a directory tree for the
// duplicate finder. Traversal is parallel (fastwalk); failures on individual
// entries are recorded in diagnostics and never stop the scan.
package scanner

import (
	"github.com/jamesainslie/dupesweep/pkg/dupesweep/diag"
)

// DefaultRoot is scanned when no root is given.
const DefaultRoot = "."

// Progress is a snapshot of scan counters.
type Progress struct {
	DirsScanned  int64
	FilesScanned int64
	FilesMatched int64
	BytesMatched int64
	CurrentPath  string
	WalkComplete bool
}

// Options configures the scanner behavior.
type Options struct {
	// Root is the starting directory for the scan.
	Root string

	// MinSize is the minimum file size in bytes to include in results.
	// Zero includes empty files.
	MinSize int64

	// Exclude contains glob patterns for paths to skip during scanning.
	// Patterns are matched against the base name and the full path, and a
	// pattern naming a directory skips everything below it.
	Exclude []string

	// Include, if non-empty, restricts results to files matching a pattern.
	Include []string

	// Extensions, if non-empty, restricts results to these file extensions.
	Extensions []string

	// FollowSymlinks descends into symlinked directories and includes
	// symlinked files. Each directory is visited at most once.
	FollowSymlinks bool

	// Workers is the number of traversal goroutines. Zero lets fastwalk decide.
	Workers int

	// Diagnostics receives traversal failures. Nil creates one per Scanner.
	Diagnostics *diag.Diagnostics

	// OnProgress is called periodically with scan progress updates.
	// It must be safe to call from multiple goroutines.
	OnProgress func(Progress)
}

// DefaultOptions returns options that scan the working directory.
func DefaultOptions() Options {
	return Options{Root: DefaultRoot}
}

// Validate applies defaults for unset values.
func (o *Options) Validate() error {
	if o.Root == "" {
		o.Root = DefaultRoot
	}
	if o.Workers < 0 {
		o.Workers = 0
	}
	if o.MinSize < 0 {
		o.MinSize = 0
	}
	return nil
}
