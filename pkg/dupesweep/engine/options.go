package engine

import (
	"github.com/spf13/afero"

	"github.com/jamesainslie/dupesweep/pkg/dupesweep/diag"
	"github.com/jamesainslie/dupesweep/pkg/dupesweep/executor"
	"github.com/jamesainslie/dupesweep/pkg/dupesweep/tuner"
)

// Stage names reported through Progress.
const (
	StagePrefix = "prefix"
	StageFull   = "full"
)

// Progress reports hashing progress within one stage.
type Progress struct {
	Stage string
	Done  int
	Total int
}

// Options configures an Engine.
type Options struct {
	// Root is the scanned directory. It is used for medium detection and
	// bounds folder candidates.
	Root string

	// Profile, if set, replaces probing the host.
	Profile *tuner.Profile

	// ManualWorkers fixes every pool to this size. Zero means no override.
	ManualWorkers int

	// Adaptive enables latency-driven worker adjustment. It has no effect
	// when ManualWorkers is set.
	Adaptive bool

	// Streaming hashes in batches and memoizes prefix digests.
	Streaming bool

	// BatchSize overrides the profiled batch size in streaming mode.
	BatchSize int

	// CacheSize bounds the prefix digest cache. Zero uses the cache default.
	CacheSize int

	// Algorithm names the hash function. Empty uses sha256.
	Algorithm string

	// MmapThreshold is passed to the hasher. Zero uses the hasher default.
	MmapThreshold int64

	// NoFolders disables duplicate folder detection.
	NoFolders bool

	// KeepNestedFolders reports duplicate folders inside other reported ones.
	KeepNestedFolders bool

	// Fs is the filesystem files are read from. Nil uses the OS filesystem.
	Fs afero.Fs

	// Hasher replaces the built-in hasher; Algorithm, Fs and MmapThreshold
	// are then ignored.
	Hasher executor.Hasher

	// Diagnostics receives per-file failures. Nil creates a fresh one per run.
	Diagnostics *diag.Diagnostics

	// Progress, if set, is called as hashing tasks complete.
	Progress func(Progress)
}
