// Package types provides core data types for the dupesweep duplicate finder.
// It includes file records, duplicate groups, run statistics and the final
// result, along with utility functions for parsing and formatting file sizes.
package types

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Size constants for binary (IEC) units.
const (
	KiB int64 = 1024
	MiB int64 = 1024 * KiB
	GiB int64 = 1024 * MiB
	TiB int64 = 1024 * GiB
)

// FileRecord is a regular file discovered by the lister.
// Path is its identity; Size is captured at scan time and never re-verified.
type FileRecord struct {
	// Path is the absolute path to the file.
	Path string `json:"path" yaml:"path"`

	// Size is the file size in bytes.
	Size int64 `json:"size" yaml:"size"`

	// ModTime is the last modification time. Only metadata matching uses it.
	ModTime time.Time `json:"mod_time,omitzero" yaml:"mod_time,omitempty"`
}

// HumanSize returns the file size formatted as a human-readable string.
func (f *FileRecord) HumanSize() string {
	return FormatSize(f.Size)
}

// Digest is the lowercase hex encoding of a hash over file content.
type Digest string

// HashMode selects how much of a file is hashed.
type HashMode int

const (
	// ModePrefix hashes at most the first PrefixSize bytes.
	ModePrefix HashMode = iota

	// ModeFull hashes the entire content.
	ModeFull
)

// PrefixSize is the number of leading bytes covered by a prefix digest.
const PrefixSize = 4096

// String returns the mode name.
func (m HashMode) String() string {
	switch m {
	case ModePrefix:
		return "prefix"
	case ModeFull:
		return "full"
	default:
		return fmt.Sprintf("HashMode(%d)", int(m))
	}
}

// DuplicateGroup is a set of at least two files with identical full digests.
type DuplicateGroup struct {
	// Digest is the shared full digest.
	Digest Digest `json:"digest" yaml:"digest"`

	// Size is the size of each member in bytes.
	Size int64 `json:"size" yaml:"size"`

	// Files lists member paths in lexicographic order.
	Files []string `json:"files" yaml:"files"`
}

// WastedBytes is the space held by all but one copy.
func (g DuplicateGroup) WastedBytes() int64 {
	if len(g.Files) < 2 {
		return 0
	}
	return int64(len(g.Files)-1) * g.Size
}

// FolderGroup is a set of at least two folders with identical structure and content.
type FolderGroup struct {
	// Folders lists member directories in lexicographic order.
	Folders []string `json:"folders" yaml:"folders"`

	// FileCount is the number of files contained transitively in each folder.
	FileCount int `json:"file_count" yaml:"file_count"`

	// TotalSize is the total size of each folder in bytes.
	TotalSize int64 `json:"total_size" yaml:"total_size"`
}

// WastedBytes is the space held by all but one folder.
func (g FolderGroup) WastedBytes() int64 {
	if len(g.Folders) < 2 {
		return 0
	}
	return int64(len(g.Folders)-1) * g.TotalSize
}

// MetadataGroup is a set of files matched by name, size and modification time only.
type MetadataGroup struct {
	Name  string   `json:"name" yaml:"name"`
	Size  int64    `json:"size" yaml:"size"`
	Files []string `json:"files" yaml:"files"`
}

// SkippedFile is a file that left the pipeline because it could not be hashed.
type SkippedFile struct {
	// Path is the file path.
	Path string `json:"path" yaml:"path"`

	// Category is the diagnostics category the failure was counted under.
	Category string `json:"category" yaml:"category"`

	// Error is the error message describing what went wrong.
	Error string `json:"error" yaml:"error"`
}

// Stats summarises a run.
type Stats struct {
	TotalFiles          int           `json:"total_files" yaml:"total_files"`
	TotalBytes          int64         `json:"total_bytes" yaml:"total_bytes"`
	DuplicateGroups     int           `json:"duplicate_groups" yaml:"duplicate_groups"`
	DuplicateFiles      int           `json:"duplicate_files" yaml:"duplicate_files"`
	UniqueFiles         int           `json:"unique_files" yaml:"unique_files"`
	FolderGroups        int           `json:"folder_groups" yaml:"folder_groups"`
	FoldersCovered      int           `json:"folders_covered" yaml:"folders_covered"`
	FilesInFolders      int           `json:"files_in_folders" yaml:"files_in_folders"`
	SkippedFiles        int           `json:"skipped_files" yaml:"skipped_files"`
	PendingFiles        int           `json:"pending_files,omitempty" yaml:"pending_files,omitempty"`
	UniqueBySize        int           `json:"unique_by_size" yaml:"unique_by_size"`
	EscalationGroups    int           `json:"escalation_groups" yaml:"escalation_groups"`
	PrefixHashes        int64         `json:"prefix_hashes" yaml:"prefix_hashes"`
	FullHashes          int64         `json:"full_hashes" yaml:"full_hashes"`
	CacheHits           int64         `json:"cache_hits" yaml:"cache_hits"`
	CacheMisses         int64         `json:"cache_misses" yaml:"cache_misses"`
	DuplicateBytes      int64         `json:"duplicate_bytes" yaml:"duplicate_bytes"`
	WastedBytes         int64         `json:"wasted_bytes" yaml:"wasted_bytes"`
	FolderWastedBytes   int64         `json:"folder_wasted_bytes" yaml:"folder_wasted_bytes"`
	Elapsed             time.Duration `json:"elapsed" yaml:"elapsed"`
	IOWorkers           int           `json:"io_workers" yaml:"io_workers"`
	CPUWorkers          int           `json:"cpu_workers" yaml:"cpu_workers"`
	EscalationGroupSize []int         `json:"escalation_group_sizes,omitempty" yaml:"escalation_group_sizes,omitempty"`
}

// Diagnostics is a snapshot of per-category failure counts.
type Diagnostics map[string]int64

// Total returns the sum of all counts.
func (d Diagnostics) Total() int64 {
	var n int64
	for _, v := range d {
		n += v
	}
	return n
}

// Result is the output of a dedup run.
type Result struct {
	// RunID identifies this run in logs and reports.
	RunID string `json:"run_id" yaml:"run_id"`

	// Root is the scanned directory, if known.
	Root string `json:"root,omitempty" yaml:"root,omitempty"`

	// Duplicates holds duplicate file groups not covered by a duplicate folder.
	Duplicates []DuplicateGroup `json:"duplicates" yaml:"duplicates"`

	// Unique lists files with no duplicate and not covered by a duplicate folder.
	Unique []string `json:"unique" yaml:"unique"`

	// Folders holds duplicate folder groups.
	Folders []FolderGroup `json:"folders" yaml:"folders"`

	// Metadata holds metadata-only matches when fast mode was used.
	Metadata []MetadataGroup `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	// Skipped lists files excluded because hashing failed.
	Skipped []SkippedFile `json:"skipped,omitempty" yaml:"skipped,omitempty"`

	// Stats summarises the run.
	Stats Stats `json:"stats" yaml:"stats"`

	// Diagnostics counts failures per category.
	Diagnostics Diagnostics `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`

	// Partial is set when the run was cancelled before completion.
	Partial bool `json:"partial" yaml:"partial"`
}

// DuplicateMap returns duplicate groups keyed by digest.
func (r *Result) DuplicateMap() map[Digest][]string {
	m := make(map[Digest][]string, len(r.Duplicates))
	for _, g := range r.Duplicates {
		m[g.Digest] = g.Files
	}
	return m
}

// SortDuplicates orders groups by wasted space descending, then by digest.
func SortDuplicates(groups []DuplicateGroup) {
	sort.Slice(groups, func(i, j int) bool {
		wi, wj := groups[i].WastedBytes(), groups[j].WastedBytes()
		if wi != wj {
			return wi > wj
		}
		if groups[i].Size != groups[j].Size {
			return groups[i].Size > groups[j].Size
		}
		return groups[i].Digest < groups[j].Digest
	})
}

// SortFolders orders groups by wasted space descending, then by first folder.
func SortFolders(groups []FolderGroup) {
	sort.Slice(groups, func(i, j int) bool {
		wi, wj := groups[i].WastedBytes(), groups[j].WastedBytes()
		if wi != wj {
			return wi > wj
		}
		return groups[i].Folders[0] < groups[j].Folders[0]
	})
}

// sizePattern matches size strings like "100M", "2G", "500K", "1.5GB", etc.
var sizePattern = regexp.MustCompile(`(?i)^\s*([0-9]+(?:\.[0-9]+)?)\s*([KMGT]?(?:i?B)?)\s*$`)

// ErrInvalidSize indicates that the size string could not be parsed.
var ErrInvalidSize = errors.New("invalid size format")

// ErrNegativeSize indicates that a negative size value was provided.
var ErrNegativeSize = errors.New("size cannot be negative")

// ParseSize parses a human-readable size string and returns the size in bytes.
// Units are binary: "4K" is 4096 bytes. Accepted suffixes are B, K, M, G and T,
// each optionally followed by B or iB. Decimal values are truncated.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidSize)
	}

	if strings.HasPrefix(s, "-") {
		return 0, ErrNegativeSize
	}

	matches := sizePattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	value, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	suffix := strings.ToUpper(matches[2])
	suffix = strings.TrimSuffix(suffix, "IB")
	suffix = strings.TrimSuffix(suffix, "B")

	var multiplier int64
	switch suffix {
	case "":
		multiplier = 1
	case "K":
		multiplier = KiB
	case "M":
		multiplier = MiB
	case "G":
		multiplier = GiB
	case "T":
		multiplier = TiB
	default:
		return 0, fmt.Errorf("%w: unknown suffix %q", ErrInvalidSize, suffix)
	}

	return int64(value * float64(multiplier)), nil
}

// FormatSize converts a size in bytes to a human-readable string using IEC units.
//
// Examples:
//   - FormatSize(0) returns "0 B"
//   - FormatSize(1024) returns "1.0 KiB"
func FormatSize(bytes int64) string {
	if bytes < 0 {
		return "-" + humanize.IBytes(uint64(-bytes))
	}
	return humanize.IBytes(uint64(bytes))
}
