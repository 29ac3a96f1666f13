// Package output renders dupesweep results in the formats selectable with
// --output (pretty, plain, json, yaml and the line-oriented variants).
//
// The package uses a registry so commands can look formatters up by name:
//
//	formatter, err := output.Get("pretty")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, output.NewResult(run, scan)); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(buf.String())
package output

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jamesainslie/dupesweep/pkg/dupesweep/logging"
	"github.com/jamesainslie/dupesweep/pkg/dupesweep/types"
)

// ScanStats describes the directory walk that produced the run's input.
type ScanStats struct {
	// DirsScanned is the total number of directories traversed.
	DirsScanned int64 `json:"dirs_scanned" yaml:"dirs_scanned"`

	// FilesScanned is the number of regular files examined by the walk.
	FilesScanned int64 `json:"files_scanned" yaml:"files_scanned"`

	// Duration is the time taken by the walk alone.
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Result is what formatters render: the dedup result plus walk statistics
// and messages collected along the way.
type Result struct {
	*types.Result

	// Source is the root path that was scanned.
	Source string

	// Scan holds walk statistics.
	Scan ScanStats

	// Warnings contains messages shown after the report.
	Warnings []string

	// Interrupted is set when the user stopped the run.
	Interrupted bool

	// Fast is set when groups were matched by metadata only.
	Fast bool
}

// NewResult wraps run for formatting. A nil run formats as an empty report.
func NewResult(run *types.Result, scan ScanStats) *Result {
	if run == nil {
		run = &types.Result{}
	}
	return &Result{
		Result:      run,
		Source:      run.Root,
		Scan:        scan,
		Interrupted: run.Partial,
	}
}

// Reclaimable is the space held by redundant copies of files and folders.
func (r *Result) Reclaimable() int64 {
	return r.Stats.WastedBytes + r.Stats.FolderWastedBytes
}

// Redundant lists every member after the first of each folder, file and
// metadata group. Keeping the first member of each group and removing the
// rest leaves one copy of everything.
func (r *Result) Redundant() []string {
	var out []string
	for _, g := range r.Folders {
		if len(g.Folders) > 1 {
			out = append(out, g.Folders[1:]...)
		}
	}
	for _, g := range r.Duplicates {
		if len(g.Files) > 1 {
			out = append(out, g.Files[1:]...)
		}
	}
	for _, g := range r.Metadata {
		if len(g.Files) > 1 {
			out = append(out, g.Files[1:]...)
		}
	}
	return out
}

// Row kinds used by the tabular formatters.
const (
	KindFolder    = "folder"
	KindDuplicate = "duplicate"
	KindMetadata  = "metadata"
	KindUnique    = "unique"
	KindSkipped   = "skipped"
)

// Row is one path of the report flattened for line-oriented output.
// Group numbers start at 1 within each kind; unique and skipped rows have
// group 0. Size is zero where the run does not record it.
type Row struct {
	Kind      string `json:"kind"`
	Group     int    `json:"group,omitempty"`
	Size      int64  `json:"size,omitempty"`
	SizeHuman string `json:"size_human,omitempty"`
	Digest    string `json:"digest,omitempty"`
	Path      string `json:"path"`
}

// Rows flattens the report in display order: folders, duplicate files,
// metadata matches, unique files, then skipped files.
func (r *Result) Rows() []Row {
	var rows []Row
	for i, g := range r.Folders {
		for _, p := range g.Folders {
			rows = append(rows, Row{Kind: KindFolder, Group: i + 1, Size: g.TotalSize,
				SizeHuman: types.FormatSize(g.TotalSize), Path: p})
		}
	}
	for i, g := range r.Duplicates {
		for _, p := range g.Files {
			rows = append(rows, Row{Kind: KindDuplicate, Group: i + 1, Size: g.Size,
				SizeHuman: types.FormatSize(g.Size), Digest: string(g.Digest), Path: p})
		}
	}
	for i, g := range r.Metadata {
		for _, p := range g.Files {
			rows = append(rows, Row{Kind: KindMetadata, Group: i + 1, Size: g.Size,
				SizeHuman: types.FormatSize(g.Size), Path: p})
		}
	}
	for _, p := range r.Unique {
		rows = append(rows, Row{Kind: KindUnique, Path: p})
	}
	for _, s := range r.Skipped {
		rows = append(rows, Row{Kind: KindSkipped, Path: s.Path})
	}
	return rows
}

// Formatter is the interface that all output formatters must implement.
type Formatter interface {
	// Format writes the formatted output to the buffer.
	Format(w *bytes.Buffer, r *Result) error
}

// FormatterFactory is a function that creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a formatter factory to the registry.
// It will replace any existing formatter with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		logging.Get("output").Debug("unknown formatter requested", "name", name)
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns a sorted list of all registered formatter names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}
