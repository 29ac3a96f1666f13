// Package diag counts per-file failures during a run and rate-limits the
// detailed messages about them.
//
// A Diagnostics value is created by the caller for each run and passed to the
// lister and the engine. Every failure is counted; only the first few per
// category are reported in detail, followed by a single suppression notice.
package diag

import (
	"fmt"
	"sort"
	"sync"

	"github.com/jamesainslie/dupesweep/pkg/dupesweep/hasher"
	"github.com/jamesainslie/dupesweep/pkg/dupesweep/logging"
	"github.com/jamesainslie/dupesweep/pkg/dupesweep/types"
)

// Category groups failures for counting and display.
type Category string

// Failure categories.
const (
	PermissionDenied Category = "permission_denied"
	FileNotFound     Category = "file_not_found"
	IOError          Category = "io_error"
	OtherError       Category = "other_error"
	BrokenSymlink    Category = "broken_symlink"
	SymlinkCycle     Category = "symlink_cycle"
)

// DefaultLimit is how many detailed messages are reported per category.
const DefaultLimit = 5

// Message is a reported failure.
type Message struct {
	Category Category
	Path     string
	Text     string

	// Suppressed marks the notice sent once a category exceeds its limit.
	Suppressed bool
}

// String formats the message for display.
func (m Message) String() string {
	if m.Suppressed {
		return m.Text
	}
	return fmt.Sprintf("%s: %s", m.Path, m.Text)
}

// Options configures a Diagnostics.
type Options struct {
	// Limit is the number of detailed messages per category. Zero uses DefaultLimit.
	Limit int

	// Notify, if set, receives each reported message in addition to the log.
	Notify func(Message)
}

// Diagnostics is the per-run failure context. It is safe for concurrent use.
type Diagnostics struct {
	mu       sync.Mutex
	limit    int
	notify   func(Message)
	counts   map[Category]int64
	reported map[Category]int
	messages []Message
	logger   *logging.Logger
}

// New creates an empty Diagnostics.
func New(opts Options) *Diagnostics {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Diagnostics{
		limit:    limit,
		notify:   opts.Notify,
		counts:   make(map[Category]int64),
		reported: make(map[Category]int),
		logger:   logging.Get("diag"),
	}
}

// Record counts a failure for path and reports it if the category is
// still under its limit.
func (d *Diagnostics) Record(cat Category, path string, err error) {
	text := "unknown error"
	if err != nil {
		text = err.Error()
	}

	d.mu.Lock()
	d.counts[cat]++
	n := d.reported[cat]
	var msg *Message
	switch {
	case n < d.limit:
		msg = &Message{Category: cat, Path: path, Text: text}
	case n == d.limit:
		msg = &Message{
			Category:   cat,
			Text:       fmt.Sprintf("further %s messages suppressed", cat),
			Suppressed: true,
		}
	}
	if msg != nil {
		d.reported[cat] = n + 1
		d.messages = append(d.messages, *msg)
	}
	notify := d.notify
	d.mu.Unlock()

	if msg == nil {
		return
	}
	if msg.Suppressed {
		d.logger.Warn(msg.Text, "category", string(cat))
	} else {
		d.logger.Warn("skipped file", "category", string(cat), "path", path, "err", text)
	}
	if notify != nil {
		notify(*msg)
	}
}

// RecordHashError records a hashing failure under the category matching its
// kind and returns that category. Directories are skipped silently and
// report ok=false.
func (d *Diagnostics) RecordHashError(path string, err error) (Category, bool) {
	cat, ok := CategoryOf(err)
	if !ok {
		return "", false
	}
	d.Record(cat, path, err)
	return cat, true
}

// CategoryOf maps a hashing error to its category. ok is false for errors
// that are not counted, such as a path naming a directory.
func CategoryOf(err error) (Category, bool) {
	switch hasher.KindOf(err) {
	case hasher.KindIsDirectory:
		return "", false
	case hasher.KindPermissionDenied:
		return PermissionDenied, true
	case hasher.KindNotFound:
		return FileNotFound, true
	case hasher.KindIO:
		return IOError, true
	default:
		return OtherError, true
	}
}

// Count returns the number of failures recorded under cat.
func (d *Diagnostics) Count(cat Category) int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.counts[cat]
}

// Total returns the number of failures across all categories.
func (d *Diagnostics) Total() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	var n int64
	for _, c := range d.counts {
		n += c
	}
	return n
}

// Messages returns the reported messages in the order they were reported.
func (d *Diagnostics) Messages() []Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Message(nil), d.messages...)
}

// Snapshot returns the counts keyed by category name.
func (d *Diagnostics) Snapshot() types.Diagnostics {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(types.Diagnostics, len(d.counts))
	for c, n := range d.counts {
		out[string(c)] = n
	}
	return out
}

// Summary returns one "category: count" line per non-zero category, sorted.
func (d *Diagnostics) Summary() []string {
	snap := d.Snapshot()
	lines := make([]string, 0, len(snap))
	for c, n := range snap {
		if n > 0 {
			lines = append(lines, fmt.Sprintf("%s: %d", c, n))
		}
	}
	sort.Strings(lines)
	return lines
}
