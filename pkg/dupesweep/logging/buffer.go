package logging

import (
	"sync"
	"time"

	"github.com/jamesainslie/dupesweep/pkg/dupesweep/ring"
)

// DefaultRecentSize is the default number of warnings kept by Recent.
const DefaultRecentSize = 50

// Entry is a single remembered log line.
type Entry struct {
	Time      time.Time
	Level     Level
	Component string
	Message   string
}

// Recent keeps the last few warnings and errors so the CLI can summarise
// them after a run without reopening the log file.
type Recent struct {
	mu  sync.RWMutex
	buf *ring.Buffer[Entry]
}

// NewRecent creates a buffer holding up to size entries.
func NewRecent(size int) *Recent {
	if size <= 0 {
		size = DefaultRecentSize
	}
	return &Recent{buf: ring.New[Entry](size)}
}

// Add records an entry, dropping the oldest when full.
func (r *Recent) Add(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf.Push(e)
}

// Entries returns a copy of all entries, oldest first.
func (r *Recent) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.buf.Values()
}

// Len returns the number of entries held.
func (r *Recent) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.buf.Len()
}
