// Package filter decides which paths a scan admits. It supports a minimum
// size, extensions, and include and exclude glob patterns.
package filter

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// ErrInvalidPattern indicates a glob pattern that could not be compiled.
var ErrInvalidPattern = errors.New("invalid pattern")

// Filter holds compiled admission criteria. The zero value admits everything.
type Filter struct {
	// MinSize is the minimum file size in bytes. Files smaller are excluded.
	MinSize int64

	// Extensions contains file extensions to include (e.g., ".jpg").
	// If non-empty, only files with matching extensions are included.
	Extensions []string

	include []pattern
	exclude []pattern
}

// pattern is a compiled glob together with its source text.
type pattern struct {
	text string
	g    glob.Glob
}

// Option is a functional option for configuring a Filter.
type Option func(*Filter) error

// New creates a Filter. It fails if any pattern does not compile.
func New(opts ...Option) (*Filter, error) {
	f := &Filter{}
	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// WithMinSize sets the minimum file size. Negative values become zero.
func WithMinSize(minSize int64) Option {
	return func(f *Filter) error {
		f.MinSize = max(minSize, 0)
		return nil
	}
}

// WithInclude sets include patterns. If any are given, a file must match one.
func WithInclude(patterns ...string) Option {
	return func(f *Filter) error {
		compiled, err := compile(patterns)
		f.include = compiled
		return err
	}
}

// WithExclude sets exclude patterns. A pattern excludes a path when it
// matches the base name or the full path, or when it names the path or one
// of its ancestor directories.
func WithExclude(patterns ...string) Option {
	return func(f *Filter) error {
		compiled, err := compile(patterns)
		f.exclude = compiled
		return err
	}
}

// WithExtensions sets the file extensions to include.
// Extensions are normalized: lowercase and prefixed with "." if missing.
func WithExtensions(extensions ...string) Option {
	return func(f *Filter) error {
		normalized := make([]string, 0, len(extensions))
		for _, ext := range extensions {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			normalized = append(normalized, ext)
		}
		f.Extensions = normalized
		return nil
	}
}

func compile(patterns []string) ([]pattern, error) {
	out := make([]pattern, 0, len(patterns))
	for _, p := range patterns {
		if p == "" {
			continue
		}
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrInvalidPattern, p, err)
		}
		out = append(out, pattern{text: filepath.Clean(p), g: g})
	}
	return out, nil
}

// Excluded reports whether path, a file or a directory, matches an exclude
// pattern. A scan skips an excluded directory entirely.
func (f *Filter) Excluded(path string) bool {
	base := filepath.Base(path)
	slashed := filepath.ToSlash(path)
	for _, p := range f.exclude {
		if p.g.Match(base) || p.g.Match(slashed) {
			return true
		}
		if path == p.text || strings.HasPrefix(path, p.text+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// Match reports whether a regular file of the given size is admitted.
func (f *Filter) Match(path string, size int64) bool {
	if size < f.MinSize {
		return false
	}
	if !f.matchExtension(path) {
		return false
	}
	if f.Excluded(path) {
		return false
	}
	if len(f.include) == 0 {
		return true
	}
	base := filepath.Base(path)
	slashed := filepath.ToSlash(path)
	for _, p := range f.include {
		if p.g.Match(base) || p.g.Match(slashed) {
			return true
		}
	}
	return false
}

func (f *Filter) matchExtension(path string) bool {
	if len(f.Extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range f.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}
