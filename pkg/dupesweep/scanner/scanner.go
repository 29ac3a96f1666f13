package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"

	"github.com/jamesainslie/dupesweep/pkg/dupesweep/diag"
	"github.com/jamesainslie/dupesweep/pkg/dupesweep/filter"
	"github.com/jamesainslie/dupesweep/pkg/dupesweep/logging"
	"github.com/jamesainslie/dupesweep/pkg/dupesweep/types"
)

var (
	// ErrNotDirectory is returned when the scan root is not a directory.
	ErrNotDirectory = errors.New("not a directory")

	// ErrSymlinkCycle is recorded for a symlink leading to a directory that
	// has already been visited.
	ErrSymlinkCycle = errors.New("symlink leads to an already visited directory")
)

// Result is the outcome of a scan.
type Result struct {
	// Root is the resolved absolute path that was scanned.
	Root string

	// Files holds admitted regular files sorted by path.
	Files []types.FileRecord

	DirsScanned  int64
	FilesScanned int64
	TotalSize    int64
	Elapsed      time.Duration
}

// fileID identifies a directory independently of the path used to reach it.
type fileID struct {
	dev uint64
	ino uint64
}

// link is a symlinked directory whose target is walked after the current walk.
type link struct {
	path   string
	target string
}

// Scanner performs parallel directory scanning using fastwalk.
type Scanner struct {
	opts   Options
	filter *filter.Filter
	diag   *diag.Diagnostics
	logger *logging.Logger

	// Atomic counters for thread-safe progress reporting.
	dirsScanned  atomic.Int64
	filesScanned atomic.Int64
	filesMatched atomic.Int64
	bytesMatched atomic.Int64

	currentPath  atomic.Value
	lastProgress atomic.Int64
	walkComplete atomic.Bool

	mu      sync.Mutex
	results []types.FileRecord
	visited map[fileID]string
	links   []link
}

// New creates a Scanner. It fails if a pattern does not compile.
func New(opts Options) (*Scanner, error) {
	_ = opts.Validate()

	f, err := filter.New(
		filter.WithMinSize(opts.MinSize),
		filter.WithExclude(opts.Exclude...),
		filter.WithInclude(opts.Include...),
		filter.WithExtensions(opts.Extensions...),
	)
	if err != nil {
		return nil, err
	}

	d := opts.Diagnostics
	if d == nil {
		d = diag.New(diag.Options{})
	}

	s := &Scanner{
		opts:    opts,
		filter:  f,
		diag:    d,
		logger:  logging.Get("scanner"),
		visited: make(map[fileID]string),
	}
	s.currentPath.Store("")
	return s, nil
}

// Diagnostics returns the failure context the scanner records into.
func (s *Scanner) Diagnostics() *diag.Diagnostics { return s.diag }

// Scan walks the tree and returns the admitted files. It blocks until the
// walk completes or ctx is cancelled; on cancellation the files found so far
// are returned with ctx.Err().
func (s *Scanner) Scan(ctx context.Context) (*Result, error) {
	start := time.Now()

	root, err := s.validateRoot()
	if err != nil {
		return nil, err
	}

	s.currentPath.Store(root)
	s.reportProgressForce()

	if s.opts.FollowSymlinks {
		if info, err := os.Stat(root); err == nil {
			if id, ok := identify(info); ok {
				s.visited[id] = root
			}
		}
	}

	conf := fastwalk.Config{
		Follow:     false,
		NumWorkers: s.opts.Workers,
	}

	walkErr := s.walk(ctx, &conf, link{path: root, target: root})
	for walkErr == nil {
		next, ok := s.nextLink()
		if !ok {
			break
		}
		walkErr = s.walk(ctx, &conf, next)
	}

	s.walkComplete.Store(true)
	s.reportProgressForce()

	s.mu.Lock()
	files := s.results
	s.mu.Unlock()
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	res := &Result{
		Root:         root,
		Files:        files,
		DirsScanned:  s.dirsScanned.Load(),
		FilesScanned: s.filesScanned.Load(),
		TotalSize:    s.bytesMatched.Load(),
		Elapsed:      time.Since(start),
	}
	s.logger.Info("scan complete",
		"root", root,
		"dirs", res.DirsScanned,
		"files", res.FilesScanned,
		"matched", len(files),
		"elapsed", res.Elapsed)

	if walkErr != nil {
		return res, walkErr
	}
	return res, ctx.Err()
}

func (s *Scanner) nextLink() (link, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.links) == 0 {
		return link{}, false
	}
	next := s.links[0]
	s.links = s.links[1:]
	return next, true
}

// walk runs fastwalk over l.target and reports entries under l.path.
func (s *Scanner) walk(ctx context.Context, conf *fastwalk.Config, l link) error {
	err := fastwalk.Walk(conf, l.target, s.walkCallback(ctx, l))
	if err != nil && !errors.Is(err, fastwalk.ErrSkipFiles) {
		return err
	}
	return nil
}

// validateRoot resolves the root path to absolute and verifies it exists.
func (s *Scanner) validateRoot() (string, error) {
	root, err := filepath.Abs(s.opts.Root)
	if err != nil {
		return "", err
	}

	rootInfo, err := os.Stat(root)
	if err != nil {
		return "", err
	}
	if !rootInfo.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}

	return root, nil
}

// walkCallback returns the callback function for fastwalk.Walk.
func (s *Scanner) walkCallback(ctx context.Context, l link) fs.WalkDirFunc {
	return func(path string, d fs.DirEntry, err error) error {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}

		if l.path != l.target {
			path = l.path + strings.TrimPrefix(path, l.target)
		}
		top := path == l.path

		// Handle errors gracefully - record and continue.
		if err != nil {
			s.recordError(path, err)
			return nil
		}

		if !top && s.filter.Excluded(path) {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		switch {
		case d.IsDir():
			return s.handleDirectory(path, d, top)
		case d.Type()&fs.ModeSymlink != 0:
			s.handleSymlink(path)
		case d.Type().IsRegular():
			info, err := d.Info()
			if err != nil {
				s.recordError(path, err)
				return nil
			}
			s.processFile(path, info)
		}
		return nil
	}
}

// handleDirectory counts a directory and, when following symlinks, records
// its identity so a later link to it is recognised.
func (s *Scanner) handleDirectory(path string, d fs.DirEntry, top bool) error {
	s.dirsScanned.Add(1)
	s.currentPath.Store(path)
	s.reportProgress()

	if !s.opts.FollowSymlinks || top {
		return nil
	}
	info, err := d.Info()
	if err != nil {
		return nil //nolint:nilerr // walked without cycle tracking
	}
	id, ok := identify(info)
	if !ok {
		return nil
	}
	if !s.visit(id, path) {
		return fastwalk.SkipDir
	}
	return nil
}

// handleSymlink records broken links and, when following, queues linked
// directories and admits linked files.
func (s *Scanner) handleSymlink(path string) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.diag.Record(diag.BrokenSymlink, path, err)
			return
		}
		s.recordError(path, err)
		return
	}
	if !s.opts.FollowSymlinks {
		return
	}

	if info.Mode().IsRegular() {
		s.processFile(path, info)
		return
	}
	if !info.IsDir() {
		return
	}

	if id, ok := identify(info); ok && !s.visit(id, path) {
		s.diag.Record(diag.SymlinkCycle, path, ErrSymlinkCycle)
		return
	}
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		s.recordError(path, err)
		return
	}

	s.mu.Lock()
	s.links = append(s.links, link{path: path, target: target})
	s.mu.Unlock()
}

// visit marks a directory as seen and reports whether it was new.
func (s *Scanner) visit(id fileID, path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.visited[id]; seen {
		return false
	}
	s.visited[id] = path
	return true
}

// processFile handles a regular file entry.
func (s *Scanner) processFile(path string, info fs.FileInfo) {
	s.filesScanned.Add(1)

	size := info.Size()
	if !s.filter.Match(path, size) {
		return
	}

	s.filesMatched.Add(1)
	s.bytesMatched.Add(size)

	s.mu.Lock()
	s.results = append(s.results, types.FileRecord{
		Path:    path,
		Size:    size,
		ModTime: info.ModTime(),
	})
	s.mu.Unlock()
}

// recordError counts a traversal failure in diagnostics.
func (s *Scanner) recordError(path string, err error) {
	if cat, ok := diag.CategoryOf(err); ok {
		s.diag.Record(cat, path, err)
	}
}

// reportProgress calls the progress callback if configured.
// Throttles calls to avoid excessive overhead.
func (s *Scanner) reportProgress() {
	if s.opts.OnProgress == nil {
		return
	}

	// Throttle progress updates to every 10ms.
	now := time.Now().UnixMilli()
	last := s.lastProgress.Load()
	if now-last < 10 {
		return
	}
	if !s.lastProgress.CompareAndSwap(last, now) {
		return // Another goroutine updated it.
	}

	s.sendProgress()
}

// reportProgressForce calls the progress callback immediately, bypassing throttle.
func (s *Scanner) reportProgressForce() {
	if s.opts.OnProgress == nil {
		return
	}
	s.lastProgress.Store(time.Now().UnixMilli())
	s.sendProgress()
}

func (s *Scanner) sendProgress() {
	currentPath, _ := s.currentPath.Load().(string)

	s.opts.OnProgress(Progress{
		DirsScanned:  s.dirsScanned.Load(),
		FilesScanned: s.filesScanned.Load(),
		FilesMatched: s.filesMatched.Load(),
		BytesMatched: s.bytesMatched.Load(),
		CurrentPath:  currentPath,
		WalkComplete: s.walkComplete.Load(),
	})
}
