package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/dupesweep/pkg/dupesweep/diag"
	"github.com/jamesainslie/dupesweep/pkg/dupesweep/types"
)

// TestDefaultOptions verifies default options are set correctly.
func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if opts.Root != "." {
		t.Errorf("expected Root='.', got %q", opts.Root)
	}
	if opts.MinSize != 0 {
		t.Errorf("expected MinSize=0, got %d", opts.MinSize)
	}
	if opts.FollowSymlinks {
		t.Error("expected FollowSymlinks to be off by default")
	}
}

// TestOptionsValidate verifies validation sets defaults for invalid values.
func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name        string
		opts        Options
		wantRoot    string
		wantWorkers int
		wantMinSize int64
	}{
		{
			name:     "empty options",
			opts:     Options{},
			wantRoot: ".",
		},
		{
			name:     "negative values",
			opts:     Options{Workers: -1, MinSize: -5},
			wantRoot: ".",
		},
		{
			name:        "valid options unchanged",
			opts:        Options{Root: "/tmp", Workers: 4, MinSize: 10},
			wantRoot:    "/tmp",
			wantWorkers: 4,
			wantMinSize: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.opts.Validate())
			assert.Equal(t, tt.wantRoot, tt.opts.Root)
			assert.Equal(t, tt.wantWorkers, tt.opts.Workers)
			assert.Equal(t, tt.wantMinSize, tt.opts.MinSize)
		})
	}
}

// createTestDir builds:
//
//	root/
//	  empty.txt (0 bytes)
//	  small.txt (10 bytes)
//	  large.txt (1 MiB)
//	  subdir/
//	    medium.txt (100 KiB)
//	    nested/
//	      big.txt (2 MiB)
//	  excluded/
//	    ignored.txt (1 MiB)
func createTestDir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	for _, dir := range []string{"subdir/nested", "excluded"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o755))
	}

	files := []struct {
		path string
		size int64
	}{
		{"empty.txt", 0},
		{"small.txt", 10},
		{"large.txt", types.MiB},
		{"subdir/medium.txt", 100 * types.KiB},
		{"subdir/nested/big.txt", 2 * types.MiB},
		{"excluded/ignored.txt", types.MiB},
	}
	for _, f := range files {
		require.NoError(t, createFileOfSize(filepath.Join(root, f.path), f.size))
	}
	return root
}

// createFileOfSize creates a file with the specified size.
func createFileOfSize(path string, size int64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if size > 0 {
		if err := f.Truncate(size); err != nil {
			_ = f.Close()
			return err
		}
	}
	return f.Close()
}

func scan(t *testing.T, opts Options) *Result {
	t.Helper()
	s, err := New(opts)
	require.NoError(t, err)
	res, err := s.Scan(context.Background())
	require.NoError(t, err)
	return res
}

func relPaths(root string, files []types.FileRecord) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		rel, _ := filepath.Rel(root, f.Path)
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

// TestScanBasic verifies basic scanning functionality.
func TestScanBasic(t *testing.T) {
	root := createTestDir(t)

	result := scan(t, Options{Root: root, MinSize: 500 * types.KiB})

	assert.Equal(t, []string{"excluded/ignored.txt", "large.txt", "subdir/nested/big.txt"}, relPaths(root, result.Files))
	assert.GreaterOrEqual(t, result.DirsScanned, int64(4))
	assert.Equal(t, int64(6), result.FilesScanned)
	assert.Equal(t, 4*types.MiB, result.TotalSize)
	assert.NotZero(t, result.Elapsed)
}

// TestScanIncludesEmptyFiles verifies zero-size files are listed by default.
func TestScanIncludesEmptyFiles(t *testing.T) {
	root := createTestDir(t)

	result := scan(t, Options{Root: root})

	assert.Len(t, result.Files, 6)
	assert.Contains(t, relPaths(root, result.Files), "empty.txt")
}

// TestScanWithExclusions verifies a directory path excludes its subtree.
func TestScanWithExclusions(t *testing.T) {
	root := createTestDir(t)

	result := scan(t, Options{
		Root:    root,
		MinSize: 500 * types.KiB,
		Exclude: []string{filepath.Join(root, "excluded")},
	})

	assert.Equal(t, []string{"large.txt", "subdir/nested/big.txt"}, relPaths(root, result.Files))
}

// TestScanWithGlobExclusion verifies glob pattern exclusions work.
func TestScanWithGlobExclusion(t *testing.T) {
	root := createTestDir(t)

	result := scan(t, Options{Root: root, Exclude: []string{"*.txt"}})

	if len(result.Files) != 0 {
		t.Errorf("expected 0 files (all .txt excluded), got %d", len(result.Files))
	}
}

// TestScanWithDirectoryNameExclusion verifies a bare directory name skips it anywhere.
func TestScanWithDirectoryNameExclusion(t *testing.T) {
	root := createTestDir(t)

	result := scan(t, Options{Root: root, Exclude: []string{"nested"}})

	assert.NotContains(t, relPaths(root, result.Files), "subdir/nested/big.txt")
	assert.Contains(t, relPaths(root, result.Files), "subdir/medium.txt")
}

// TestScanInvalidPattern verifies a bad glob is rejected up front.
func TestScanInvalidPattern(t *testing.T) {
	_, err := New(Options{Root: t.TempDir(), Exclude: []string{"[oops"}})
	require.Error(t, err)
}

// TestScanFileRecord verifies the fields of returned records.
func TestScanFileRecord(t *testing.T) {
	root := createTestDir(t)

	result := scan(t, Options{Root: root, MinSize: 2 * types.MiB})

	require.Len(t, result.Files, 1)
	f := result.Files[0]
	assert.True(t, filepath.IsAbs(f.Path))
	assert.Equal(t, 2*types.MiB, f.Size)
	assert.False(t, f.ModTime.IsZero())
}

// TestScanContextCancellation verifies the scanner respects context cancellation.
func TestScanContextCancellation(t *testing.T) {
	root := createTestDir(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := New(Options{Root: root})
	require.NoError(t, err)
	result, err := s.Scan(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	if result == nil {
		t.Error("expected result to be non-nil even with cancellation")
	}
}

// TestScanProgress verifies progress callbacks are called.
func TestScanProgress(t *testing.T) {
	root := createTestDir(t)

	var calls atomic.Int32
	var sawComplete atomic.Bool
	scan(t, Options{
		Root: root,
		OnProgress: func(p Progress) {
			calls.Add(1)
			if p.WalkComplete {
				sawComplete.Store(true)
			}
		},
	})

	assert.GreaterOrEqual(t, calls.Load(), int32(2))
	assert.True(t, sawComplete.Load())
}

// TestScanNonExistentPath verifies error handling for non-existent paths.
func TestScanNonExistentPath(t *testing.T) {
	s, err := New(Options{Root: "/this/path/does/not/exist"})
	require.NoError(t, err)

	_, err = s.Scan(context.Background())
	assert.True(t, errors.Is(err, os.ErrNotExist), "got %v", err)
}

// TestScanFileNotDirectory verifies error handling when root is a file.
func TestScanFileNotDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, createFileOfSize(path, 1))

	s, err := New(Options{Root: path})
	require.NoError(t, err)

	_, err = s.Scan(context.Background())
	assert.ErrorIs(t, err, ErrNotDirectory)
}

// TestScanBrokenSymlink verifies dangling links are counted, not listed.
func TestScanBrokenSymlink(t *testing.T) {
	root := createTestDir(t)
	require.NoError(t, os.Symlink(filepath.Join(root, "missing"), filepath.Join(root, "dangling")))

	d := diag.New(diag.Options{})
	result := scan(t, Options{Root: root, Diagnostics: d})

	assert.Len(t, result.Files, 6)
	assert.Equal(t, int64(1), d.Count(diag.BrokenSymlink))
}

// TestScanSymlinksNotFollowedByDefault verifies links are skipped unless enabled.
func TestScanSymlinksNotFollowedByDefault(t *testing.T) {
	root := createTestDir(t)
	outside := t.TempDir()
	require.NoError(t, createFileOfSize(filepath.Join(outside, "x.bin"), 3))
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "ext")))

	result := scan(t, Options{Root: root})

	assert.NotContains(t, relPaths(root, result.Files), "ext/x.bin")
}

// TestScanFollowSymlinks verifies linked directories and files are listed
// under the link path.
func TestScanFollowSymlinks(t *testing.T) {
	root := createTestDir(t)
	outside := t.TempDir()
	require.NoError(t, createFileOfSize(filepath.Join(outside, "x.bin"), 3))
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "ext")))
	require.NoError(t, os.Symlink(filepath.Join(outside, "x.bin"), filepath.Join(root, "alias.bin")))

	d := diag.New(diag.Options{})
	result := scan(t, Options{Root: root, FollowSymlinks: true, Diagnostics: d})

	paths := relPaths(root, result.Files)
	assert.Contains(t, paths, "ext/x.bin")
	assert.Contains(t, paths, "alias.bin")
	assert.Zero(t, d.Count(diag.SymlinkCycle))
}

// TestScanSymlinkCycle verifies a link back to an ancestor is reported once
// and not descended into.
func TestScanSymlinkCycle(t *testing.T) {
	root := createTestDir(t)
	require.NoError(t, os.Symlink(root, filepath.Join(root, "subdir", "loop")))

	d := diag.New(diag.Options{})
	result := scan(t, Options{Root: root, FollowSymlinks: true, Diagnostics: d})

	assert.Len(t, result.Files, 6)
	assert.Equal(t, int64(1), d.Count(diag.SymlinkCycle))
}

// TestScanPermissionErrors verifies errors are recorded without stopping scan.
func TestScanPermissionErrors(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("skipping permission test as root")
	}

	root := createTestDir(t)
	noReadDir := filepath.Join(root, "noread")
	require.NoError(t, os.Mkdir(noReadDir, 0o000))
	t.Cleanup(func() { _ = os.Chmod(noReadDir, 0o755) })

	d := diag.New(diag.Options{})
	result := scan(t, Options{Root: root, Diagnostics: d})

	assert.Equal(t, int64(1), d.Count(diag.PermissionDenied))
	assert.Len(t, result.Files, 6)
}

// TestScanEmptyDirectory verifies scanning an empty directory.
func TestScanEmptyDirectory(t *testing.T) {
	result := scan(t, Options{Root: t.TempDir()})

	if len(result.Files) != 0 {
		t.Errorf("expected 0 files, got %d", len(result.Files))
	}
	if result.DirsScanned != 1 {
		t.Errorf("expected 1 dir scanned, got %d", result.DirsScanned)
	}
}
