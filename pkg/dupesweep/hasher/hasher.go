// Package hasher computes prefix and full content digests.
//
// A prefix digest covers at most the first 4096 bytes of a file and is used
// to split files of equal size cheaply. A full digest covers the whole file.
// Both are hex encoded and deterministic; the empty file hashes to the digest
// of the empty stream.
package hasher

import (
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"os"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/edsrzf/mmap-go"
	"github.com/spf13/afero"

	"github.com/jamesainslie/dupesweep/pkg/dupesweep/types"
)

// ChunkSize is the read size used when streaming a full hash.
const ChunkSize = 64 * 1024

// DefaultMmapThreshold is the file size from which full hashes read through
// a memory mapping instead of chunked reads.
const DefaultMmapThreshold = 64 * types.MiB

// Options configures a Hasher.
type Options struct {
	// Fs is the filesystem files are read from. Nil uses the OS filesystem.
	Fs afero.Fs

	// Algorithm names the hash function. Empty uses DefaultAlgorithm.
	Algorithm string

	// MmapThreshold is the minimum size for memory-mapped full hashing.
	// Zero uses DefaultMmapThreshold; negative disables mapping.
	MmapThreshold int64
}

// Hasher computes digests. It is safe for concurrent use.
type Hasher struct {
	fs            afero.Fs
	algo          Algorithm
	mmapThreshold int64

	prefixCalls atomic.Int64
	fullCalls   atomic.Int64
	mapped      atomic.Int64

	chunks sync.Pool
}

// New creates a Hasher.
func New(opts Options) (*Hasher, error) {
	algo, err := LookupAlgorithm(opts.Algorithm)
	if err != nil {
		return nil, err
	}

	fsys := opts.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}

	threshold := opts.MmapThreshold
	if threshold == 0 {
		threshold = DefaultMmapThreshold
	}

	h := &Hasher{fs: fsys, algo: algo, mmapThreshold: threshold}
	h.chunks.New = func() any {
		b := make([]byte, ChunkSize)
		return &b
	}
	return h, nil
}

// Algorithm returns the configured algorithm.
func (h *Hasher) Algorithm() Algorithm { return h.algo }

// Hash computes the digest of path in the given mode.
func (h *Hasher) Hash(path string, mode types.HashMode) (types.Digest, error) {
	if mode == types.ModeFull {
		return h.Full(path)
	}
	return h.Prefix(path)
}

// Prefix hashes at most the first types.PrefixSize bytes of path.
func (h *Hasher) Prefix(path string) (types.Digest, error) {
	h.prefixCalls.Add(1)

	f, _, err := h.open(path, types.ModePrefix)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var buf [types.PrefixSize]byte
	n, err := io.ReadFull(f, buf[:])
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", h.fail(path, types.ModePrefix, err)
	}

	d := h.algo.New()
	d.Write(buf[:n])
	return types.Digest(hex.EncodeToString(d.Sum(nil))), nil
}

// Full hashes the entire content of path.
func (h *Hasher) Full(path string) (types.Digest, error) {
	h.fullCalls.Add(1)

	f, size, err := h.open(path, types.ModeFull)
	if err != nil {
		return "", err
	}
	defer f.Close()

	d := h.algo.New()

	if osf, ok := f.(*os.File); ok && h.mmapThreshold > 0 && size >= h.mmapThreshold {
		if m, merr := mmap.Map(osf, mmap.RDONLY, 0); merr == nil {
			d.Write(m)
			h.mapped.Add(1)
			if uerr := m.Unmap(); uerr != nil {
				return "", h.fail(path, types.ModeFull, uerr)
			}
			return types.Digest(hex.EncodeToString(d.Sum(nil))), nil
		}
	}

	bp := h.chunks.Get().(*[]byte)
	defer h.chunks.Put(bp)
	buf := *bp

	for {
		n, rerr := f.Read(buf)
		if n > 0 {
			d.Write(buf[:n])
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return "", h.fail(path, types.ModeFull, rerr)
		}
	}

	return types.Digest(hex.EncodeToString(d.Sum(nil))), nil
}

// open opens path and rejects directories.
func (h *Hasher) open(path string, mode types.HashMode) (afero.File, int64, error) {
	f, err := h.fs.Open(path)
	if err != nil {
		return nil, 0, h.fail(path, mode, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, h.fail(path, mode, err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, 0, h.fail(path, mode, &fs.PathError{Op: "read", Path: path, Err: syscall.EISDIR})
	}
	return f, info.Size(), nil
}

func (h *Hasher) fail(path string, mode types.HashMode, err error) error {
	return &Error{Path: path, Mode: mode.String(), Kind: classify(err), Err: err}
}

// Calls returns how many hashes of the given mode were requested.
func (h *Hasher) Calls(mode types.HashMode) int64 {
	if mode == types.ModeFull {
		return h.fullCalls.Load()
	}
	return h.prefixCalls.Load()
}

// Mapped returns how many full hashes were served from a memory mapping.
func (h *Hasher) Mapped() int64 { return h.mapped.Load() }
