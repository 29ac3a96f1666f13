// Package engine finds duplicate files and folders by content.
//
// Files are grouped by size first; a file with a unique size is never read.
// Files sharing a size are hashed over their first 4096 bytes, and only files
// that also share that prefix digest are hashed in full. Duplicate folders are
// then found from the full digests, and files inside a duplicate folder are
// removed from the file-level report so nothing is reported twice.
package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jamesainslie/dupesweep/pkg/dupesweep/cache"
	"github.com/jamesainslie/dupesweep/pkg/dupesweep/diag"
	"github.com/jamesainslie/dupesweep/pkg/dupesweep/executor"
	"github.com/jamesainslie/dupesweep/pkg/dupesweep/folder"
	"github.com/jamesainslie/dupesweep/pkg/dupesweep/hasher"
	"github.com/jamesainslie/dupesweep/pkg/dupesweep/logging"
	"github.com/jamesainslie/dupesweep/pkg/dupesweep/tuner"
	"github.com/jamesainslie/dupesweep/pkg/dupesweep/types"
)

// Engine runs the dedup pipeline. An Engine may be reused for several runs,
// but not concurrently; the prefix cache is emptied at the start of each run.
type Engine struct {
	opts   Options
	hasher executor.Hasher
	cache  *cache.HashCache
	logger *logging.Logger

	profileOnce sync.Once
	profile     tuner.Profile
	adaptive    *tuner.Adaptive
	exec        *executor.Executor

	// progress state for the stage currently running
	stage     string
	stageDone int
	stageSize int
}

// New creates an Engine. It fails only if the hash algorithm is unknown.
func New(opts Options) (*Engine, error) {
	h := opts.Hasher
	if h == nil {
		hh, err := hasher.New(hasher.Options{
			Fs:            opts.Fs,
			Algorithm:     opts.Algorithm,
			MmapThreshold: opts.MmapThreshold,
		})
		if err != nil {
			return nil, err
		}
		h = hh
	}

	return &Engine{
		opts:   opts,
		hasher: h,
		cache:  cache.New(opts.CacheSize),
		logger: logging.Get("engine"),
	}, nil
}

// Profile returns the resource profile, probing the host on first use.
func (e *Engine) Profile(ctx context.Context) tuner.Profile {
	e.profileOnce.Do(func() {
		var p tuner.Profile
		if e.opts.Profile != nil {
			p = *e.opts.Profile
		} else {
			var warnings []error
			p, warnings = tuner.ProfileSystem(ctx, tuner.Options{Path: e.opts.Root})
			for _, w := range warnings {
				e.logger.Warn("resource profiling fell back to defaults", "err", w)
			}
		}
		p = p.WithOverride(e.opts.ManualWorkers)
		e.profile = p

		if e.opts.Adaptive && p.Override == 0 {
			e.adaptive = tuner.NewAdaptive(p)
		}
		e.exec = executor.New(executor.Options{
			Hasher:     e.hasher,
			Profile:    p,
			Adaptive:   e.adaptive,
			OnComplete: e.taskDone,
		})

		e.logger.Info("profile",
			"cpus", p.CPUCount,
			"memory_gb", p.MemoryGB(),
			"medium", p.Medium.String(),
			"io_workers", p.IOWorkers,
			"cpu_workers", p.CPUWorkers,
			"override", p.Override,
			"adaptive", e.adaptive != nil)
	})
	return e.profile
}

// Cache returns the prefix digest cache.
func (e *Engine) Cache() *cache.HashCache { return e.cache }

// Run classifies records into duplicate groups, unique files and duplicate
// folders.
//
// If ctx is cancelled, Run stops dispatching work and returns what it has
// concluded so far with Partial set, together with ctx.Err(). Files whose
// classification was still open are counted in Stats.PendingFiles and appear
// in no category.
func (e *Engine) Run(ctx context.Context, records []types.FileRecord) (*types.Result, error) {
	start := time.Now()
	e.Profile(ctx)

	d := e.opts.Diagnostics
	if d == nil {
		d = diag.New(diag.Options{})
	}

	files := uniqueRecords(records)
	res := &types.Result{RunID: uuid.NewString(), Root: e.opts.Root}
	logger := e.logger.With("run", res.RunID)
	logger.Info("run started", "files", len(files), "streaming", e.opts.Streaming)

	e.cache.Clear()
	st := newState(d)
	runErr := e.escalate(ctx, files, st)

	var folders []types.FolderGroup
	if runErr == nil && !e.opts.NoFolders {
		fres, err := folder.Find(ctx, files, st.full, folder.Options{
			Root:       e.opts.Root,
			KeepNested: e.opts.KeepNestedFolders,
		})
		if err != nil {
			runErr = err
		} else {
			folders = fres.Groups
		}
	}

	asm := Assemble(st.groups, st.unique, folders, st.failed)
	res.Duplicates = asm.Duplicates
	res.Unique = asm.Unique
	res.Folders = folders
	res.Skipped = st.skipped
	res.Diagnostics = d.Snapshot()
	res.Partial = runErr != nil

	cacheStats := e.cache.Stats()
	res.Stats = st.stats
	res.Stats.TotalFiles = len(files)
	res.Stats.CacheHits = cacheStats.Hits
	res.Stats.CacheMisses = cacheStats.Misses
	res.Stats.Elapsed = time.Since(start)
	fillStats(&res.Stats, files, res, asm)
	res.Stats.IOWorkers, res.Stats.CPUWorkers = e.workerCounts()

	if res.Partial {
		logger.Warn("run interrupted", "pending", res.Stats.PendingFiles, "err", runErr)
	}
	logger.Info("run complete",
		"duplicate_groups", res.Stats.DuplicateGroups,
		"folder_groups", res.Stats.FolderGroups,
		"unique", res.Stats.UniqueFiles,
		"skipped", res.Stats.SkippedFiles,
		"prefix_hashes", res.Stats.PrefixHashes,
		"full_hashes", res.Stats.FullHashes,
		"elapsed", res.Stats.Elapsed)

	return res, runErr
}

func (e *Engine) workerCounts() (int, int) {
	if e.adaptive != nil {
		return e.adaptive.IOWorkers(), e.adaptive.CPUWorkers()
	}
	return e.profile.IOWorkers, e.profile.CPUWorkers
}

func (e *Engine) taskDone(string, executor.Outcome) {
	e.stageDone++
	if e.opts.Progress != nil {
		e.opts.Progress(Progress{Stage: e.stage, Done: e.stageDone, Total: e.stageSize})
	}
}

func (e *Engine) beginStage(stage string, total int) {
	e.stage, e.stageDone, e.stageSize = stage, 0, total
	if e.opts.Progress != nil {
		e.opts.Progress(Progress{Stage: stage, Total: total})
	}
}

// uniqueRecords drops repeated paths, keeping the first record for each.
func uniqueRecords(records []types.FileRecord) []types.FileRecord {
	seen := make(map[string]struct{}, len(records))
	out := make([]types.FileRecord, 0, len(records))
	for _, r := range records {
		if _, ok := seen[r.Path]; ok {
			continue
		}
		seen[r.Path] = struct{}{}
		out = append(out, r)
	}
	return out
}

func fillStats(s *types.Stats, files []types.FileRecord, res *types.Result, asm Assembly) {
	for _, f := range files {
		s.TotalBytes += f.Size
	}
	for _, g := range res.Duplicates {
		s.DuplicateFiles += len(g.Files)
		s.DuplicateBytes += int64(len(g.Files)) * g.Size
		s.WastedBytes += g.WastedBytes()
	}
	for _, g := range res.Folders {
		s.FoldersCovered += len(g.Folders)
		s.FolderWastedBytes += g.WastedBytes()
	}
	s.DuplicateGroups = len(res.Duplicates)
	s.UniqueFiles = len(res.Unique)
	s.FolderGroups = len(res.Folders)
	s.FilesInFolders = asm.Covered
	s.SkippedFiles = len(res.Skipped)
	sort.Ints(s.EscalationGroupSize)
}
