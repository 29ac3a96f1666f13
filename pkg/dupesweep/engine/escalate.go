package engine

import (
	"context"
	"slices"

	"github.com/samber/lo"

	"github.com/jamesainslie/dupesweep/pkg/dupesweep/diag"
	"github.com/jamesainslie/dupesweep/pkg/dupesweep/executor"
	"github.com/jamesainslie/dupesweep/pkg/dupesweep/types"
)

// escalationKey identifies files that share a size and a prefix digest.
type escalationKey struct {
	size   int64
	prefix types.Digest
}

// state is the per-run classification. It is only touched by the goroutine
// running Engine.Run.
type state struct {
	diag    *diag.Diagnostics
	full    map[string]types.Digest
	groups  []types.DuplicateGroup
	unique  []string
	failed  map[string]bool
	skipped []types.SkippedFile
	stats   types.Stats
}

func newState(d *diag.Diagnostics) *state {
	return &state{
		diag:   d,
		full:   make(map[string]types.Digest),
		failed: make(map[string]bool),
	}
}

// fail takes path out of the pipeline. Directories are dropped without a
// diagnostic.
func (s *state) fail(path string, err error) {
	if s.failed[path] {
		return
	}
	s.failed[path] = true
	cat, ok := s.diag.RecordHashError(path, err)
	if !ok {
		return
	}
	s.skipped = append(s.skipped, types.SkippedFile{
		Path:     path,
		Category: string(cat),
		Error:    err.Error(),
	})
}

// escalate runs the size, prefix and full stages. On cancellation the files
// whose group could not be concluded are counted as pending.
func (e *Engine) escalate(ctx context.Context, files []types.FileRecord, st *state) error {
	bySize := lo.GroupBy(files, func(f types.FileRecord) int64 { return f.Size })
	sizes := lo.Keys(bySize)
	slices.Sort(sizes)

	var sizeGroups [][]types.FileRecord
	var candidates []string
	for _, size := range sizes {
		group := bySize[size]
		if len(group) == 1 {
			st.unique = append(st.unique, group[0].Path)
			st.stats.UniqueBySize++
			continue
		}
		sizeGroups = append(sizeGroups, group)
		for _, f := range group {
			candidates = append(candidates, f.Path)
		}
	}

	prefixes, err := e.prefixPass(ctx, candidates, st)
	for p, o := range prefixes {
		if o.Err != nil {
			st.fail(p, o.Err)
		}
	}

	var keyGroups [][]string
	for _, group := range sizeGroups {
		if !complete(group, prefixes, st) {
			st.stats.PendingFiles += pending(group, st)
			continue
		}
		byKey := make(map[escalationKey][]string)
		var order []escalationKey
		for _, f := range group {
			o, ok := prefixes[f.Path]
			if !ok || o.Err != nil {
				continue
			}
			k := escalationKey{size: f.Size, prefix: o.Digest}
			if _, seen := byKey[k]; !seen {
				order = append(order, k)
			}
			byKey[k] = append(byKey[k], f.Path)
		}
		for _, k := range order {
			members := byKey[k]
			if len(members) == 1 {
				st.unique = append(st.unique, members[0])
				continue
			}
			keyGroups = append(keyGroups, members)
		}
	}
	if err != nil {
		for _, members := range keyGroups {
			st.stats.PendingFiles += len(members)
		}
		return err
	}

	st.stats.EscalationGroups = len(keyGroups)
	var escalated []string
	for _, members := range keyGroups {
		st.stats.EscalationGroupSize = append(st.stats.EscalationGroupSize, len(members))
		escalated = append(escalated, members...)
	}

	sizeOf := make(map[string]int64, len(escalated))
	for _, f := range files {
		sizeOf[f.Path] = f.Size
	}

	fulls, err := e.batched(ctx, escalated, types.ModeFull, StageFull, &st.stats.FullHashes)
	for _, members := range keyGroups {
		done := true
		for _, p := range members {
			o, ok := fulls[p]
			switch {
			case !ok:
				done = false
			case o.Err != nil:
				st.fail(p, o.Err)
			default:
				st.full[p] = o.Digest
			}
		}
		if !done {
			for _, p := range members {
				if _, ok := fulls[p]; !ok || fulls[p].Err == nil {
					st.stats.PendingFiles++
				}
			}
			continue
		}

		byDigest := make(map[types.Digest][]string)
		for _, p := range members {
			if d, ok := st.full[p]; ok {
				byDigest[d] = append(byDigest[d], p)
			}
		}
		for d, paths := range byDigest {
			if len(paths) == 1 {
				st.unique = append(st.unique, paths[0])
				continue
			}
			slices.Sort(paths)
			st.groups = append(st.groups, types.DuplicateGroup{
				Digest: d,
				Size:   sizeOf[paths[0]],
				Files:  paths,
			})
		}
	}
	return err
}

// complete reports whether every member of a size group has a prefix outcome.
func complete(group []types.FileRecord, prefixes map[string]executor.Outcome, st *state) bool {
	for _, f := range group {
		if _, ok := prefixes[f.Path]; !ok && !st.failed[f.Path] {
			return false
		}
	}
	return true
}

func pending(group []types.FileRecord, st *state) int {
	n := 0
	for _, f := range group {
		if !st.failed[f.Path] {
			n++
		}
	}
	return n
}

// prefixPass computes prefix digests. In streaming mode each batch's digests
// are stored in the cache and read back once every batch is done; entries
// evicted in the meantime are hashed again.
func (e *Engine) prefixPass(ctx context.Context, paths []string, st *state) (map[string]executor.Outcome, error) {
	if !e.opts.Streaming {
		return e.hashAll(ctx, paths, types.ModePrefix, StagePrefix, &st.stats.PrefixHashes)
	}

	e.beginStage(StagePrefix, len(paths))
	out := make(map[string]executor.Outcome, len(paths))
	if len(paths) == 0 {
		return out, nil
	}

	var hashed []string
	var runErr error
	for _, batch := range lo.Chunk(paths, e.batchSize(len(paths))) {
		if runErr = ctx.Err(); runErr != nil {
			break
		}
		res, err := e.exec.Run(ctx, batch, types.ModePrefix)
		st.stats.PrefixHashes += int64(len(res))
		for p, o := range res {
			if o.Err != nil {
				out[p] = o
				continue
			}
			e.cache.Put(p, o.Digest)
			hashed = append(hashed, p)
		}
		if err != nil {
			runErr = err
			break
		}
	}

	var evicted []string
	for _, p := range hashed {
		if d, ok := e.cache.Get(p); ok {
			out[p] = executor.Outcome{Digest: d}
			continue
		}
		evicted = append(evicted, p)
	}
	if runErr != nil || len(evicted) == 0 {
		return out, runErr
	}

	e.logger.Debug("rehashing evicted prefixes", "files", len(evicted))
	res, err := e.hashAll(ctx, evicted, types.ModePrefix, StagePrefix, &st.stats.PrefixHashes)
	for p, o := range res {
		out[p] = o
	}
	return out, err
}

// batched dispatches paths in one call, or in batches in streaming mode.
func (e *Engine) batched(ctx context.Context, paths []string, mode types.HashMode, stage string, counter *int64) (map[string]executor.Outcome, error) {
	if !e.opts.Streaming || len(paths) == 0 {
		return e.hashAll(ctx, paths, mode, stage, counter)
	}

	e.beginStage(stage, len(paths))
	out := make(map[string]executor.Outcome, len(paths))
	for _, batch := range lo.Chunk(paths, e.batchSize(len(paths))) {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		res, err := e.exec.Run(ctx, batch, mode)
		*counter += int64(len(res))
		for p, o := range res {
			out[p] = o
		}
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

// hashAll dispatches paths in a single executor call.
func (e *Engine) hashAll(ctx context.Context, paths []string, mode types.HashMode, stage string, counter *int64) (map[string]executor.Outcome, error) {
	e.beginStage(stage, len(paths))
	out, err := e.exec.Run(ctx, paths, mode)
	*counter += int64(len(out))
	return out, err
}

func (e *Engine) batchSize(total int) int {
	if e.opts.BatchSize > 0 {
		return e.opts.BatchSize
	}
	return e.profile.BatchSizeFor(total)
}
