// Package executor runs hashing tasks on a bounded pool of goroutines.
//
// The pool size for each call is taken from the manual override when one is
// set, otherwise from the adaptive controller or the static profile, capped
// for the size of the workload. Completion order is arbitrary; results are
// keyed by path.
package executor

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/jamesainslie/dupesweep/pkg/dupesweep/logging"
	"github.com/jamesainslie/dupesweep/pkg/dupesweep/tuner"
	"github.com/jamesainslie/dupesweep/pkg/dupesweep/types"
)

// Hasher computes one digest. *hasher.Hasher satisfies it.
type Hasher interface {
	Hash(path string, mode types.HashMode) (types.Digest, error)
}

// Outcome is the result of one task. Exactly one of Digest and Err is set.
type Outcome struct {
	Digest  types.Digest
	Err     error
	Latency time.Duration
}

// Options configures an Executor.
type Options struct {
	// Hasher performs the work. Required.
	Hasher Hasher

	// Profile supplies static worker counts and any manual override.
	Profile tuner.Profile

	// Adaptive, if set, supplies worker counts and receives task latencies.
	Adaptive *tuner.Adaptive

	// OnComplete is called once per finished task from a single goroutine.
	OnComplete func(path string, o Outcome)
}

// Executor dispatches hash tasks.
type Executor struct {
	hasher     Hasher
	profile    tuner.Profile
	adaptive   *tuner.Adaptive
	onComplete func(string, Outcome)
	logger     *logging.Logger
}

// New creates an Executor.
func New(opts Options) *Executor {
	return &Executor{
		hasher:     opts.Hasher,
		profile:    opts.Profile,
		adaptive:   opts.Adaptive,
		onComplete: opts.OnComplete,
		logger:     logging.Get("executor"),
	}
}

// Workers returns the pool size Run would use for n tasks of the given mode.
func (e *Executor) Workers(mode types.HashMode, n int) int {
	switch {
	case e.adaptive != nil && mode == types.ModeFull:
		return e.adaptive.CPUWorkersFor(n)
	case e.adaptive != nil:
		return e.adaptive.IOWorkersFor(n)
	case mode == types.ModeFull:
		return e.profile.CPUWorkersFor(n)
	default:
		return e.profile.IOWorkersFor(n)
	}
}

type completed struct {
	path    string
	outcome Outcome
}

// Run hashes every path in the given mode and returns the outcomes.
//
// When ctx is cancelled no further tasks are started, tasks already running
// finish, and the outcomes gathered so far are returned with ctx.Err().
// Failures of individual files are reported in their Outcome, never as the
// returned error.
func (e *Executor) Run(ctx context.Context, paths []string, mode types.HashMode) (map[string]Outcome, error) {
	out := make(map[string]Outcome, len(paths))
	if len(paths) == 0 {
		return out, nil
	}

	workers := e.Workers(mode, len(paths))
	e.logger.Debug("dispatching", "mode", mode.String(), "tasks", len(paths), "workers", workers)

	class := tuner.ClassIO
	if mode == types.ModeFull {
		class = tuner.ClassCPU
	}

	results := make(chan completed, workers)
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for c := range results {
			out[c.path] = c.outcome
			if e.adaptive != nil {
				e.adaptive.Record(class, c.outcome.Latency)
			}
			if e.onComplete != nil {
				e.onComplete(c.path, c.outcome)
			}
		}
	}()

	// Admission goes through the semaphore so a cancelled ctx stops dispatch
	// even while every worker is busy.
	sem := semaphore.NewWeighted(int64(workers))
	var g errgroup.Group

	var stopped error
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			stopped = err
			break
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			stopped = err
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			start := time.Now()
			d, err := e.hasher.Hash(path, mode)
			results <- completed{path: path, outcome: Outcome{
				Digest:  d,
				Err:     err,
				Latency: time.Since(start),
			}}
			return nil
		})
	}

	_ = g.Wait()
	close(results)
	<-collected

	if stopped != nil {
		e.logger.Info("dispatch stopped", "mode", mode.String(), "completed", len(out), "tasks", len(paths))
	}
	return out, stopped
}
