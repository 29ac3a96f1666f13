package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/dupesweep/pkg/dupesweep/tuner"
	"github.com/jamesainslie/dupesweep/pkg/dupesweep/types"
)

// fakeHasher returns the path as its digest and fails paths in fail.
type fakeHasher struct {
	fail    map[string]bool
	delay   time.Duration
	active  atomic.Int64
	peak    atomic.Int64
	calls   atomic.Int64
	started chan string
	release chan struct{}
}

func (f *fakeHasher) Hash(path string, mode types.HashMode) (types.Digest, error) {
	f.calls.Add(1)
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	if f.started != nil {
		f.started <- path
	}
	if f.release != nil {
		<-f.release
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.fail[path] {
		return "", errors.New("unreadable")
	}
	return types.Digest(mode.String() + ":" + path), nil
}

func paths(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("/f%03d", i)
	}
	return out
}

func TestRun_ReturnsEveryOutcome(t *testing.T) {
	h := &fakeHasher{fail: map[string]bool{"/f003": true}}
	e := New(Options{Hasher: h, Profile: tuner.Profile{IOWorkers: 4, CPUWorkers: 2}})

	out, err := e.Run(context.Background(), paths(10), types.ModePrefix)

	require.NoError(t, err)
	require.Len(t, out, 10)
	assert.Equal(t, types.Digest("prefix:/f000"), out["/f000"].Digest)
	assert.Error(t, out["/f003"].Err)
	assert.Empty(t, out["/f003"].Digest)
}

func TestRun_Empty(t *testing.T) {
	e := New(Options{Hasher: &fakeHasher{}})

	out, err := e.Run(context.Background(), nil, types.ModeFull)

	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRun_BoundsConcurrency(t *testing.T) {
	h := &fakeHasher{delay: 5 * time.Millisecond}
	p := tuner.Profile{IOWorkers: 24, CPUWorkers: 8}.WithOverride(3)
	e := New(Options{Hasher: h, Profile: p})

	_, err := e.Run(context.Background(), paths(30), types.ModeFull)

	require.NoError(t, err)
	assert.LessOrEqual(t, h.peak.Load(), int64(3))
	assert.Equal(t, int64(30), h.calls.Load())
}

func TestWorkers(t *testing.T) {
	p := tuner.Profile{CPUCount: 16, IOWorkers: 24, CPUWorkers: 15}

	static := New(Options{Profile: p})
	assert.Equal(t, 4, static.Workers(types.ModePrefix, 10))
	assert.Equal(t, 24, static.Workers(types.ModePrefix, 5000))
	assert.Equal(t, 2, static.Workers(types.ModeFull, 10))
	assert.Equal(t, 15, static.Workers(types.ModeFull, 5000))

	manual := New(Options{Profile: p.WithOverride(6), Adaptive: tuner.NewAdaptive(p.WithOverride(6))})
	assert.Equal(t, 6, manual.Workers(types.ModePrefix, 10))
	assert.Equal(t, 6, manual.Workers(types.ModeFull, 10))
}

func TestRun_FeedsAdaptiveAndProgress(t *testing.T) {
	p := tuner.Profile{CPUCount: 4, IOWorkers: 4, CPUWorkers: 3}
	a := tuner.NewAdaptive(p)

	var mu sync.Mutex
	var seen []string
	e := New(Options{
		Hasher:   &fakeHasher{},
		Profile:  p,
		Adaptive: a,
		OnComplete: func(path string, o Outcome) {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, path)
		},
	})

	_, err := e.Run(context.Background(), paths(60), types.ModePrefix)
	require.NoError(t, err)

	assert.Equal(t, 60, a.Samples())
	assert.Len(t, seen, 60)
	// 60 near-instant I/O tasks cross one adjustment point and grow the pool.
	assert.Equal(t, 5, a.IOWorkers())
}

func TestRun_CancelStopsDispatch(t *testing.T) {
	h := &fakeHasher{
		started: make(chan string, 10),
		release: make(chan struct{}),
	}
	p := tuner.Profile{}.WithOverride(2)
	e := New(Options{Hasher: h, Profile: p})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type runResult struct {
		out map[string]Outcome
		err error
	}
	done := make(chan runResult, 1)
	go func() {
		out, err := e.Run(ctx, paths(10), types.ModeFull)
		done <- runResult{out, err}
	}()

	<-h.started
	<-h.started
	cancel()
	close(h.release)

	select {
	case r := <-done:
		assert.ErrorIs(t, r.err, context.Canceled)
		assert.GreaterOrEqual(t, len(r.out), 2)
		assert.Less(t, len(r.out), 10)
		for path, o := range r.out {
			assert.NoError(t, o.Err, path)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
