package tuner

import (
	"sync"
	"time"

	"github.com/jamesainslie/dupesweep/pkg/dupesweep/logging"
	"github.com/jamesainslie/dupesweep/pkg/dupesweep/ring"
)

// Adaptive tuning parameters.
const (
	// latencyWindow is how many recent latencies are kept per task class.
	latencyWindow = 100

	// adjustEvery is how many recorded samples pass between adjustments.
	adjustEvery = 50

	// recentSamples is how many of the newest samples are averaged.
	recentSamples = 20

	ioSlow = 1 * time.Second
	ioFast = 100 * time.Millisecond

	cpuSlow = 2 * time.Second
	cpuFast = 500 * time.Millisecond

	// minAdaptiveCPUWorkers is the floor when shrinking the CPU pool.
	minAdaptiveCPUWorkers = 2
)

// TaskClass distinguishes read-bound from compute-bound work.
type TaskClass int

const (
	// ClassIO is read-bound work such as prefix hashing.
	ClassIO TaskClass = iota

	// ClassCPU is compute-bound work such as full hashing.
	ClassCPU
)

// Adaptive adjusts worker counts from observed task latencies.
//
// Slow I/O tasks shrink the I/O pool and fast ones grow it up to twice the
// profiled recommendation. Slow CPU tasks grow the CPU pool up to the CPU
// count and fast ones shrink it, never below 2. When the profile carries a
// manual override the counts never move.
//
// Record is meant to be called from a single goroutine; the worker counts
// may be read from any goroutine.
type Adaptive struct {
	mu      sync.Mutex
	profile Profile
	io      int
	cpu     int
	maxIO   int
	ioLat   *ring.Buffer[time.Duration]
	cpuLat  *ring.Buffer[time.Duration]
	samples int
	logger  *logging.Logger
}

// NewAdaptive creates a controller starting from the profile's recommendation.
func NewAdaptive(p Profile) *Adaptive {
	return &Adaptive{
		profile: p,
		io:      max(1, p.IOWorkers),
		cpu:     max(1, p.CPUWorkers),
		maxIO:   max(1, p.IOWorkers*2),
		ioLat:   ring.New[time.Duration](latencyWindow),
		cpuLat:  ring.New[time.Duration](latencyWindow),
		logger:  logging.Get("tuner"),
	}
}

// Profile returns the profile the controller was created from.
func (a *Adaptive) Profile() Profile {
	return a.profile
}

// Record adds one task latency and re-evaluates worker counts every
// adjustEvery samples across both classes.
func (a *Adaptive) Record(class TaskClass, latency time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if class == ClassCPU {
		a.cpuLat.Push(latency)
	} else {
		a.ioLat.Push(latency)
	}

	a.samples++
	if a.samples%adjustEvery != 0 || a.profile.Override > 0 {
		return
	}
	a.adjust()
}

// adjust must be called with a.mu held.
func (a *Adaptive) adjust() {
	prevIO, prevCPU := a.io, a.cpu

	if a.ioLat.Len() >= recentSamples {
		avg := average(a.ioLat.Last(recentSamples))
		switch {
		case avg > ioSlow:
			a.io = max(1, a.io-1)
		case avg < ioFast:
			a.io = min(a.io+1, a.maxIO)
		}
	}

	if a.cpuLat.Len() >= recentSamples {
		avg := average(a.cpuLat.Last(recentSamples))
		switch {
		case avg > cpuSlow:
			a.cpu = min(a.cpu+1, max(a.profile.CPUCount, 1))
		case avg < cpuFast && a.cpu > minAdaptiveCPUWorkers:
			a.cpu = max(minAdaptiveCPUWorkers, a.cpu-1)
		}
	}

	if a.io != prevIO || a.cpu != prevCPU {
		a.logger.Debug("adjusted workers",
			"io", a.io, "io_was", prevIO,
			"cpu", a.cpu, "cpu_was", prevCPU)
	}
}

// IOWorkers returns the current I/O worker count.
func (a *Adaptive) IOWorkers() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.io
}

// CPUWorkers returns the current CPU worker count.
func (a *Adaptive) CPUWorkers() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cpu
}

// IOWorkersFor returns the current I/O worker count capped for files.
func (a *Adaptive) IOWorkersFor(files int) int {
	p := a.profile
	p.IOWorkers = a.IOWorkers()
	return p.IOWorkersFor(files)
}

// CPUWorkersFor returns the current CPU worker count capped for tasks.
func (a *Adaptive) CPUWorkersFor(tasks int) int {
	p := a.profile
	p.CPUWorkers = a.CPUWorkers()
	return p.CPUWorkersFor(tasks)
}

// Samples returns the total number of latencies recorded.
func (a *Adaptive) Samples() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.samples
}

func average(ds []time.Duration) time.Duration {
	if len(ds) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range ds {
		sum += d
	}
	return sum / time.Duration(len(ds))
}
