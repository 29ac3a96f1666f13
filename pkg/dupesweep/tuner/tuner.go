// Package tuner profiles the host once per run and turns the result into
// worker counts and batch sizes for the hashing stages. It detects CPU count,
// physical memory and whether the scan root lives on rotational or solid-state
// storage, and provides an adaptive controller that nudges worker counts from
// observed task latencies.
package tuner

import (
	"context"
	"errors"
	"time"
)

// SystemResources contains detected system resources.
type SystemResources struct {
	// CPUCores is the number of logical CPU cores available.
	CPUCores int

	// TotalRAM is the total physical RAM in bytes.
	TotalRAM int64
}

// Conservative values used when resource detection fails.
const (
	defaultCPUCores = 4
	defaultTotalRAM = 8 * 1024 * 1024 * 1024
)

// DefaultResources returns the conservative fallback: 4 CPUs and 8GB RAM.
func DefaultResources() SystemResources {
	return SystemResources{CPUCores: defaultCPUCores, TotalRAM: defaultTotalRAM}
}

// Medium is the kind of storage backing a path.
type Medium int

const (
	// MediumUnknown means detection was not possible.
	MediumUnknown Medium = iota

	// MediumSolidState is flash or other storage without seek cost.
	MediumSolidState

	// MediumRotational is spinning disk.
	MediumRotational
)

// String returns the medium name.
func (m Medium) String() string {
	switch m {
	case MediumSolidState:
		return "ssd"
	case MediumRotational:
		return "hdd"
	default:
		return "unknown"
	}
}

// MediumDetector reports the storage medium backing a path.
type MediumDetector interface {
	DetectMedium(ctx context.Context, path string) (Medium, error)
}

// MediumDetectorFunc adapts a function to MediumDetector.
type MediumDetectorFunc func(ctx context.Context, path string) (Medium, error)

// DetectMedium calls f.
func (f MediumDetectorFunc) DetectMedium(ctx context.Context, path string) (Medium, error) {
	return f(ctx, path)
}

// MediumProbeTimeout bounds how long medium detection may take.
const MediumProbeTimeout = 3 * time.Second

// ErrProbeTimeout is returned when medium detection exceeds its time budget.
var ErrProbeTimeout = errors.New("medium probe timed out")

// ProbeMedium runs d with a deadline of timeout. Any failure, including an
// unknown answer or a timeout, yields MediumSolidState together with the cause.
func ProbeMedium(ctx context.Context, d MediumDetector, path string, timeout time.Duration) (Medium, error) {
	if d == nil {
		return MediumSolidState, nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type answer struct {
		medium Medium
		err    error
	}
	done := make(chan answer, 1)
	go func() {
		m, err := d.DetectMedium(ctx, path)
		done <- answer{m, err}
	}()

	select {
	case a := <-done:
		if a.err != nil {
			return MediumSolidState, a.err
		}
		if a.medium == MediumUnknown {
			return MediumSolidState, nil
		}
		return a.medium, nil
	case <-ctx.Done():
		return MediumSolidState, ErrProbeTimeout
	}
}

// Options configures ProfileSystem.
type Options struct {
	// Path is the scan root used for medium detection.
	Path string

	// Detector overrides the platform medium detector.
	Detector MediumDetector

	// Detect overrides resource detection.
	Detect func() (SystemResources, error)

	// Timeout bounds medium detection. Zero uses MediumProbeTimeout.
	Timeout time.Duration
}

// ProfileSystem probes the host and returns the resulting Profile. It never
// fails: detection errors fall back to DefaultResources and solid-state media,
// and are returned as warnings for the caller to log.
func ProfileSystem(ctx context.Context, opts Options) (Profile, []error) {
	var warnings []error

	detect := opts.Detect
	if detect == nil {
		detect = Detect
	}
	resources, err := detect()
	if err != nil || resources.CPUCores <= 0 || resources.TotalRAM <= 0 {
		if err != nil {
			warnings = append(warnings, err)
		}
		resources = DefaultResources()
	}

	detector := opts.Detector
	if detector == nil {
		detector = NewMediumDetector()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = MediumProbeTimeout
	}
	medium, err := ProbeMedium(ctx, detector, opts.Path, timeout)
	if err != nil {
		warnings = append(warnings, err)
	}

	return Calculate(resources, medium), warnings
}
