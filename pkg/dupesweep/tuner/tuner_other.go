//go:build !darwin && !linux

package tuner

import (
	"context"
	"runtime"
)

// Detect detects CPU cores. Memory is not probed on this platform and
// falls back to 8GB.
func Detect() (SystemResources, error) {
	return SystemResources{
		CPUCores: runtime.NumCPU(),
		TotalRAM: defaultTotalRAM,
	}, nil
}

// NewMediumDetector returns a detector that always reports MediumUnknown.
func NewMediumDetector() MediumDetector {
	return MediumDetectorFunc(func(ctx context.Context, path string) (Medium, error) {
		return MediumUnknown, nil
	})
}
