//go:build darwin

package tuner

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// Detect detects CPU cores and total physical memory.
// On darwin memory comes from the hw.memsize sysctl.
func Detect() (SystemResources, error) {
	resources := SystemResources{CPUCores: runtime.NumCPU()}

	memsize, err := unix.SysctlUint64("hw.memsize")
	if err != nil {
		return resources, fmt.Errorf("sysctl hw.memsize: %w", err)
	}
	resources.TotalRAM = int64(memsize)

	return resources, nil
}

// NewMediumDetector returns the platform detector. Darwin exposes no cheap
// rotational flag without IOKit, so it reports MediumUnknown.
func NewMediumDetector() MediumDetector {
	return MediumDetectorFunc(func(ctx context.Context, path string) (Medium, error) {
		return MediumUnknown, nil
	})
}
