//go:build linux

package tuner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sys/unix"
)

// Detect detects CPU cores and total physical memory via sysinfo(2).
func Detect() (SystemResources, error) {
	resources := SystemResources{CPUCores: runtime.NumCPU()}

	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return resources, fmt.Errorf("sysinfo: %w", err)
	}
	resources.TotalRAM = int64(info.Totalram) * int64(info.Unit)

	return resources, nil
}

// sysfsDetector reads the block queue rotational flag for the device that
// holds a path.
type sysfsDetector struct {
	// root is the sysfs mount point, "/sys" outside tests.
	root string
}

// NewMediumDetector returns the sysfs-based detector.
func NewMediumDetector() MediumDetector {
	return &sysfsDetector{root: "/sys"}
}

// DetectMedium stats path, maps its device number to
// /sys/dev/block/MAJ:MIN and reads queue/rotational. Partitions have no queue
// directory of their own, so the parent disk is consulted.
func (d *sysfsDetector) DetectMedium(ctx context.Context, path string) (Medium, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return MediumUnknown, fmt.Errorf("stat %s: %w", path, err)
	}

	dev := uint64(st.Dev)
	link := filepath.Join(d.root, "dev", "block", fmt.Sprintf("%d:%d", unix.Major(dev), unix.Minor(dev)))
	devDir, err := filepath.EvalSymlinks(link)
	if err != nil {
		// Virtual filesystems (tmpfs, overlay) have no block device entry.
		return MediumUnknown, nil
	}

	for _, dir := range []string{devDir, filepath.Dir(devDir)} {
		if err := ctx.Err(); err != nil {
			return MediumUnknown, err
		}
		raw, err := os.ReadFile(filepath.Join(dir, "queue", "rotational"))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return MediumUnknown, fmt.Errorf("reading rotational flag: %w", err)
		}
		switch strings.TrimSpace(string(raw)) {
		case "1":
			return MediumRotational, nil
		case "0":
			return MediumSolidState, nil
		}
		return MediumUnknown, nil
	}

	return MediumUnknown, nil
}
