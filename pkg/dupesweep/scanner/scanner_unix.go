//go:build unix

package scanner

import (
	"io/fs"
	"syscall"
)

// identify returns the device and inode of info.
func identify(info fs.FileInfo) (fileID, bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return fileID{}, false
	}
	return fileID{dev: uint64(stat.Dev), ino: uint64(stat.Ino)}, true //nolint:unconvert // Dev and Ino widths vary by platform
}
