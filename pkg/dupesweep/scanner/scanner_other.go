//go:build !unix

package scanner

import "io/fs"

// identify is unsupported here; symlinked directories are followed without
// cycle detection beyond the queue of pending links.
func identify(fs.FileInfo) (fileID, bool) {
	return fileID{}, false
}
