package hasher

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"syscall"
)

// Kind classifies why a file could not be hashed.
type Kind int

const (
	// KindUnexpected is any failure not covered by another kind.
	KindUnexpected Kind = iota

	// KindPermissionDenied means the file could not be opened or read for lack of access.
	KindPermissionDenied

	// KindNotFound means the file vanished between listing and hashing.
	KindNotFound

	// KindIsDirectory means the path named a directory. It is skipped silently.
	KindIsDirectory

	// KindIO is a read or device failure.
	KindIO
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindPermissionDenied:
		return "permission denied"
	case KindNotFound:
		return "not found"
	case KindIsDirectory:
		return "is a directory"
	case KindIO:
		return "i/o error"
	default:
		return "unexpected"
	}
}

// Error describes a failed hash of one file.
type Error struct {
	Path string
	Mode string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("hash %s %s: %v", e.Mode, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err. Errors that are not *Error are classified
// by their underlying cause.
func KindOf(err error) Kind {
	var he *Error
	if errors.As(err, &he) {
		return he.Kind
	}
	return classify(err)
}

func classify(err error) Kind {
	var pathErr *fs.PathError
	var errno syscall.Errno
	switch {
	case errors.Is(err, fs.ErrPermission):
		return KindPermissionDenied
	case errors.Is(err, fs.ErrNotExist):
		return KindNotFound
	case errors.Is(err, syscall.EISDIR):
		return KindIsDirectory
	case errors.Is(err, io.ErrUnexpectedEOF),
		errors.As(err, &pathErr),
		errors.As(err, &errno):
		return KindIO
	default:
		return KindUnexpected
	}
}
