//go:build unix

package serialdev

import (
	"errors"
	"io/fs"

	"golang.org/x/sys/unix"
)

// isPipeError reports whether err is the POSIX equivalent of EPIPE, so
// peer disconnects surface as Pipe rather than a generic IO error.
func isPipeError(err error) bool {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		err = pathErr.Err
	}
	return errors.Is(err, unix.EPIPE)
}
