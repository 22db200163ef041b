//go:build unix

package archivertest

import (
	"errors"

	"golang.org/x/sys/unix"
)

// Alive reports whether a process with the given pid still exists,
// zombies included.
func Alive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
