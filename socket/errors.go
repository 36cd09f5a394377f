package socket

import (
	"errors"
	"syscall"
)

// IsWouldBlock reports whether err means the operation could not complete
// without blocking: nothing queued to receive or no room left to send. The
// condition is transient and the caller should wait for readiness.
func IsWouldBlock(err error) bool {
	// EWOULDBLOCK aliases EAGAIN on every platform we build for.
	return errors.Is(err, syscall.EAGAIN)
}
