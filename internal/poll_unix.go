//go:build unix

package internal

import (
	"os"

	"golang.org/x/sys/unix"
)

// PollRead waits until at least one of fds is ready for reading or timeoutMs
// expires, returning the ready subset in the order poll(2) reports it. A
// negative timeout blocks until an event occurs.
//
// EINTR is not a failure: the call returns an empty ready set so that the
// caller can recheck its timers and wait again.
func PollRead(fds []int, timeoutMs int) ([]int, error) {
	pfds := make([]unix.PollFd, len(fds))
	for i, fd := range fds {
		pfds[i] = unix.PollFd{Fd: int32(fd), Events: unix.POLLIN}
	}

	n, err := unix.Poll(pfds, timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, os.NewSyscallError("poll_wait", err)
	}
	if n == 0 {
		return nil, nil
	}

	// POLLHUP and POLLERR are delivered even when unrequested; both mean the
	// next read will not block, which is all the loop needs to know.
	ready := make([]int, 0, n)
	for i := range pfds {
		if pfds[i].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
			ready = append(ready, int(pfds[i].Fd))
		}
	}
	return ready, nil
}
