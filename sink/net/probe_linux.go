//go:build linux

package net

import "golang.org/x/sys/unix"

// sendQueueLen reads the kernel's outstanding send-queue byte count via
// TIOCOUTQ.
func sendQueueLen(fd int) (int, bool, error) {
	n, err := unix.IoctlGetInt(fd, unix.TIOCOUTQ)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}
