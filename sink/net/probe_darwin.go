//go:build darwin

package net

import "golang.org/x/sys/unix"

// sendQueueLen reads the kernel's outstanding send-queue byte count via
// SO_NWRITE.
func sendQueueLen(fd int) (int, bool, error) {
	n, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_NWRITE)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}
