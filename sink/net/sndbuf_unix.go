//go:build unix

package net

import "golang.org/x/sys/unix"

// sndbufSize reads SO_SNDBUF, the kernel send buffer capacity, for the
// probe-stride and percentage-fill calculations.
func sndbufSize(fd int) (int, bool, error) {
	n, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}
