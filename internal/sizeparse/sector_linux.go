//go:build linux

package sizeparse

import (
	"os"

	"golang.org/x/sys/unix"
)

// blockSectorSize probes a Linux block device's logical sector size via
// the BLKSSZGET ioctl, falling back to 512 on any error.
func blockSectorSize(path string) int {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return 512
	}
	defer f.Close()

	sz, err := unix.IoctlGetInt(int(f.Fd()), unix.BLKSSZGET)
	if err != nil {
		return 512
	}
	return sz
}

// blockDeviceSize probes a Linux block device's total size in bytes via
// the BLKGETSIZE64 ioctl, returning ok=false on any error.
func blockDeviceSize(path string) (int64, bool) {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return 0, false
	}
	defer f.Close()

	sz, err := unix.IoctlGetUint64(int(f.Fd()), unix.BLKGETSIZE64)
	if err != nil {
		return 0, false
	}
	return int64(sz), true
}
