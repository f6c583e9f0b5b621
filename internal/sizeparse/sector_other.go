//go:build !linux

package sizeparse

// blockSectorSize falls back to 512 on platforms other than Linux. macOS
// exposes DKIOCGETBLOCKSIZE via ioctl(2), but golang.org/x/sys/unix does
// not define that constant (see DESIGN.md); this matches the original
// implementation's own fallback for any platform it doesn't special-case.
func blockSectorSize(path string) int {
	return 512
}

// blockDeviceSize has no portable probe outside Linux here; callers treat
// ok=false as "size unknown," which is also correct for stdout.
func blockDeviceSize(path string) (int64, bool) {
	return 0, false
}
