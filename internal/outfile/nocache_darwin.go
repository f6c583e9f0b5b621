//go:build darwin

package outfile

import (
	"os"

	"golang.org/x/sys/unix"
)

// applyDarwinNoCache requests F_NOCACHE to bypass the unified buffer
// cache, matching the original implementation's macOS-only hint.
// Failure is ignored: it's an optimization, not a correctness
// requirement.
func applyDarwinNoCache(f *os.File) {
	_, _ = unix.FcntlInt(f.Fd(), unix.F_NOCACHE, 1)
}
