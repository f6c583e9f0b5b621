//go:build !darwin

package outfile

import "os"

// applyDarwinNoCache is a no-op outside Darwin; applyNoCacheHint already
// guards on runtime.GOOS so this is never reached but must exist to
// satisfy the build on every platform.
func applyDarwinNoCache(f *os.File) {}
