// Package sizeparse parses RandQuik's SI/IEC/sector size strings and
// formats byte counts and throughput rates for progress and summary
// output.
package sizeparse

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
)

var (
	reSect = regexp.MustCompile(`^(\d+)\s*sects?$`)
	reIEC  = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*(ki|mi|gi|ti|pi)b?$`)
	reSI   = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([kmgtp])b?$`)
	rePlain = regexp.MustCompile(`^(\d+)$`)
)

var siPrefixes = map[string]float64{
	"k": 1000,
	"m": 1000 * 1000,
	"g": 1000 * 1000 * 1000,
	"t": 1000 * 1000 * 1000 * 1000,
	"p": 1000 * 1000 * 1000 * 1000 * 1000,
}

var iecPrefixes = map[string]float64{
	"ki": 1024,
	"mi": 1024 * 1024,
	"gi": 1024 * 1024 * 1024,
	"ti": 1024 * 1024 * 1024 * 1024,
	"pi": 1024 * 1024 * 1024 * 1024 * 1024,
}

// sectorSizer abstracts the platform sector-size probe so tests can
// substitute a fake without touching a real block device.
type sectorSizer func(path string) int

var (
	sectorCacheMu sync.Mutex
	sectorCache   = map[string]int{}
	sectorProbe   sectorSizer = platformSectorSize
)

// Parse parses a RandQuik size string (plain integer, SI/IEC-prefixed, or
// "Nsect") into a byte count. outputPath, if non-empty, is used to probe
// the sector size of a "sect"-suffixed value; absent an output path (or
// any value not a block device) sector size falls back to 512.
func Parse(length string, outputPath string) (int64, error) {
	s := strings.ToLower(strings.TrimSpace(length))
	s = strings.ReplaceAll(s, "_", "")
	if s == "" {
		return 0, fmt.Errorf("sizeparse: empty size string")
	}

	if m := reSect.FindStringSubmatch(s); m != nil {
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("sizeparse: %q: %w", length, err)
		}
		return n * int64(sectorSize(outputPath)), nil
	}

	if m := reIEC.FindStringSubmatch(s); m != nil {
		num, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, fmt.Errorf("sizeparse: %q: %w", length, err)
		}
		return int64(num * iecPrefixes[m[2]]), nil
	}

	if m := reSI.FindStringSubmatch(s); m != nil {
		num, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, fmt.Errorf("sizeparse: %q: %w", length, err)
		}
		return int64(num * siPrefixes[m[2]]), nil
	}

	if m := rePlain.FindStringSubmatch(s); m != nil {
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("sizeparse: %q: %w", length, err)
		}
		return n, nil
	}

	return 0, fmt.Errorf("sizeparse: invalid size format %q", length)
}

// sectorSize returns the device sector size for path, caching results
// per path, and falling back to 512 when path is empty or not probeable.
func sectorSize(path string) int {
	if path == "" {
		return 512
	}

	sectorCacheMu.Lock()
	defer sectorCacheMu.Unlock()

	if v, ok := sectorCache[path]; ok {
		return v
	}
	v := sectorProbe(path)
	sectorCache[path] = v
	return v
}

// platformSectorSize detects the sector size of the block device at path,
// falling back to 512 for regular files, nonexistent paths, or platforms
// without a wired ioctl (see DESIGN.md for the macOS gap: the Darwin
// DKIOCGETBLOCKSIZE ioctl isn't exposed by golang.org/x/sys/unix).
func platformSectorSize(path string) int {
	info, err := os.Stat(path)
	if err != nil {
		return 512
	}
	if info.Mode()&os.ModeDevice == 0 {
		return 512
	}
	return blockSectorSize(path)
}

// OutputSize returns the existing size in bytes of the file or block
// device at path, and false if path is empty, doesn't exist yet, or is
// neither a regular file nor a block device (e.g. stdout, a FIFO).
func OutputSize(path string) (int64, bool) {
	if path == "" {
		return 0, false
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, false
	}
	if info.Mode()&os.ModeDevice != 0 {
		return blockDeviceSize(path)
	}
	if info.Mode().IsRegular() {
		return info.Size(), true
	}
	return 0, false
}

// SparseRange produces a sparse, increasing sequence of thread counts
// from 0 to n (inclusive) capped at maxItems entries, for benchmark
// sweeps. Small n yields the dense range 0..n; large n keeps a dense
// prefix (0..3) then strides evenly up to n.
func SparseRange(n, maxItems int) []int {
	if n < 1 {
		return []int{1}
	}
	if n <= maxItems-1 {
		out := make([]int, n+1)
		for i := range out {
			out[i] = i
		}
		return out
	}

	const keep = 3
	out := make([]int, keep+1)
	for i := range out {
		out[i] = i
	}

	remaining := maxItems - keep
	step := n / (remaining - 1)
	if step < 1 {
		step = 1
	}

	for k := 1; k < remaining; k++ {
		v := k * step
		if v > out[len(out)-1] {
			out = append(out, v)
		}
	}

	if out[len(out)-1] != n {
		out[len(out)-1] = n
	}

	return out
}

// FormatBytes renders n bytes using IEC binary units (KiB, MiB, ...).
func FormatBytes(n int64) string {
	return humanize.IBytes(uint64(n))
}

// FormatRate renders a bytes-per-second throughput figure.
func FormatRate(bytesPerSec float64) string {
	if bytesPerSec < 0 {
		bytesPerSec = 0
	}
	return humanize.IBytes(uint64(bytesPerSec)) + "/s"
}
