// Package benchmark sweeps worker counts and I/O modes in-process to
// report median throughput, replacing the original's subprocess-per-
// sample driver: Go has no GIL to dodge, so an in-process goroutine
// sweep measures the same thing without the process-spawn overhead.
package benchmark

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"
	"time"

	"github.com/randquik/randquik/internal/cipher"
	"github.com/randquik/randquik/internal/orchestrator"
	"github.com/randquik/randquik/internal/sizeparse"
)

// IOMode names one of the three destinations swept per worker count.
type IOMode string

const (
	ModeDry  IOMode = "dry"
	ModeNull IOMode = "null"
	ModeFile IOMode = "file"
)

const (
	maxRepeats = 5
	maxRepeatWindow = 500 * time.Millisecond
)

// Sample is one (workers, io mode) measurement: the median GB/s across
// up to maxRepeats repeats, bounded by maxRepeatWindow once the first
// repeat has run.
type Sample struct {
	Workers   int
	Mode      IOMode
	MedianGBs float64
	// Measured reports whether at least one repeat produced a speed; a
	// false value means every repeat failed and the cell is blank.
	Measured bool
}

// Config parameterizes one full sweep.
type Config struct {
	Key        []byte
	Cipher     cipher.Cipher
	Length     int64
	MaxThreads int
	BenchFile  string // used for ModeFile; removed after the sweep
}

// Sweep runs Config.Cipher/Key over a sparse range of worker counts for
// each of dry, null, and file I/O modes, returning one Sample per
// (workers, mode) pair in mode-major, then worker-count-minor order.
func Sweep(ctx context.Context, cfg Config) ([]Sample, error) {
	tcounts := sizeparse.SparseRange(cfg.MaxThreads, 9)

	var samples []Sample
	for _, mode := range []IOMode{ModeDry, ModeNull, ModeFile} {
		for _, workers := range tcounts {
			s, err := measure(ctx, cfg, mode, workers)
			if err != nil {
				return nil, err
			}
			samples = append(samples, s)
		}
	}

	if cfg.BenchFile != "" {
		os.Remove(cfg.BenchFile)
	}

	return samples, nil
}

func measure(ctx context.Context, cfg Config, mode IOMode, workers int) (Sample, error) {
	var speeds []float64
	start := time.Now()

	for rep := 0; rep < maxRepeats; rep++ {
		if rep > 0 && time.Since(start) > maxRepeatWindow {
			break
		}

		out, dry := destinationFor(mode, cfg.BenchFile)

		result, err := orchestrator.Run(ctx, orchestrator.Config{
			Output:   out,
			HasTotal: true,
			Total:    cfg.Length,
			Key:      cfg.Key,
			Cipher:   cfg.Cipher,
			Workers:  workers,
			Dry:      dry,
			Quiet:    true,
			Action:   "wrote",
		})
		if err != nil {
			return Sample{}, fmt.Errorf("benchmark: workers=%d mode=%s: %w", workers, mode, err)
		}
		if result.Elapsed > 0 {
			speeds = append(speeds, (float64(result.Written)/1_000_000_000)/result.Elapsed.Seconds())
		}
	}

	if len(speeds) == 0 {
		return Sample{Workers: workers, Mode: mode}, nil
	}
	sort.Float64s(speeds)
	return Sample{Workers: workers, Mode: mode, MedianGBs: speeds[len(speeds)/2], Measured: true}, nil
}

func destinationFor(mode IOMode, benchFile string) (output string, dry bool) {
	switch mode {
	case ModeDry:
		return "", true
	case ModeNull:
		return os.DevNull, false
	case ModeFile:
		return benchFile, false
	default:
		return "", true
	}
}

// DefaultMaxThreads returns the number of logical CPUs, used when the
// caller didn't request an explicit thread ceiling.
func DefaultMaxThreads() int {
	return runtime.NumCPU()
}

// FormatTable renders samples as the fixed-width table the original
// benchmark driver prints: one header row of thread counts, then one
// row per I/O mode.
func FormatTable(samples []Sample, tcounts []int) string {
	byMode := map[IOMode][]Sample{}
	for _, s := range samples {
		byMode[s.Mode] = append(byMode[s.Mode], s)
	}

	header := fmt.Sprintf("%-20s", "randquik")
	for _, w := range tcounts {
		header += fmt.Sprintf("%8s", fmt.Sprintf("-t%d", w))
	}
	sep := ""
	for i := 0; i < len(header); i++ {
		sep += "-"
	}

	out := header + "\n" + sep + "\n"
	for _, mode := range []IOMode{ModeDry, ModeNull, ModeFile} {
		row := fmt.Sprintf("%-20s", string(mode))
		for _, w := range tcounts {
			cell := "---"
			for _, s := range byMode[mode] {
				if s.Workers == w {
					if s.Measured {
						cell = fmt.Sprintf("%.2f", s.MedianGBs)
					}
					break
				}
			}
			row += fmt.Sprintf("%8s", cell)
		}
		out += row + "\n"
	}
	out += sep + "\n"
	return out
}

// BestFileSample returns the file-mode sample with the highest median
// throughput, used to print the "fastest configuration" summary line.
func BestFileSample(samples []Sample) (Sample, bool) {
	var best Sample
	found := false
	for _, s := range samples {
		if s.Mode != ModeFile || !s.Measured {
			continue
		}
		if !found || s.MedianGBs > best.MedianGBs {
			best = s
			found = true
		}
	}
	return best, found
}

// BestOverallSpeed returns the highest median throughput across every
// sample (any mode), used for the "plain RNG" figure in the summary.
func BestOverallSpeed(samples []Sample) float64 {
	var best float64
	for _, s := range samples {
		if s.Measured && s.MedianGBs > best {
			best = s.MedianGBs
		}
	}
	return best
}
