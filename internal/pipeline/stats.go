// Package pipeline implements the parallel keystream producer/consumer
// engine: N worker goroutines fan out over the cipher, a single consumer
// drains their output in strict block-index order to a writer.
package pipeline

import (
	"fmt"
	"strings"
	"time"
)

// WorkerStats carries per-worker timing breakdown, collected after the
// worker returns so it never touches shared state on the hot path.
type WorkerStats struct {
	WorkerID int

	LockAcquireTime  time.Duration
	LockWaitSpaceTime time.Duration
	LockClaimTime    time.Duration

	CryptoTime time.Duration

	BlocksProcessed int
	BytesGenerated  int64
	WaitCycles      int
}

// TotalTime sums every measured duration for this worker.
func (s WorkerStats) TotalTime() time.Duration {
	return s.LockAcquireTime + s.LockWaitSpaceTime + s.LockClaimTime + s.CryptoTime
}

// ConsumerStats carries the multi-threaded consumer's timing breakdown.
type ConsumerStats struct {
	WaitTime  time.Duration
	WriteTime time.Duration
}

// TotalTime sums the consumer's measured durations.
func (s ConsumerStats) TotalTime() time.Duration { return s.WaitTime + s.WriteTime }

// SingleThreadedStats carries the single-threaded path's timing
// breakdown.
type SingleThreadedStats struct {
	CryptoTime time.Duration
	WriteTime  time.Duration
}

// TotalTime sums the single-threaded path's measured durations.
func (s SingleThreadedStats) TotalTime() time.Duration { return s.CryptoTime + s.WriteTime }

// RunResult is the terminal outcome of a pipeline run, returned whether
// it completed normally (DONE) or was interrupted (ABORTED).
type RunResult struct {
	Written     int64
	Elapsed     time.Duration
	Interrupted bool
	Action      string

	ConsumerStats       *ConsumerStats
	SingleThreadedStats *SingleThreadedStats
	WorkerStats         []WorkerStats

	// ContinueCmd is the literal resumption command to print when
	// Interrupted and both a known seed and output path exist.
	ContinueCmd string
	// RepeatCmd is printed instead, on a normal completion, when the
	// seed used for this run was auto-generated rather than supplied.
	RepeatCmd string
}

// formatIOStats renders the crypto/wait vs. write time split shown in
// verbose summaries.
func (r RunResult) formatIOStats() string {
	if r.SingleThreadedStats != nil {
		st := *r.SingleThreadedStats
		tt := st.TotalTime()
		if tt <= 0 {
			return ""
		}
		return fmt.Sprintf("crypto %.0f%% — write %.0f%%",
			100*float64(st.CryptoTime)/float64(tt),
			100*float64(st.WriteTime)/float64(tt))
	}
	if r.ConsumerStats != nil {
		cs := *r.ConsumerStats
		tt := cs.TotalTime()
		if tt <= 0 {
			return ""
		}
		return fmt.Sprintf("wait %.0f%% — write %.0f%%",
			100*float64(cs.WaitTime)/float64(tt),
			100*float64(cs.WriteTime)/float64(tt))
	}
	return ""
}

// Summary renders the one-line colored summary written to stderr on
// completion. verbose >= 1 appends the crypto/wait-vs-write split.
func (r RunResult) Summary(verbose int, colored bool) string {
	var speedGBs float64
	if r.Elapsed > 0 {
		speedGBs = (float64(r.Written) / 1_000_000_000) / r.Elapsed.Seconds()
	}
	sizeStr := formatSize(float64(r.Written))
	timeStr := formatDuration(r.Elapsed)

	var ioStats string
	if verbose >= 1 {
		ioStats = r.formatIOStats()
	}
	statsFmt := ""
	if ioStats != "" {
		statsFmt = "\033[0;32m • " + ioStats
	}
	statusFmt := ""
	if r.Interrupted {
		statusFmt = " \033[31m(interrupted)\033[0m"
	}

	cmdLine := ""
	if r.Interrupted && r.ContinueCmd != "" {
		cmdLine = "\n\033[2mContinue >>>\033[0;34m " + r.ContinueCmd + "\033[0m"
	} else if !r.Interrupted && r.RepeatCmd != "" {
		cmdLine = "\n\033[2mRepeat >>>\033[0;34m " + r.RepeatCmd + "\033[0m"
	}

	action := r.Action
	if action == "" {
		action = "wrote"
	}

	msg := fmt.Sprintf(
		"\n\033[36m[RandQuik]\033[32m %s \033[1m%s\033[0;32m in \033[1m%s\033[0;32m @ \033[1;32m%.2f GB/s%s\033[0m%s\033[1m%s\n",
		action, sizeStr, timeStr, speedGBs, statsFmt, statusFmt, cmdLine,
	)

	if !colored {
		msg = stripANSI(msg)
	}
	return msg
}

// DetailedStats renders the per-worker timing table shown at -vv.
func (r RunResult) DetailedStats() string {
	if len(r.WorkerStats) == 0 || r.ConsumerStats == nil {
		return ""
	}
	return formatWorkerStatsReport(r.WorkerStats)
}

func formatSize(size float64) string {
	units := []string{"B", "kB", "MB", "GB", "TB"}
	for _, u := range units {
		if size < 0 {
			size = -size
		}
		if size < 1000 {
			return fmt.Sprintf("%.0f %s", size, u)
		}
		size /= 1000
	}
	return fmt.Sprintf("%.0f PB", size)
}

func formatDuration(d time.Duration) string {
	seconds := d.Seconds()
	switch {
	case seconds < 0:
		return "--"
	case seconds < 1:
		return fmt.Sprintf("%.0fms", seconds*1000)
	case seconds < 120:
		return fmt.Sprintf("%ds", int(seconds))
	case seconds < 3600:
		m := int(seconds) / 60
		s := int(seconds) % 60
		if s == 0 {
			return fmt.Sprintf("%dm", m)
		}
		return fmt.Sprintf("%dm%ds", m, s)
	case seconds < 172800:
		h := int(seconds) / 3600
		m := (int(seconds) % 3600) / 60
		if m == 0 {
			return fmt.Sprintf("%dh", h)
		}
		return fmt.Sprintf("%dh%dm", h, m)
	default:
		d := int(seconds) / 86400
		h := (int(seconds) % 86400) / 3600
		if h == 0 {
			return fmt.Sprintf("%dd", d)
		}
		return fmt.Sprintf("%dd%dh", d, h)
	}
}

func stripANSI(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inEscape := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inEscape {
			if c == 'm' {
				inEscape = false
			}
			continue
		}
		if c == '\033' && i+1 < len(s) && s[i+1] == '[' {
			inEscape = true
			i++
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func formatWorkerStatsReport(workers []WorkerStats) string {
	const colW = 8
	const pctW = 6

	var totalAll time.Duration
	for _, w := range workers {
		totalAll += w.TotalTime()
	}
	pct := func(v time.Duration) string {
		if totalAll <= 0 {
			return "--"
		}
		return fmt.Sprintf("%.0f%%", 100*float64(v)/float64(totalAll))
	}
	ms := func(v time.Duration) string {
		return fmt.Sprintf("%.0f ms", v.Seconds()*1000)
	}

	var header strings.Builder
	header.WriteString("Worker stats")
	header.WriteString(fmt.Sprintf("%*s", pctW, "%"))
	for _, w := range workers {
		header.WriteString(fmt.Sprintf("%*s", colW, fmt.Sprintf("W%d", w.WorkerID)))
	}
	sep := strings.Repeat("-", header.Len())

	totalBlocks := 0
	totalCycles := 0
	for _, w := range workers {
		totalBlocks += w.BlocksProcessed
		totalCycles += w.WaitCycles
	}
	cyclesPct := "--"
	if totalBlocks > 0 {
		cyclesPct = fmt.Sprintf("%.0f%%", 100*float64(totalCycles)/float64(totalBlocks))
	}

	lines := []string{header.String(), sep}

	row := func(label, pctVal string, values []string) string {
		var b strings.Builder
		b.WriteString(fmt.Sprintf("%-12s", label))
		b.WriteString(fmt.Sprintf("%*s", pctW, pctVal))
		for _, v := range values {
			b.WriteString(fmt.Sprintf("%*s", colW, v))
		}
		return b.String()
	}

	blocksVals := make([]string, len(workers))
	cyclesVals := make([]string, len(workers))
	for i, w := range workers {
		blocksVals[i] = fmt.Sprintf("%d", w.BlocksProcessed)
		cyclesVals[i] = fmt.Sprintf("%d", w.WaitCycles)
	}
	lines = append(lines, row("1MiB blocks", "", blocksVals))
	lines = append(lines, row("wait_cycles", cyclesPct, cyclesVals))
	lines = append(lines, sep)

	type timingRow struct {
		label string
		total time.Duration
		vals  []string
	}
	collect := func(label string, get func(WorkerStats) time.Duration) timingRow {
		var total time.Duration
		vals := make([]string, len(workers))
		for i, w := range workers {
			d := get(w)
			total += d
			vals[i] = ms(d)
		}
		return timingRow{label, total, vals}
	}

	timingRows := []timingRow{
		collect("crypto", func(w WorkerStats) time.Duration { return w.CryptoTime }),
		collect("lock_acq", func(w WorkerStats) time.Duration { return w.LockAcquireTime }),
		collect("wait_sp", func(w WorkerStats) time.Duration { return w.LockWaitSpaceTime }),
		collect("claim", func(w WorkerStats) time.Duration { return w.LockClaimTime }),
	}
	totalVals := make([]string, len(workers))
	for i, w := range workers {
		totalVals[i] = ms(w.TotalTime())
	}
	timingRows = append(timingRows, timingRow{"total", totalAll, totalVals})

	for _, tr := range timingRows {
		lines = append(lines, row(tr.label, pct(tr.total), tr.vals))
	}
	lines = append(lines, sep)

	return strings.Join(lines, "\n")
}
