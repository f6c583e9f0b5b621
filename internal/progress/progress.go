// Package progress displays a periodically updated throughput line on
// stderr while a pipeline run is in flight.
//
// The original tool's progress display drives an elaborate scrolling
// terminal graph; per spec that rendering is an external collaborator
// and out of this module's core, so this is a plain periodic status
// line consuming the same shared counter contract (a single atomic
// write position, read by this display, written by the consumer).
package progress

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/randquik/randquik/internal/sizeparse"
	"golang.org/x/sys/unix"
)

const interval = 100 * time.Millisecond

// joinTimeout bounds how long Stop waits for the display goroutine to
// notice cancellation, so an interrupted run still restores the
// terminal promptly.
const joinTimeout = 500 * time.Millisecond

// Display periodically renders written/total/elapsed to an io.Writer
// (normally os.Stderr) until Stop is called.
type Display struct {
	total    int64
	infinite bool
	written  *atomic.Int64
	start    time.Time
	out      io.Writer
	active   bool

	stopCh chan struct{}
	doneCh chan struct{}
}

// New constructs a Display bound to written, which the consumer updates
// as it makes progress. The display only actually renders when out is a
// terminal; otherwise Start/Stop are no-ops, matching the original's
// "only active when stderr is a tty" behavior.
func New(total int64, infinite bool, written *atomic.Int64, start time.Time, out *os.File) *Display {
	return &Display{
		total:    total,
		infinite: infinite,
		written:  written,
		start:    start,
		out:      out,
		active:   isTerminal(out),
	}
}

// Start begins rendering on a background goroutine. A no-op if the
// display isn't active (out isn't a terminal) or quiet was requested by
// the caller (by simply not calling Start).
func (d *Display) Start() {
	if !d.active {
		return
	}
	d.stopCh = make(chan struct{})
	d.doneCh = make(chan struct{})
	go d.run()
}

func (d *Display) run() {
	defer close(d.doneCh)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-d.stopCh:
			return
		case <-ticker.C:
			d.render()
		}
	}
}

// Stop signals the display to halt, waits up to joinTimeout for it to
// do so, then renders one final frame so the finished state is what's
// left on screen.
func (d *Display) Stop() {
	if !d.active || d.stopCh == nil {
		return
	}
	close(d.stopCh)
	select {
	case <-d.doneCh:
	case <-time.After(joinTimeout):
	}
	d.render()
	fmt.Fprint(d.out, "\n")
}

func (d *Display) render() {
	written := d.written.Load()
	elapsed := time.Since(d.start)
	rate := 0.0
	if s := elapsed.Seconds(); s > 0 {
		rate = float64(written) / s
	}

	if d.infinite {
		fmt.Fprintf(d.out, "\r\x1b[K%s written, %s", sizeparse.FormatBytes(written), sizeparse.FormatRate(rate))
		return
	}

	pct := 0.0
	if d.total > 0 {
		pct = 100 * float64(written) / float64(d.total)
	}
	fmt.Fprintf(d.out, "\r\x1b[K%6.2f%%  %s / %s  %s",
		pct, sizeparse.FormatBytes(written), sizeparse.FormatBytes(d.total), sizeparse.FormatRate(rate))
}

func isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	_, err := unix.IoctlGetTermios(int(f.Fd()), termiosIoctlGets())
	return err == nil
}
