package pipeline

import (
	"encoding/binary"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/randquik/randquik/internal/cipher"
	"github.com/randquik/randquik/internal/ring"
)

// Writer is the minimal output contract the consumer writes through —
// satisfied by *outfile.File, and by anything else that can report a
// write error (so a buffer can stand in for tests).
type Writer interface {
	Write(buf []byte) error
}

// Config bundles the parameters of one multi-threaded run.
type Config struct {
	Workers     int
	Key         []byte
	Cipher      cipher.Cipher
	TotalBytes  int64 // ignored when Infinite
	Infinite    bool
	Out         Writer
	Dry         bool
	ISeek       int64
	Progress    *atomic.Int64 // updated with bytes written so far; may be nil
	Cancel      <-chan struct{} // closed to request early shutdown; may be nil
}

// fdProducer is the multi-threaded ring-buffer pipeline: Config.Workers
// goroutines claim block indices and generate keystream into ring slots;
// the consumer (run on the caller's goroutine) drains slots strictly in
// claim order.
type fdProducer struct {
	cfg Config

	ring       *ring.Buffer
	startBlock uint64
	startOff   int64

	written int64

	workerStatsMu sync.Mutex
	workerStats   []WorkerStats

	consumerStats ConsumerStats
}

// Run executes the multi-threaded pipeline to completion (or until
// interrupted by closing Config.Cancel), returning the number of bytes
// written. interrupted reports whether the run was cut short.
func Run(cfg Config) (written int64, interrupted bool, consumerStats ConsumerStats, workerStats []WorkerStats, err error) {
	p := &fdProducer{cfg: cfg}

	numSlots := cfg.Workers + 2
	p.startBlock = uint64(cfg.ISeek) / ring.BlockSize
	p.startOff = cfg.ISeek % ring.BlockSize
	p.ring = ring.New(numSlots, p.startBlock)

	var wg sync.WaitGroup
	wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go func(id int) {
			defer wg.Done()
			p.worker(id)
		}(i)
	}

	cancelDone := make(chan struct{})
	defer close(cancelDone)
	if cfg.Cancel != nil {
		go func() {
			select {
			case <-cfg.Cancel:
				p.ring.Quit()
			case <-cancelDone:
			}
		}()
	}

	interrupted, err = p.consume()
	if cfg.Cancel != nil {
		select {
		case <-cfg.Cancel:
			interrupted = true
		default:
		}
	}

	p.ring.Quit()
	wg.Wait()

	return p.written, interrupted, p.consumerStats, p.sortedWorkerStats(), err
}

func (p *fdProducer) sortedWorkerStats() []WorkerStats {
	p.workerStatsMu.Lock()
	defer p.workerStatsMu.Unlock()
	out := make([]WorkerStats, len(p.workerStats))
	copy(out, p.workerStats)
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].WorkerID < out[i].WorkerID {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}

// worker runs one cycle: claim a block index, wait for its slot to free
// up, generate keystream into it outside any lock, then publish.
//
// A panic here is recovered, logged via the standard log package, and
// treated as a quit signal: the consumer then returns the prefix written
// so far as Interrupted. The worker's stats are still collected.
func (p *fdProducer) worker(id int) {
	stats := WorkerStats{WorkerID: id}
	nonce := make([]byte, p.cfg.Cipher.NonceSize())
	numSlots := p.ring.NumSlots()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("pipeline: worker %d panicked: %v", id, r)
			p.ring.Quit()
		}
		p.workerStatsMu.Lock()
		p.workerStats = append(p.workerStats, stats)
		p.workerStatsMu.Unlock()
	}()

	for {
		t0 := time.Now()
		blkno := p.ring.Claim()
		stats.LockClaimTime += time.Since(t0)

		slot := int(blkno % uint64(numSlots))

		t1 := time.Now()
		ok := p.ring.WaitFree(slot)
		stats.LockWaitSpaceTime += time.Since(t1)
		if !ok {
			return
		}

		t2 := time.Now()
		binary.LittleEndian.PutUint64(nonce[:8], blkno)
		for i := 8; i < len(nonce); i++ {
			nonce[i] = 0
		}
		if err := p.cfg.Cipher.Stream(p.cfg.Key, nonce, ring.BlockSize, p.ring.Slot(slot)); err != nil {
			p.ring.Quit()
			return
		}
		stats.CryptoTime += time.Since(t2)
		stats.BlocksProcessed++
		stats.BytesGenerated += ring.BlockSize

		p.ring.Publish(slot)
	}
}

// consume runs the consumer loop on the caller's goroutine: it handles
// the partial first block (per ISeek), then steady-state blocks until
// Config.TotalBytes bytes have been written (or forever, if Infinite).
func (p *fdProducer) consume() (interrupted bool, err error) {
	numSlots := p.ring.NumSlots()
	total := p.cfg.TotalBytes
	if p.cfg.Infinite {
		total = int64(^uint64(0) >> 1)
	}

	slot := int(p.startBlock % uint64(numSlots))
	if !p.ring.WaitReady(slot) {
		return true, nil
	}

	buf := p.ring.Slot(slot)
	hi := p.startOff + total
	if hi > int64(len(buf)) {
		hi = int64(len(buf))
	}
	first := buf[p.startOff:hi]
	if err := p.writeChunk(first); err != nil {
		p.ring.Quit()
		return true, err
	}
	p.written += int64(len(first))
	p.reportProgress()

	conpos := p.startBlock
	for p.written < total {
		t0 := time.Now()
		p.ring.Release(slot)
		conpos++
		slot = int(conpos % uint64(numSlots))
		if !p.ring.WaitReady(slot) {
			return true, nil
		}
		p.consumerStats.WaitTime += time.Since(t0)

		buf := p.ring.Slot(slot)
		n := int64(len(buf))
		if p.written+n > total {
			n = total - p.written
		}

		t1 := time.Now()
		if err := p.writeChunk(buf[:n]); err != nil {
			p.ring.Quit()
			return true, err
		}
		p.consumerStats.WriteTime += time.Since(t1)

		p.written += n
		p.reportProgress()
	}

	return false, nil
}

func (p *fdProducer) writeChunk(buf []byte) error {
	if p.cfg.Dry || len(buf) == 0 {
		return nil
	}
	return p.cfg.Out.Write(buf)
}

func (p *fdProducer) reportProgress() {
	if p.cfg.Progress != nil {
		p.cfg.Progress.Store(p.written)
	}
}
