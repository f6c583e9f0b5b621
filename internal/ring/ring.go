// Package ring implements the fixed-size slot buffer that coordinates
// RandQuik's keystream workers and consumer: workers claim monotonic
// block indices and publish keystream into slots, and the consumer
// drains slots strictly in claim order.
//
// The design — one mutex guarding ready/quit state plus two condition
// variables for the two disjoint wake events — generalizes the single
// condvar/lock pair the pack's only sync.Cond ring buffer uses
// (hztools-go-sdr's stream-ring.go), split into has_data/has_space so a
// worker freeing a slot doesn't spuriously wake the consumer and vice
// versa.
package ring

import "sync"

// BlockSize is the fixed keystream block width: 1 MiB, chosen to amortize
// per-call cipher overhead while fitting comfortably in L2 cache.
const BlockSize = 1 << 20

// Buffer is a fixed-size array of fixed-size slots shared by the worker
// pool and the consumer.
type Buffer struct {
	data  []byte
	ready []bool

	mu       sync.Mutex
	hasData  *sync.Cond
	hasSpace *sync.Cond
	quit     bool

	claimMu sync.Mutex
	blkno   uint64
}

// New allocates a ring buffer with numSlots slots of BlockSize bytes
// each, claiming block indices starting at startBlock.
func New(numSlots int, startBlock uint64) *Buffer {
	b := &Buffer{
		data:  make([]byte, numSlots*BlockSize),
		ready: make([]bool, numSlots),
		blkno: startBlock,
	}
	b.hasData = sync.NewCond(&b.mu)
	b.hasSpace = sync.NewCond(&b.mu)
	return b
}

// NumSlots returns the number of slots in the ring.
func (b *Buffer) NumSlots() int { return len(b.ready) }

// Slot returns the byte range backing slot index i. Safe to use without
// locking once the caller holds exclusive logical ownership of the slot
// (established via Claim/WaitReady/WaitFree below) — the ring mutex only
// ever protects the ready/quit bookkeeping, never slot bytes themselves.
func (b *Buffer) Slot(i int) []byte {
	return b.data[i*BlockSize : (i+1)*BlockSize]
}

// Claim atomically reads and increments the next block index to assign,
// using a dedicated mutex kept separate from the ring mutex so claims
// (a cheap load-and-store) never contend with slot readiness traffic.
func (b *Buffer) Claim() uint64 {
	b.claimMu.Lock()
	defer b.claimMu.Unlock()
	n := b.blkno
	b.blkno++
	return n
}

// WaitFree blocks until slot is not ready (i.e. has been consumed) or
// the ring has quit, returning false in the latter case. Called by a
// worker before it starts generating keystream into a slot it doesn't
// own yet.
func (b *Buffer) WaitFree(slot int) (ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for b.ready[slot] && !b.quit {
		b.hasSpace.Wait()
	}
	return !b.quit
}

// Publish marks slot ready and wakes the consumer. Called by a worker
// after it has finished writing keystream into the slot.
func (b *Buffer) Publish(slot int) {
	b.mu.Lock()
	b.ready[slot] = true
	b.mu.Unlock()
	b.hasData.Signal()
}

// WaitReady blocks until slot is ready or the ring has quit, returning
// false in the latter case. Called by the consumer before reading a
// slot's bytes.
func (b *Buffer) WaitReady(slot int) (ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for !b.ready[slot] && !b.quit {
		b.hasData.Wait()
	}
	return !b.quit
}

// Release marks slot consumed and wakes every worker waiting for space,
// since any one of them may be waiting on precisely this slot.
func (b *Buffer) Release(slot int) {
	b.mu.Lock()
	b.ready[slot] = false
	b.mu.Unlock()
	b.hasSpace.Broadcast()
}

// Quit sets the shutdown flag and wakes every waiter on both
// conditions. Idempotent; safe to call from any goroutine, any number
// of times.
func (b *Buffer) Quit() {
	b.mu.Lock()
	b.quit = true
	b.mu.Unlock()
	b.hasData.Broadcast()
	b.hasSpace.Broadcast()
}

// Quitting reports whether Quit has been called.
func (b *Buffer) Quitting() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.quit
}
