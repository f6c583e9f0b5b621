package ring

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimMonotonicIncreasing(t *testing.T) {
	b := New(4, 0)
	seen := map[uint64]bool{}
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n := b.Claim()
			mu.Lock()
			seen[n] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	require.Len(t, seen, 8)
	for i := uint64(0); i < 8; i++ {
		assert.True(t, seen[i], "missing claimed index %d", i)
	}
}

func TestClaimStartsAtStartBlock(t *testing.T) {
	b := New(4, 100)
	assert.EqualValues(t, 100, b.Claim())
	assert.EqualValues(t, 101, b.Claim())
}

func TestPublishWakesWaitReady(t *testing.T) {
	b := New(4, 0)
	done := make(chan bool, 1)
	go func() {
		done <- b.WaitReady(0)
	}()

	time.Sleep(20 * time.Millisecond)
	b.Publish(0)

	select {
	case ok := <-done:
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("WaitReady never woke")
	}
}

func TestReleaseWakesWaitFree(t *testing.T) {
	b := New(4, 0)
	b.Publish(0) // slot 0 starts occupied

	done := make(chan bool, 1)
	go func() {
		done <- b.WaitFree(0)
	}()

	time.Sleep(20 * time.Millisecond)
	b.Release(0)

	select {
	case ok := <-done:
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("WaitFree never woke")
	}
}

func TestQuitWakesAllWaiters(t *testing.T) {
	b := New(2, 0)
	b.Publish(0) // occupy slot so a WaitFree(0) call blocks

	readyDone := make(chan bool, 1)
	freeDone := make(chan bool, 1)
	go func() { readyDone <- b.WaitReady(1) }()
	go func() { freeDone <- b.WaitFree(0) }()

	time.Sleep(20 * time.Millisecond)
	b.Quit()

	select {
	case ok := <-readyDone:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("WaitReady never woke on quit")
	}
	select {
	case ok := <-freeDone:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("WaitFree never woke on quit")
	}
	assert.True(t, b.Quitting())
}

func TestSlotByteRangesDisjoint(t *testing.T) {
	b := New(3, 0)
	for i := 0; i < 3; i++ {
		s := b.Slot(i)
		require.Len(t, s, BlockSize)
		s[0] = byte(i + 1)
	}
	for i := 0; i < 3; i++ {
		assert.Equal(t, byte(i+1), b.Slot(i)[0])
	}
}

func TestProducerConsumerOrdering(t *testing.T) {
	const numSlots = 3
	b := New(numSlots, 0)
	const blocks = 20

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < blocks; i++ {
			blk := b.Claim()
			slot := int(blk % numSlots)
			if !b.WaitFree(slot) {
				return
			}
			b.Slot(slot)[0] = byte(blk)
			b.Publish(slot)
		}
	}()

	for conpos := uint64(0); conpos < blocks; conpos++ {
		slot := int(conpos % numSlots)
		ok := b.WaitReady(slot)
		require.True(t, ok)
		assert.Equal(t, byte(conpos), b.Slot(slot)[0])
		b.Release(slot)
	}
	wg.Wait()
}
