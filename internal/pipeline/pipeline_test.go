package pipeline

import (
	"bytes"
	"sync"
	"testing"

	"github.com/randquik/randquik/internal/cipher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bufWriter adapts a bytes.Buffer to the Writer interface, safe for the
// single-writer-at-a-time use the consumer makes of it.
type bufWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (w *bufWriter) Write(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := w.buf.Write(b)
	return err
}

func (w *bufWriter) Bytes() []byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]byte(nil), w.buf.Bytes()...)
}

func genReference(t *testing.T, key []byte, c cipher.Cipher, total int64) []byte {
	t.Helper()
	out := make([]byte, 0, total)
	nonce := make([]byte, c.NonceSize())
	var blkno uint64
	for int64(len(out)) < total {
		size := 1 << 20
		remaining := total - int64(len(out))
		if remaining < int64(size) {
			size = int(remaining)
		}
		buf := make([]byte, size)
		for i := range nonce {
			nonce[i] = 0
		}
		for i := 0; i < 8 && i < len(nonce); i++ {
			nonce[i] = byte(blkno >> (8 * i))
		}
		require.NoError(t, c.Stream(key, nonce, size, buf))
		out = append(out, buf...)
		blkno++
	}
	return out
}

func TestRunMatchesSingleThreaded(t *testing.T) {
	c, err := cipher.Lookup("CHACHA20")
	require.NoError(t, err)
	key := make([]byte, c.KeySize())
	for i := range key {
		key[i] = byte(i * 7)
	}

	const total = int64(1<<20)*3 + 12345 // multi-block, partial tail

	multiOut := &bufWriter{}
	_, interrupted, _, _, err := Run(Config{
		Workers:    4,
		Key:        key,
		Cipher:     c,
		TotalBytes: total,
		Out:        multiOut,
	})
	require.NoError(t, err)
	assert.False(t, interrupted)

	singleOut := &bufWriter{}
	_, _, _, err = RunSingle(SingleConfig{
		Key:    key,
		Cipher: c,
		Total:  total,
		Out:    singleOut,
	})
	require.NoError(t, err)

	assert.Equal(t, singleOut.Bytes(), multiOut.Bytes())
	assert.EqualValues(t, total, len(multiOut.Bytes()))
}

func TestRunWorkerCountIndependent(t *testing.T) {
	c, err := cipher.Lookup("CHACHA20")
	require.NoError(t, err)
	key := make([]byte, c.KeySize())

	const total = int64(1 << 20 * 5)

	var first []byte
	for _, workers := range []int{1, 2, 8} {
		out := &bufWriter{}
		_, interrupted, _, _, err := Run(Config{
			Workers:    workers,
			Key:        key,
			Cipher:     c,
			TotalBytes: total,
			Out:        out,
		})
		require.NoError(t, err)
		assert.False(t, interrupted)
		if first == nil {
			first = out.Bytes()
		} else {
			assert.Equal(t, first, out.Bytes(), "workers=%d produced different output", workers)
		}
	}
}

func TestRunMatchesReferenceKeystream(t *testing.T) {
	c, err := cipher.Lookup("CHACHA20")
	require.NoError(t, err)
	key := make([]byte, c.KeySize())
	for i := range key {
		key[i] = byte(i)
	}

	const total = int64(1<<20)*2 + 100

	want := genReference(t, key, c, total)

	out := &bufWriter{}
	_, _, _, _, err = Run(Config{
		Workers:    3,
		Key:        key,
		Cipher:     c,
		TotalBytes: total,
		Out:        out,
	})
	require.NoError(t, err)
	assert.Equal(t, want, out.Bytes())
}

func TestRunHandlesISeekPartialHead(t *testing.T) {
	c, err := cipher.Lookup("CHACHA20")
	require.NoError(t, err)
	key := make([]byte, c.KeySize())

	const blockSize = int64(1 << 20)
	const iseek = blockSize/2 + 7
	const total = blockSize*2 + 500

	full := genReference(t, key, c, iseek+total)
	want := full[iseek : iseek+total]

	out := &bufWriter{}
	_, interrupted, _, _, err := Run(Config{
		Workers:    3,
		Key:        key,
		Cipher:     c,
		TotalBytes: total,
		Out:        out,
		ISeek:      iseek,
	})
	require.NoError(t, err)
	assert.False(t, interrupted)
	assert.Equal(t, want, out.Bytes())
}

func TestRunZeroTotalWritesNothing(t *testing.T) {
	c, err := cipher.Lookup("CHACHA20")
	require.NoError(t, err)
	key := make([]byte, c.KeySize())

	out := &bufWriter{}
	written, interrupted, _, _, err := Run(Config{
		Workers:    2,
		Key:        key,
		Cipher:     c,
		TotalBytes: 0,
		Out:        out,
	})
	require.NoError(t, err)
	assert.False(t, interrupted)
	assert.Zero(t, written)
	assert.Empty(t, out.Bytes())
}

func TestRunSingleZeroTotal(t *testing.T) {
	c, err := cipher.Lookup("CHACHA20")
	require.NoError(t, err)
	key := make([]byte, c.KeySize())

	out := &bufWriter{}
	written, _, _, err := RunSingle(SingleConfig{Key: key, Cipher: c, Total: 0, Out: out})
	require.NoError(t, err)
	assert.Zero(t, written)
	assert.Empty(t, out.Bytes())
}

func TestRunDryModeSkipsWrites(t *testing.T) {
	c, err := cipher.Lookup("CHACHA20")
	require.NoError(t, err)
	key := make([]byte, c.KeySize())

	out := &bufWriter{}
	written, _, _, _, err := Run(Config{
		Workers:    2,
		Key:        key,
		Cipher:     c,
		TotalBytes: 1 << 21,
		Out:        out,
		Dry:        true,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1<<21, written)
	assert.Empty(t, out.Bytes())
}
