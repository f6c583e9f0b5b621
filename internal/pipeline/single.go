package pipeline

import (
	"encoding/binary"
	"sync/atomic"
	"time"

	"github.com/randquik/randquik/internal/cipher"
	"github.com/randquik/randquik/internal/ring"
)

// SingleConfig bundles the parameters of a single-threaded run, used
// for workers == 0 or when the caller wants the smallest footprint.
type SingleConfig struct {
	Key      []byte
	Cipher   cipher.Cipher
	Total    int64
	Infinite bool
	Out      Writer
	Dry      bool
	Progress *atomic.Int64
	Cancel   <-chan struct{} // closed to request early shutdown; may be nil
}

// RunSingle generates and writes blocks sequentially with no
// synchronization: a single BlockSize buffer is regenerated in place for
// each block, with the nonce derived from the block index exactly as the
// multi-threaded workers derive it. Blocks start at index 0 (there is no
// ISeek here), so it reproduces the multi-threaded path's output for any
// finite total with ISeek == 0.
func RunSingle(cfg SingleConfig) (written int64, stats SingleThreadedStats, interrupted bool, err error) {
	buf := make([]byte, ring.BlockSize)
	nonce := make([]byte, cfg.Cipher.NonceSize())
	var blkno uint64

	total := cfg.Total
	if cfg.Infinite {
		total = int64(^uint64(0) >> 1)
	}

	for written < total {
		if cfg.Cancel != nil {
			select {
			case <-cfg.Cancel:
				return written, stats, true, nil
			default:
			}
		}

		size := ring.BlockSize
		if remaining := total - written; remaining < int64(size) {
			size = int(remaining)
		}
		chunk := buf[:size]

		t0 := time.Now()
		binary.LittleEndian.PutUint64(nonce[:8], blkno)
		if err := cfg.Cipher.Stream(cfg.Key, nonce, size, chunk); err != nil {
			return written, stats, false, err
		}
		stats.CryptoTime += time.Since(t0)

		if !cfg.Dry {
			t1 := time.Now()
			if err := cfg.Out.Write(chunk); err != nil {
				return written, stats, false, err
			}
			stats.WriteTime += time.Since(t1)
		}

		blkno++
		written += int64(size)
		if cfg.Progress != nil {
			cfg.Progress.Store(written)
		}
	}

	return written, stats, false, nil
}
