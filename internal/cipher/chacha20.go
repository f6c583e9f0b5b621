package cipher

import (
	"fmt"

	"golang.org/x/crypto/chacha20"
)

// chacha20Cipher implements Cipher using IETF ChaCha20 (32-byte key,
// 12-byte nonce). Constructing a fresh *chacha20.Cipher per Stream call
// keeps the type free of shared mutable state, matching the pack's own
// ChaCha20 wrapper (sixafter-prng-chacha/prng.go's newCipher) generalized
// from a pooled-reader use case to a stateless per-call one.
type chacha20Cipher struct{}

// NewChaCha20 constructs the IETF ChaCha20 cipher variant.
func NewChaCha20() Cipher { return chacha20Cipher{} }

func (chacha20Cipher) KeySize() int   { return chacha20.KeySize }
func (chacha20Cipher) NonceSize() int { return chacha20.NonceSize }

func (chacha20Cipher) Stream(key, nonce []byte, length int, into []byte) error {
	return streamChaCha(key, nonce, length, into)
}

func (chacha20Cipher) NonceIncrement(nonce []byte) {
	incrementLittleEndian(nonce)
}

// xchacha20Cipher implements Cipher using XChaCha20 (32-byte key, 24-byte
// nonce). The pipeline writes the 64-bit block index into the first 8
// nonce bytes and leaves the rest zero, as it does for ChaCha20, so the
// larger nonce does not widen the block-index space beyond 2^64 blocks.
type xchacha20Cipher struct{}

// NewXChaCha20 constructs the XChaCha20 cipher variant.
func NewXChaCha20() Cipher { return xchacha20Cipher{} }

func (xchacha20Cipher) KeySize() int   { return chacha20.KeySize }
func (xchacha20Cipher) NonceSize() int { return chacha20.NonceSizeX }

func (xchacha20Cipher) Stream(key, nonce []byte, length int, into []byte) error {
	return streamChaCha(key, nonce, length, into)
}

func (xchacha20Cipher) NonceIncrement(nonce []byte) {
	incrementLittleEndian(nonce)
}

// streamChaCha fills into[:length] with cipher(key, nonce) keystream bytes.
// golang.org/x/crypto/chacha20's XORKeyStream computes dst = src XOR
// keystream; zeroing into first and XORing in place yields the raw
// keystream itself.
func streamChaCha(key, nonce []byte, length int, into []byte) error {
	if len(into) < length {
		return fmt.Errorf("cipher: into buffer of length %d too small for %d requested bytes", len(into), length)
	}
	stream, err := chacha20.NewUnauthenticatedCipher(key, nonce)
	if err != nil {
		return fmt.Errorf("cipher: constructing chacha20 stream: %w", err)
	}
	buf := into[:length]
	for i := range buf {
		buf[i] = 0
	}
	stream.XORKeyStream(buf, buf)
	return nil
}

// incrementLittleEndian treats nonce as a little-endian integer and
// increments it by one, carrying across words.
func incrementLittleEndian(nonce []byte) {
	for i := range nonce {
		nonce[i]++
		if nonce[i] != 0 {
			return
		}
	}
}
