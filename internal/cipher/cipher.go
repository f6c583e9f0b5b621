// Package cipher provides the keystream primitive contract the pipeline
// depends on, plus a name-to-constructor registry so the algorithm can be
// selected at runtime (spec: "Dynamic cipher dispatch").
//
// AEGIS has no Go implementation anywhere in the example pack this module
// was built from, so the concrete families registered here are ChaCha20
// and XChaCha20 (golang.org/x/crypto/chacha20) — see DESIGN.md.
package cipher

import "fmt"

// Cipher is the fixed-shape keystream API the pipeline consumes. Every
// method must be safe to call concurrently across distinct (key, nonce)
// pairs: no implementation may hold shared mutable state between calls.
type Cipher interface {
	// KeySize is the key width in bytes this cipher requires.
	KeySize() int

	// NonceSize is the nonce width in bytes this cipher requires.
	NonceSize() int

	// Stream fills into[:length] with cipher(key, nonce) keystream bytes
	// starting at the beginning of the keystream for that nonce.
	Stream(key, nonce []byte, length int, into []byte) error

	// NonceIncrement advances nonce in place by one block, carrying across
	// the nonce's little-endian words. Neither pipeline path calls it: both
	// derive each nonce from the block index, which for the registered
	// ciphers equals repeated increments from an all-zero nonce.
	NonceIncrement(nonce []byte)
}

// Constructor builds a new Cipher instance. Constructors take no
// arguments because every registered cipher here is stateless and
// parameter-free; a cipher needing construction-time parameters would
// register a closure.
type Constructor func() Cipher

var registry = map[string]Constructor{}

// Register adds a cipher constructor under name (case-sensitive, by
// convention upper-cased to match --alg values like "CHACHA20").
func Register(name string, ctor Constructor) {
	registry[name] = ctor
}

// Lookup returns the named cipher, or an error listing the known names.
func Lookup(name string) (Cipher, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown cipher %q (known: %v)", name, Names())
	}
	return ctor(), nil
}

// Names returns the registered cipher names.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

// DefaultName is the --alg default, matching spec's requirement of a
// fixed default algorithm name.
const DefaultName = "CHACHA20"

func init() {
	Register("CHACHA20", NewChaCha20)
	Register("XCHACHA20", NewXChaCha20)
}
