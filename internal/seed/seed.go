// Package seed derives keystream keys from user seeds and generates
// random seeds when the caller doesn't supply one.
//
// Key derivation has no salt and no iteration: the seed is the sole
// entropy source, and reproducibility from a seed is the whole point
// (spec §4.1). Seed generation, by contrast, needs real entropy, so it
// draws on a CSPRNG rather than anything deterministic.
package seed

import (
	"crypto/sha512"
	"fmt"

	"github.com/sixafter/nanoid"
	prng "github.com/sixafter/prng-chacha"
)

const (
	// alphanumericAlphabet is the character set for generated seeds.
	alphanumericAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	// generatedSeedLength is the length of an auto-generated seed.
	generatedSeedLength = 16

	// MinKeyBytes and MaxKeyBytes bound the cipher key width DeriveKey
	// will accept, per spec §4.1 (16–64 bytes / 128–512 bits).
	MinKeyBytes = 16
	MaxKeyBytes = 64
)

// DeriveKey maps a printable seed string to the first keyBytes bytes of
// SHA-512(seed). keyBytes must be in [MinKeyBytes, MaxKeyBytes].
func DeriveKey(seedStr string, keyBytes int) ([]byte, error) {
	if keyBytes < MinKeyBytes || keyBytes > MaxKeyBytes {
		return nil, fmt.Errorf("seed: key length %d out of range [%d, %d]", keyBytes, MinKeyBytes, MaxKeyBytes)
	}
	sum := sha512.Sum512([]byte(seedStr))
	key := make([]byte, keyBytes)
	copy(key, sum[:keyBytes])
	return key, nil
}

// GenerateRandomSeed returns 16 random alphanumeric characters drawn from
// a CSPRNG, for use when the caller omits --seed.
//
// The generator is sixafter/nanoid's, configured with an alphanumeric
// alphabet and seeded by sixafter/prng-chacha's pooled ChaCha20 reader —
// nanoid-cli's own product, used for precisely the short-random-string
// job it was built for, kept deliberately separate from the deterministic
// keystream cipher in internal/cipher.
func GenerateRandomSeed() (string, error) {
	gen, err := nanoid.NewGenerator(
		nanoid.WithAlphabet(alphanumericAlphabet),
		nanoid.WithLengthHint(generatedSeedLength),
		nanoid.WithRandReader(prng.Reader),
	)
	if err != nil {
		return "", fmt.Errorf("seed: initializing generator: %w", err)
	}
	s, err := gen.New(generatedSeedLength)
	if err != nil {
		return "", fmt.Errorf("seed: generating random seed: %w", err)
	}
	return s, nil
}
