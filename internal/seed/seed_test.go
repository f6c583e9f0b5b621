package seed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKeyDeterministic(t *testing.T) {
	is := assert.New(t)

	a, err := DeriveKey("correct horse battery staple", 32)
	require.NoError(t, err)
	b, err := DeriveKey("correct horse battery staple", 32)
	require.NoError(t, err)
	is.Equal(a, b)
	is.Len(a, 32)
}

func TestDeriveKeyDiffersBySeed(t *testing.T) {
	is := assert.New(t)

	a, err := DeriveKey("seed-one", 32)
	require.NoError(t, err)
	b, err := DeriveKey("seed-two", 32)
	require.NoError(t, err)
	is.NotEqual(a, b)
}

func TestDeriveKeyDiffersByLength(t *testing.T) {
	is := assert.New(t)

	a, err := DeriveKey("same seed", 16)
	require.NoError(t, err)
	b, err := DeriveKey("same seed", 32)
	require.NoError(t, err)
	is.Len(a, 16)
	is.Len(b, 32)
	is.Equal(a, b[:16])
}

func TestDeriveKeyRejectsOutOfRangeLength(t *testing.T) {
	_, err := DeriveKey("seed", 8)
	require.Error(t, err)

	_, err = DeriveKey("seed", 65)
	require.Error(t, err)
}

func TestGenerateRandomSeedLengthAndAlphabet(t *testing.T) {
	is := assert.New(t)

	s, err := GenerateRandomSeed()
	require.NoError(t, err)
	is.Len(s, generatedSeedLength)
	for _, r := range s {
		is.Contains(alphanumericAlphabet, string(r))
	}
}

func TestGenerateRandomSeedVaries(t *testing.T) {
	is := assert.New(t)

	a, err := GenerateRandomSeed()
	require.NoError(t, err)
	b, err := GenerateRandomSeed()
	require.NoError(t, err)
	is.NotEqual(a, b)
}
