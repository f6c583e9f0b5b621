package sizeparse

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlain(t *testing.T) {
	is := assert.New(t)
	n, err := Parse("1000", "")
	require.NoError(t, err)
	is.EqualValues(1000, n)

	n, err = Parse("1_000_000", "")
	require.NoError(t, err)
	is.EqualValues(1000000, n)
}

func TestParseSIPrefixes(t *testing.T) {
	is := assert.New(t)
	cases := map[string]int64{
		"1k":    1000,
		"1kb":   1000,
		"100m":  100 * 1000 * 1000,
		"1g":    1000 * 1000 * 1000,
	}
	for in, want := range cases {
		n, err := Parse(in, "")
		require.NoError(t, err, in)
		is.Equal(want, n, in)
	}
}

func TestParseIECPrefixes(t *testing.T) {
	is := assert.New(t)
	cases := map[string]int64{
		"1ki":   1024,
		"1kib":  1024,
		"100mi": 100 * 1024 * 1024,
		"1gi":   1024 * 1024 * 1024,
	}
	for in, want := range cases {
		n, err := Parse(in, "")
		require.NoError(t, err, in)
		is.Equal(want, n, in)
	}
}

func TestParseSect(t *testing.T) {
	is := assert.New(t)
	n, err := Parse("10sect", "")
	require.NoError(t, err)
	is.EqualValues(10*512, n)

	n, err = Parse("1sects", "")
	require.NoError(t, err)
	is.EqualValues(512, n)
}

func TestParseCaseInsensitive(t *testing.T) {
	is := assert.New(t)
	n, err := Parse("1GI", "")
	require.NoError(t, err)
	is.EqualValues(1024*1024*1024, n)
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse("not-a-size", "")
	require.Error(t, err)

	_, err = Parse("", "")
	require.Error(t, err)
}

func TestSparseRangeSmall(t *testing.T) {
	is := assert.New(t)
	is.Equal([]int{0, 1, 2, 3}, SparseRange(3, 9))
}

func TestSparseRangeLarge(t *testing.T) {
	is := assert.New(t)
	out := SparseRange(64, 9)
	is.LessOrEqual(len(out), 9)
	is.Equal(0, out[0])
	is.Equal(64, out[len(out)-1])
	for i := 1; i < len(out); i++ {
		is.Greater(out[i], out[i-1])
	}
}

func TestSparseRangeZero(t *testing.T) {
	assert.Equal(t, []int{1}, SparseRange(0, 9))
}

func TestOutputSizeMissingPath(t *testing.T) {
	n, ok := OutputSize("")
	assert.False(t, ok)
	assert.Zero(t, n)
}

func TestOutputSizeRegularFile(t *testing.T) {
	f := t.TempDir() + "/f.bin"
	require.NoError(t, os.WriteFile(f, []byte("hello world"), 0o644))
	n, ok := OutputSize(f)
	assert.True(t, ok)
	assert.EqualValues(t, 11, n)
}
