package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/randquik/randquik/internal/cipher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWritesExpectedBytes(t *testing.T) {
	is := assert.New(t)
	path := filepath.Join(t.TempDir(), "out.bin")
	c, err := cipher.Lookup("CHACHA20")
	require.NoError(t, err)

	result, err := Run(context.Background(), Config{
		Output:   path,
		HasTotal: true,
		Total:    1 << 21,
		Key:      make([]byte, c.KeySize()),
		Cipher:   c,
		Workers:  2,
		Quiet:    true,
		Action:   "wrote",
	})
	require.NoError(t, err)
	is.False(result.Interrupted)
	is.EqualValues(1<<21, result.Written)

	info, err := os.Stat(path)
	require.NoError(t, err)
	is.EqualValues(1<<21, info.Size())
}

func TestRunSingleThreadedPath(t *testing.T) {
	is := assert.New(t)
	path := filepath.Join(t.TempDir(), "out.bin")
	c, err := cipher.Lookup("CHACHA20")
	require.NoError(t, err)

	result, err := Run(context.Background(), Config{
		Output:   path,
		HasTotal: true,
		Total:    1 << 20,
		Key:      make([]byte, c.KeySize()),
		Cipher:   c,
		Workers:  0,
		Quiet:    true,
	})
	require.NoError(t, err)
	is.False(result.Interrupted)
	is.NotNil(result.SingleThreadedStats)
	is.Nil(result.ConsumerStats)
}

func TestRunInterruptedByCancelledContext(t *testing.T) {
	is := assert.New(t)
	path := filepath.Join(t.TempDir(), "out.bin")
	c, err := cipher.Lookup("CHACHA20")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := Run(ctx, Config{
		Output:         path,
		HasTotal:       true,
		Total:          1 << 30,
		Key:            make([]byte, c.KeySize()),
		Cipher:         c,
		Workers:        2,
		Quiet:          true,
		SeedForDisplay: "myseed",
	})
	require.NoError(t, err)
	is.True(result.Interrupted)
}

func TestRunRepeatCmdForGeneratedSeed(t *testing.T) {
	is := assert.New(t)
	path := filepath.Join(t.TempDir(), "out.bin")
	c, err := cipher.Lookup("CHACHA20")
	require.NoError(t, err)

	result, err := Run(context.Background(), Config{
		Output:         path,
		HasTotal:       true,
		Total:          4096,
		Key:            make([]byte, c.KeySize()),
		Cipher:         c,
		Workers:        1,
		Quiet:          false,
		SeedForDisplay: "abc123",
		GeneratedSeed:  true,
	})
	require.NoError(t, err)
	is.False(result.Interrupted)
	is.Contains(result.RepeatCmd, "randquik -s abc123")
}

func TestRunDryModeDoesNotCreateFile(t *testing.T) {
	is := assert.New(t)
	path := filepath.Join(t.TempDir(), "out.bin")
	c, err := cipher.Lookup("CHACHA20")
	require.NoError(t, err)

	result, err := Run(context.Background(), Config{
		Output:   path,
		HasTotal: true,
		Total:    1 << 20,
		Key:      make([]byte, c.KeySize()),
		Cipher:   c,
		Workers:  2,
		Dry:      true,
		Quiet:    true,
	})
	require.NoError(t, err)
	is.EqualValues(1<<20, result.Written)
	_, statErr := os.Stat(path)
	is.True(os.IsNotExist(statErr))
}
