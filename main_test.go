package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/randquik/randquik/cmd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMainGeneratesBoundedOutput(t *testing.T) {
	is := assert.New(t)
	path := filepath.Join(t.TempDir(), "out.bin")

	os.Args = []string{"randquik", "-l", "4096", "-o", path, "-q"}

	var outBuf bytes.Buffer
	cmd.RootCmd.SetOut(&outBuf)
	cmd.RootCmd.SetErr(&outBuf)

	require.NoError(t, cmd.RootCmd.Execute())

	info, err := os.Stat(path)
	require.NoError(t, err)
	is.EqualValues(4096, info.Size())
}

func TestMainVersionSubcommand(t *testing.T) {
	is := assert.New(t)

	os.Args = []string{"randquik", "version"}

	var outBuf bytes.Buffer
	cmd.RootCmd.SetOut(&outBuf)
	cmd.RootCmd.SetErr(&outBuf)

	require.NoError(t, cmd.RootCmd.Execute())

	output := outBuf.String()
	is.Contains(output, "version:")
	is.Contains(output, "commit:")
}

func TestMainRejectsUnknownAlgorithm(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.bin")
	os.Args = []string{"randquik", "-l", "1024", "-o", path, "-a", "NOSUCHALG", "-q"}

	var outBuf bytes.Buffer
	cmd.RootCmd.SetOut(&outBuf)
	cmd.RootCmd.SetErr(&outBuf)

	assert.Error(t, cmd.RootCmd.Execute())
}
