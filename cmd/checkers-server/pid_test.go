package main

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIDFileLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkers.pid")

	p, err := acquirePIDFile(path, true)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), strings.TrimSpace(string(data)))

	// This process is alive, so a second locked start is refused
	_, err = acquirePIDFile(path, true)
	assert.Error(t, err)

	p.Release()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestStalePIDFileIsTakenOver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkers.pid")
	require.NoError(t, os.WriteFile(path, []byte("999999999\n"), 0644))

	p, err := acquirePIDFile(path, true)
	require.NoError(t, err)
	defer p.Release()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), strings.TrimSpace(string(data)))
}

func TestCorruptedPIDFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkers.pid")
	require.NoError(t, os.WriteFile(path, []byte("not a pid"), 0644))

	_, err := acquirePIDFile(path, true)
	assert.ErrorContains(t, err, "corrupted PID file")
}
