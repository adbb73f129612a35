package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/astei/comsentinel/comset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state")
	set := comset.New()
	for _, id := range []int{1, 3, 5, 69, 250} {
		set.Add(id)
	}

	require.NoError(t, SaveState(path, set))
	loaded, err := LoadState(path)
	require.NoError(t, err)
	assert.Equal(t, set.Words(), loaded.Words())

	// overwrite in place
	require.NoError(t, SaveState(path, comset.New()))
	loaded, err = LoadState(path)
	require.NoError(t, err)
	assert.Empty(t, loaded.Members())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLoadStateMissing(t *testing.T) {
	_, err := LoadState(filepath.Join(t.TempDir(), "none"))
	assert.ErrorIs(t, err, ErrNoState)
}

func TestLoadStateInvalid(t *testing.T) {
	dir := t.TempDir()

	var good bytes.Buffer
	require.NoError(t, writeState(&good, comset.New()))

	wrongVersion := append([]byte(nil), good.Bytes()...)
	wrongVersion[2] = 9

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrInvalidState},
		{"magic", []byte{0xB1, 0x0B, 1, 0, 0, 0, 0}, ErrInvalidState},
		{"truncated", good.Bytes()[:good.Len()-2], ErrInvalidState},
		{"version", wrongVersion, ErrUnsupportedVersion},
		{"huge length", []byte{0xC0, 0x5E, 1, 0xFF, 0xFF, 0xFF, 0xF0, 0, 0, 0, 0x20}, ErrInvalidState},
	}
	for _, tt := range tests {
		path := filepath.Join(dir, tt.name)
		require.NoError(t, os.WriteFile(path, tt.data, 0644))
		_, err := LoadState(path)
		assert.ErrorIs(t, err, tt.want, tt.name)
	}
}
