package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePort(t *testing.T) {
	tests := []struct {
		name string
		port int
		ok   bool
	}{
		{"COM3", 3, true},
		{"COM256", 256, true},
		{"USB Serial Port (COM12)", 12, true},
		{"Prolific USB-to-Serial Comm Port (COM7)", 7, true},
		{"COM1234", 123, true},
		{"COM0", 0, false},
		{"COM", 0, false},
		{"LPT1", 0, false},
		{"com3", 0, false},
	}
	for _, tt := range tests {
		port, ok := ParsePort(tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		assert.Equal(t, tt.port, port, tt.name)
	}
}

const deviceList = `# present devices
USB Serial Port (COM3)
Communications Port (COM1)

Printer Port (LPT1)
COM3
`

func TestFileSourcePlain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ports.txt")
	require.NoError(t, os.WriteFile(path, []byte(deviceList), 0644))

	ports, err := (&FileSource{Path: path, Logger: NoopLogger()}).Ports(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1, 3}, ports)
}

func TestFileSourceCompressed(t *testing.T) {
	dir := t.TempDir()

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, err := gw.Write([]byte(deviceList))
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	gzPath := filepath.Join(dir, "ports.txt.gz")
	require.NoError(t, os.WriteFile(gzPath, gz.Bytes(), 0644))

	var zz bytes.Buffer
	zw := zlib.NewWriter(&zz)
	_, err = zw.Write([]byte(deviceList))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	zzPath := filepath.Join(dir, "ports.zz")
	require.NoError(t, os.WriteFile(zzPath, zz.Bytes(), 0644))

	for _, path := range []string{gzPath, zzPath} {
		ports, err := (&FileSource{Path: path}).Ports(context.Background())
		require.NoError(t, err, path)
		assert.Equal(t, []int{3, 1, 3}, ports, path)
	}
}

func TestFileSourceErrors(t *testing.T) {
	_, err := (&FileSource{}).Ports(context.Background())
	assert.ErrorIs(t, err, ErrNoSource)

	_, err = (&FileSource{Path: filepath.Join(t.TempDir(), "missing")}).Ports(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "bad.gz")
	require.NoError(t, os.WriteFile(bad, []byte("not gzip"), 0644))
	_, err = (&FileSource{Path: bad}).Ports(context.Background())
	assert.Error(t, err)
}

func TestStaticSourceCopies(t *testing.T) {
	src := StaticSource{4, 2}
	ports, err := src.Ports(context.Background())
	require.NoError(t, err)
	ports[0] = 99
	assert.Equal(t, StaticSource{4, 2}, src)
}

func TestOpenDeviceListPassesPlainFilesThrough(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ports.txt")
	require.NoError(t, os.WriteFile(path, []byte(deviceList), 0644))
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	reader, err := openDeviceList(file, path)
	require.NoError(t, err)
	assert.Same(t, file, reader)
}
