package main

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/pkg/errors"
)

var ErrNoSource = errors.New("comsentinel: no port source configured")

// PortSource lists the port numbers that are present right now. Duplicates
// are meaningful: two devices claiming the same number show up twice.
type PortSource interface {
	Ports(ctx context.Context) ([]int, error)
}

// ParsePort extracts the number from a device name such as "COM3" or
// "USB Serial Port (COM12)". At most three digits are read after "COM".
func ParsePort(name string) (int, bool) {
	idx := strings.Index(name, "COM")
	if idx < 0 {
		return 0, false
	}
	digits := name[idx+3:]
	n, read := 0, 0
	for read < 3 && read < len(digits) && digits[read] >= '0' && digits[read] <= '9' {
		n = n*10 + int(digits[read]-'0')
		read++
	}
	if read == 0 || n == 0 {
		return 0, false
	}
	return n, true
}

// FileSource reads one device name per line from Path on every poll. Files
// ending in .gz or .zz/.zlib are decompressed on the fly.
type FileSource struct {
	Path   string
	Logger *Logger
}

func (src *FileSource) Ports(ctx context.Context) ([]int, error) {
	if src.Path == "" {
		return nil, ErrNoSource
	}
	file, err := os.Open(src.Path)
	if err != nil {
		return nil, errors.Wrap(err, "FileSource.Ports")
	}
	defer file.Close()

	reader, err := openDeviceList(file, src.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "FileSource.Ports: %s", src.Path)
	}
	if closer, ok := reader.(io.Closer); ok && reader != io.Reader(file) {
		defer closer.Close()
	}

	var ports []int
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		port, ok := ParsePort(line)
		if !ok {
			if src.Logger != nil {
				src.Logger.Debug("skipping device without a COM number", "source", src.Path, "device", line)
			}
			continue
		}
		ports = append(ports, port)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "FileSource.Ports: %s", src.Path)
	}
	return ports, nil
}

func openDeviceList(r io.Reader, name string) (io.Reader, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gz":
		return gzip.NewReader(r)
	case ".zz", ".zlib":
		return zlib.NewReader(r)
	default:
		return r, nil
	}
}

// StaticSource always reports the same ports.
type StaticSource []int

func (src StaticSource) Ports(ctx context.Context) ([]int, error) {
	return append([]int(nil), src...), nil
}

func sortedPorts(ports []int) []int {
	sorted := append([]int(nil), ports...)
	sort.Ints(sorted)
	return sorted
}
