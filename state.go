package main

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"

	"github.com/astei/comsentinel/comset"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

const stateMagic = 0xC05E
const stateLatestVersion = 1

// A zstd frame holding one encoded set never comes close to this.
const stateMaxCompressed = 128

var ErrNoState = errors.New("state: no saved state")
var ErrInvalidState = errors.New("state: invalid state file")
var ErrUnsupportedVersion = errors.New("state: unsupported version")

type stateHeader struct {
	Magic   uint16
	Version uint8
}

// SaveState writes set to path, replacing any previous file atomically.
func SaveState(path string, set comset.Set) error {
	var out bytes.Buffer
	if err := writeState(&out, set); err != nil {
		return errors.Wrap(err, "SaveState")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return errors.Wrap(err, "SaveState")
	}
	if _, err = out.WriteTo(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return errors.Wrap(err, "SaveState")
	}
	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return errors.Wrap(err, "SaveState")
	}
	return errors.Wrap(os.Rename(tmp.Name(), path), "SaveState")
}

// LoadState reads a set written by SaveState.
func LoadState(path string) (comset.Set, error) {
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return comset.Set{}, ErrNoState
	}
	if err != nil {
		return comset.Set{}, errors.Wrap(err, "LoadState")
	}
	defer file.Close()

	set, err := readState(file)
	if err != nil {
		return comset.Set{}, errors.Wrapf(err, "LoadState: %s", path)
	}
	return set, nil
}

func writeState(w io.Writer, set comset.Set) (err error) {
	header := stateHeader{Magic: stateMagic, Version: stateLatestVersion}
	if err = binary.Write(w, binary.BigEndian, header); err != nil {
		return
	}
	raw, err := set.MarshalBinary()
	if err != nil {
		return
	}
	return writeZstdCompressed(w, raw)
}

func writeZstdCompressed(w io.Writer, raw []byte) (err error) {
	var compressedOutput bytes.Buffer
	zstdWriter, err := zstd.NewWriter(&compressedOutput)
	if err != nil {
		return
	}
	if _, err = zstdWriter.Write(raw); err != nil {
		return
	}
	if err = zstdWriter.Close(); err != nil {
		return
	}

	if err = binary.Write(w, binary.BigEndian, uint32(compressedOutput.Len())); err != nil {
		return
	}
	if err = binary.Write(w, binary.BigEndian, uint32(len(raw))); err != nil {
		return
	}
	_, err = compressedOutput.WriteTo(w)
	return
}

func readState(r io.Reader) (set comset.Set, err error) {
	var header stateHeader
	if err = binary.Read(r, binary.BigEndian, &header); err != nil {
		return set, ErrInvalidState
	}
	if header.Magic != stateMagic {
		return set, ErrInvalidState
	}
	if header.Version != stateLatestVersion {
		return set, errors.Wrapf(ErrUnsupportedVersion, "version %d", header.Version)
	}

	raw, err := readZstdCompressed(r)
	if err != nil {
		return set, err
	}
	if err = set.UnmarshalBinary(raw); err != nil {
		return set, ErrInvalidState
	}
	return set, nil
}

func readZstdCompressed(r io.Reader) ([]byte, error) {
	var sizes struct {
		Compressed   uint32
		Uncompressed uint32
	}
	if err := binary.Read(r, binary.BigEndian, &sizes); err != nil {
		return nil, ErrInvalidState
	}
	if sizes.Uncompressed != comset.WordCount*4 || sizes.Compressed > stateMaxCompressed {
		return nil, ErrInvalidState
	}

	compressed := make([]byte, sizes.Compressed)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return nil, ErrInvalidState
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer decoder.Close()

	raw, err := decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidState, err.Error())
	}
	if len(raw) != int(sizes.Uncompressed) {
		return nil, ErrInvalidState
	}
	return raw, nil
}
