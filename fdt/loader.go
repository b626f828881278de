package fdt

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/joshuapare/fdtkit/internal/mmfile"
)

// Compression magics recognized by Open. Build systems routinely ship dtbs
// as .dtb.gz, .dtb.zst or .dtb.lz4 artifacts.
var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// Open maps the blob at path into memory and validates its header. If the
// file is gzip, zstd or lz4-frame compressed it is decompressed into memory
// transparently.
func Open(path string) (*FDT, error) {
	data, cleanup, err := mmfile.Map(path)
	if err != nil {
		return nil, fmt.Errorf("fdt: open %s: %w", path, err)
	}

	if dec := decompressor(data); dec != nil {
		raw, derr := dec(data)
		// The mapping only backed the compressed bytes; drop it either way.
		_ = cleanup()
		if derr != nil {
			return nil, fmt.Errorf("fdt: decompress %s: %w", path, derr)
		}
		f, ferr := New(raw)
		if ferr != nil {
			return nil, ferr
		}
		return f, nil
	}

	f, err := New(data)
	if err != nil {
		_ = cleanup()
		return nil, err
	}
	f.cleanup = cleanup
	return f, nil
}

// decompressor returns the decompression function matching the leading
// magic, or nil for an uncompressed blob.
func decompressor(data []byte) func([]byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(data, gzipMagic):
		return gunzip
	case bytes.HasPrefix(data, zstdMagic):
		return unzstd
	case bytes.HasPrefix(data, lz4Magic):
		return unlz4
	}
	return nil
}

func gunzip(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func unzstd(data []byte) ([]byte, error) {
	r, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return r.DecodeAll(data, nil)
}

func unlz4(data []byte) ([]byte, error) {
	return io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
}
