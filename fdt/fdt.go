// Package fdt provides read-only access to Flattened Device Tree blobs: the
// header, the memory-reserve map, the structure-block tag stream and the
// string table. Higher-level selection and rendering live in fdt/region,
// fdt/grep and fdt/printer.
package fdt

import (
	"errors"
	"fmt"

	"github.com/joshuapare/fdtkit/internal/format"
)

// ErrBadBlob indicates the blob failed header or bounds validation.
var ErrBadBlob = errors.New("fdt: bad blob")

// FDT is an opened device tree blob, backed by mmap (unix) or a byte slice.
type FDT struct {
	data    []byte
	hdr     format.Header
	cleanup func() error
}

// New wraps an in-memory blob. The header is validated; the data is not
// copied and must stay alive and unmodified for the lifetime of the FDT.
func New(data []byte) (*FDT, error) {
	hdr, err := format.ParseHeader(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadBlob, err)
	}
	return &FDT{data: data, hdr: hdr}, nil
}

// Close releases the mapping, if any. Safe on a nil or New()-constructed FDT.
func (f *FDT) Close() error {
	if f == nil || f.cleanup == nil {
		return nil
	}
	cleanup := f.cleanup
	f.cleanup = nil
	f.data = nil
	return cleanup()
}

// Bytes returns the raw blob.
func (f *FDT) Bytes() []byte { return f.data }

// Header returns the parsed blob header.
func (f *FDT) Header() format.Header { return f.hdr }

// TotalSize returns the declared size of the blob in bytes.
func (f *FDT) TotalSize() int { return int(f.hdr.TotalSize) }

// OffDTStruct returns the absolute offset of the structure block.
func (f *FDT) OffDTStruct() int { return int(f.hdr.OffDTStruct) }

// OffDTStrings returns the absolute offset of the string table.
func (f *FDT) OffDTStrings() int { return int(f.hdr.OffDTStrings) }

// OffMemRsvmap returns the absolute offset of the memory-reserve map.
func (f *FDT) OffMemRsvmap() int { return int(f.hdr.OffMemRsvmap) }

// Version returns the blob format version.
func (f *FDT) Version() int { return int(f.hdr.Version) }

// LastCompVersion returns the lowest compatible format version.
func (f *FDT) LastCompVersion() int { return int(f.hdr.LastCompVersion) }

// BootCPUIDPhys returns the boot CPU id recorded in the header.
func (f *FDT) BootCPUIDPhys() uint32 { return f.hdr.BootCPUIDPhys }

// SizeDTStrings returns the size of the string table in bytes.
func (f *FDT) SizeDTStrings() int { return int(f.hdr.SizeDTStrings) }

// SizeDTStruct returns the size of the structure block. Version-16 blobs do
// not record it, so the strings offset bounds the block instead.
func (f *FDT) SizeDTStruct() int {
	return int(f.hdr.StructEnd() - f.hdr.OffDTStruct)
}

// structBytes returns the structure block contents.
func (f *FDT) structBytes() []byte {
	start := int(f.hdr.OffDTStruct)
	end := int(f.hdr.StructEnd())
	if start > len(f.data) || end > len(f.data) || start > end {
		return nil
	}
	return f.data[start:end]
}
