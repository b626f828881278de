package fdt

import (
	"fmt"

	"github.com/joshuapare/fdtkit/internal/format"
)

// ReserveEntry is one record of the memory-reserve map: a physical range the
// kernel must leave untouched.
type ReserveEntry struct {
	Address uint64
	Size    uint64
}

// ReserveEntries returns the memory-reserve map, excluding the all-zero
// terminator record.
func (f *FDT) ReserveEntries() ([]ReserveEntry, error) {
	var entries []ReserveEntry
	off := int(f.hdr.OffMemRsvmap)
	for {
		if off+format.ReserveEntrySize > len(f.data) {
			return nil, fmt.Errorf("%w: unterminated memory-reserve map", ErrBadBlob)
		}
		entry := ReserveEntry{
			Address: format.ReadU64(f.data, off),
			Size:    format.ReadU64(f.data, off+8),
		}
		if entry.Address == 0 && entry.Size == 0 {
			return entries, nil
		}
		entries = append(entries, entry)
		off += format.ReserveEntrySize
	}
}
