package printer

import (
	"fmt"

	"github.com/joshuapare/fdtkit/fdt/region"
	"github.com/joshuapare/fdtkit/internal/format"
)

// WriteBlob writes the selected regions as binary data.
//
// The output is a valid blob only when the region list carries what one
// needs: Supernodes so fragments sit under their parents, AddMemRsvmap for
// the reserve map up front, AddStringTab for property names at the back,
// and the Header option for the 40-byte header. Without those the output
// is a raw fragment, still byte-stable for hashing.
func (p *Printer) WriteBlob(regions []region.Region) error {
	// Build a header with recomputed offsets whether or not we write it.
	hdr := format.Header{
		Version:         format.LastSupportedVersion,
		LastCompVersion: format.FirstSupportedVersion,
	}
	structStart := format.Align(format.HeaderSize, format.ReserveEntrySize)
	hdr.OffMemRsvmap = uint32(structStart)

	size := 0
	for _, r := range regions {
		size += r.Size
	}

	// The first region is the reserve map when requested; the structure
	// block starts right after it.
	if len(regions) > 0 && p.opts.Flags&region.AddMemRsvmap != 0 {
		structStart += regions[0].Size
		size -= regions[0].Size
	}
	hdr.OffDTStruct = uint32(structStart)

	// The last region is the string table when requested; everything
	// between it and the structure start is structure bytes.
	if len(regions) >= 2 && p.opts.Flags&region.AddStringTab != 0 {
		strSize := regions[len(regions)-1].Size
		hdr.SizeDTStruct = uint32(size - strSize)
		hdr.OffDTStrings = uint32(structStart + size - strSize)
		hdr.SizeDTStrings = uint32(strSize)
		hdr.TotalSize = uint32(structStart + size)
	}

	if p.opts.Header {
		var buf [format.HeaderSize]byte
		format.PutHeader(buf[:], hdr)
		if _, err := p.w.Write(buf[:]); err != nil {
			return fmt.Errorf("printer: write header: %w", err)
		}
		pad := make([]byte, int(hdr.OffMemRsvmap)-format.HeaderSize)
		if _, err := p.w.Write(pad); err != nil {
			return fmt.Errorf("printer: write padding: %w", err)
		}
	}

	data := p.f.Bytes()
	for _, r := range regions {
		if _, err := p.w.Write(data[r.Offset:r.End()]); err != nil {
			return fmt.Errorf("printer: write region at %#x: %w", r.Offset, err)
		}
	}
	return nil
}
