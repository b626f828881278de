package format

import "fmt"

// Header captures the FDT blob header. The diagram below lists the offsets;
// every field is a big-endian u32.
//
//	Offset  Size  Description
//	------  ----  ----------------------------------------------------------
//	 0x00    4    Magic (0xd00dfeed)
//	 0x04    4    Total size of the blob in bytes
//	 0x08    4    Offset of the structure block
//	 0x0C    4    Offset of the strings block
//	 0x10    4    Offset of the memory-reserve map
//	 0x14    4    Format version
//	 0x18    4    Lowest version this blob is backwards compatible with
//	 0x1C    4    Physical CPU id of the boot CPU (version >= 2)
//	 0x20    4    Size of the strings block (version >= 3)
//	 0x24    4    Size of the structure block (version >= 17)
type Header struct {
	TotalSize       uint32
	OffDTStruct     uint32
	OffDTStrings    uint32
	OffMemRsvmap    uint32
	Version         uint32
	LastCompVersion uint32
	BootCPUIDPhys   uint32
	SizeDTStrings   uint32
	SizeDTStruct    uint32
}

// ParseHeader validates and extracts the fields of an FDT header.
//
// A version-16 header leaves SizeDTStruct zero; callers derive the structure
// bound from OffDTStrings in that case.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("fdt header: %w", ErrTruncated)
	}
	if ReadU32(b, MagicOffset) != Magic {
		return Header{}, fmt.Errorf("fdt header: %w", ErrBadMagic)
	}
	h := Header{
		TotalSize:       ReadU32(b, TotalSizeOffset),
		OffDTStruct:     ReadU32(b, OffDTStructOffset),
		OffDTStrings:    ReadU32(b, OffDTStringsOffset),
		OffMemRsvmap:    ReadU32(b, OffMemRsvmapOffset),
		Version:         ReadU32(b, VersionOffset),
		LastCompVersion: ReadU32(b, LastCompVersionOffset),
	}
	if h.Version < FirstSupportedVersion || h.LastCompVersion > LastSupportedVersion {
		return Header{}, fmt.Errorf("fdt header version %d (last compatible %d): %w",
			h.Version, h.LastCompVersion, ErrBadVersion)
	}
	h.BootCPUIDPhys = ReadU32(b, BootCPUIDPhysOffset)
	h.SizeDTStrings = ReadU32(b, SizeDTStringsOffset)
	if h.Version >= 17 {
		h.SizeDTStruct = ReadU32(b, SizeDTStructOffset)
	}
	if err := h.validate(len(b)); err != nil {
		return Header{}, err
	}
	return h, nil
}

// validate checks the section offsets against the buffer and each other.
func (h Header) validate(blobLen int) error {
	total := int(h.TotalSize)
	if total < HeaderSize || total > blobLen {
		return fmt.Errorf("fdt header: totalsize %d outside blob of %d bytes: %w",
			total, blobLen, ErrBadLayout)
	}
	sections := []struct {
		name string
		off  uint32
		size uint32
	}{
		{"mem_rsvmap", h.OffMemRsvmap, ReserveEntrySize},
		{"dt_struct", h.OffDTStruct, h.SizeDTStruct},
		{"dt_strings", h.OffDTStrings, h.SizeDTStrings},
	}
	for _, s := range sections {
		end := int64(s.off) + int64(s.size)
		if s.off < HeaderSize || end > int64(total) {
			return fmt.Errorf("fdt header: %s section [%#x,%#x) outside blob: %w",
				s.name, s.off, end, ErrBadLayout)
		}
	}
	if h.OffMemRsvmap > h.OffDTStruct || h.OffDTStruct > h.OffDTStrings {
		return fmt.Errorf("fdt header: section order rsvmap=%#x struct=%#x strings=%#x: %w",
			h.OffMemRsvmap, h.OffDTStruct, h.OffDTStrings, ErrBadLayout)
	}
	return nil
}

// PutHeader serializes h into the first HeaderSize bytes of b.
func PutHeader(b []byte, h Header) {
	PutU32(b, MagicOffset, Magic)
	PutU32(b, TotalSizeOffset, h.TotalSize)
	PutU32(b, OffDTStructOffset, h.OffDTStruct)
	PutU32(b, OffDTStringsOffset, h.OffDTStrings)
	PutU32(b, OffMemRsvmapOffset, h.OffMemRsvmap)
	PutU32(b, VersionOffset, h.Version)
	PutU32(b, LastCompVersionOffset, h.LastCompVersion)
	PutU32(b, BootCPUIDPhysOffset, h.BootCPUIDPhys)
	PutU32(b, SizeDTStringsOffset, h.SizeDTStrings)
	PutU32(b, SizeDTStructOffset, h.SizeDTStruct)
}

// StructEnd returns the exclusive end offset of the structure block. For
// version-16 blobs the strings offset is the only reliable bound.
func (h Header) StructEnd() uint32 {
	if h.Version >= 17 && h.SizeDTStruct != 0 {
		return h.OffDTStruct + h.SizeDTStruct
	}
	return h.OffDTStrings
}
