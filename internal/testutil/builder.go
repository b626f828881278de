// Package testutil builds small FDT blobs in memory so tests do not depend
// on binary fixtures.
package testutil

import (
	"bytes"

	"github.com/joshuapare/fdtkit/internal/format"
)

// Builder assembles a valid version-17 blob from structure calls. Calls
// chain; Blob performs the final layout.
type Builder struct {
	strukt     bytes.Buffer
	strtab     bytes.Buffer
	strOffsets map[string]int
	reserves   [][2]uint64
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{strOffsets: make(map[string]int)}
}

// Reserve appends a memory-reserve record.
func (b *Builder) Reserve(addr, size uint64) *Builder {
	b.reserves = append(b.reserves, [2]uint64{addr, size})
	return b
}

// Begin opens a node. The root node uses the empty name.
func (b *Builder) Begin(name string) *Builder {
	b.tag(format.TagBeginNode)
	b.strukt.WriteString(name)
	b.strukt.WriteByte(0)
	b.pad()
	return b
}

// End closes the most recently opened node.
func (b *Builder) End() *Builder {
	b.tag(format.TagEndNode)
	return b
}

// Nop emits a NOP tag.
func (b *Builder) Nop() *Builder {
	b.tag(format.TagNop)
	return b
}

// Prop emits a property with raw value bytes.
func (b *Builder) Prop(name string, value []byte) *Builder {
	b.tag(format.TagProp)
	var hdr [format.PropHeaderSize]byte
	format.PutU32(hdr[:], 0, uint32(len(value)))
	format.PutU32(hdr[:], 4, uint32(b.stringOffset(name)))
	b.strukt.Write(hdr[:])
	b.strukt.Write(value)
	b.pad()
	return b
}

// PropU32 emits a property holding big-endian cells.
func (b *Builder) PropU32(name string, cells ...uint32) *Builder {
	value := make([]byte, 4*len(cells))
	for i, c := range cells {
		format.PutU32(value, 4*i, c)
	}
	return b.Prop(name, value)
}

// PropStr emits a property holding nul-terminated strings.
func (b *Builder) PropStr(name string, strs ...string) *Builder {
	var value bytes.Buffer
	for _, s := range strs {
		value.WriteString(s)
		value.WriteByte(0)
	}
	return b.Prop(name, value.Bytes())
}

// Blob terminates the structure block and lays out the final blob:
// header, reserve map, structure, strings.
func (b *Builder) Blob() []byte {
	strukt := make([]byte, b.strukt.Len(), b.strukt.Len()+format.TagSize)
	copy(strukt, b.strukt.Bytes())
	end := [format.TagSize]byte{}
	format.PutU32(end[:], 0, uint32(format.TagEnd))
	strukt = append(strukt, end[:]...)

	rsvOff := format.Align(format.HeaderSize, format.ReserveEntrySize)
	rsvSize := (len(b.reserves) + 1) * format.ReserveEntrySize
	structOff := rsvOff + rsvSize
	stringsOff := structOff + len(strukt)
	total := stringsOff + b.strtab.Len()

	blob := make([]byte, total)
	format.PutHeader(blob, format.Header{
		TotalSize:       uint32(total),
		OffDTStruct:     uint32(structOff),
		OffDTStrings:    uint32(stringsOff),
		OffMemRsvmap:    uint32(rsvOff),
		Version:         format.LastSupportedVersion,
		LastCompVersion: format.FirstSupportedVersion,
		SizeDTStrings:   uint32(b.strtab.Len()),
		SizeDTStruct:    uint32(len(strukt)),
	})
	for i, r := range b.reserves {
		format.PutU64(blob, rsvOff+i*format.ReserveEntrySize, r[0])
		format.PutU64(blob, rsvOff+i*format.ReserveEntrySize+8, r[1])
	}
	copy(blob[structOff:], strukt)
	copy(blob[stringsOff:], b.strtab.Bytes())
	return blob
}

func (b *Builder) tag(t format.Tag) {
	var buf [format.TagSize]byte
	format.PutU32(buf[:], 0, uint32(t))
	b.strukt.Write(buf[:])
}

func (b *Builder) pad() {
	for b.strukt.Len()%format.TagAlignment != 0 {
		b.strukt.WriteByte(0)
	}
}

func (b *Builder) stringOffset(name string) int {
	if off, ok := b.strOffsets[name]; ok {
		return off
	}
	off := b.strtab.Len()
	b.strtab.WriteString(name)
	b.strtab.WriteByte(0)
	b.strOffsets[name] = off
	return off
}
