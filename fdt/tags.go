package fdt

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/joshuapare/fdtkit/internal/format"
)

// ErrBadOffset indicates an offset that does not point at the expected tag
// or structure.
var ErrBadOffset = errors.New("fdt: bad offset")

// Property is a decoded property: its name from the string table and its raw
// value bytes.
type Property struct {
	Name  string
	Value []byte
}

// NextTag returns the tag at offset and the offset of the tag that follows.
// Offsets are relative to the start of the structure block. A malformed
// stream yields TagEnd with next == -1, which every caller treats as a
// structure error.
func (f *FDT) NextTag(offset int) (format.Tag, int) {
	s := f.structBytes()
	if offset < 0 || offset+format.TagSize > len(s) {
		return format.TagEnd, -1
	}
	tag := format.Tag(format.ReadU32(s, offset))
	pos := offset + format.TagSize

	switch tag {
	case format.TagBeginNode:
		// Skip the nul-terminated name.
		for pos < len(s) && s[pos] != 0 {
			pos++
		}
		if pos == len(s) {
			return format.TagEnd, -1
		}
		pos++
	case format.TagProp:
		if pos+format.PropHeaderSize > len(s) {
			return format.TagEnd, -1
		}
		plen := int(format.ReadU32(s, pos))
		pos += format.PropHeaderSize + plen
		if plen < 0 || pos > len(s) {
			return format.TagEnd, -1
		}
	case format.TagEndNode, format.TagNop, format.TagEnd:
	default:
		return format.TagEnd, -1
	}

	return tag, format.Align(pos, format.TagAlignment)
}

// Name returns the name of the node whose BeginNode tag is at offset. The
// root node has an empty name.
func (f *FDT) Name(offset int) (string, error) {
	s := f.structBytes()
	if offset < 0 || offset+format.TagSize > len(s) {
		return "", fmt.Errorf("%w: node at %#x", ErrBadOffset, offset)
	}
	if format.Tag(format.ReadU32(s, offset)) != format.TagBeginNode {
		return "", fmt.Errorf("%w: no BEGIN_NODE at %#x", ErrBadOffset, offset)
	}
	rest := s[offset+format.TagSize:]
	end := bytes.IndexByte(rest, 0)
	if end < 0 {
		return "", fmt.Errorf("%w: unterminated name at %#x", ErrBadOffset, offset)
	}
	return string(rest[:end]), nil
}

// NameBytes is Name without the copy: the returned slice aliases the blob
// and excludes the terminator. Intended for traversal hot paths.
func (f *FDT) NameBytes(offset int) ([]byte, error) {
	s := f.structBytes()
	if offset < 0 || offset+format.TagSize > len(s) {
		return nil, fmt.Errorf("%w: node at %#x", ErrBadOffset, offset)
	}
	if format.Tag(format.ReadU32(s, offset)) != format.TagBeginNode {
		return nil, fmt.Errorf("%w: no BEGIN_NODE at %#x", ErrBadOffset, offset)
	}
	rest := s[offset+format.TagSize:]
	end := bytes.IndexByte(rest, 0)
	if end < 0 {
		return nil, fmt.Errorf("%w: unterminated name at %#x", ErrBadOffset, offset)
	}
	return rest[:end], nil
}

// PropNameAt returns the name of the property at offset as a nul-terminated
// byte slice aliasing the string table. Intended for traversal hot paths.
func (f *FDT) PropNameAt(offset int) ([]byte, error) {
	s := f.structBytes()
	if offset < 0 || offset+format.TagSize+format.PropHeaderSize > len(s) {
		return nil, fmt.Errorf("%w: property at %#x", ErrBadOffset, offset)
	}
	if format.Tag(format.ReadU32(s, offset)) != format.TagProp {
		return nil, fmt.Errorf("%w: no PROP at %#x", ErrBadOffset, offset)
	}
	nameoff := int(format.ReadU32(s, offset+format.TagSize+4))
	return f.StringBytes(nameoff)
}

// StringBytes returns the string at offset in the string table as a byte
// slice including its nul terminator, without copying.
func (f *FDT) StringBytes(offset int) ([]byte, error) {
	start := int(f.hdr.OffDTStrings)
	size := int(f.hdr.SizeDTStrings)
	if offset < 0 || offset >= size || start+size > len(f.data) {
		return nil, fmt.Errorf("%w: string at %#x", ErrBadOffset, offset)
	}
	tab := f.data[start : start+size]
	end := bytes.IndexByte(tab[offset:], 0)
	if end < 0 {
		return nil, fmt.Errorf("%w: unterminated string at %#x", ErrBadOffset, offset)
	}
	return tab[offset : offset+end+1], nil
}

// PropertyAt decodes the property whose Prop tag is at offset.
func (f *FDT) PropertyAt(offset int) (Property, error) {
	s := f.structBytes()
	if offset < 0 || offset+format.TagSize+format.PropHeaderSize > len(s) {
		return Property{}, fmt.Errorf("%w: property at %#x", ErrBadOffset, offset)
	}
	if format.Tag(format.ReadU32(s, offset)) != format.TagProp {
		return Property{}, fmt.Errorf("%w: no PROP at %#x", ErrBadOffset, offset)
	}
	plen := int(format.ReadU32(s, offset+format.TagSize))
	nameoff := int(format.ReadU32(s, offset+format.TagSize+4))
	start := offset + format.TagSize + format.PropHeaderSize
	if plen < 0 || start+plen > len(s) {
		return Property{}, fmt.Errorf("%w: property value at %#x overruns block", ErrBadOffset, offset)
	}
	name, err := f.String(nameoff)
	if err != nil {
		return Property{}, err
	}
	return Property{Name: name, Value: s[start : start+plen]}, nil
}

// String returns the nul-terminated string at offset in the string table.
func (f *FDT) String(offset int) (string, error) {
	start := int(f.hdr.OffDTStrings)
	size := int(f.hdr.SizeDTStrings)
	if offset < 0 || offset >= size || start+size > len(f.data) {
		return "", fmt.Errorf("%w: string at %#x", ErrBadOffset, offset)
	}
	tab := f.data[start : start+size]
	end := bytes.IndexByte(tab[offset:], 0)
	if end < 0 {
		return "", fmt.Errorf("%w: unterminated string at %#x", ErrBadOffset, offset)
	}
	return string(tab[offset : offset+end]), nil
}

// Property returns the value of the named property of the node whose
// BeginNode tag is at nodeOffset, or false if the node has no such property.
// Only the node's own properties are scanned; the spec requires properties
// to precede subnodes, so the scan stops at the first non-property tag.
func (f *FDT) Property(nodeOffset int, name string) ([]byte, bool) {
	tag, next := f.NextTag(nodeOffset)
	if tag != format.TagBeginNode || next < 0 {
		return nil, false
	}
	for {
		offset := next
		tag, next = f.NextTag(offset)
		if next < 0 {
			return nil, false
		}
		switch tag {
		case format.TagProp:
			prop, err := f.PropertyAt(offset)
			if err != nil {
				return nil, false
			}
			if prop.Name == name {
				return prop.Value, true
			}
		case format.TagNop:
		default:
			return nil, false
		}
	}
}

// StringlistContains reports whether the nul-separated string list in data
// contains str as one of its members.
func StringlistContains(data []byte, str string) bool {
	for len(data) > 0 {
		end := bytes.IndexByte(data, 0)
		if end < 0 {
			// Unterminated trailing member still participates in the match.
			return string(data) == str
		}
		if string(data[:end]) == str {
			return true
		}
		data = data[end+1:]
	}
	return false
}
