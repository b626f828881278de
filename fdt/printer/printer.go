// Package printer renders selected regions of a device tree blob: as source
// text, as a region list, or reassembled into binary form.
package printer

import (
	"io"

	"github.com/joshuapare/fdtkit/fdt"
	"github.com/joshuapare/fdtkit/fdt/region"
)

const (
	// DefaultIndentSize is the dts indent width in spaces per depth.
	DefaultIndentSize = 4
)

// Options controls rendering behavior.
type Options struct {
	// IndentSize is the number of spaces per indent level (dts output).
	// Default: 4
	IndentSize int

	// Flags mirrors the walk flags, so the renderer knows which extra
	// sections (reserve map, string table) the region list carries.
	Flags region.Flags

	// All renders every tag, not just those inside a region.
	All bool

	// Colour wraps lines in ANSI colour: green inside a region, red out.
	Colour bool

	// Diff prefixes each line with '+' (in region) or '-' (out).
	Diff bool

	// ShowAddr prints the absolute file offset of each tag.
	ShowAddr bool

	// ShowOffset prints each tag's offset within the structure block.
	ShowOffset bool

	// Header emits the blob header: as a comment block in dts output, as
	// the real 40-byte header in binary output.
	Header bool

	// DTSVersion puts "/dts-v1/;" on the first line of dts output.
	DTSVersion bool

	// ListStrings appends the string-table entries to dts output.
	ListStrings bool
}

// DefaultOptions returns sensible defaults for rendering.
func DefaultOptions() Options {
	return Options{
		IndentSize: DefaultIndentSize,
	}
}

// Printer renders regions of one blob to a writer.
type Printer struct {
	f    *fdt.FDT
	w    io.Writer
	opts Options
}

// New creates a new Printer over f writing to w.
func New(f *fdt.FDT, w io.Writer, opts Options) *Printer {
	if opts.IndentSize == 0 {
		opts.IndentSize = DefaultIndentSize
	}
	return &Printer{f: f, w: w, opts: opts}
}
