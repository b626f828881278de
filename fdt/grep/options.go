package grep

import "github.com/joshuapare/fdtkit/fdt/region"

// OutputFormat selects what Run emits.
type OutputFormat string

const (
	// OutDTS emits device tree source text.
	OutDTS OutputFormat = "dts"

	// OutDTB emits a reconstructed, valid device tree blob.
	OutDTB OutputFormat = "dtb"

	// OutBin emits the raw selected bytes; a fragment for hashing, not
	// necessarily a valid blob.
	OutBin OutputFormat = "bin"
)

// Options controls a grep: the filters, the walk flags and the output shape.
type Options struct {
	// Format specifies the output format (dts, dtb, bin).
	// Default: OutDTS
	Format OutputFormat

	// Filters is the match rule list, applied in order.
	Filters []Rule

	// Invert flips include and exclude decisions. Incompatible with
	// exclude-polarity filters.
	Invert bool

	// Flags adjust the region walk (supernodes, subnodes, extra sections).
	// Default: region.Supernodes
	Flags region.Flags

	// All shows every tag, not just the selected ones (dts format).
	All bool

	// Colour marks selected tags green and others red (dts format).
	Colour bool

	// Diff prefixes lines with + or - for in/out of the selection.
	Diff bool

	// ShowAddr / ShowOffset add file-address / block-offset columns.
	ShowAddr   bool
	ShowOffset bool

	// Header emits the blob header: a comment block in dts output, the
	// real 40-byte header in binary output.
	Header bool

	// DTSVersion puts "/dts-v1/;" on the first line of dts output.
	DTSVersion bool

	// ListRegions prints the selected region list before the output.
	ListRegions bool

	// ListStrings prints the string-table entries after dts output.
	ListStrings bool

	// Digest prints the xxhash64 of the selected bytes before the output.
	Digest bool
}

// DefaultOptions returns the defaults: dts output with supernodes pulled in.
func DefaultOptions() Options {
	return Options{
		Format: OutDTS,
		Flags:  region.Supernodes,
	}
}
