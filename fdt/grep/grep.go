// Package grep composes the pieces of a device tree grep: filter rules, the
// walk predicate, the region-finding driver and output dispatch.
package grep

import (
	"errors"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"

	"github.com/joshuapare/fdtkit/fdt"
	"github.com/joshuapare/fdtkit/fdt/printer"
	"github.com/joshuapare/fdtkit/fdt/region"
)

// initialRegionCount is the first guess at how many regions a grep yields.
// The driver doubles and rescans when it proves too small.
const initialRegionCount = 100

// Grep is a configured extraction ready to run against blobs.
type Grep struct {
	opts    Options
	filters *FilterSet
}

// New validates opts and builds the filter set. The dtb format forces the
// sections a valid blob needs: header, memory-reserve map and string table.
func New(opts Options) (*Grep, error) {
	if opts.Format == OutDTB {
		opts.Header = true
		opts.Flags |= region.AddMemRsvmap | region.AddStringTab
	}

	fs := &FilterSet{invert: opts.Invert}
	for _, r := range opts.Filters {
		if err := fs.Add(r.Kind, r.Include, r.Value); err != nil {
			return nil, err
		}
	}
	if opts.Invert && fs.typesExc != 0 {
		return nil, errors.New("grep: invert has no meaning combined with exclude conditions")
	}

	return &Grep{opts: opts, filters: fs}, nil
}

// FindRegions runs the region walk to completion and returns the selected
// regions in ascending offset order.
//
// The walker itself never allocates, so the driver makes two passes when
// needed: if the output array fills while the walk is still yielding, the
// array is doubled and the walk restarted from a fresh state.
func (g *Grep) FindRegions(f *fdt.FDT) ([]region.Region, error) {
	for count := initialRegionCount; ; count *= 2 {
		out := make([]region.Region, count)
		var state region.State

		total, err := state.First(f, g.filters.Include, g.opts.Flags, out)
		for err == nil && total < len(out) {
			var n int
			n, err = state.Next(f, g.filters.Include, out[total:])
			total += n
		}
		if errors.Is(err, region.ErrNotFound) {
			return out[:total], nil
		}
		if err != nil {
			return nil, fmt.Errorf("find regions: %w", err)
		}
		// The array filled with the walk still going; double and rescan.
	}
}

// Digest returns the xxhash64 of the selected bytes in region order. This
// is the hash the bin output format exists to feed.
func Digest(f *fdt.FDT, regions []region.Region) uint64 {
	d := xxhash.New()
	data := f.Bytes()
	for _, r := range regions {
		_, _ = d.Write(data[r.Offset:r.End()])
	}
	return d.Sum64()
}

// Run executes the grep against f and writes the requested output to w.
func (g *Grep) Run(f *fdt.FDT, w io.Writer) error {
	regions, err := g.FindRegions(f)
	if err != nil {
		return err
	}

	p := printer.New(f, w, g.printerOptions())

	if g.opts.ListRegions {
		if err := p.PrintRegions(regions); err != nil {
			return err
		}
	}
	if g.opts.Digest {
		if _, err := fmt.Fprintf(w, "digest: %016x\n", Digest(f, regions)); err != nil {
			return err
		}
	}

	switch g.opts.Format {
	case OutDTS, "":
		return p.PrintDTS(regions)
	case OutDTB, OutBin:
		return p.WriteBlob(regions)
	default:
		return fmt.Errorf("grep: unknown output format %q", g.opts.Format)
	}
}

// printerOptions maps the grep configuration onto the printer's knobs.
func (g *Grep) printerOptions() printer.Options {
	opts := printer.DefaultOptions()
	opts.Flags = g.opts.Flags
	opts.All = g.opts.All
	opts.Colour = g.opts.Colour
	opts.Diff = g.opts.Diff
	opts.ShowAddr = g.opts.ShowAddr
	opts.ShowOffset = g.opts.ShowOffset
	opts.Header = g.opts.Header
	opts.DTSVersion = g.opts.DTSVersion
	opts.ListStrings = g.opts.ListStrings
	return opts
}
