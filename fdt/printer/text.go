package printer

import (
	"fmt"

	"github.com/joshuapare/fdtkit/fdt/region"
	"github.com/joshuapare/fdtkit/internal/format"
)

// ANSI colours used to mark selection state.
const (
	colRed   = 1
	colGreen = 2
	colNone  = -1
)

// printColour emits the ANSI sequence for col, or the reset sequence for
// colNone.
func (p *Printer) printColour(col int) {
	if col == colNone {
		fmt.Fprint(p.w, "\033[0m")
	} else {
		fmt.Fprintf(p.w, "\033[1;%dm", col+30)
	}
}

// PrintRegions prints the region list: absolute start and end offsets.
func (p *Printer) PrintRegions(regions []region.Region) error {
	if _, err := fmt.Fprintf(p.w, "Regions: %d\n", len(regions)); err != nil {
		return err
	}
	for i, r := range regions {
		if _, err := fmt.Fprintf(p.w, "%d:  %-10x  %-10x\n", i, r.Offset, r.End()); err != nil {
			return err
		}
	}
	return nil
}

// PrintDTS renders the blob as device tree source, emitting each tag whose
// file offset falls inside the region list (or every tag with All set,
// selection marked by colour/diff instead).
//
// The renderer keeps its own depth so indentation stays consistent across
// skipped tags.
func (p *Printer) PrintDTS(regions []region.Region) error {
	if p.opts.DTSVersion {
		fmt.Fprintf(p.w, "/dts-v1/;\n")
	}
	if p.opts.Header {
		p.printHeaderComment()
	}
	if p.opts.Flags&region.AddMemRsvmap != 0 {
		entries, err := p.f.ReserveEntries()
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Fprintf(p.w, "/memreserve/ %x %x;\n", e.Address, e.Size)
		}
	}

	base := p.f.OffDTStruct()
	shift := p.opts.IndentSize
	ri := 0
	depth := 0
	nextOffset := 0
	for {
		offset := nextOffset

		// Work out this tag's file offset and whether a region covers it.
		fileOfs := base + offset
		if ri < len(regions) && fileOfs >= regions[ri].End() {
			ri++
		}
		inRegion := ri < len(regions) && fileOfs >= regions[ri].Offset &&
			fileOfs < regions[ri].End()

		tag, next := p.f.NextTag(offset)
		if next < 0 {
			return fmt.Errorf("printer: bad tag at %#x", offset)
		}
		nextOffset = next

		if tag == format.TagEnd {
			break
		}
		show := inRegion || p.opts.All
		if show && p.opts.Diff {
			if inRegion {
				fmt.Fprint(p.w, "+")
			} else {
				fmt.Fprint(p.w, "-")
			}
		}
		if !show {
			// Keep depth honest across hidden tags.
			switch tag {
			case format.TagBeginNode:
				depth++
			case format.TagEndNode:
				depth--
			}
			continue
		}
		if p.opts.ShowAddr {
			fmt.Fprintf(p.w, "%4x: ", fileOfs)
		}
		if p.opts.ShowOffset {
			fmt.Fprintf(p.w, "%4x: ", offset)
		}

		// Green means included, red means excluded.
		if p.opts.Colour {
			if inRegion {
				p.printColour(colGreen)
			} else {
				p.printColour(colRed)
			}
		}

		switch tag {
		case format.TagProp:
			prop, err := p.f.PropertyAt(offset)
			if err != nil {
				return err
			}
			fmt.Fprintf(p.w, "%*s%s%s;", depth*shift, "", prop.Name, formatValue(prop.Value))

		case format.TagNop:
			fmt.Fprintf(p.w, "%*s// [NOP]", depth*shift, "")

		case format.TagBeginNode:
			name, err := p.f.Name(offset)
			if err != nil {
				return err
			}
			if name == "" {
				name = "/"
			}
			fmt.Fprintf(p.w, "%*s%s {", depth*shift, "", name)
			depth++

		case format.TagEndNode:
			depth--
			fmt.Fprintf(p.w, "%*s};", depth*shift, "")
		}

		if p.opts.Colour {
			p.printColour(colNone)
		}
		fmt.Fprintln(p.w)
	}

	if p.opts.ListStrings {
		return p.printStrings(regions)
	}
	return nil
}

// printStrings lists the string table, marking entries whose bytes lie
// fully inside a region.
func (p *Printer) printStrings(regions []region.Region) error {
	strBase := p.f.OffDTStrings()
	size := p.f.SizeDTStrings()
	ri := 0
	for offset := 0; offset < size; {
		str, err := p.f.String(offset)
		if err != nil {
			return err
		}
		strLen := len(str) + 1

		fileOfs := strBase + offset
		for ri < len(regions) && fileOfs >= regions[ri].End() {
			ri++
		}
		inRegion := ri < len(regions) && fileOfs >= regions[ri].Offset &&
			fileOfs+strLen < regions[ri].End()
		show := inRegion || p.opts.All
		if show {
			if p.opts.Diff {
				if inRegion {
					fmt.Fprint(p.w, "+")
				} else {
					fmt.Fprint(p.w, "-")
				}
			}
			if p.opts.ShowAddr {
				fmt.Fprintf(p.w, "%4x: ", fileOfs)
			}
			if p.opts.ShowOffset {
				fmt.Fprintf(p.w, "%4x: ", offset)
			}
			fmt.Fprintf(p.w, "%s\n", str)
		}
		offset += strLen
	}
	return nil
}

// printHeaderComment dumps the header fields as dts comments, honoring the
// version gates each field appeared behind.
func (p *Printer) printHeaderComment() {
	version := p.f.Version()
	fmt.Fprintf(p.w, "// magic:\t\t%#x\n", uint32(format.Magic))
	fmt.Fprintf(p.w, "// totalsize:\t\t%#x (%d)\n", p.f.TotalSize(), p.f.TotalSize())
	fmt.Fprintf(p.w, "// off_dt_struct:\t%#x\n", p.f.OffDTStruct())
	fmt.Fprintf(p.w, "// off_dt_strings:\t%#x\n", p.f.OffDTStrings())
	fmt.Fprintf(p.w, "// off_mem_rsvmap:\t%#x\n", p.f.OffMemRsvmap())
	fmt.Fprintf(p.w, "// version:\t\t%d\n", version)
	fmt.Fprintf(p.w, "// last_comp_version:\t%d\n", p.f.LastCompVersion())
	if version >= 2 {
		fmt.Fprintf(p.w, "// boot_cpuid_phys:\t%#x\n", p.f.BootCPUIDPhys())
	}
	if version >= 3 {
		fmt.Fprintf(p.w, "// size_dt_strings:\t%#x\n", p.f.SizeDTStrings())
	}
	if version >= 17 {
		fmt.Fprintf(p.w, "// size_dt_struct:\t%#x\n", p.f.SizeDTStruct())
	}
	fmt.Fprintln(p.w)
}
