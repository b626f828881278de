package region

import (
	"fmt"

	"github.com/joshuapare/fdtkit/fdt"
	"github.com/joshuapare/fdtkit/internal/format"
)

// First starts a walk over f and behaves like Next for the rest of the
// call: up to len(out) regions are written and the count returned.
func (s *State) First(f *fdt.FDT, inc IncludeFunc, flags Flags, out []Region) (int, error) {
	s.flags = flags
	s.canMerge = true
	s.start = -1
	s.ptrs = ptrs{depth: -1}
	s.path[0] = 0
	return s.Next(f, inc, out)
}

// Next resumes the walk, writing up to len(out) regions and returning how
// many were written. A full output slice pauses the walk mid-stream: call
// Next again with fresh space to continue. ErrNotFound reports normal
// completion; any other error is fatal and regions written before it must
// be discarded.
func (s *State) Next(f *fdt.FDT, inc IncludeFunc, out []Region) (int, error) {
	base := f.OffDTStruct()
	s.out = out
	s.count = 0

	if s.ptrs.done < doneMemRsvmap && s.flags&AddMemRsvmap != 0 {
		// The reserve map becomes its own region ahead of the structure
		// block, never merged with it.
		if !s.addRegion(f.OffMemRsvmap(), base-f.OffMemRsvmap()) {
			return s.count, nil
		}
		s.canMerge = false
		s.ptrs.done = doneMemRsvmap
	}

	for s.ptrs.done < doneStruct {
		// Copy the volatile pointers; commit happens at the bottom of the
		// iteration, after any region write has succeeded.
		p := s.ptrs

		offset := p.nextOffset
		tag, next := f.NextTag(offset)
		if next < 0 {
			return s.count, fmt.Errorf("%w: bad tag at %#x", ErrBadStructure, offset)
		}
		p.nextOffset = next

		// By default an in-progress region stops after the current tag.
		stopAt := next
		include := false

		switch tag {
		case format.TagProp:
			stopAt = offset
			name, err := f.PropNameAt(offset)
			if err != nil {
				return s.count, fmt.Errorf("%w: %v", ErrBadStructure, err)
			}
			switch v := inc(f, offset, MatchProp, name); v {
			case Unknown:
				include = p.want >= WantNodesAndProps
			default:
				include = v == Include
				// Make sure the } of the enclosing block is emitted for a
				// property pulled in on its own.
				if s.flags&Supernodes != 0 && include && p.want == WantNothing {
					p.want = WantNodesOnly
				}
			}

		case format.TagNop:
			include = p.want >= WantNodesAndProps
			stopAt = offset

		case format.TagBeginNode:
			p.depth++
			if p.depth == format.MaxDepth {
				return s.count, fmt.Errorf("%w: depth %d", ErrTooDeep, p.depth)
			}
			name, err := f.NameBytes(offset)
			if err != nil {
				return s.count, fmt.Errorf("%w: %v", ErrBadStructure, err)
			}
			if p.pathLen+2+len(name) >= format.PathBufSize {
				return s.count, fmt.Errorf("%w: at depth %d", ErrNoSpace, p.depth)
			}

			// Extend the path. The root's lone slash never doubles up.
			if p.pathLen != 1 {
				s.path[p.pathLen] = '/'
				p.pathLen++
			}
			p.pathLen += copy(s.path[p.pathLen:], name)
			s.path[p.pathLen] = 0

			s.stack[p.depth].want = p.want
			s.stack[p.depth].offset = offset

			// Unless subnodes ride along, an unmatched node must close the
			// current region *before* its tag.
			if p.want == WantNodesOnly ||
				s.flags&(DirectSubnodes|AllSubnodes) == 0 {
				stopAt = offset
				p.want = WantNothing
			}

			switch inc(f, offset, MatchNode, s.path[:p.pathLen+1]) {
			case Exclude:
				if p.want != WantNothing {
					// Decay: a pulled-in child keeps its open/close tags
					// but sheds properties, unless the whole subtree was
					// requested.
					if p.want != WantAllNodesAndProps {
						p.want--
					}
				} else {
					stopAt = offset
				}
			default:
				// Include, or Unknown with nothing else to go on.
				if s.flags&AllSubnodes != 0 {
					p.want = WantAllNodesAndProps
				} else {
					p.want = WantNodesAndProps
				}
			}

			include = p.want != WantNothing
			s.stack[p.depth].included = include

		case format.TagEndNode:
			if p.depth < 0 {
				return s.count, fmt.Errorf("%w: END_NODE at depth %d", ErrBadStructure, p.depth)
			}
			include = p.want != WantNothing
			if p.want == WantNothing && s.flags&DirectSubnodes == 0 {
				stopAt = offset
			}
			p.want = s.stack[p.depth].want
			p.depth--

			// Rewind the path to the previous slash.
			for p.pathLen > 0 {
				p.pathLen--
				if s.path[p.pathLen] == '/' {
					break
				}
			}
			s.path[p.pathLen] = 0

		case format.TagEnd:
			// The end tag is always included; it closes the struct phase.
			include = true
			p.done = doneStruct
		}

		if include && s.start == -1 {
			// Opening a region: pull in any ancestors it depends on first.
			if s.flags&Supernodes != 0 {
				if !s.includeSupernodes(f, p.depth) {
					return s.count, nil
				}
			}
			s.start = offset
		}

		if !include && s.start != -1 {
			if !s.addRegion(base+s.start, stopAt-s.start) {
				return s.count, nil
			}
			s.start = -1
			s.canMerge = true
		}

		// The tag fully processed and any region fit: commit.
		s.ptrs = p
	}

	// Close the final region at the declared end of the structure block,
	// then append the string table if requested.
	if s.ptrs.done < doneEnd {
		if s.ptrs.nextOffset != f.SizeDTStruct() {
			return s.count, fmt.Errorf("%w: walk ended at %#x, struct size %#x",
				ErrBadStructure, s.ptrs.nextOffset, f.SizeDTStruct())
		}
		if !s.addRegion(base+s.start, s.ptrs.nextOffset-s.start) {
			return s.count, nil
		}
		s.ptrs.done = doneEnd
	}
	if s.ptrs.done < doneStrings && s.flags&AddStringTab != 0 {
		s.canMerge = false
		if f.OffDTStrings() < base+s.ptrs.nextOffset {
			return s.count, fmt.Errorf("%w: strings at %#x, struct end %#x",
				ErrBadLayout, f.OffDTStrings(), base+s.ptrs.nextOffset)
		}
		if !s.addRegion(f.OffDTStrings(), f.SizeDTStrings()) {
			return s.count, nil
		}
		s.ptrs.done = doneStrings
	}

	if s.count > 0 {
		return s.count, nil
	}
	return 0, ErrNotFound
}

// includeSupernodes adds one-tag regions for every ancestor of the node
// about to open a region, root first. Ancestors already covered were marked
// on the stack by an earlier subnode, so each BEGIN_NODE is emitted at most
// once. Raising the frame's want to WantNodesOnly makes the matching
// END_NODE come out later. Reports false when the output window fills.
func (s *State) includeSupernodes(f *fdt.FDT, depth int) bool {
	base := f.OffDTStruct()
	for i := 0; i <= depth; i++ {
		fr := &s.stack[i]
		if !fr.included {
			_, stopAt := f.NextTag(fr.offset)
			if !s.addRegion(base+fr.offset, stopAt-fr.offset) {
				return false
			}
			fr.included = true
			s.canMerge = true
		}
		if fr.want == WantNothing {
			fr.want = WantNodesOnly
		}
	}
	return true
}
