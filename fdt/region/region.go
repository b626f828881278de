package region

import (
	"errors"

	"github.com/joshuapare/fdtkit/fdt"
	"github.com/joshuapare/fdtkit/internal/format"
)

var (
	// ErrNotFound is the terminal signal: the walk is complete and no
	// further regions will be produced. It is not a failure.
	ErrNotFound = errors.New("region: no more regions")
	// ErrBadStructure indicates the tag stream is inconsistent with the
	// header (truncated stream, stray END_NODE, wrong struct size).
	ErrBadStructure = errors.New("region: inconsistent tag stream")
	// ErrNoSpace indicates a node path would overflow the path buffer.
	ErrNoSpace = errors.New("region: path buffer exhausted")
	// ErrTooDeep indicates node nesting beyond the supported depth.
	ErrTooDeep = errors.New("region: nesting too deep")
	// ErrBadLayout indicates the string table starts before the structure
	// block ends, so the two cannot both be emitted.
	ErrBadLayout = errors.New("region: string table precedes structure end")
)

// Region is a contiguous byte range of the blob selected for output.
// Offsets are absolute within the whole blob.
type Region struct {
	Offset int
	Size   int
}

// End returns the exclusive end offset of the region.
func (r Region) End() int { return r.Offset + r.Size }

// Flags adjust what the walk pulls into the region list beyond the
// predicate's own choices.
type Flags uint

const (
	// Supernodes includes the BEGIN_NODE/END_NODE tags of every ancestor
	// of an included node. Without it the output can be hashed but is not
	// a well-formed tree.
	Supernodes Flags = 1 << iota
	// DirectSubnodes includes the open/close tags of an included node's
	// immediate children, but not their properties.
	DirectSubnodes
	// AllSubnodes includes the entire subtree of an included node.
	AllSubnodes
	// AddStringTab appends the string table as a trailing region.
	AddStringTab
	// AddMemRsvmap prepends the memory-reserve map as a leading region.
	AddMemRsvmap
)

// Want says what the walk includes when the predicate returns Unknown.
// The ordering is load-bearing: comparisons in the walk rely on it.
type Want uint8

const (
	WantNothing Want = iota
	WantNodesOnly
	WantNodesAndProps
	WantAllNodesAndProps
)

// Kind is the bitmask of candidate kinds a predicate rule can speak to.
type Kind uint8

const (
	MatchNode Kind = 1 << iota
	MatchProp
	MatchCompat

	MatchAny = MatchNode | MatchProp | MatchCompat
)

// Verdict is a predicate's decision for one candidate.
type Verdict int8

const (
	// Unknown means no rule speaks to the candidate; the want scalar
	// decides.
	Unknown Verdict = iota - 1
	// Exclude rejects the candidate.
	Exclude
	// Include selects the candidate.
	Include
)

// IncludeFunc classifies a candidate during the walk. Data is a
// nul-separated string list: the full node path for MatchNode, the property
// name for MatchProp, or the raw value of a compatible property for
// MatchCompat. Offset is the candidate tag's own offset in the structure
// block (for properties, the PROP tag itself, so implementations can reach
// the enclosing data directly).
type IncludeFunc func(f *fdt.FDT, offset int, kind Kind, data []byte) Verdict

// donePhase orders the walk's sections: leading mem-rsvmap, the structure
// scan, the trailing region that closes at the struct end, and the string
// table.
type donePhase uint8

const (
	doneNothing donePhase = iota
	doneMemRsvmap
	doneStruct
	doneEnd
	doneStrings
)

// frame is one ancestor on the walk's stack.
type frame struct {
	offset   int  // structure offset of the BEGIN_NODE tag
	want     Want // want to restore when the node closes
	included bool // a region already covers this node's open tag
}

// ptrs is the volatile pointer block. Every tag iteration works on a copy
// and commits it back only on success; see the package comment.
type ptrs struct {
	nextOffset int
	depth      int
	want       Want
	done       donePhase
	pathLen    int
}

// State carries a walk across First/Next calls. The zero value is ready for
// First. A State must not be shared between goroutines, but distinct States
// over the same FDT are independent.
type State struct {
	flags    Flags
	start    int // open region start (structure offset), -1 when closed
	canMerge bool
	ptrs     ptrs
	stack    [format.MaxDepth]frame
	path     [format.PathBufSize]byte

	// Per-call output window.
	out   []Region
	count int
}

// addRegion appends a region, merging it into the previous one when allowed
// and adjacent. It reports false when the output window is full, which
// pauses the walk.
func (s *State) addRegion(offset, size int) bool {
	if s.canMerge && s.count > 0 {
		prev := &s.out[s.count-1]
		if offset <= prev.End() {
			prev.Size = offset + size - prev.Offset
			return true
		}
	}
	if s.count < len(s.out) {
		s.out[s.count] = Region{Offset: offset, Size: size}
		s.count++
		return true
	}
	return false
}
