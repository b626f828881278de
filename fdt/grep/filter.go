package grep

import (
	"fmt"

	"github.com/joshuapare/fdtkit/fdt"
	"github.com/joshuapare/fdtkit/fdt/region"
)

// Rule is one match condition: a literal string applied to every candidate
// kind in the mask, with include or exclude polarity.
type Rule struct {
	Kind    region.Kind
	Include bool
	Value   string
}

// FilterSet classifies walk candidates against a rule list. Include rules
// mean "only what is mentioned"; exclude rules mean "everything but what is
// mentioned"; the two polarities cannot both apply to one kind.
type FilterSet struct {
	rules    []Rule
	typesInc region.Kind
	typesExc region.Kind
	invert   bool
}

// Add appends a rule, tracking which kinds each polarity touches.
func (fs *FilterSet) Add(kind region.Kind, include bool, value string) error {
	if include {
		fs.typesInc |= kind
	} else {
		fs.typesExc |= kind
	}
	if fs.typesInc&fs.typesExc&kind != 0 {
		return fmt.Errorf("grep: cannot use both include and exclude for %q", value)
	}
	fs.rules = append(fs.rules, Rule{Kind: kind, Include: include, Value: value})
	return nil
}

// classify runs the rule scan for one candidate. Data is a nul-separated
// string list; a rule matches when any member equals its literal.
func (fs *FilterSet) classify(kind region.Kind, data []byte) region.Verdict {
	// If no condition mentions this kind, we know nothing.
	if (fs.typesInc|fs.typesExc)&kind == 0 {
		return region.Unknown
	}

	// Inclusive conditions win at the first match. For exclusive
	// conditions we must establish that nothing matched.
	noneMatch := region.MatchAny
	for _, r := range fs.rules {
		if r.Kind&kind == 0 {
			continue
		}
		if !fdt.StringlistContains(data, r.Value) {
			continue
		}
		if r.Include {
			return region.Include
		}
		noneMatch &^= r.Kind
	}

	if kind&fs.typesExc != 0 && noneMatch&kind != 0 {
		// Nothing matched an active exclusion, so the candidate stays in.
		// A node facing only catch-all exclusions defers to its
		// compatible string instead of deciding here.
		if kind == region.MatchNode && fs.typesExc == region.MatchAny {
			return region.Unknown
		}
		return region.Include
	}

	// The catch-all inclusive case likewise leaves the final word on a
	// node to its compatible string.
	if kind == region.MatchNode && fs.typesInc == region.MatchAny {
		return region.Unknown
	}

	return region.Exclude
}

// Include is the walk predicate: classification plus the compatible
// fallback and polarity inversion. It satisfies region.IncludeFunc.
func (fs *FilterSet) Include(f *fdt.FDT, offset int, kind region.Kind, data []byte) region.Verdict {
	v := fs.classify(kind, data)

	// If the node name told us nothing, let its compatible string decide.
	// A missing property still runs the scan: exclusion rules must be able
	// to keep compatible-less nodes in.
	if v == region.Unknown && kind == region.MatchNode {
		value, _ := f.Property(offset, "compatible")
		v = fs.classify(region.MatchCompat, value)
	}

	if fs.invert {
		switch v {
		case region.Include:
			return region.Exclude
		case region.Exclude:
			return region.Include
		}
	}
	return v
}
