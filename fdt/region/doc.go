// Package region selects contiguous byte ranges of an FDT blob covering the
// parts of the tree a caller is interested in.
//
// The selection runs as a resumable scan over the structure-block tag
// stream. A State is driven through First and then repeated Next calls; each
// call writes as many regions as fit into the caller's slice and returns.
// ErrNotFound signals that the walk is complete. Because the caller owns the
// output array, the path buffer and the ancestor stack live inside State
// with fixed bounds, the scan allocates nothing.
//
// "Included" below means a node (or other part of the tree) gets a region
// covering its bytes. The scan tracks the offset where the current run of
// included tags began; when it reaches a tag that is not included, the run
// is closed off and appended to the output, merging with the previous region
// when they touch. The mem-rsvmap and string-table sections, when requested,
// become discrete regions that never merge with the structure regions.
//
// Resumability is what makes the output-array contract safe. At the top of
// every tag iteration the volatile pointers (next offset, depth, want,
// done phase, path cursor) are copied; the iteration mutates only the copy,
// and the copy is committed back to the State only once any region the tag
// produced has been written out. If the output slice is full the call
// returns instead, and the next call re-processes the same tag from the
// committed pointers. No tag is half-consumed and no region is emitted
// twice.
//
// The want scalar decides inclusion when the predicate has no opinion of its
// own. Including a node raises want so its properties ride along
// (WantNodesAndProps, or WantAllNodesAndProps when the whole subtree was
// requested). Entering an unselected child of an included node decays want
// one step, so with DirectSubnodes the child's open and close tags survive
// while its properties drop out. At WantNothing only the predicate can
// include anything.
package region
