package fdt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/fdtkit/internal/format"
	"github.com/joshuapare/fdtkit/internal/testutil"
)

// testBlob builds:
//
//	/ {
//	    model = "test";
//	    soc {
//	        uart {
//	            compatible = "v,u";
//	            reg = <0x100 0x10>;
//	        };
//	    };
//	};
func testBlob() []byte {
	return testutil.NewBuilder().
		Reserve(0x10000, 0x4000).
		Begin("").
		PropStr("model", "test").
		Begin("soc").
		Begin("uart").
		PropStr("compatible", "v,u").
		PropU32("reg", 0x100, 0x10).
		End().
		End().
		End().
		Blob()
}

func TestNewRejectsGarbage(t *testing.T) {
	_, err := New([]byte("not a dtb at all, not even close"))
	require.ErrorIs(t, err, ErrBadBlob)

	_, err = New(nil)
	require.ErrorIs(t, err, ErrBadBlob)
}

func TestNextTagWalk(t *testing.T) {
	f, err := New(testBlob())
	require.NoError(t, err)

	var tags []format.Tag
	offset := 0
	for {
		tag, next := f.NextTag(offset)
		require.Greater(t, next, offset, "tag at %#x must advance", offset)
		tags = append(tags, tag)
		if tag == format.TagEnd {
			break
		}
		offset = next
	}

	assert.Equal(t, []format.Tag{
		format.TagBeginNode, // /
		format.TagProp,      // model
		format.TagBeginNode, // soc
		format.TagBeginNode, // uart
		format.TagProp,      // compatible
		format.TagProp,      // reg
		format.TagEndNode,
		format.TagEndNode,
		format.TagEndNode,
		format.TagEnd,
	}, tags)
}

func TestNextTagMalformed(t *testing.T) {
	f, err := New(testBlob())
	require.NoError(t, err)

	// Out of bounds and misaligned offsets do not panic.
	tag, next := f.NextTag(1 << 20)
	assert.Equal(t, format.TagEnd, tag)
	assert.Equal(t, -1, next)

	tag, next = f.NextTag(-4)
	assert.Equal(t, format.TagEnd, tag)
	assert.Equal(t, -1, next)
}

func TestNameAndProperties(t *testing.T) {
	f, err := New(testBlob())
	require.NoError(t, err)

	// Collect node offsets in document order.
	var nodes []int
	offset := 0
	for {
		tag, next := f.NextTag(offset)
		if tag == format.TagEnd {
			break
		}
		if tag == format.TagBeginNode {
			nodes = append(nodes, offset)
		}
		offset = next
	}
	require.Len(t, nodes, 3)

	name, err := f.Name(nodes[0])
	require.NoError(t, err)
	assert.Equal(t, "", name)

	name, err = f.Name(nodes[2])
	require.NoError(t, err)
	assert.Equal(t, "uart", name)

	// Name on a non-node offset fails.
	_, err = f.Name(nodes[0] + 8)
	assert.ErrorIs(t, err, ErrBadOffset)

	// Property lookup scans only the node's own properties.
	value, ok := f.Property(nodes[2], "compatible")
	require.True(t, ok)
	assert.Equal(t, []byte("v,u\x00"), value)

	_, ok = f.Property(nodes[1], "compatible")
	assert.False(t, ok, "soc has no compatible of its own")

	value, ok = f.Property(nodes[0], "model")
	require.True(t, ok)
	assert.Equal(t, []byte("test\x00"), value)
}

func TestPropertyAt(t *testing.T) {
	f, err := New(testBlob())
	require.NoError(t, err)

	var props []Property
	offset := 0
	for {
		tag, next := f.NextTag(offset)
		if tag == format.TagEnd {
			break
		}
		if tag == format.TagProp {
			p, err := f.PropertyAt(offset)
			require.NoError(t, err)
			props = append(props, p)
		}
		offset = next
	}
	require.Len(t, props, 3)
	assert.Equal(t, "model", props[0].Name)
	assert.Equal(t, "compatible", props[1].Name)
	assert.Equal(t, "reg", props[2].Name)
	assert.Equal(t, []byte{0, 0, 1, 0, 0, 0, 0, 0x10}, props[2].Value)
}

func TestStringlistContains(t *testing.T) {
	list := []byte("first\x00second\x00third\x00")
	assert.True(t, StringlistContains(list, "first"))
	assert.True(t, StringlistContains(list, "second"))
	assert.True(t, StringlistContains(list, "third"))
	assert.False(t, StringlistContains(list, "fourth"))
	assert.False(t, StringlistContains(list, "irst"))
	assert.False(t, StringlistContains(nil, "first"))
	// An unterminated trailing member still matches.
	assert.True(t, StringlistContains([]byte("alone"), "alone"))
}

func TestReserveEntries(t *testing.T) {
	f, err := New(testBlob())
	require.NoError(t, err)

	entries, err := f.ReserveEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ReserveEntry{Address: 0x10000, Size: 0x4000}, entries[0])
}
