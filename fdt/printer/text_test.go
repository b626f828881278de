package printer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/fdtkit/fdt"
	"github.com/joshuapare/fdtkit/fdt/region"
	"github.com/joshuapare/fdtkit/internal/testutil"
)

func nopFDT(t *testing.T) *fdt.FDT {
	t.Helper()
	blob := testutil.NewBuilder().
		Reserve(0x9000, 0x800).
		Begin("").
		PropStr("model", "board").
		Nop().
		Begin("leds").
		PropU32("count", 2).
		End().
		End().
		Blob()
	f, err := fdt.New(blob)
	require.NoError(t, err)
	return f
}

// walkRegions selects via pred and returns the complete region list.
func walkRegions(t *testing.T, f *fdt.FDT, pred region.IncludeFunc, flags region.Flags) []region.Region {
	t.Helper()
	var state region.State
	out := make([]region.Region, 100)
	var all []region.Region
	n, err := state.First(f, pred, flags, out)
	for err == nil {
		all = append(all, out[:n]...)
		n, err = state.Next(f, pred, out)
	}
	require.ErrorIs(t, err, region.ErrNotFound)
	return all
}

func everything(f *fdt.FDT, offset int, kind region.Kind, data []byte) region.Verdict {
	if kind == region.MatchNode {
		return region.Include
	}
	return region.Unknown
}

func TestPrintRegions(t *testing.T) {
	var buf bytes.Buffer
	p := New(nopFDT(t), &buf, DefaultOptions())

	err := p.PrintRegions([]region.Region{
		{Offset: 0x40, Size: 0x20},
		{Offset: 0x80, Size: 0x10},
	})
	require.NoError(t, err)
	assert.Equal(t, "Regions: 2\n0:  40          60        \n1:  80          90        \n", buf.String())
}

func TestPrintDTSEverything(t *testing.T) {
	f := nopFDT(t)
	regions := walkRegions(t, f, everything, region.Supernodes)

	var buf bytes.Buffer
	p := New(f, &buf, DefaultOptions())
	require.NoError(t, p.PrintDTS(regions))

	assert.Equal(t, `/ {
    model = "board";
    // [NOP]
    leds {
        count = <0x2>;
    };
};
`, buf.String())
}

func TestPrintDTSVersionAndMemreserve(t *testing.T) {
	f := nopFDT(t)
	regions := walkRegions(t, f, everything,
		region.Supernodes|region.AddMemRsvmap|region.AddStringTab)

	opts := DefaultOptions()
	opts.DTSVersion = true
	opts.Flags = region.AddMemRsvmap
	var buf bytes.Buffer
	p := New(f, &buf, opts)
	require.NoError(t, p.PrintDTS(regions))

	lines := strings.Split(buf.String(), "\n")
	assert.Equal(t, "/dts-v1/;", lines[0])
	assert.Equal(t, "/memreserve/ 9000 800;", lines[1])
}

func TestPrintDTSDiffMarkers(t *testing.T) {
	f := nopFDT(t)
	// Select only the leds node and its subtree.
	pred := func(fd *fdt.FDT, offset int, kind region.Kind, data []byte) region.Verdict {
		if kind != region.MatchNode {
			return region.Unknown
		}
		if fdt.StringlistContains(data, "/leds") {
			return region.Include
		}
		return region.Exclude
	}
	regions := walkRegions(t, f, pred, region.Supernodes)

	opts := DefaultOptions()
	opts.All = true
	opts.Diff = true
	var buf bytes.Buffer
	p := New(f, &buf, opts)
	require.NoError(t, p.PrintDTS(regions))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "+/ {", lines[0])
	assert.Equal(t, `-    model = "board";`, lines[1])
	assert.Equal(t, "-    // [NOP]", lines[2])
	assert.Equal(t, "+    leds {", lines[3])
	assert.Equal(t, "+        count = <0x2>;", lines[4])
	assert.Equal(t, "+    };", lines[5])
	assert.Equal(t, "+};", lines[6])
}

func TestPrintDTSHeaderComment(t *testing.T) {
	f := nopFDT(t)
	regions := walkRegions(t, f, everything, region.Supernodes)

	opts := DefaultOptions()
	opts.Header = true
	var buf bytes.Buffer
	p := New(f, &buf, opts)
	require.NoError(t, p.PrintDTS(regions))

	out := buf.String()
	assert.Contains(t, out, "// magic:\t\t0xd00dfeed")
	assert.Contains(t, out, "// version:\t\t17")
	assert.Contains(t, out, "// size_dt_struct:")
}

func TestPrintStringsListing(t *testing.T) {
	f := nopFDT(t)
	regions := walkRegions(t, f, everything,
		region.Supernodes|region.AddStringTab)

	opts := DefaultOptions()
	opts.ListStrings = true
	opts.All = true
	opts.Flags = region.AddStringTab
	var buf bytes.Buffer
	p := New(f, &buf, opts)
	require.NoError(t, p.PrintDTS(regions))

	out := buf.String()
	assert.Contains(t, out, "model\n")
	assert.Contains(t, out, "count\n")
}

func TestWriteBlobFragment(t *testing.T) {
	f := nopFDT(t)
	regions := walkRegions(t, f, everything, region.Supernodes)

	var buf bytes.Buffer
	p := New(f, &buf, DefaultOptions())
	require.NoError(t, p.WriteBlob(regions))

	var want bytes.Buffer
	for _, r := range regions {
		want.Write(f.Bytes()[r.Offset:r.End()])
	}
	assert.Equal(t, want.Bytes(), buf.Bytes())
}
