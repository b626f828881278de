package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/fdtkit/fdt"
	"github.com/joshuapare/fdtkit/fdt/grep"
	"github.com/joshuapare/fdtkit/fdt/region"
)

var (
	incNodes  []string
	excNodes  []string
	incProps  []string
	excProps  []string
	incCompat []string
	excCompat []string
	incAny    []string
	excAny    []string

	invert         bool
	enterNodes     bool
	allSubnodes    bool
	skipSupernodes bool
	includeMem     bool
	stringTab      bool

	showAll     bool
	showAddr    bool
	showOffset  bool
	diffMarkers bool
	showHeader  bool
	dtsVersion  bool
	listRegions bool
	listStrings bool
	showDigest  bool

	outFormat string
	outFile   string
)

var rootCmd = &cobra.Command{
	Use:   "fdtgrep [flags] [match ...] <blob>",
	Short: "Extract portions from a device tree blob",
	Long: `fdtgrep greps a flattened device tree, either displaying the source
subset or producing a new blob subset which can be used as required.

Output formats are:
  dts - device tree source text
  dtb - valid device tree blob (implies -H -m -t)
  bin - device tree fragment, suitable for hashing`,
	Version:       "0.1.0",
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGrep(args)
	},
}

func init() {
	fl := rootCmd.Flags()
	fl.StringArrayVarP(&incNodes, "include-node", "n", nil, "Node path to include")
	fl.StringArrayVarP(&excNodes, "exclude-node", "N", nil, "Node path to exclude")
	fl.StringArrayVarP(&incProps, "include-prop", "p", nil, "Property name to include")
	fl.StringArrayVarP(&excProps, "exclude-prop", "P", nil, "Property name to exclude")
	fl.StringArrayVarP(&incCompat, "include-compat", "c", nil, "Compatible string to include")
	fl.StringArrayVarP(&excCompat, "exclude-compat", "C", nil, "Compatible string to exclude")
	fl.StringArrayVarP(&incAny, "include-match", "g", nil, "Node/property/compatible string to include")
	fl.StringArrayVarP(&excAny, "exclude-match", "G", nil, "Node/property/compatible string to exclude")

	fl.BoolVarP(&invert, "invert-match", "v", false, "Invert the sense of matching")
	fl.BoolVarP(&enterNodes, "enter-node", "e", false, "Include direct subnodes of matching nodes")
	fl.BoolVarP(&allSubnodes, "show-subnodes", "s", false, "Include all subnodes of matching nodes")
	fl.BoolVarP(&skipSupernodes, "skip-supernodes", "S", false, "Don't include supernodes of matching nodes")
	fl.BoolVarP(&includeMem, "include-mem", "m", false, "Include the mem_rsvmap section in the output")
	fl.BoolVarP(&stringTab, "show-stringtab", "t", false, "Include the string table in the output")

	fl.BoolVarP(&showAll, "all", "A", false, "Show all tags, colour those that match")
	fl.BoolVarP(&showAddr, "show-address", "a", false, "Display address column")
	fl.BoolVarP(&showOffset, "show-offset", "f", false, "Display offset column")
	fl.BoolVarP(&diffMarkers, "diff", "d", false, "Mark matching lines with +, others with -")
	fl.BoolVarP(&showHeader, "show-header", "H", false, "Output a header")
	fl.BoolVarP(&dtsVersion, "show-version", "I", false, "Put \"/dts-v1/;\" on the first line")
	fl.BoolVarP(&listRegions, "list-regions", "l", false, "Output a region list")
	fl.BoolVarP(&listStrings, "list-strings", "L", false, "List strings in the string table")
	fl.BoolVarP(&showDigest, "digest", "D", false, "Output the xxhash64 digest of the selected bytes")

	fl.StringVarP(&outFormat, "out-format", "O", "dts", "Output format (dts, dtb, bin)")
	fl.StringVarP(&outFile, "out", "o", "", "Output file (default stdout)")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v\n", err)
		os.Exit(1)
	}
}

func runGrep(args []string) error {
	blobPath := args[len(args)-1]

	opts, err := buildOptions(args[:len(args)-1])
	if err != nil {
		return err
	}

	g, err := grep.New(opts)
	if err != nil {
		return err
	}

	f, err := fdt.Open(blobPath)
	if err != nil {
		return err
	}
	defer f.Close()

	// Old blobs lack a reliable struct size; allow them, but say so.
	if f.Version() < 17 && len(opts.Filters) > 0 {
		fmt.Fprintf(os.Stderr, "Warning: fdtgrep does not fully support version %d files\n", f.Version())
	}

	w := os.Stdout
	if outFile != "" {
		out, err := os.Create(outFile)
		if err != nil {
			return fmt.Errorf("cannot open output file: %w", err)
		}
		defer out.Close()
		w = out
	}

	return g.Run(f, w)
}

// buildOptions maps the flag set onto grep options. Positional arguments
// ahead of the blob path match anything, like -g.
func buildOptions(extra []string) (grep.Options, error) {
	opts := grep.DefaultOptions()

	add := func(kind region.Kind, include bool, values []string) {
		for _, v := range values {
			opts.Filters = append(opts.Filters, grep.Rule{Kind: kind, Include: include, Value: v})
		}
	}
	add(region.MatchNode, true, incNodes)
	add(region.MatchNode, false, excNodes)
	add(region.MatchProp, true, incProps)
	add(region.MatchProp, false, excProps)
	add(region.MatchCompat, true, incCompat)
	add(region.MatchCompat, false, excCompat)
	add(region.MatchAny, true, incAny)
	add(region.MatchAny, false, excAny)
	add(region.MatchAny, true, extra)

	if skipSupernodes {
		opts.Flags &^= region.Supernodes
	}
	if enterNodes {
		opts.Flags |= region.DirectSubnodes
	}
	if allSubnodes {
		opts.Flags |= region.AllSubnodes
	}
	if includeMem {
		opts.Flags |= region.AddMemRsvmap
	}
	if stringTab {
		opts.Flags |= region.AddStringTab
	}

	switch outFormat {
	case "dts", "dtb", "bin":
		opts.Format = grep.OutputFormat(outFormat)
	default:
		return opts, fmt.Errorf("unknown output format %q", outFormat)
	}

	opts.Invert = invert
	opts.All = showAll
	opts.Colour = showAll && outFile == "" && isTerminal(os.Stdout)
	opts.Diff = diffMarkers
	opts.ShowAddr = showAddr
	opts.ShowOffset = showOffset
	opts.Header = showHeader
	opts.DTSVersion = dtsVersion
	opts.ListRegions = listRegions
	opts.ListStrings = listStrings
	opts.Digest = showDigest

	return opts, nil
}

// printError prints an error message
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
