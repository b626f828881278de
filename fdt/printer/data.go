package printer

import (
	"fmt"
	"strings"

	"github.com/joshuapare/fdtkit/internal/format"
)

// formatValue renders a property value the way dtc does: nothing for an
// empty value, quoted strings when the bytes form a printable string list,
// cells when the length is word-aligned, raw bytes otherwise. The result
// includes the leading " = ".
func formatValue(data []byte) string {
	if len(data) == 0 {
		return ""
	}

	var sb strings.Builder
	switch {
	case isPrintableStrings(data):
		sb.WriteString(" = ")
		first := true
		for _, s := range splitStrings(data) {
			if !first {
				sb.WriteString(", ")
			}
			first = false
			fmt.Fprintf(&sb, "%q", s)
		}

	case len(data)%4 == 0:
		sb.WriteString(" = <")
		for i := 0; i < len(data); i += 4 {
			if i > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%#x", format.ReadU32(data, i))
		}
		sb.WriteByte('>')

	default:
		sb.WriteString(" = [")
		for i, b := range data {
			if i > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%02x", b)
		}
		sb.WriteByte(']')
	}
	return sb.String()
}

// isPrintableStrings reports whether data is one or more non-empty
// printable nul-terminated strings.
func isPrintableStrings(data []byte) bool {
	if len(data) == 0 || data[len(data)-1] != 0 {
		return false
	}
	run := 0
	for _, b := range data {
		switch {
		case b == 0:
			if run == 0 {
				return false
			}
			run = 0
		case b >= 0x20 && b <= 0x7e:
			run++
		default:
			return false
		}
	}
	return true
}

// splitStrings breaks a nul-terminated string list into its members.
func splitStrings(data []byte) []string {
	parts := strings.Split(string(data[:len(data)-1]), "\x00")
	return parts
}
