package printer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"empty", nil, ""},
		{"single string", []byte("hello\x00"), ` = "hello"`},
		{"string list", []byte("v,board\x00v,soc\x00"), ` = "v,board", "v,soc"`},
		{"one cell", []byte{0, 0, 0, 1}, " = <0x1>"},
		{"two cells", []byte{0, 0, 1, 0, 0, 0, 0, 0x10}, " = <0x100 0x10>"},
		{"bytes", []byte{0xde, 0xad, 0xbe}, " = [de ad be]"},
		{"unterminated text falls back to bytes", []byte{'a', 'b', 'c'}, " = [61 62 63]"},
		{"empty member falls back to cells", []byte{0, 0, 0, 0}, " = <0x0>"},
		{"binary with nul terminator", []byte{0x01, 0x02, 0x03, 0x00}, " = <0x1020300>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatValue(tt.data))
		})
	}
}

func TestIsPrintableStrings(t *testing.T) {
	assert.True(t, isPrintableStrings([]byte("a\x00")))
	assert.True(t, isPrintableStrings([]byte("a\x00b\x00")))
	assert.False(t, isPrintableStrings([]byte("a")))
	assert.False(t, isPrintableStrings([]byte("\x00")))
	assert.False(t, isPrintableStrings([]byte("a\x00\x00")))
	assert.False(t, isPrintableStrings([]byte{0x07, 0x00}))
	assert.False(t, isPrintableStrings(nil))
}
