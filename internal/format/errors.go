package format

import "errors"

var (
	// ErrBadMagic indicates the blob did not start with the FDT magic.
	ErrBadMagic = errors.New("format: bad magic")
	// ErrTruncated indicates the buffer lacked the bytes required for a structure.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrBadVersion indicates the header version is outside the supported window.
	ErrBadVersion = errors.New("format: unsupported version")
	// ErrBadLayout indicates the header's section offsets/sizes are inconsistent.
	ErrBadLayout = errors.New("format: inconsistent section layout")
)
