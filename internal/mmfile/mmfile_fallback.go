//go:build !unix

package mmfile

import "os"

// Map reads the whole file into memory on platforms without mmap support.
// The cleanup function is a no-op; the slice is garbage collected.
func Map(path string) ([]byte, func() error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return data, func() error { return nil }, nil
}
