//go:build darwin

package mmap

import "errors"

// tryMremap is not available on macOS: Remap always falls back to an
// unmap/remap pair here, so every FileProvider capacity doubling pays
// for a fresh mmap syscall rather than extending in place the way
// mmap_linux.go's mremap-backed path can.
func (m *Map) tryMremap(newSize int) ([]byte, error) {
	return nil, errors.New("mremap not available on darwin")
}
