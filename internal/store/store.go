// Package store persists the configuration values across power cycles.
// Each value occupies one fixed-size block, addressed by its setting
// name. The file implementation keeps one file per block; the fake keeps
// a map for tests.
package store

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// BlockSize is the fixed encoded size of every value.
const BlockSize = 4

// ErrNotFound is returned when a block has never been written.
var ErrNotFound = errors.New("store: block not found")

// Store reads and writes raw configuration blocks. Values are range
// checked by the caller on load, not here: the store never rejects what
// it is asked to keep.
type Store interface {
	// Read returns the value of a block, or ErrNotFound.
	Read(name string) (int32, error)

	// Write persists a block.
	Write(name string, v int32) error
}

// EncodeValue renders a value as a little-endian block.
func EncodeValue(v int32) []byte {
	buf := make([]byte, BlockSize)
	binary.LittleEndian.PutUint32(buf, uint32(v))
	return buf
}

// DecodeValue parses a little-endian block.
func DecodeValue(buf []byte) (int32, error) {
	if len(buf) != BlockSize {
		return 0, fmt.Errorf("block is %d bytes, want %d", len(buf), BlockSize)
	}
	return int32(binary.LittleEndian.Uint32(buf)), nil
}
