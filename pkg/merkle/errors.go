package merkle

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned when a tree is requested over zero leaves.
	ErrEmptyInput = errors.New("cannot build merkle tree from empty leaf list")

	// ErrIndexOutOfRange is matched by every IndexOutOfRangeError.
	ErrIndexOutOfRange = errors.New("leaf index out of range")

	// ErrMalformedRoot is returned when a root must be exactly DigestSize bytes and is not.
	ErrMalformedRoot = errors.New("malformed merkle root")
)

// IndexOutOfRangeError reports a leaf index outside [0, LeafCount).
type IndexOutOfRangeError struct {
	Index     int
	LeafCount int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("leaf index %d out of bounds (tree has %d leaves)", e.Index, e.LeafCount)
}

func (e *IndexOutOfRangeError) Is(target error) bool {
	return target == ErrIndexOutOfRange
}
