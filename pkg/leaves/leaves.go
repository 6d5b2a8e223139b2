// Package leaves derives the deterministic leaf set used by the merkle program.
package leaves

import (
	"strconv"

	"github.com/Layr-Labs/merkle-proof-go/pkg/merkle"
)

// LabelPrefix is prepended to the decimal leaf index before hashing.
const LabelPrefix = "Leaf data "

// Label returns the text committed to by leaf i.
func Label(i uint32) string {
	return LabelPrefix + strconv.FormatUint(uint64(i), 10)
}

// Derive returns count leaves where leaf i = HASH(Label(i)).
// A nil hasher selects SHA-256. count == 0 yields an empty slice.
func Derive(count uint32, hasher merkle.Hasher) [][]byte {
	if hasher == nil {
		hasher = merkle.SHA256()
	}
	out := make([][]byte, count)
	for i := uint32(0); i < count; i++ {
		out[i] = hasher.Hash([]byte(Label(i)))
	}
	return out
}
