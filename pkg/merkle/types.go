package merkle

// Tree is a binary merkle tree built once from an ordered list of leaves.
// Level 0 holds the leaves verbatim; every higher level holds 32-byte digests.
// A Tree is never mutated after BuildTree returns it.
type Tree struct {
	// HashOperations is the number of parent digests computed during the build
	HashOperations uint64

	hasher Hasher

	// levels[0] = leaves, levels[len-1] = root
	levels [][][]byte
}

// Orientation records which side of the pair a proof sibling sat on.
type Orientation uint8

const (
	// SiblingOnRight: the node was the even (left) element, so the
	// accumulated value is the left operand: HASH(current || sibling).
	SiblingOnRight Orientation = iota + 1

	// SiblingOnLeft: the node was the odd (right) element, so the
	// sibling is the left operand: HASH(sibling || current).
	SiblingOnLeft
)

// Valid reports whether o is SiblingOnRight or SiblingOnLeft.
func (o Orientation) Valid() bool {
	return o == SiblingOnRight || o == SiblingOnLeft
}

func (o Orientation) String() string {
	switch o {
	case SiblingOnRight:
		return "R"
	case SiblingOnLeft:
		return "L"
	default:
		return "?"
	}
}

// ProofStep is one sibling on the path from a leaf to the root.
type ProofStep struct {
	Sibling     []byte
	Orientation Orientation
}

// Proof is an inclusion proof for the leaf at LeafIndex.
// Steps are ordered bottom to top. Self-paired levels contribute no step; the
// verifier re-derives them from LeafIndex and LeafCount.
type Proof struct {
	LeafIndex int
	LeafCount int
	Steps     []ProofStep
}

// VerificationOutcome is the result of recomputing a root from a proof.
type VerificationOutcome struct {
	Matches        bool
	HashOperations uint64
}

// PairKind tags how a node at a given position was combined during the build.
type PairKind uint8

const (
	// Paired: the node had a real sibling at the same level.
	Paired PairKind = iota
	// SelfPaired: the node was the odd tail and was hashed with itself.
	SelfPaired
)

// Pairing describes the partner of the node at Index within one level.
type Pairing struct {
	Kind         PairKind
	Index        int
	SiblingIndex int
	Orientation  Orientation
}
