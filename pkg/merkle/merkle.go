package merkle

import (
	"bytes"
	"fmt"

	"golang.org/x/sync/errgroup"
)

type options struct {
	hasher  Hasher
	workers int
}

// Option configures BuildTree and VerifyProof.
type Option func(*options)

// WithHasher selects the digest used for internal nodes. Defaults to SHA256.
func WithHasher(h Hasher) Option {
	return func(o *options) {
		if h != nil {
			o.hasher = h
		}
	}
}

// WithWorkers hashes the pairs of a single level on up to n goroutines.
// Levels are still produced strictly in order. n <= 1 builds sequentially.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

func resolveOptions(opts []Option) *options {
	o := &options{hasher: SHA256(), workers: 1}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// PairAt reports how the node at index is combined within a level of levelLen nodes.
// Both the builder and the proof generator go through this function so the
// odd-tail case is decided in exactly one place.
func PairAt(levelLen, index int) Pairing {
	if index%2 == 1 {
		return Pairing{Kind: Paired, Index: index, SiblingIndex: index - 1, Orientation: SiblingOnLeft}
	}
	if index+1 < levelLen {
		return Pairing{Kind: Paired, Index: index, SiblingIndex: index + 1, Orientation: SiblingOnRight}
	}
	return Pairing{Kind: SelfPaired, Index: index, SiblingIndex: index, Orientation: SiblingOnRight}
}

// BuildTree creates a binary merkle tree from leaves.
//
// Leaves are taken as-is: they are not hashed and may be any length. Each parent is
// HASH(left || right). If there's an odd number of nodes at any level, the last
// node is paired with itself. A single leaf is its own root and costs no hashing.
func BuildTree(leaves [][]byte, opts ...Option) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyInput
	}
	o := resolveOptions(opts)

	level0 := make([][]byte, len(leaves))
	for i, leaf := range leaves {
		level0[i] = cloneBytes(leaf)
	}

	levels := make([][][]byte, 0, treeHeight(len(leaves)))
	levels = append(levels, level0)

	var ops uint64
	currentLevel := level0
	for len(currentLevel) > 1 {
		nextLevel, err := hashLevel(currentLevel, o)
		if err != nil {
			return nil, err
		}
		ops += uint64(len(nextLevel))

		levels = append(levels, nextLevel)
		currentLevel = nextLevel
	}

	return &Tree{
		HashOperations: ops,
		hasher:         o.hasher,
		levels:         levels,
	}, nil
}

// hashLevel produces the parent level of current.
func hashLevel(current [][]byte, o *options) ([][]byte, error) {
	next := make([][]byte, (len(current)+1)/2)

	parent := func(j int) []byte {
		p := PairAt(len(current), 2*j)
		return o.hasher.Hash(current[p.Index], current[p.SiblingIndex])
	}

	if o.workers <= 1 || len(next) < 2 {
		for j := range next {
			next[j] = parent(j)
		}
		return next, nil
	}

	var g errgroup.Group
	g.SetLimit(o.workers)
	for j := range next {
		j := j
		g.Go(func() error {
			next[j] = parent(j)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to hash level of %d nodes: %w", len(current), err)
	}
	return next, nil
}

// GenerateProof creates a merkle proof for the leaf at the given index.
// The proof consists of sibling hashes along the path from leaf to root.
func (t *Tree) GenerateProof(leafIndex int) (*Proof, error) {
	if leafIndex < 0 || leafIndex >= t.LeafCount() {
		return nil, &IndexOutOfRangeError{Index: leafIndex, LeafCount: t.LeafCount()}
	}

	steps := make([]ProofStep, 0, len(t.levels)-1)
	index := leafIndex

	// Traverse from leaf to root, collecting sibling hashes
	for level := 0; level < len(t.levels)-1; level++ {
		currentLevel := t.levels[level]

		p := PairAt(len(currentLevel), index)
		if p.Kind == Paired {
			steps = append(steps, ProofStep{
				Sibling:     cloneBytes(currentLevel[p.SiblingIndex]),
				Orientation: p.Orientation,
			})
		}

		// Move to parent index in next level
		index /= 2
	}

	return &Proof{
		LeafIndex: leafIndex,
		LeafCount: t.LeafCount(),
		Steps:     steps,
	}, nil
}

// VerifyProof recomputes the root from leaf and proof and compares it byte-for-byte with root.
//
// When proof.LeafCount is set, the path is walked level by level with PairAt: paired
// levels consume the next step and self-paired levels hash the running value with
// itself, exactly as the builder did. A proof with LeafCount 0 is folded step by step.
// A nil proof is treated as an empty one. Any step without a valid orientation fails.
func VerifyProof(leaf []byte, proof *Proof, root []byte, opts ...Option) VerificationOutcome {
	o := resolveOptions(opts)

	if proof == nil {
		return VerificationOutcome{Matches: bytes.Equal(leaf, root)}
	}
	for _, step := range proof.Steps {
		if !step.Orientation.Valid() {
			return VerificationOutcome{}
		}
	}
	if proof.LeafCount == 0 {
		current, ops := foldSteps(leaf, proof.Steps, o.hasher)
		return VerificationOutcome{Matches: bytes.Equal(current, root), HashOperations: ops}
	}
	if proof.LeafIndex < 0 || proof.LeafIndex >= proof.LeafCount {
		return VerificationOutcome{}
	}

	current := leaf
	var ops uint64
	steps := proof.Steps
	index, levelLen := proof.LeafIndex, proof.LeafCount
	for levelLen > 1 {
		p := PairAt(levelLen, index)
		if p.Kind == SelfPaired {
			current = o.hasher.Hash(current, current)
			ops++
		} else {
			if len(steps) == 0 {
				return VerificationOutcome{HashOperations: ops}
			}
			current = applyStep(current, steps[0], o.hasher)
			steps = steps[1:]
			ops++
		}
		index /= 2
		levelLen = (levelLen + 1) / 2
	}

	return VerificationOutcome{
		Matches:        len(steps) == 0 && bytes.Equal(current, root),
		HashOperations: ops,
	}
}

func foldSteps(leaf []byte, steps []ProofStep, h Hasher) ([]byte, uint64) {
	current := leaf
	for _, step := range steps {
		current = applyStep(current, step, h)
	}
	return current, uint64(len(steps))
}

// applyStep expects a valid orientation; VerifyProof checks every step first.
func applyStep(current []byte, step ProofStep, h Hasher) []byte {
	switch step.Orientation {
	case SiblingOnLeft:
		return h.Hash(step.Sibling, current)
	case SiblingOnRight:
		return h.Hash(current, step.Sibling)
	default:
		panic(fmt.Sprintf("merkle: invalid orientation %d", uint8(step.Orientation)))
	}
}

// Verify checks a proof for the leaf at proof.LeafIndex against this tree's root.
func (t *Tree) Verify(leaf []byte, proof *Proof) VerificationOutcome {
	return VerifyProof(leaf, proof, t.Root(), WithHasher(t.hasher))
}

// LeafCount returns the number of leaves at level 0.
func (t *Tree) LeafCount() int {
	return len(t.levels[0])
}

// Height returns the number of levels, including the leaf level and the root level.
func (t *Tree) Height() int {
	return len(t.levels)
}

// Hasher returns the hasher used to build the tree.
func (t *Tree) Hasher() Hasher {
	return t.hasher
}

// Leaf returns a copy of the leaf at index.
func (t *Tree) Leaf(index int) ([]byte, error) {
	if index < 0 || index >= t.LeafCount() {
		return nil, &IndexOutOfRangeError{Index: index, LeafCount: t.LeafCount()}
	}
	return cloneBytes(t.levels[0][index]), nil
}

// Level returns a copy of level k, where 0 is the leaves and Height()-1 is the root.
func (t *Tree) Level(k int) ([][]byte, error) {
	if k < 0 || k >= len(t.levels) {
		return nil, fmt.Errorf("level %d out of bounds (tree has %d levels)", k, len(t.levels))
	}
	out := make([][]byte, len(t.levels[k]))
	for i, n := range t.levels[k] {
		out[i] = cloneBytes(n)
	}
	return out, nil
}

// Root returns a copy of the single node on the last level.
func (t *Tree) Root() []byte {
	return cloneBytes(t.levels[len(t.levels)-1][0])
}

// Root32 returns the root as a fixed-width digest.
// It fails with ErrMalformedRoot when the root is a single raw leaf that is not 32 bytes.
func (t *Tree) Root32() ([DigestSize]byte, error) {
	return ToRoot32(t.levels[len(t.levels)-1][0])
}

// ToRoot32 converts root to a fixed-width digest without padding or truncation.
func ToRoot32(root []byte) ([DigestSize]byte, error) {
	var out [DigestSize]byte
	if len(root) != DigestSize {
		return out, fmt.Errorf("%w: root is %d bytes, expected %d", ErrMalformedRoot, len(root), DigestSize)
	}
	copy(out[:], root)
	return out, nil
}

// treeHeight returns the number of levels a tree over n leaves will have.
func treeHeight(n int) int {
	h := 1
	for n > 1 {
		n = (n + 1) / 2
		h++
	}
	return h
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
