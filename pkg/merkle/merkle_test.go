package merkle

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestLeaves creates n random 32-byte leaves
func createTestLeaves(n int) [][]byte {
	leaves := make([][]byte, n)
	for i := 0; i < n; i++ {
		leaves[i] = randomHash()
	}
	return leaves
}

// randomHash generates a random 32-byte hash for testing
func randomHash() []byte {
	hash := make([]byte, DigestSize)
	_, _ = rand.Read(hash) // Ignore error in test helper
	return hash
}

// TestBuildTree tests tree construction and round-trips every leaf
func TestBuildTree(t *testing.T) {
	testCases := []struct {
		name      string
		numLeaves int
	}{
		{"Single leaf", 1},
		{"Two leaves", 2},
		{"Three leaves", 3},
		{"Four leaves (power of 2)", 4},
		{"Five leaves", 5},
		{"Seven leaves", 7},
		{"Eight leaves (power of 2)", 8},
		{"Fifteen leaves", 15},
		{"Sixteen leaves (power of 2)", 16},
		{"Hundred leaves", 100},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			leaves := createTestLeaves(tc.numLeaves)
			tree, err := BuildTree(leaves)
			require.NoError(t, err)
			require.NotNil(t, tree)

			require.Equal(t, tc.numLeaves, tree.LeafCount())
			require.Equal(t, treeHeight(tc.numLeaves), tree.Height())

			for i := 0; i < tc.numLeaves; i++ {
				proof, err := tree.GenerateProof(i)
				require.NoError(t, err)
				require.Equal(t, i, proof.LeafIndex)

				outcome := VerifyProof(leaves[i], proof, tree.Root())
				require.True(t, outcome.Matches, "Proof for leaf %d should be valid", i)
				// one hash per level, self-paired levels included
				require.Equal(t, uint64(tree.Height()-1), outcome.HashOperations)
			}
		})
	}
}

func TestBuildTreeLevelSizes(t *testing.T) {
	for n := 1; n <= 33; n++ {
		tree, err := BuildTree(createTestLeaves(n))
		require.NoError(t, err)

		expected := n
		for k := 0; k < tree.Height(); k++ {
			level, err := tree.Level(k)
			require.NoError(t, err)
			require.Len(t, level, expected, "n=%d level=%d", n, k)
			expected = (expected + 1) / 2
		}
	}
}

// TestBuildTreeEmpty tests that building a tree from zero leaves fails
func TestBuildTreeEmpty(t *testing.T) {
	tree, err := BuildTree(nil)
	require.ErrorIs(t, err, ErrEmptyInput)
	require.Nil(t, tree)

	tree, err = BuildTree([][]byte{})
	require.ErrorIs(t, err, ErrEmptyInput)
	require.Nil(t, tree)
}

func TestSingleLeafTree(t *testing.T) {
	leaf := []byte("not a digest")
	tree, err := BuildTree([][]byte{leaf})
	require.NoError(t, err)

	assert.Equal(t, 1, tree.Height())
	assert.Equal(t, leaf, tree.Root())
	assert.Equal(t, uint64(0), tree.HashOperations)

	proof, err := tree.GenerateProof(0)
	require.NoError(t, err)
	assert.Empty(t, proof.Steps)

	outcome := VerifyProof(leaf, proof, tree.Root())
	assert.True(t, outcome.Matches)
	assert.Equal(t, uint64(0), outcome.HashOperations)

	// a 12 byte root can't be committed as bytes32
	_, err = tree.Root32()
	require.ErrorIs(t, err, ErrMalformedRoot)
}

func TestSingleDigestLeafRoot32(t *testing.T) {
	leaf := randomHash()
	tree, err := BuildTree([][]byte{leaf})
	require.NoError(t, err)

	root, err := tree.Root32()
	require.NoError(t, err)
	assert.Equal(t, leaf, root[:])
}

func TestThreeLeafOddTail(t *testing.T) {
	h := SHA256()
	l0, l1, l2 := []byte("L0"), []byte("L1"), []byte("L2")

	tree, err := BuildTree([][]byte{l0, l1, l2})
	require.NoError(t, err)
	require.Equal(t, 3, tree.Height())

	left := h.Hash(append(append([]byte{}, l0...), l1...))
	right := h.Hash(l2, l2)

	level1, err := tree.Level(1)
	require.NoError(t, err)
	require.Equal(t, [][]byte{left, right}, level1)
	require.Equal(t, h.Hash(left, right), tree.Root())
	require.Equal(t, uint64(3), tree.HashOperations)

	// L2 is self-paired at level 0, so its proof skips that level
	proof, err := tree.GenerateProof(2)
	require.NoError(t, err)
	require.Len(t, proof.Steps, 1)
	require.Equal(t, left, proof.Steps[0].Sibling)
	require.Equal(t, SiblingOnLeft, proof.Steps[0].Orientation)
	require.Equal(t, 3, proof.LeafCount)

	// the verifier redoes HASH(L2||L2) itself
	outcome := VerifyProof(l2, proof, tree.Root())
	require.True(t, outcome.Matches)
	require.Equal(t, uint64(2), outcome.HashOperations)

	// without the leaf count the path is folded as given and misses the duplication
	bare := &Proof{LeafIndex: 2, Steps: proof.Steps}
	require.False(t, VerifyProof(l2, bare, tree.Root()).Matches)
	require.True(t, VerifyProof(right, bare, tree.Root()).Matches)
}

func TestVerifyProofShape(t *testing.T) {
	leaves := createTestLeaves(13)
	tree, err := BuildTree(leaves)
	require.NoError(t, err)

	proof, err := tree.GenerateProof(12)
	require.NoError(t, err)
	// 13 -> 7 -> 4 -> 2 -> 1: index 12 is the tail of the first two levels
	require.Len(t, proof.Steps, 2)
	require.True(t, VerifyProof(leaves[12], proof, tree.Root()).Matches)

	t.Run("Missing step", func(t *testing.T) {
		short := &Proof{LeafIndex: proof.LeafIndex, LeafCount: proof.LeafCount, Steps: proof.Steps[:1]}
		require.False(t, VerifyProof(leaves[12], short, tree.Root()).Matches)
	})

	t.Run("Extra step", func(t *testing.T) {
		long := &Proof{
			LeafIndex: proof.LeafIndex,
			LeafCount: proof.LeafCount,
			Steps:     append(append([]ProofStep{}, proof.Steps...), proof.Steps[0]),
		}
		require.False(t, VerifyProof(leaves[12], long, tree.Root()).Matches)
	})

	t.Run("Index outside leaf count", func(t *testing.T) {
		bad := &Proof{LeafIndex: 13, LeafCount: 13, Steps: proof.Steps}
		outcome := VerifyProof(leaves[12], bad, tree.Root())
		require.False(t, outcome.Matches)
		require.Equal(t, uint64(0), outcome.HashOperations)
	})

	t.Run("Zero orientation", func(t *testing.T) {
		two := createTestLeaves(2)
		small, err := BuildTree(two)
		require.NoError(t, err)

		// HASH(leaf0 || leaf1) is the root, so a step read as "right" would match
		bad := &Proof{LeafIndex: 0, LeafCount: 2, Steps: []ProofStep{{Sibling: two[1]}}}
		outcome := VerifyProof(two[0], bad, small.Root())
		require.False(t, outcome.Matches)
		require.Equal(t, uint64(0), outcome.HashOperations)

		bad.LeafCount = 0
		require.False(t, VerifyProof(two[0], bad, small.Root()).Matches)

		bad.Steps[0].Orientation = Orientation(7)
		require.False(t, VerifyProof(two[0], bad, small.Root()).Matches)

		_, err = json.Marshal(bad)
		require.Error(t, err)
	})

	t.Run("Wrong leaf count", func(t *testing.T) {
		bad := &Proof{LeafIndex: proof.LeafIndex, LeafCount: 14, Steps: proof.Steps}
		require.False(t, VerifyProof(leaves[12], bad, tree.Root()).Matches)
	})
}

func TestHashOperationsPowerOfTwo(t *testing.T) {
	for _, n := range []int{1, 2, 4, 8, 128} {
		t.Run(fmt.Sprintf("Leaves_%d", n), func(t *testing.T) {
			tree, err := BuildTree(createTestLeaves(n))
			require.NoError(t, err)
			require.Equal(t, uint64(n-1), tree.HashOperations)
		})
	}
}

func TestHashOperationsOddCounts(t *testing.T) {
	testCases := []struct {
		leaves int
		ops    uint64
	}{
		{3, 3},  // 2 + 1
		{5, 6},  // 3 + 2 + 1
		{6, 6},  // 3 + 2 + 1
		{7, 7},  // 4 + 2 + 1
		{9, 11}, // 5 + 3 + 2 + 1
	}
	for _, tc := range testCases {
		tree, err := BuildTree(createTestLeaves(tc.leaves))
		require.NoError(t, err)
		assert.Equal(t, tc.ops, tree.HashOperations, "leaves=%d", tc.leaves)
	}
}

// TestProofVerification tests proof verification with valid and invalid cases
func TestProofVerification(t *testing.T) {
	leaves := createTestLeaves(4)
	tree, err := BuildTree(leaves)
	require.NoError(t, err)

	t.Run("Valid proof", func(t *testing.T) {
		proof, err := tree.GenerateProof(0)
		require.NoError(t, err)
		require.True(t, tree.Verify(leaves[0], proof).Matches)
	})

	t.Run("Invalid proof - wrong root", func(t *testing.T) {
		proof, err := tree.GenerateProof(0)
		require.NoError(t, err)

		invalidRoot := []byte{1, 2, 3, 4, 5}
		require.False(t, VerifyProof(leaves[0], proof, invalidRoot).Matches)
	})

	t.Run("Invalid proof - tampered leaf", func(t *testing.T) {
		proof, err := tree.GenerateProof(1)
		require.NoError(t, err)

		for b := 0; b < DigestSize; b++ {
			tampered := append([]byte{}, leaves[1]...)
			tampered[b] ^= 0xFF
			require.False(t, VerifyProof(tampered, proof, tree.Root()).Matches, "byte %d", b)
		}
	})

	t.Run("Invalid proof - tampered sibling", func(t *testing.T) {
		for step := 0; step < 2; step++ {
			proof, err := tree.GenerateProof(2)
			require.NoError(t, err)
			require.Len(t, proof.Steps, 2)

			proof.Steps[step].Sibling[0] ^= 0xFF
			require.False(t, VerifyProof(leaves[2], proof, tree.Root()).Matches, "step %d", step)
		}
	})

	t.Run("Invalid proof - flipped orientation", func(t *testing.T) {
		proof, err := tree.GenerateProof(0)
		require.NoError(t, err)

		proof.Steps[0].Orientation = SiblingOnLeft
		require.False(t, VerifyProof(leaves[0], proof, tree.Root()).Matches)
	})

	t.Run("Invalid proof - nil proof", func(t *testing.T) {
		outcome := VerifyProof(leaves[0], nil, tree.Root())
		require.False(t, outcome.Matches)
		require.Equal(t, uint64(0), outcome.HashOperations)
	})

	t.Run("Invalid proof - wrong hasher", func(t *testing.T) {
		proof, err := tree.GenerateProof(3)
		require.NoError(t, err)
		require.False(t, VerifyProof(leaves[3], proof, tree.Root(), WithHasher(Keccak256())).Matches)
	})
}

func TestProofOrientation(t *testing.T) {
	tree, err := BuildTree(createTestLeaves(8))
	require.NoError(t, err)

	// leaf 5 = 0b101: odd, then even, then odd
	proof, err := tree.GenerateProof(5)
	require.NoError(t, err)
	require.Len(t, proof.Steps, 3)
	assert.Equal(t, SiblingOnLeft, proof.Steps[0].Orientation)
	assert.Equal(t, SiblingOnRight, proof.Steps[1].Orientation)
	assert.Equal(t, SiblingOnLeft, proof.Steps[2].Orientation)

	level0, _ := tree.Level(0)
	level1, _ := tree.Level(1)
	level2, _ := tree.Level(2)
	assert.Equal(t, level0[4], proof.Steps[0].Sibling)
	assert.Equal(t, level1[3], proof.Steps[1].Sibling)
	assert.Equal(t, level2[0], proof.Steps[2].Sibling)
}

// TestGenerateProofInvalidIndex tests proof generation with invalid indices
func TestGenerateProofInvalidIndex(t *testing.T) {
	tree, err := BuildTree(createTestLeaves(4))
	require.NoError(t, err)

	for _, idx := range []int{-1, 4, 5, 10} {
		t.Run(fmt.Sprintf("Index_%d", idx), func(t *testing.T) {
			proof, err := tree.GenerateProof(idx)
			require.ErrorIs(t, err, ErrIndexOutOfRange)
			require.Nil(t, proof)

			var rangeErr *IndexOutOfRangeError
			require.True(t, errors.As(err, &rangeErr))
			assert.Equal(t, idx, rangeErr.Index)
			assert.Equal(t, 4, rangeErr.LeafCount)
		})
	}
}

func TestTreeIsImmutable(t *testing.T) {
	leaves := createTestLeaves(4)
	tree, err := BuildTree(leaves)
	require.NoError(t, err)
	root := tree.Root()

	leaves[0][0] ^= 0xFF
	got := tree.Root()
	got[0] ^= 0xFF
	level, _ := tree.Level(1)
	level[0][0] ^= 0xFF
	proof, _ := tree.GenerateProof(0)
	proof.Steps[0].Sibling[0] ^= 0xFF

	assert.Equal(t, root, tree.Root())
	fresh, err := tree.GenerateProof(0)
	require.NoError(t, err)
	leaf, err := tree.Leaf(0)
	require.NoError(t, err)
	assert.True(t, tree.Verify(leaf, fresh).Matches)
}

func TestParallelBuildMatchesSequential(t *testing.T) {
	for _, n := range []int{1, 2, 3, 17, 128, 1000} {
		leaves := createTestLeaves(n)
		seq, err := BuildTree(leaves)
		require.NoError(t, err)
		par, err := BuildTree(leaves, WithWorkers(8))
		require.NoError(t, err)

		assert.Equal(t, seq.Root(), par.Root(), "n=%d", n)
		assert.Equal(t, seq.HashOperations, par.HashOperations, "n=%d", n)
	}
}

func TestBuildTreeWithHashers(t *testing.T) {
	leaves := createTestLeaves(6)
	roots := map[string][]byte{}

	for _, name := range SupportedHashers() {
		h, err := HasherForName(name)
		require.NoError(t, err)

		tree, err := BuildTree(leaves, WithHasher(h))
		require.NoError(t, err)
		require.Len(t, tree.Root(), DigestSize)
		require.Equal(t, name, tree.Hasher().Name())

		proof, err := tree.GenerateProof(5)
		require.NoError(t, err)
		require.True(t, VerifyProof(leaves[5], proof, tree.Root(), WithHasher(h)).Matches)

		roots[name] = tree.Root()
	}

	assert.NotEqual(t, roots[HasherSHA256], roots[HasherKeccak256])
	assert.NotEqual(t, roots[HasherSHA256], roots[HasherBlake2b256])
}

func TestPairAt(t *testing.T) {
	assert.Equal(t, Pairing{Kind: Paired, Index: 0, SiblingIndex: 1, Orientation: SiblingOnRight}, PairAt(4, 0))
	assert.Equal(t, Pairing{Kind: Paired, Index: 3, SiblingIndex: 2, Orientation: SiblingOnLeft}, PairAt(4, 3))
	assert.Equal(t, Pairing{Kind: SelfPaired, Index: 4, SiblingIndex: 4, Orientation: SiblingOnRight}, PairAt(5, 4))
	assert.Equal(t, Pairing{Kind: SelfPaired, Index: 0, SiblingIndex: 0, Orientation: SiblingOnRight}, PairAt(1, 0))
}

func TestToRoot32(t *testing.T) {
	_, err := ToRoot32(make([]byte, 31))
	require.ErrorIs(t, err, ErrMalformedRoot)
	_, err = ToRoot32(make([]byte, 33))
	require.ErrorIs(t, err, ErrMalformedRoot)
	_, err = ToRoot32(nil)
	require.ErrorIs(t, err, ErrMalformedRoot)

	in := randomHash()
	out, err := ToRoot32(in)
	require.NoError(t, err)
	assert.Equal(t, in, out[:])
}

func TestHasherForName(t *testing.T) {
	h, err := HasherForName("")
	require.NoError(t, err)
	assert.Equal(t, DefaultHasher, h.Name())

	_, err = HasherForName("md5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported hasher")

	// Hash(a, b) is the hash of the concatenation
	for _, name := range SupportedHashers() {
		h, err := HasherForName(name)
		require.NoError(t, err)
		assert.Equal(t, h.Hash([]byte("ab")), h.Hash([]byte("a"), []byte("b")), name)
	}
}

func TestInclusionProofJSON(t *testing.T) {
	leaves := createTestLeaves(5)
	tree, err := BuildTree(leaves, WithHasher(Keccak256()))
	require.NoError(t, err)

	ip, err := tree.NewInclusionProof(4)
	require.NoError(t, err)

	data, err := json.Marshal(ip)
	require.NoError(t, err)
	require.Contains(t, string(data), `"side":"L"`)

	var decoded InclusionProof
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, HasherKeccak256, decoded.Hasher)
	assert.Equal(t, ip.Proof, decoded.Proof)

	outcome, err := decoded.Verify(tree.Root())
	require.NoError(t, err)
	assert.True(t, outcome.Matches)
	assert.Equal(t, uint64(tree.Height()-1), outcome.HashOperations)

	t.Run("Index beyond leaf count", func(t *testing.T) {
		var p Proof
		err := json.Unmarshal([]byte(`{"leafIndex":5,"leafCount":5,"steps":[]}`), &p)
		require.Error(t, err)
	})

	t.Run("Missing side", func(t *testing.T) {
		var p Proof
		err := json.Unmarshal([]byte(`{"leafIndex":0,"leafCount":2,"steps":[{"sibling":"0x62"}]}`), &p)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing side")
		assert.Empty(t, p.Steps)
	})

	t.Run("Missing sibling", func(t *testing.T) {
		var p Proof
		err := json.Unmarshal([]byte(`{"leafIndex":0,"leafCount":2,"steps":[{"side":"R"}]}`), &p)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing sibling")

		err = json.Unmarshal([]byte(`{"leafIndex":0,"leafCount":2,"steps":[{"side":"R","sibling":"0x"}]}`), &p)
		require.Error(t, err)
	})

	t.Run("Bad side", func(t *testing.T) {
		var p Proof
		err := json.Unmarshal([]byte(`{"leafIndex":0,"steps":[{"side":"X","sibling":"0x00"}]}`), &p)
		require.Error(t, err)
	})

	t.Run("Unknown hasher", func(t *testing.T) {
		bad := decoded
		bad.Hasher = "sha1"
		_, err := bad.Verify(tree.Root())
		require.Error(t, err)
	})
}
