package merkle

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// MarshalText encodes the orientation as "R" or "L".
func (o Orientation) MarshalText() ([]byte, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("invalid orientation %d", uint8(o))
	}
	return []byte(o.String()), nil
}

func (o *Orientation) UnmarshalText(text []byte) error {
	switch string(text) {
	case "R":
		*o = SiblingOnRight
	case "L":
		*o = SiblingOnLeft
	default:
		return fmt.Errorf("invalid orientation %q, expected \"L\" or \"R\"", string(text))
	}
	return nil
}

type jsonProofStep struct {
	Side    Orientation   `json:"side"`
	Sibling hexutil.Bytes `json:"sibling"`
}

type jsonProof struct {
	LeafIndex int             `json:"leafIndex"`
	LeafCount int             `json:"leafCount"`
	Steps     []jsonProofStep `json:"steps"`
}

func (p Proof) MarshalJSON() ([]byte, error) {
	steps := make([]jsonProofStep, len(p.Steps))
	for i, s := range p.Steps {
		steps[i] = jsonProofStep{Side: s.Orientation, Sibling: s.Sibling}
	}
	return json.Marshal(jsonProof{LeafIndex: p.LeafIndex, LeafCount: p.LeafCount, Steps: steps})
}

func (p *Proof) UnmarshalJSON(data []byte) error {
	var jp jsonProof
	if err := json.Unmarshal(data, &jp); err != nil {
		return err
	}
	if jp.LeafIndex < 0 {
		return fmt.Errorf("invalid leaf index %d", jp.LeafIndex)
	}
	if jp.LeafCount < 0 || (jp.LeafCount > 0 && jp.LeafIndex >= jp.LeafCount) {
		return fmt.Errorf("invalid leaf count %d for leaf index %d", jp.LeafCount, jp.LeafIndex)
	}
	steps := make([]ProofStep, len(jp.Steps))
	for i, s := range jp.Steps {
		if !s.Side.Valid() {
			return fmt.Errorf("proof step %d: missing side, expected \"L\" or \"R\"", i)
		}
		if len(s.Sibling) == 0 {
			return fmt.Errorf("proof step %d: missing sibling", i)
		}
		steps[i] = ProofStep{Sibling: s.Sibling, Orientation: s.Side}
	}
	p.LeafIndex = jp.LeafIndex
	p.LeafCount = jp.LeafCount
	p.Steps = steps
	return nil
}

// InclusionProof is the self-describing form of a proof written by the host tooling.
type InclusionProof struct {
	Hasher string        `json:"hasher"`
	Leaf   hexutil.Bytes `json:"leaf"`
	Root   hexutil.Bytes `json:"root"`
	Proof  Proof         `json:"proof"`
}

// NewInclusionProof generates the proof for leafIndex and bundles it with the leaf and root.
func (t *Tree) NewInclusionProof(leafIndex int) (*InclusionProof, error) {
	proof, err := t.GenerateProof(leafIndex)
	if err != nil {
		return nil, err
	}
	return &InclusionProof{
		Hasher: t.hasher.Name(),
		Leaf:   cloneBytes(t.levels[0][leafIndex]),
		Root:   t.Root(),
		Proof:  *proof,
	}, nil
}

// Verify checks the bundled leaf and proof against expectedRoot using the named hasher.
func (ip *InclusionProof) Verify(expectedRoot []byte) (VerificationOutcome, error) {
	h, err := HasherForName(ip.Hasher)
	if err != nil {
		return VerificationOutcome{}, err
	}
	return VerifyProof(ip.Leaf, &ip.Proof, expectedRoot, WithHasher(h)), nil
}
