// Package program is the merkle workload the host executes: derive leaves,
// build the tree, prove one leaf, verify it, and commit the public values.
package program

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Layr-Labs/merkle-proof-go/pkg/leaves"
	"github.com/Layr-Labs/merkle-proof-go/pkg/merkle"
	"github.com/Layr-Labs/merkle-proof-go/pkg/types"
	"github.com/Layr-Labs/merkle-proof-go/pkg/util"
)

// Version is folded into the program ID; bump it when the committed values change meaning.
const Version = "merkle-program/v1"

type Config struct {
	Hasher  merkle.Hasher
	Workers int
}

// Report carries the counters that are not part of the committed values.
type Report struct {
	BuildHashOperations  uint64
	VerifyHashOperations uint64
	TreeHeight           int
	ProofLength          int
	Elapsed              time.Duration
}

type Result struct {
	Values  *types.PublicValues
	Encoded []byte
	Report  *Report

	// Proof is the inclusion proof the run verified for VerificationIndex
	Proof *merkle.InclusionProof
}

type Program struct {
	hasher  merkle.Hasher
	workers int
	logger  *zap.Logger
}

func NewProgram(cfg *Config, l *zap.Logger) *Program {
	p := &Program{hasher: merkle.SHA256(), workers: 1, logger: l}
	if cfg != nil {
		if cfg.Hasher != nil {
			p.hasher = cfg.Hasher
		}
		if cfg.Workers > 1 {
			p.workers = cfg.Workers
		}
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	return p
}

// ValidateInputs rejects inputs the engine would refuse, before any hashing happens.
func ValidateInputs(in types.ProgramInputs) error {
	if in.LeafCount == 0 {
		return merkle.ErrEmptyInput
	}
	if in.VerificationIndex >= in.LeafCount {
		return &merkle.IndexOutOfRangeError{Index: int(in.VerificationIndex), LeafCount: int(in.LeafCount)}
	}
	return nil
}

// Run executes the workload and returns the committed values and their ABI encoding.
func (p *Program) Run(in types.ProgramInputs) (*Result, error) {
	if err := ValidateInputs(in); err != nil {
		return nil, errors.Wrap(err, "invalid program inputs")
	}
	start := time.Now()

	p.logger.Sugar().Infow("Building merkle tree", "leaf_count", in.LeafCount, "hasher", p.hasher.Name())

	leafSet := leaves.Derive(in.LeafCount, p.hasher)
	tree, err := merkle.BuildTree(leafSet, merkle.WithHasher(p.hasher), merkle.WithWorkers(p.workers))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build merkle tree")
	}
	p.logger.Sugar().Debugw("Built merkle tree", "hash_operations", tree.HashOperations, "height", tree.Height())

	root, err := tree.Root32()
	if err != nil {
		return nil, errors.Wrap(err, "failed to commit merkle root")
	}

	inclusion, err := tree.NewInclusionProof(int(in.VerificationIndex))
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate proof")
	}

	outcome := merkle.VerifyProof(inclusion.Leaf, &inclusion.Proof, root[:], merkle.WithHasher(p.hasher))

	values := &types.PublicValues{
		LeafCount:          in.LeafCount,
		VerificationIndex:  in.VerificationIndex,
		Root:               common.Hash(root),
		VerificationResult: outcome.Matches,
		HashOperations:     tree.HashOperations + outcome.HashOperations,
	}

	encoded, err := util.EncodePublicValues(values)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode public values")
	}

	report := &Report{
		BuildHashOperations:  tree.HashOperations,
		VerifyHashOperations: outcome.HashOperations,
		TreeHeight:           tree.Height(),
		ProofLength:          len(inclusion.Proof.Steps),
		Elapsed:              time.Since(start),
	}

	p.logger.Sugar().Infow("Merkle program complete",
		"root", values.Root.Hex(),
		"verification_result", values.VerificationResult,
		"hash_operations", values.HashOperations,
		"elapsed", report.Elapsed,
	)

	return &Result{Values: values, Encoded: encoded, Report: report, Proof: inclusion}, nil
}

// ID identifies the program build and hasher; runs with equal IDs are comparable.
func (p *Program) ID() (common.Hash, error) {
	return ProgramID(p.hasher)
}

// ProgramID is keccak256(abi.encode(Version + ":" + hasher)).
func ProgramID(h merkle.Hasher) (common.Hash, error) {
	if h == nil {
		return common.Hash{}, fmt.Errorf("hasher cannot be nil")
	}
	encoded, err := util.EncodeString(Version + ":" + h.Name())
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to encode program id: %w", err)
	}
	return crypto.Keccak256Hash(encoded), nil
}
