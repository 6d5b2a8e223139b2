package types

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ProgramInputs are the two integers the host feeds to the merkle program.
type ProgramInputs struct {
	LeafCount         uint32 `json:"leafCount"`
	VerificationIndex uint32 `json:"verificationIndex"`
}

// PublicValues is everything the merkle program commits to.
// Field order matches the ABI tuple (uint32, uint32, bytes32, bool, uint64).
type PublicValues struct {
	LeafCount          uint32      `json:"leafCount"`
	VerificationIndex  uint32      `json:"verificationIndex"`
	Root               common.Hash `json:"root"`
	VerificationResult bool        `json:"verificationResult"`
	HashOperations     uint64      `json:"hashOperations"`
}

// RunMode is the host workflow that produced a run
type RunMode string

const (
	RunModeExecute RunMode = "execute"
	RunModeProve   RunMode = "prove"
)

// RunRecord is a persisted program run
type RunRecord struct {
	ID            string        `json:"id"`
	Mode          RunMode       `json:"mode"`
	Hasher        string        `json:"hasher"`
	ProgramID     string        `json:"programId"`
	CreatedAt     time.Time     `json:"createdAt"`
	Values        PublicValues  `json:"values"`
	EncodedValues hexutil.Bytes `json:"encodedValues"`
}
