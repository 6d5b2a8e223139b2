package util

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/Layr-Labs/merkle-proof-go/pkg/types"
)

// PublicValuesEncodedSize is the ABI size of the static (uint32,uint32,bytes32,bool,uint64) tuple.
const PublicValuesEncodedSize = 5 * 32

func EncodeString(str string) ([]byte, error) {
	// Define the ABI for a single string parameter
	stringType, _ := abi.NewType("string", "", nil)
	arguments := abi.Arguments{{Type: stringType}}

	// Encode the string
	encoded, err := arguments.Pack(str)
	if err != nil {
		return nil, err
	}

	return encoded, nil
}

// publicValuesArguments mirrors the Solidity struct
//
//	struct MerkleTreeValues {
//	    uint32 leaf_count;
//	    uint32 verification_index;
//	    bytes32 root;
//	    bool verification_result;
//	    uint64 hash_operations;
//	}
func publicValuesArguments() abi.Arguments {
	uint32Type, _ := abi.NewType("uint32", "", nil)
	bytes32Type, _ := abi.NewType("bytes32", "", nil)
	boolType, _ := abi.NewType("bool", "", nil)
	uint64Type, _ := abi.NewType("uint64", "", nil)

	return abi.Arguments{
		{Name: "leaf_count", Type: uint32Type},
		{Name: "verification_index", Type: uint32Type},
		{Name: "root", Type: bytes32Type},
		{Name: "verification_result", Type: boolType},
		{Name: "hash_operations", Type: uint64Type},
	}
}

// EncodePublicValues ABI-encodes the program's committed outputs.
func EncodePublicValues(pv *types.PublicValues) ([]byte, error) {
	if pv == nil {
		return nil, fmt.Errorf("cannot encode nil PublicValues")
	}

	encoded, err := publicValuesArguments().Pack(
		pv.LeafCount,
		pv.VerificationIndex,
		[32]byte(pv.Root),
		pv.VerificationResult,
		pv.HashOperations,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to abi encode public values: %w", err)
	}
	return encoded, nil
}

// DecodePublicValues is the inverse of EncodePublicValues.
func DecodePublicValues(data []byte) (*types.PublicValues, error) {
	if len(data) != PublicValuesEncodedSize {
		return nil, fmt.Errorf("public values must be %d bytes, got %d", PublicValuesEncodedSize, len(data))
	}

	out, err := publicValuesArguments().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("failed to abi decode public values: %w", err)
	}
	if len(out) != 5 {
		return nil, fmt.Errorf("expected 5 decoded values, got %d", len(out))
	}

	leafCount, ok1 := out[0].(uint32)
	index, ok2 := out[1].(uint32)
	root, ok3 := out[2].([32]byte)
	result, ok4 := out[3].(bool)
	ops, ok5 := out[4].(uint64)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
		return nil, fmt.Errorf("unexpected types in decoded public values")
	}

	return &types.PublicValues{
		LeafCount:          leafCount,
		VerificationIndex:  index,
		Root:               common.Hash(root),
		VerificationResult: result,
		HashOperations:     ops,
	}, nil
}
