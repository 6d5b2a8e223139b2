package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/Layr-Labs/merkle-proof-go/pkg/types"
)

// MarshalRunRecord serializes a RunRecord to JSON bytes.
func MarshalRunRecord(r *types.RunRecord) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("cannot marshal nil RunRecord")
	}

	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal RunRecord to JSON: %w", err)
	}

	return data, nil
}

// UnmarshalRunRecord deserializes a RunRecord from JSON bytes.
func UnmarshalRunRecord(data []byte) (*types.RunRecord, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot unmarshal empty data")
	}

	var r types.RunRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON to RunRecord: %w", err)
	}
	if r.ID == "" {
		return nil, fmt.Errorf("run record has no ID")
	}

	return &r, nil
}
