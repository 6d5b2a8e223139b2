package persistence

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Layr-Labs/merkle-proof-go/pkg/types"
)

// Type selects a persistence backend
type Type string

const (
	TypeMemory Type = "memory"
	TypeBadger Type = "badger"
	TypeRedis  Type = "redis"
)

// ErrClosed is returned by every operation after Close
var ErrClosed = errors.New("persistence layer is closed")

// NewRunRecord creates a run record with a fresh ID and the current time.
func NewRunRecord(mode types.RunMode, hasher, programID string, values *types.PublicValues, encoded []byte) (*types.RunRecord, error) {
	if values == nil {
		return nil, fmt.Errorf("cannot create run record without public values")
	}
	return &types.RunRecord{
		ID:            uuid.New().String(),
		Mode:          mode,
		Hasher:        hasher,
		ProgramID:     programID,
		CreatedAt:     time.Now().UTC(),
		Values:        *values,
		EncodedValues: append([]byte{}, encoded...),
	}, nil
}

// ValidateRunID rejects IDs that are not UUIDs
func ValidateRunID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid run ID %q: %w", id, err)
	}
	return nil
}

// SortRuns orders runs by CreatedAt then ID, in place.
func SortRuns(runs []*types.RunRecord) {
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].CreatedAt.Before(runs[j].CreatedAt)
	})
}

// CopyRunRecord deep copies a run record
func CopyRunRecord(r *types.RunRecord) *types.RunRecord {
	if r == nil {
		return nil
	}
	out := *r
	out.EncodedValues = append([]byte(nil), r.EncodedValues...)
	return &out
}
