package memory

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Layr-Labs/merkle-proof-go/pkg/persistence"
	"github.com/Layr-Labs/merkle-proof-go/pkg/types"
)

// MemoryPersistence is an in-memory implementation of IRunPersistence.
// This implementation is intended for TESTING and one-shot CLI runs.
//
// All data is stored in memory and will be lost when the process exits.
// Thread-safe using sync.RWMutex for concurrent access.
// Deep copies data to prevent external mutation.
type MemoryPersistence struct {
	mu sync.RWMutex

	// Run storage: id -> RunRecord
	runs map[string]*types.RunRecord

	latestRunID string

	closed bool
}

// NewMemoryPersistence creates a new in-memory persistence layer.
// Logs a warning since nothing survives the process.
func NewMemoryPersistence(logger *zap.Logger) *MemoryPersistence {
	if logger != nil {
		logger.Sugar().Warnw("Using in-memory persistence - ALL RUNS WILL BE LOST ON EXIT",
			"hint", "set MERKLE_PERSISTENCE=badger to keep runs")
	}

	return &MemoryPersistence{
		runs: make(map[string]*types.RunRecord),
	}
}

// SaveRun persists a run record.
func (m *MemoryPersistence) SaveRun(run *types.RunRecord) error {
	if run == nil {
		return fmt.Errorf("cannot save nil RunRecord")
	}
	if run.ID == "" {
		return fmt.Errorf("cannot save RunRecord without ID")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return persistence.ErrClosed
	}

	// Deep copy to prevent external mutation
	m.runs[run.ID] = persistence.CopyRunRecord(run)

	return nil
}

// LoadRun retrieves a run record by ID.
func (m *MemoryPersistence) LoadRun(id string) (*types.RunRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, persistence.ErrClosed
	}

	run, exists := m.runs[id]
	if !exists {
		return nil, nil // Not found is not an error
	}

	return persistence.CopyRunRecord(run), nil
}

// ListRuns returns all runs sorted by creation time.
func (m *MemoryPersistence) ListRuns() ([]*types.RunRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, persistence.ErrClosed
	}

	result := make([]*types.RunRecord, 0, len(m.runs))
	for _, run := range m.runs {
		result = append(result, persistence.CopyRunRecord(run))
	}
	persistence.SortRuns(result)

	return result, nil
}

// DeleteRun removes a run record.
func (m *MemoryPersistence) DeleteRun(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return persistence.ErrClosed
	}

	delete(m.runs, id)
	if m.latestRunID == id {
		m.latestRunID = ""
	}

	return nil
}

// SetLatestRunID stores the latest run pointer.
func (m *MemoryPersistence) SetLatestRunID(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return persistence.ErrClosed
	}

	m.latestRunID = id
	return nil
}

// GetLatestRunID returns the latest run pointer.
func (m *MemoryPersistence) GetLatestRunID() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return "", persistence.ErrClosed
	}

	return m.latestRunID, nil
}

// Close marks the persistence layer as closed.
func (m *MemoryPersistence) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// HealthCheck verifies the persistence layer is operational.
func (m *MemoryPersistence) HealthCheck() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return persistence.ErrClosed
	}

	return nil
}
