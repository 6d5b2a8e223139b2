package persistence

import "github.com/Layr-Labs/merkle-proof-go/pkg/types"

// IRunPersistence stores the results of merkle program runs on the host side.
// All implementations must be thread-safe.
//
// The interface supports:
// - Run record management (save, load, list, delete)
// - Latest run tracking
// - Lifecycle management (close, health check)
type IRunPersistence interface {
	// Run Records

	// SaveRun persists a run record keyed by its ID.
	// Overwrites any existing record with the same ID.
	SaveRun(run *types.RunRecord) error

	// LoadRun retrieves a run record by ID.
	// Returns nil if the run doesn't exist, error only on storage failure.
	LoadRun(id string) (*types.RunRecord, error)

	// ListRuns returns all persisted runs sorted by CreatedAt (ascending), ties broken by ID.
	// Returns empty slice if no runs exist, error only on storage failure.
	ListRuns() ([]*types.RunRecord, error)

	// DeleteRun removes a run record by ID.
	// Idempotent - returns nil if the run doesn't exist.
	// Deleting the latest run clears the latest pointer.
	DeleteRun(id string) error

	// Latest Run Tracking

	// SetLatestRunID marks which run is the most recent one the host produced.
	// An empty ID clears the pointer.
	SetLatestRunID(id string) error

	// GetLatestRunID returns the latest run ID, or "" if none is set.
	GetLatestRunID() (string, error)

	// Lifecycle Management

	// Close cleanly shuts down the persistence layer.
	// Idempotent - safe to call multiple times.
	// After Close(), all other operations should return errors.
	Close() error

	// HealthCheck verifies the persistence layer is operational.
	// Returns nil if healthy, error describing the problem if not.
	HealthCheck() error
}
