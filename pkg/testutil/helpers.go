package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/merkle-proof-go/pkg/persistence"
	"github.com/Layr-Labs/merkle-proof-go/pkg/types"
)

// CreateTestRun creates a run record with deterministic public values
func CreateTestRun(t *testing.T, leafCount, index uint32) *types.RunRecord {
	t.Helper()

	values := &types.PublicValues{
		LeafCount:          leafCount,
		VerificationIndex:  index,
		Root:               common.BytesToHash([]byte{byte(leafCount), byte(index)}),
		VerificationResult: true,
		HashOperations:     uint64(leafCount),
	}
	run, err := persistence.NewRunRecord(types.RunModeExecute, "sha256", "0x01", values, []byte{byte(index)})
	require.NoError(t, err)
	return run
}

// RunPersistenceSuite exercises the IRunPersistence contract against a fresh store.
// newStore must return an empty, open store; the suite closes it.
func RunPersistenceSuite(t *testing.T, newStore func(t *testing.T) persistence.IRunPersistence) {
	t.Run("SaveAndLoad", func(t *testing.T) {
		s := newStore(t)
		defer func() { _ = s.Close() }()

		run := CreateTestRun(t, 128, 42)
		require.NoError(t, s.SaveRun(run))

		loaded, err := s.LoadRun(run.ID)
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Equal(t, run.ID, loaded.ID)
		assert.Equal(t, run.Mode, loaded.Mode)
		assert.Equal(t, run.Values, loaded.Values)
		assert.Equal(t, []byte(run.EncodedValues), []byte(loaded.EncodedValues))
		assert.True(t, run.CreatedAt.Equal(loaded.CreatedAt))
	})

	t.Run("LoadNotFound", func(t *testing.T) {
		s := newStore(t)
		defer func() { _ = s.Close() }()

		loaded, err := s.LoadRun("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
		require.NoError(t, err)
		assert.Nil(t, loaded)
	})

	t.Run("SaveNil", func(t *testing.T) {
		s := newStore(t)
		defer func() { _ = s.Close() }()

		err := s.SaveRun(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "nil RunRecord")
	})

	t.Run("ListSorted", func(t *testing.T) {
		s := newStore(t)
		defer func() { _ = s.Close() }()

		base := time.Now().UTC()
		for i := 3; i > 0; i-- {
			run := CreateTestRun(t, uint32(i), 0)
			run.CreatedAt = base.Add(time.Duration(i) * time.Second)
			require.NoError(t, s.SaveRun(run))
		}

		runs, err := s.ListRuns()
		require.NoError(t, err)
		require.Len(t, runs, 3)
		for i := 1; i < len(runs); i++ {
			assert.True(t, runs[i-1].CreatedAt.Before(runs[i].CreatedAt))
		}
		assert.Equal(t, uint32(1), runs[0].Values.LeafCount)
	})

	t.Run("ListEmpty", func(t *testing.T) {
		s := newStore(t)
		defer func() { _ = s.Close() }()

		runs, err := s.ListRuns()
		require.NoError(t, err)
		assert.Empty(t, runs)
	})

	t.Run("DeleteAndLatest", func(t *testing.T) {
		s := newStore(t)
		defer func() { _ = s.Close() }()

		latest, err := s.GetLatestRunID()
		require.NoError(t, err)
		assert.Equal(t, "", latest)

		run := CreateTestRun(t, 8, 3)
		require.NoError(t, s.SaveRun(run))
		require.NoError(t, s.SetLatestRunID(run.ID))

		latest, err = s.GetLatestRunID()
		require.NoError(t, err)
		assert.Equal(t, run.ID, latest)

		require.NoError(t, s.DeleteRun(run.ID))
		loaded, err := s.LoadRun(run.ID)
		require.NoError(t, err)
		assert.Nil(t, loaded)

		latest, err = s.GetLatestRunID()
		require.NoError(t, err)
		assert.Equal(t, "", latest)

		// idempotent
		require.NoError(t, s.DeleteRun(run.ID))
	})

	t.Run("CloseIsIdempotent", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.HealthCheck())
		require.NoError(t, s.Close())
		require.NoError(t, s.Close())

		require.Error(t, s.HealthCheck())
		require.Error(t, s.SaveRun(CreateTestRun(t, 1, 0)))
		_, err := s.LoadRun("x")
		require.Error(t, err)
		_, err = s.ListRuns()
		require.Error(t, err)
	})

	t.Run("ConcurrentSaves", func(t *testing.T) {
		s := newStore(t)
		defer func() { _ = s.Close() }()

		runs := make([]*types.RunRecord, 20)
		for i := range runs {
			runs[i] = CreateTestRun(t, uint32(i+1), 0)
		}

		var wg sync.WaitGroup
		for _, run := range runs {
			wg.Add(1)
			go func(run *types.RunRecord) {
				defer wg.Done()
				assert.NoError(t, s.SaveRun(run))
			}(run)
		}
		wg.Wait()

		listed, err := s.ListRuns()
		require.NoError(t, err)
		assert.Len(t, listed, 20)
	})
}
