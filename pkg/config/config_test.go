package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/merkle-proof-go/pkg/merkle"
	"github.com/Layr-Labs/merkle-proof-go/pkg/persistence"
)

func validConfig() *HostConfig {
	return &HostConfig{
		LeafCount:         DefaultLeafCount,
		VerificationIndex: DefaultVerificationIndex,
	}
}

func TestHostConfig_ValidateDefaults(t *testing.T) {
	c := validConfig()
	require.NoError(t, c.Validate())
	assert.Equal(t, merkle.DefaultHasher, c.Hasher)
	assert.Equal(t, persistence.TypeMemory, c.Persistence.Type)
}

func TestHostConfig_ValidateErrors(t *testing.T) {
	testCases := []struct {
		name     string
		mutate   func(c *HostConfig)
		contains string
	}{
		{"zero leaves", func(c *HostConfig) { c.LeafCount = 0 }, "leafCount"},
		{"index equals count", func(c *HostConfig) { c.VerificationIndex = c.LeafCount }, "verificationIndex"},
		{"index past count", func(c *HostConfig) { c.VerificationIndex = c.LeafCount + 10 }, "verificationIndex"},
		{"unknown hasher", func(c *HostConfig) { c.Hasher = "md5" }, "hasher"},
		{"negative workers", func(c *HostConfig) { c.Workers = -1 }, "workers"},
		{"too many workers", func(c *HostConfig) { c.Workers = MaxWorkers + 1 }, "workers"},
		{"unknown persistence", func(c *HostConfig) { c.Persistence.Type = "postgres" }, "persistence.type"},
		{"badger without path", func(c *HostConfig) { c.Persistence.Type = persistence.TypeBadger }, "persistence.dataPath"},
		{"redis without address", func(c *HostConfig) { c.Persistence.Type = persistence.TypeRedis }, "persistence.redisAddress"},
		{"redis bad db", func(c *HostConfig) {
			c.Persistence = PersistenceConfig{Type: persistence.TypeRedis, RedisAddress: DefaultRedisAddress, RedisDB: 16}
		}, "persistence.redisDB"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := validConfig()
			tc.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.contains)
		})
	}
}

func TestHostConfig_ValidateAggregates(t *testing.T) {
	c := &HostConfig{LeafCount: 0, Hasher: "md5", Workers: -1}
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leafCount")
	assert.Contains(t, err.Error(), "hasher")
	assert.Contains(t, err.Error(), "workers")
}

func TestPersistenceConfig_Validate(t *testing.T) {
	pc := &PersistenceConfig{}
	require.NoError(t, pc.Validate())
	assert.Equal(t, persistence.TypeMemory, pc.Type)

	pc = &PersistenceConfig{Type: persistence.TypeBadger, DataPath: DefaultDataPath}
	require.NoError(t, pc.Validate())

	pc = &PersistenceConfig{Type: persistence.TypeBadger, DataPath: "  "}
	require.Error(t, pc.Validate())
}

func TestSupportedStrings(t *testing.T) {
	assert.Equal(t, []string{"memory", "badger", "redis"}, GetSupportedPersistenceTypes())
	assert.Equal(t, "blake2b256, keccak256, sha256", GetSupportedHashersString())
}
