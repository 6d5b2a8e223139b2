package config

import (
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/util/validation/field"

	"github.com/Layr-Labs/merkle-proof-go/pkg/merkle"
	"github.com/Layr-Labs/merkle-proof-go/pkg/persistence"
)

// Environment variable names for the merkle host
const (
	EnvMerkleLeafCount         = "MERKLE_LEAF_COUNT"
	EnvMerkleVerificationIndex = "MERKLE_VERIFICATION_INDEX"
	EnvMerkleHasher            = "MERKLE_HASHER"
	EnvMerkleWorkers           = "MERKLE_WORKERS"
	EnvMerkleVerbose           = "MERKLE_VERBOSE"
	EnvMerklePersistence       = "MERKLE_PERSISTENCE"
	EnvMerkleDataPath          = "MERKLE_DATA_PATH"
	EnvMerkleRedisAddress      = "MERKLE_REDIS_ADDRESS"
	EnvMerkleRedisPassword     = "MERKLE_REDIS_PASSWORD"
	EnvMerkleRedisDB           = "MERKLE_REDIS_DB"
	EnvMerkleRedisKeyPrefix    = "MERKLE_REDIS_KEY_PREFIX"
)

// Defaults match the reference host invocation
const (
	DefaultLeafCount         = 128
	DefaultVerificationIndex = 42
	DefaultDataPath          = "./data/merkle"
	DefaultRedisAddress      = "localhost:6379"

	// MaxWorkers bounds intra-level hashing goroutines
	MaxWorkers = 256
)

// PersistenceConfig selects and configures the run store
type PersistenceConfig struct {
	Type           persistence.Type `json:"type"`
	DataPath       string           `json:"data_path,omitempty"`
	RedisAddress   string           `json:"redis_address,omitempty"`
	RedisPassword  string           `json:"-"`
	RedisDB        int              `json:"redis_db,omitempty"`
	RedisKeyPrefix string           `json:"redis_key_prefix,omitempty"`
}

// HostConfig represents the complete configuration for a merkle host invocation
type HostConfig struct {
	// Program inputs
	LeafCount         uint32 `json:"leaf_count"`
	VerificationIndex uint32 `json:"verification_index"`

	// Engine settings
	Hasher  string `json:"hasher"`
	Workers int    `json:"workers"`

	Persistence PersistenceConfig `json:"persistence"`

	Verbose bool `json:"verbose"`
}

// Validate validates the host configuration, reporting every problem at once.
// It normalises an empty hasher to merkle.DefaultHasher and an empty persistence type to memory.
func (c *HostConfig) Validate() error {
	var allErrors field.ErrorList

	if c.LeafCount == 0 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("leafCount"), c.LeafCount, "must be at least 1"))
	} else if c.VerificationIndex >= c.LeafCount {
		allErrors = append(allErrors, field.Invalid(field.NewPath("verificationIndex"), c.VerificationIndex,
			fmt.Sprintf("must be less than leafCount (%d)", c.LeafCount)))
	}

	if c.Hasher == "" {
		c.Hasher = merkle.DefaultHasher
	}
	if _, err := merkle.HasherForName(c.Hasher); err != nil {
		allErrors = append(allErrors, field.NotSupported(field.NewPath("hasher"), c.Hasher, merkle.SupportedHashers()))
	}

	if c.Workers < 0 || c.Workers > MaxWorkers {
		allErrors = append(allErrors, field.Invalid(field.NewPath("workers"), c.Workers,
			fmt.Sprintf("must be between 0-%d", MaxWorkers)))
	}

	allErrors = append(allErrors, c.Persistence.validate(field.NewPath("persistence"))...)

	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

// Validate checks only the run store settings, for commands that take no program inputs.
func (pc *PersistenceConfig) Validate() error {
	if errs := pc.validate(field.NewPath("persistence")); len(errs) > 0 {
		return errs.ToAggregate()
	}
	return nil
}

func (pc *PersistenceConfig) validate(path *field.Path) field.ErrorList {
	var allErrors field.ErrorList

	if pc.Type == "" {
		pc.Type = persistence.TypeMemory
	}

	switch pc.Type {
	case persistence.TypeMemory:
	case persistence.TypeBadger:
		if strings.TrimSpace(pc.DataPath) == "" {
			allErrors = append(allErrors, field.Required(path.Child("dataPath"), "dataPath is required for badger"))
		}
	case persistence.TypeRedis:
		if pc.RedisAddress == "" {
			allErrors = append(allErrors, field.Required(path.Child("redisAddress"), "redisAddress is required for redis"))
		}
		if pc.RedisDB < 0 || pc.RedisDB > 15 {
			allErrors = append(allErrors, field.Invalid(path.Child("redisDB"), pc.RedisDB, "must be between 0-15"))
		}
	default:
		allErrors = append(allErrors, field.NotSupported(path.Child("type"), string(pc.Type), GetSupportedPersistenceTypes()))
	}

	return allErrors
}

// GetSupportedPersistenceTypes returns the run store backends as strings for CLI help
func GetSupportedPersistenceTypes() []string {
	return []string{
		string(persistence.TypeMemory),
		string(persistence.TypeBadger),
		string(persistence.TypeRedis),
	}
}

// GetSupportedHashersString returns the hasher names for CLI help
func GetSupportedHashersString() string {
	return strings.Join(merkle.SupportedHashers(), ", ")
}
