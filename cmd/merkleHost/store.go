package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Layr-Labs/merkle-proof-go/pkg/config"
	"github.com/Layr-Labs/merkle-proof-go/pkg/persistence"
	"github.com/Layr-Labs/merkle-proof-go/pkg/persistence/badger"
	"github.com/Layr-Labs/merkle-proof-go/pkg/persistence/memory"
	"github.com/Layr-Labs/merkle-proof-go/pkg/persistence/redis"
)

// openRunStore opens the run store selected by cfg. cfg must already be validated.
func openRunStore(cfg *config.PersistenceConfig, l *zap.Logger) (persistence.IRunPersistence, error) {
	switch cfg.Type {
	case persistence.TypeMemory, "":
		return memory.NewMemoryPersistence(l), nil
	case persistence.TypeBadger:
		store, err := badger.NewBadgerPersistence(cfg.DataPath, l)
		if err != nil {
			return nil, fmt.Errorf("failed to open badger store: %w", err)
		}
		return store, nil
	case persistence.TypeRedis:
		store, err := redis.NewRedisPersistence(&redis.RedisConfig{
			Address:   cfg.RedisAddress,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.RedisKeyPrefix,
		}, l)
		if err != nil {
			return nil, fmt.Errorf("failed to open redis store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported persistence type %q", cfg.Type)
	}
}
