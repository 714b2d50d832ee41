package main

import (
	"context"
	"fmt"

	"tasks_api/internal/config"
	"tasks_api/internal/db"
	"tasks_api/internal/repository"

	redis "github.com/redis/go-redis/v9"
)

// openStore builds the TaskStore selected by cfg.StoreBackend. The returned
// func releases the underlying connection.
func openStore(ctx context.Context, cfg *config.Config, rdb *redis.Client) (repository.TaskStore, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if cfg.AutoMigrate {
			if _, err := db.MigratePostgres(ctx, pool); err != nil {
				pool.Close()
				return nil, nil, err
			}
		}
		return repository.NewTaskRepository(pool), pool.Close, nil

	case config.BackendSQLite:
		sqlDB, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if cfg.AutoMigrate {
			if _, err := db.MigrateSQLite(ctx, sqlDB); err != nil {
				_ = sqlDB.Close()
				return nil, nil, err
			}
		}
		return repository.NewSQLiteTaskRepository(sqlDB), func() { _ = sqlDB.Close() }, nil

	case config.BackendRedis:
		if rdb == nil {
			return nil, nil, fmt.Errorf("redis backend selected but no redis client")
		}
		return repository.NewRedisTaskRepository(rdb), func() {}, nil

	case config.BackendMemory:
		return repository.NewMemoryTaskRepository(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
