package db

import (
	"context"
	"database/sql"

	"tasks_api/internal/logger"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens (or creates) the SQLite database at path. ":memory:" gives
// a private in-memory database; the pool is pinned to one connection so every
// query sees the same database.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("database connected", "backend", "sqlite", "path", path)
	return db, nil
}
