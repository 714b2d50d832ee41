package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"tasks_api/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

type Migration struct {
	Name string
	SQL  string
}

// Migrations returns the embedded migrations of a dialect ordered by name.
func Migrations(dialect string) ([]Migration, error) {
	dir := path.Join("migrations", dialect)
	entries, err := fs.ReadDir(migrationsFS, dir)
	if err != nil {
		return nil, fmt.Errorf("unknown migration dialect %q: %w", dialect, err)
	}

	var res []Migration
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		b, err := migrationsFS.ReadFile(path.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		res = append(res, Migration{Name: e.Name(), SQL: string(b)})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res, nil
}

const createMigrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (name TEXT PRIMARY KEY)`

// MigratePostgres applies pending migrations and returns the names applied.
func MigratePostgres(ctx context.Context, pool *pgxpool.Pool) ([]string, error) {
	migrations, err := Migrations(DialectPostgres)
	if err != nil {
		return nil, err
	}
	if _, err := pool.Exec(ctx, createMigrationsTable); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	var applied []string
	for _, m := range migrations {
		tag, err := pool.Exec(ctx, `INSERT INTO schema_migrations (name) VALUES ($1) ON CONFLICT DO NOTHING`, m.Name)
		if err != nil {
			return applied, fmt.Errorf("record %s: %w", m.Name, err)
		}
		if tag.RowsAffected() == 0 {
			continue
		}
		if _, err := pool.Exec(ctx, m.SQL); err != nil {
			_, _ = pool.Exec(ctx, `DELETE FROM schema_migrations WHERE name = $1`, m.Name)
			return applied, fmt.Errorf("apply %s: %w", m.Name, err)
		}
		logger.Info("migration applied", "name", m.Name, "dialect", DialectPostgres)
		applied = append(applied, m.Name)
	}
	return applied, nil
}

// MigrateSQLite applies pending migrations, each inside its own transaction.
func MigrateSQLite(ctx context.Context, db *sql.DB) ([]string, error) {
	migrations, err := Migrations(DialectSQLite)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, createMigrationsTable); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	var applied []string
	for _, m := range migrations {
		ok, err := applySQLite(ctx, db, m)
		if err != nil {
			return applied, fmt.Errorf("apply %s: %w", m.Name, err)
		}
		if ok {
			logger.Info("migration applied", "name", m.Name, "dialect", DialectSQLite)
			applied = append(applied, m.Name)
		}
	}
	return applied, nil
}

func applySQLite(ctx context.Context, db *sql.DB, m Migration) (bool, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO schema_migrations (name) VALUES (?)`, m.Name)
	if err != nil {
		return false, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, nil
	}
	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return false, err
	}
	return true, tx.Commit()
}
