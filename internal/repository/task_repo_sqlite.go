package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"tasks_api/internal/domain"
)

// SQLiteTaskRepository stores tasks in a SQLite database opened through
// the modernc.org/sqlite driver. Timestamps are kept as RFC 3339 text.
type SQLiteTaskRepository struct {
	db *sql.DB
}

func NewSQLiteTaskRepository(db *sql.DB) *SQLiteTaskRepository {
	return &SQLiteTaskRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLiteTask(s scanner) (*domain.Task, error) {
	var (
		t           domain.Task
		createdAt   string
		completedAt sql.NullString
	)
	if err := s.Scan(&t.Owner, &t.ID, &t.Title, &createdAt, &completedAt); err != nil {
		return nil, err
	}

	var err error
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if completedAt.Valid {
		c, err := parseTime(completedAt.String)
		if err != nil {
			return nil, err
		}
		t.CompletedAt = &c
	}
	return &t, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func (r *SQLiteTaskRepository) QueryByOwner(ctx context.Context, owner string) ([]*domain.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT owner, id, title, created_at, completed_at FROM tasks WHERE owner = ?`,
		owner,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.Task
	for rows.Next() {
		t, err := scanSQLiteTask(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *SQLiteTaskRepository) Put(ctx context.Context, t *domain.Task) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (owner, id, title, created_at, completed_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (owner, id) DO UPDATE
		 SET title = excluded.title,
		     created_at = excluded.created_at,
		     completed_at = excluded.completed_at`,
		t.Owner, t.ID, t.Title, formatTime(t.CreatedAt), formatTimePtr(t.CompletedAt),
	)
	return err
}

func (r *SQLiteTaskRepository) Get(ctx context.Context, owner, id string) (*domain.Task, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT owner, id, title, created_at, completed_at FROM tasks WHERE owner = ? AND id = ?`,
		owner, id,
	)
	t, err := scanSQLiteTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

func (r *SQLiteTaskRepository) SetCompletedAt(ctx context.Context, owner, id string, completedAt *time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET completed_at = ? WHERE owner = ? AND id = ?`,
		formatTimePtr(completedAt), owner, id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteTaskRepository) Delete(ctx context.Context, owner, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE owner = ? AND id = ?`, owner, id)
	return err
}

func (r *SQLiteTaskRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
