package repository

import (
	"context"
	"errors"
	"time"

	"tasks_api/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TaskRepository is the Postgres-backed TaskStore.
type TaskRepository struct {
	db *pgxpool.Pool
}

func NewTaskRepository(db *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) QueryByOwner(ctx context.Context, owner string) ([]*domain.Task, error) {
	rows, err := r.db.Query(ctx,
		`SELECT owner, id, title, created_at, completed_at
		 FROM tasks
		 WHERE owner = $1`,
		owner,
	)
	if err != nil {
		return nil, err
	}

	tasks, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[domain.Task])
	if err != nil {
		return nil, err
	}
	for _, t := range tasks {
		normalize(t)
	}
	return tasks, nil
}

func (r *TaskRepository) Put(ctx context.Context, t *domain.Task) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO tasks (owner, id, title, created_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (owner, id) DO UPDATE
		 SET title = EXCLUDED.title,
		     created_at = EXCLUDED.created_at,
		     completed_at = EXCLUDED.completed_at`,
		t.Owner, t.ID, t.Title, t.CreatedAt, t.CompletedAt,
	)
	return err
}

func (r *TaskRepository) Get(ctx context.Context, owner, id string) (*domain.Task, error) {
	var t domain.Task
	err := r.db.QueryRow(ctx,
		`SELECT owner, id, title, created_at, completed_at
		 FROM tasks
		 WHERE owner = $1 AND id = $2`,
		owner, id,
	).Scan(&t.Owner, &t.ID, &t.Title, &t.CreatedAt, &t.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return normalize(&t), nil
}

func (r *TaskRepository) SetCompletedAt(ctx context.Context, owner, id string, completedAt *time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE tasks SET completed_at = $1 WHERE owner = $2 AND id = $3`,
		completedAt, owner, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, owner, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE owner = $1 AND id = $2`, owner, id)
	return err
}

func (r *TaskRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
