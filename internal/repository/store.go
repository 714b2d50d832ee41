package repository

import (
	"context"
	"errors"
	"time"

	"tasks_api/internal/domain"
)

var ErrNotFound = errors.New("task not found")

// TaskStore persists tasks under the composite key (owner, id).
// Every call is a single-item operation; none of them span items.
type TaskStore interface {
	// QueryByOwner returns all tasks of owner in no particular order.
	QueryByOwner(ctx context.Context, owner string) ([]*domain.Task, error)
	// Put inserts or fully replaces the record.
	Put(ctx context.Context, t *domain.Task) error
	// Get returns ErrNotFound when nothing is stored under (owner, id).
	Get(ctx context.Context, owner, id string) (*domain.Task, error)
	// SetCompletedAt updates only the completion timestamp; nil clears it.
	// Returns ErrNotFound when the record does not exist.
	SetCompletedAt(ctx context.Context, owner, id string, completedAt *time.Time) error
	// Delete removes the record. Missing records are not an error.
	Delete(ctx context.Context, owner, id string) error
	Ping(ctx context.Context) error
}

func normalize(t *domain.Task) *domain.Task {
	t.CreatedAt = t.CreatedAt.UTC()
	if t.CompletedAt != nil {
		c := t.CompletedAt.UTC()
		t.CompletedAt = &c
	}
	return t
}
