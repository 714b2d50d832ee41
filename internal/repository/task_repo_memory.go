package repository

import (
	"context"
	"sync"
	"time"

	"tasks_api/internal/domain"
)

type taskKeyPair struct {
	owner string
	id    string
}

// MemoryTaskRepository is an in-process TaskStore. Records are copied on the
// way in and out so callers never share memory with the store.
type MemoryTaskRepository struct {
	mu    sync.RWMutex
	tasks map[taskKeyPair]domain.Task
}

func NewMemoryTaskRepository() *MemoryTaskRepository {
	return &MemoryTaskRepository{tasks: make(map[taskKeyPair]domain.Task)}
}

func clone(t domain.Task) *domain.Task {
	if t.CompletedAt != nil {
		c := *t.CompletedAt
		t.CompletedAt = &c
	}
	return &t
}

func (r *MemoryTaskRepository) QueryByOwner(_ context.Context, owner string) ([]*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var res []*domain.Task
	for k, t := range r.tasks {
		if k.owner == owner {
			res = append(res, clone(t))
		}
	}
	return res, nil
}

func (r *MemoryTaskRepository) Put(_ context.Context, t *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tasks[taskKeyPair{t.Owner, t.ID}] = *clone(*t)
	return nil
}

func (r *MemoryTaskRepository) Get(_ context.Context, owner, id string) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[taskKeyPair{owner, id}]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(t), nil
}

func (r *MemoryTaskRepository) SetCompletedAt(_ context.Context, owner, id string, completedAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := taskKeyPair{owner, id}
	t, ok := r.tasks[k]
	if !ok {
		return ErrNotFound
	}
	t.CompletedAt = nil
	if completedAt != nil {
		c := *completedAt
		t.CompletedAt = &c
	}
	r.tasks[k] = t
	return nil
}

func (r *MemoryTaskRepository) Delete(_ context.Context, owner, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tasks, taskKeyPair{owner, id})
	return nil
}

func (r *MemoryTaskRepository) Ping(context.Context) error {
	return nil
}
