package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tasks_api/internal/domain"
	"tasks_api/internal/logger"
	"tasks_api/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	// ErrConsistency means the store acknowledged an update but the record
	// could not be read back afterwards.
	ErrConsistency = errors.New("task missing after update")
)

// Notifier receives task events after successful mutations.
type Notifier interface {
	Publish(owner string, ev domain.TaskEvent)
}

// TaskService handles the task lifecycle for a single owner per call.
type TaskService struct {
	store    repository.TaskStore
	notifier Notifier
	now      func() time.Time
	newID    func() string
}

type TaskServiceOption func(*TaskService)

func WithClock(now func() time.Time) TaskServiceOption {
	return func(s *TaskService) { s.now = now }
}

func WithIDGenerator(newID func() string) TaskServiceOption {
	return func(s *TaskService) { s.newID = newID }
}

func WithNotifier(n Notifier) TaskServiceOption {
	return func(s *TaskService) { s.notifier = n }
}

func NewTaskService(store repository.TaskStore, opts ...TaskServiceOption) *TaskService {
	s := &TaskService{
		store: store,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// timestamp is UTC with microsecond precision, the finest every store keeps.
func (s *TaskService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *TaskService) publish(owner string, ev domain.TaskEvent) {
	if s.notifier != nil {
		s.notifier.Publish(owner, ev)
	}
}

// List returns the owner's tasks in store order. Never nil.
func (s *TaskService) List(ctx context.Context, owner string) (out []domain.PublicTask, err error) {
	defer func() { observe("list", err) }()

	tasks, err := s.store.QueryByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	out = make([]domain.PublicTask, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Public())
	}
	return out, nil
}

func (s *TaskService) Create(ctx context.Context, owner, title string) (_ domain.PublicTask, err error) {
	defer func() { observe("create", err) }()

	t := &domain.Task{
		Owner:     owner,
		ID:        s.newID(),
		Title:     title,
		CreatedAt: s.timestamp(),
	}
	if err := s.store.Put(ctx, t); err != nil {
		return domain.PublicTask{}, fmt.Errorf("create task: %w", err)
	}

	pub := t.Public()
	s.publish(owner, domain.TaskEvent{Type: domain.TaskEventCreated, TaskID: t.ID, Task: &pub})
	return pub, nil
}

// Delete is idempotent: deleting an unknown id succeeds.
func (s *TaskService) Delete(ctx context.Context, owner, id string) (err error) {
	defer func() { observe("delete", err) }()

	if err := s.store.Delete(ctx, owner, id); err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}

	s.publish(owner, domain.TaskEvent{Type: domain.TaskEventDeleted, TaskID: id})
	return nil
}

// Toggle flips the task between incomplete (no completedAt) and complete
// (completedAt = now) and returns the record as read back from the store.
//
// The get/update/get sequence is not atomic. Concurrent toggles of the same
// task may interleave; the last update wins.
func (s *TaskService) Toggle(ctx context.Context, owner, id string) (_ domain.PublicTask, err error) {
	defer func() { observe("toggle", err) }()

	t, err := s.store.Get(ctx, owner, id)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.PublicTask{}, ErrTaskNotFound
	}
	if err != nil {
		return domain.PublicTask{}, fmt.Errorf("get task %s: %w", id, err)
	}

	var next *time.Time
	if !t.Completed() {
		now := s.timestamp()
		if now.Before(t.CreatedAt) {
			now = t.CreatedAt
		}
		next = &now
	}

	err = s.store.SetCompletedAt(ctx, owner, id, next)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.PublicTask{}, ErrTaskNotFound
	}
	if err != nil {
		return domain.PublicTask{}, fmt.Errorf("update task %s: %w", id, err)
	}

	updated, err := s.store.Get(ctx, owner, id)
	if errors.Is(err, repository.ErrNotFound) {
		logger.FromContext(ctx).Error("task missing after successful update", "task_id", id)
		return domain.PublicTask{}, ErrConsistency
	}
	if err != nil {
		return domain.PublicTask{}, fmt.Errorf("reload task %s: %w", id, err)
	}

	pub := updated.Public()
	s.publish(owner, domain.TaskEvent{Type: domain.TaskEventToggled, TaskID: id, Task: &pub})
	return pub, nil
}
