package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tasks_api/internal/domain"
	"tasks_api/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type recordingNotifier struct {
	mu     sync.Mutex
	events map[string][]domain.TaskEvent
}

func (n *recordingNotifier) Publish(owner string, ev domain.TaskEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.events == nil {
		n.events = make(map[string][]domain.TaskEvent)
	}
	n.events[owner] = append(n.events[owner], ev)
}

func setupTaskService(t *testing.T, opts ...TaskServiceOption) (*TaskService, *repository.MemoryTaskRepository) {
	t.Helper()
	store := repository.NewMemoryTaskRepository()
	clock := &stepClock{now: fixedNow}
	opts = append([]TaskServiceOption{WithClock(clock.Now)}, opts...)
	return NewTaskService(store, opts...), store
}

func TestTaskService_Scenario(t *testing.T) {
	svc, _ := setupTaskService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "a@x.com", "Buy milk")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Buy milk", created.Title)
	assert.Nil(t, created.CompletedAt)
	assert.Equal(t, time.UTC, created.CreatedAt.Location())

	others, err := svc.List(ctx, "b@x.com")
	require.NoError(t, err)
	assert.NotNil(t, others)
	assert.Empty(t, others)

	toggled, err := svc.Toggle(ctx, "a@x.com", created.ID)
	require.NoError(t, err)
	require.NotNil(t, toggled.CompletedAt)
	assert.False(t, toggled.CompletedAt.Before(created.CreatedAt))
	assert.Equal(t, created.CreatedAt, toggled.CreatedAt)

	again, err := svc.Toggle(ctx, "a@x.com", created.ID)
	require.NoError(t, err)
	assert.Nil(t, again.CompletedAt)

	require.NoError(t, svc.Delete(ctx, "a@x.com", created.ID))

	mine, err := svc.List(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestTaskService_CreateThenListIsOwnerScoped(t *testing.T) {
	svc, store := setupTaskService(t)
	ctx := context.Background()

	a1, err := svc.Create(ctx, "a@x.com", "one")
	require.NoError(t, err)
	a2, err := svc.Create(ctx, "a@x.com", "two")
	require.NoError(t, err)
	b1, err := svc.Create(ctx, "b@x.com", "three")
	require.NoError(t, err)

	listA, err := svc.List(ctx, "a@x.com")
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.PublicTask{a1, a2}, listA)

	listB, err := svc.List(ctx, "b@x.com")
	require.NoError(t, err)
	assert.Equal(t, []domain.PublicTask{b1}, listB)

	stored, err := store.Get(ctx, "a@x.com", a1.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", stored.Owner)

	_, err = store.Get(ctx, "b@x.com", a1.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTaskService_CreateAssignsUniqueIDs(t *testing.T) {
	svc, _ := setupTaskService(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		task, err := svc.Create(ctx, "a@x.com", "t")
		require.NoError(t, err)
		assert.False(t, seen[task.ID], "duplicate id %s", task.ID)
		seen[task.ID] = true
	}
}

func TestTaskService_CreateKeepsTitleAsGiven(t *testing.T) {
	svc, _ := setupTaskService(t)

	for _, title := range []string{"", "  padded  ", "ünïcødé ✓"} {
		task, err := svc.Create(context.Background(), "a@x.com", title)
		require.NoError(t, err)
		assert.Equal(t, title, task.Title)
	}
}

func TestTaskService_ToggleIsInvolution(t *testing.T) {
	svc, _ := setupTaskService(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, "a@x.com", "flip")
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		got, err := svc.Toggle(ctx, "a@x.com", task.ID)
		require.NoError(t, err)
		if i%2 == 0 {
			require.NotNil(t, got.CompletedAt, "toggle %d", i)
			assert.True(t, got.CompletedAt.After(task.CreatedAt))
		} else {
			assert.Nil(t, got.CompletedAt, "toggle %d", i)
		}
	}
}

func TestTaskService_ToggleNeverCompletesBeforeCreation(t *testing.T) {
	// clock that runs backwards
	now := fixedNow
	svc, _ := setupTaskService(t, WithClock(func() time.Time {
		now = now.Add(-time.Hour)
		return now
	}))
	ctx := context.Background()

	task, err := svc.Create(ctx, "a@x.com", "time travel")
	require.NoError(t, err)

	got, err := svc.Toggle(ctx, "a@x.com", task.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, task.CreatedAt, *got.CompletedAt)
}

func TestTaskService_ToggleUnknownTask(t *testing.T) {
	svc, _ := setupTaskService(t)
	ctx := context.Background()

	_, err := svc.Toggle(ctx, "a@x.com", "missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)

	// another owner's task is just as unknown
	task, err := svc.Create(ctx, "b@x.com", "theirs")
	require.NoError(t, err)
	_, err = svc.Toggle(ctx, "a@x.com", task.ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestTaskService_DeleteIsIdempotent(t *testing.T) {
	svc, _ := setupTaskService(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, "a@x.com", "bye")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "a@x.com", task.ID))
	require.NoError(t, svc.Delete(ctx, "a@x.com", task.ID))
	require.NoError(t, svc.Delete(ctx, "a@x.com", "never-existed"))

	_, err = svc.Toggle(ctx, "a@x.com", task.ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestTaskService_DeleteOnlyAffectsOwner(t *testing.T) {
	svc, _ := setupTaskService(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, "a@x.com", "keep me")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "b@x.com", task.ID))

	list, err := svc.List(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

// vanishingStore loses the record right after a successful update.
type vanishingStore struct {
	*repository.MemoryTaskRepository
	updated bool
}

func (s *vanishingStore) SetCompletedAt(ctx context.Context, owner, id string, completedAt *time.Time) error {
	if err := s.MemoryTaskRepository.SetCompletedAt(ctx, owner, id, completedAt); err != nil {
		return err
	}
	s.updated = true
	return s.MemoryTaskRepository.Delete(ctx, owner, id)
}

func TestTaskService_ToggleReadBackMissIsConsistencyError(t *testing.T) {
	store := &vanishingStore{MemoryTaskRepository: repository.NewMemoryTaskRepository()}
	svc := NewTaskService(store)
	ctx := context.Background()

	task, err := svc.Create(ctx, "a@x.com", "ghost")
	require.NoError(t, err)

	_, err = svc.Toggle(ctx, "a@x.com", task.ID)
	assert.ErrorIs(t, err, ErrConsistency)
	assert.True(t, store.updated)
}

// racingStore drops the record between the initial read and the update.
type racingStore struct {
	*repository.MemoryTaskRepository
}

func (s *racingStore) SetCompletedAt(ctx context.Context, owner, id string, completedAt *time.Time) error {
	_ = s.MemoryTaskRepository.Delete(ctx, owner, id)
	return s.MemoryTaskRepository.SetCompletedAt(ctx, owner, id, completedAt)
}

func TestTaskService_ToggleUpdateMissIsNotFound(t *testing.T) {
	svc := NewTaskService(&racingStore{repository.NewMemoryTaskRepository()})
	ctx := context.Background()

	task, err := svc.Create(ctx, "a@x.com", "racy")
	require.NoError(t, err)

	_, err = svc.Toggle(ctx, "a@x.com", task.ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

type failingStore struct {
	*repository.MemoryTaskRepository
	err error
}

func (s *failingStore) QueryByOwner(context.Context, string) ([]*domain.Task, error) {
	return nil, s.err
}

func (s *failingStore) Put(context.Context, *domain.Task) error {
	return s.err
}

func (s *failingStore) Get(context.Context, string, string) (*domain.Task, error) {
	return nil, s.err
}

func (s *failingStore) Delete(context.Context, string, string) error {
	return s.err
}

func TestTaskService_StoreErrorsPropagate(t *testing.T) {
	boom := errors.New("connection refused")
	svc := NewTaskService(&failingStore{MemoryTaskRepository: repository.NewMemoryTaskRepository(), err: boom})
	ctx := context.Background()

	_, err := svc.List(ctx, "a@x.com")
	assert.ErrorIs(t, err, boom)

	_, err = svc.Create(ctx, "a@x.com", "x")
	assert.ErrorIs(t, err, boom)

	err = svc.Delete(ctx, "a@x.com", "x")
	assert.ErrorIs(t, err, boom)

	_, err = svc.Toggle(ctx, "a@x.com", "x")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrTaskNotFound)
}

func TestTaskService_PublishesEventsToOwner(t *testing.T) {
	n := &recordingNotifier{}
	svc, _ := setupTaskService(t, WithNotifier(n))
	ctx := context.Background()

	task, err := svc.Create(ctx, "a@x.com", "notify")
	require.NoError(t, err)
	_, err = svc.Toggle(ctx, "a@x.com", task.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, "a@x.com", task.ID))

	// failures publish nothing
	_, err = svc.Toggle(ctx, "a@x.com", task.ID)
	require.Error(t, err)

	events := n.events["a@x.com"]
	require.Len(t, events, 3)
	assert.Equal(t, domain.TaskEventCreated, events[0].Type)
	assert.Equal(t, domain.TaskEventToggled, events[1].Type)
	require.NotNil(t, events[1].Task)
	assert.NotNil(t, events[1].Task.CompletedAt)
	assert.Equal(t, domain.TaskEventDeleted, events[2].Type)
	assert.Nil(t, events[2].Task)
	for _, ev := range events {
		assert.Equal(t, task.ID, ev.TaskID)
	}
	assert.Empty(t, n.events["b@x.com"])
}

func TestTaskService_ConcurrentTogglesDoNotFail(t *testing.T) {
	svc, _ := setupTaskService(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, "a@x.com", "contended")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Toggle(ctx, "a@x.com", task.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}
