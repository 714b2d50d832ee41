package repository

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"tasks_api/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ownerSeq atomic.Int64

// uniqueOwner keeps runs against shared external stores apart.
func uniqueOwner(name string) string {
	return fmt.Sprintf("%s-%d-%d@example.com", name, time.Now().UnixNano(), ownerSeq.Add(1))
}

func ts(sec int) time.Time {
	return time.Date(2025, 1, 2, 3, 4, 5, 123456000, time.UTC).Add(time.Duration(sec) * time.Second)
}

func newTask(owner, id, title string) *domain.Task {
	return &domain.Task{Owner: owner, ID: id, Title: title, CreatedAt: ts(0)}
}

// runTaskStoreContract checks the behaviour every TaskStore must share.
func runTaskStoreContract(t *testing.T, store TaskStore) {
	ctx := context.Background()

	t.Run("ping", func(t *testing.T) {
		require.NoError(t, store.Ping(ctx))
	})

	t.Run("put then get round-trips every field", func(t *testing.T) {
		owner := uniqueOwner("roundtrip")
		done := ts(10)
		in := &domain.Task{Owner: owner, ID: "t1", Title: "Buy milk", CreatedAt: ts(0), CompletedAt: &done}
		require.NoError(t, store.Put(ctx, in))

		got, err := store.Get(ctx, owner, "t1")
		require.NoError(t, err)
		assert.Equal(t, owner, got.Owner)
		assert.Equal(t, "t1", got.ID)
		assert.Equal(t, "Buy milk", got.Title)
		assert.True(t, ts(0).Equal(got.CreatedAt), "created %v", got.CreatedAt)
		assert.Equal(t, time.UTC, got.CreatedAt.Location())
		require.NotNil(t, got.CompletedAt)
		assert.True(t, done.Equal(*got.CompletedAt), "completed %v", got.CompletedAt)
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := store.Get(ctx, uniqueOwner("missing"), "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("key is owner and id together", func(t *testing.T) {
		a, b := uniqueOwner("a"), uniqueOwner("b")
		require.NoError(t, store.Put(ctx, newTask(a, "same", "from a")))
		require.NoError(t, store.Put(ctx, newTask(b, "same", "from b")))

		gotA, err := store.Get(ctx, a, "same")
		require.NoError(t, err)
		assert.Equal(t, "from a", gotA.Title)

		gotB, err := store.Get(ctx, b, "same")
		require.NoError(t, err)
		assert.Equal(t, "from b", gotB.Title)
	})

	t.Run("put replaces the whole record", func(t *testing.T) {
		owner := uniqueOwner("upsert")
		done := ts(5)
		first := newTask(owner, "t1", "first")
		first.CompletedAt = &done
		require.NoError(t, store.Put(ctx, first))
		require.NoError(t, store.Put(ctx, newTask(owner, "t1", "second")))

		got, err := store.Get(ctx, owner, "t1")
		require.NoError(t, err)
		assert.Equal(t, "second", got.Title)
		assert.Nil(t, got.CompletedAt)

		all, err := store.QueryByOwner(ctx, owner)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("query by owner is scoped", func(t *testing.T) {
		a, b := uniqueOwner("qa"), uniqueOwner("qb")
		for i := 0; i < 3; i++ {
			require.NoError(t, store.Put(ctx, newTask(a, fmt.Sprintf("a%d", i), "x")))
		}
		require.NoError(t, store.Put(ctx, newTask(b, "b0", "y")))

		got, err := store.QueryByOwner(ctx, a)
		require.NoError(t, err)
		ids := make([]string, 0, len(got))
		for _, task := range got {
			assert.Equal(t, a, task.Owner)
			ids = append(ids, task.ID)
		}
		assert.ElementsMatch(t, []string{"a0", "a1", "a2"}, ids)

		none, err := store.QueryByOwner(ctx, uniqueOwner("nobody"))
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("set completed at sets and clears", func(t *testing.T) {
		owner := uniqueOwner("complete")
		require.NoError(t, store.Put(ctx, newTask(owner, "t1", "flip")))

		done := ts(30)
		require.NoError(t, store.SetCompletedAt(ctx, owner, "t1", &done))
		got, err := store.Get(ctx, owner, "t1")
		require.NoError(t, err)
		require.NotNil(t, got.CompletedAt)
		assert.True(t, done.Equal(*got.CompletedAt))
		assert.Equal(t, "flip", got.Title)

		require.NoError(t, store.SetCompletedAt(ctx, owner, "t1", nil))
		got, err = store.Get(ctx, owner, "t1")
		require.NoError(t, err)
		assert.Nil(t, got.CompletedAt)
	})

	t.Run("set completed at on missing record", func(t *testing.T) {
		owner := uniqueOwner("ghost")
		done := ts(1)
		err := store.SetCompletedAt(ctx, owner, "nope", &done)
		assert.ErrorIs(t, err, ErrNotFound)

		// and it must not have created anything
		_, err = store.Get(ctx, owner, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete is unconditional", func(t *testing.T) {
		owner := uniqueOwner("delete")
		require.NoError(t, store.Put(ctx, newTask(owner, "t1", "bye")))
		require.NoError(t, store.Put(ctx, newTask(owner, "t2", "stay")))

		require.NoError(t, store.Delete(ctx, owner, "t1"))
		require.NoError(t, store.Delete(ctx, owner, "t1"))
		require.NoError(t, store.Delete(ctx, owner, "never"))

		_, err := store.Get(ctx, owner, "t1")
		assert.ErrorIs(t, err, ErrNotFound)

		left, err := store.QueryByOwner(ctx, owner)
		require.NoError(t, err)
		require.Len(t, left, 1)
		assert.Equal(t, "t2", left[0].ID)
	})

	t.Run("returned records are copies", func(t *testing.T) {
		owner := uniqueOwner("copy")
		in := newTask(owner, "t1", "original")
		require.NoError(t, store.Put(ctx, in))
		in.Title = "mutated after put"

		got, err := store.Get(ctx, owner, "t1")
		require.NoError(t, err)
		assert.Equal(t, "original", got.Title)
		got.Title = "mutated after get"

		again, err := store.Get(ctx, owner, "t1")
		require.NoError(t, err)
		assert.Equal(t, "original", again.Title)
	})

	t.Run("odd characters in keys", func(t *testing.T) {
		owner := uniqueOwner("we:ird}{ o'wner")
		id := "id:with/sep}arators"
		require.NoError(t, store.Put(ctx, newTask(owner, id, "odd")))

		got, err := store.Get(ctx, owner, id)
		require.NoError(t, err)
		assert.Equal(t, owner, got.Owner)
		assert.Equal(t, id, got.ID)

		_, err = store.Get(ctx, owner, "id")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
