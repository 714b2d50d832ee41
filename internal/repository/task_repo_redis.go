package repository

import (
	"context"
	"net/url"
	"time"

	"tasks_api/internal/domain"

	redis "github.com/redis/go-redis/v9"
)

// RedisTaskRepository keeps each task in its own hash and tracks the ids of
// an owner in a set:
//
//	task:{owner}:id  -> hash {owner, id, title, createdAt, completedAt}
//	tasks:{owner}    -> set of ids
//
// The braces put all keys of one owner into the same cluster slot.
type RedisTaskRepository struct {
	client *redis.Client
}

func NewRedisTaskRepository(client *redis.Client) *RedisTaskRepository {
	return &RedisTaskRepository{client: client}
}

// only touches hashes that already exist
var setCompletedAtScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
if ARGV[1] == '' then
	redis.call('HDEL', KEYS[1], 'completedAt')
else
	redis.call('HSET', KEYS[1], 'completedAt', ARGV[1])
end
return 1
`)

func taskKey(owner, id string) string {
	return "task:{" + url.QueryEscape(owner) + "}:" + url.QueryEscape(id)
}

func ownerIndexKey(owner string) string {
	return "tasks:{" + url.QueryEscape(owner) + "}"
}

func taskFromHash(m map[string]string) (*domain.Task, error) {
	t := &domain.Task{
		Owner: m["owner"],
		ID:    m["id"],
		Title: m["title"],
	}
	var err error
	if t.CreatedAt, err = parseTime(m["createdAt"]); err != nil {
		return nil, err
	}
	if v, ok := m["completedAt"]; ok && v != "" {
		c, err := parseTime(v)
		if err != nil {
			return nil, err
		}
		t.CompletedAt = &c
	}
	return t, nil
}

func (r *RedisTaskRepository) QueryByOwner(ctx context.Context, owner string) ([]*domain.Task, error) {
	ids, err := r.client.SMembers(ctx, ownerIndexKey(owner)).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, taskKey(owner, id))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := make([]*domain.Task, 0, len(ids))
	for _, cmd := range cmds {
		m, err := cmd.Result()
		if err != nil {
			return nil, err
		}
		// index entry without a hash: deleted concurrently
		if len(m) == 0 {
			continue
		}
		t, err := taskFromHash(m)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, nil
}

func (r *RedisTaskRepository) Put(ctx context.Context, t *domain.Task) error {
	key := taskKey(t.Owner, t.ID)
	fields := map[string]any{
		"owner":     t.Owner,
		"id":        t.ID,
		"title":     t.Title,
		"createdAt": formatTime(t.CreatedAt),
	}
	if t.CompletedAt != nil {
		fields["completedAt"] = formatTime(*t.CompletedAt)
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, fields)
		pipe.SAdd(ctx, ownerIndexKey(t.Owner), t.ID)
		return nil
	})
	return err
}

func (r *RedisTaskRepository) Get(ctx context.Context, owner, id string) (*domain.Task, error) {
	m, err := r.client.HGetAll(ctx, taskKey(owner, id)).Result()
	if err != nil {
		return nil, err
	}
	if len(m) == 0 {
		return nil, ErrNotFound
	}
	return taskFromHash(m)
}

func (r *RedisTaskRepository) SetCompletedAt(ctx context.Context, owner, id string, completedAt *time.Time) error {
	value := ""
	if completedAt != nil {
		value = formatTime(*completedAt)
	}
	n, err := setCompletedAtScript.Run(ctx, r.client, []string{taskKey(owner, id)}, value).Int()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RedisTaskRepository) Delete(ctx context.Context, owner, id string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, taskKey(owner, id))
		pipe.SRem(ctx, ownerIndexKey(owner), id)
		return nil
	})
	return err
}

func (r *RedisTaskRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
