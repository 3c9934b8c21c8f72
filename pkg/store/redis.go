package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Redis is a Store holding one collection in a Redis hash. Ids come from an
// INCR counter next to the hash.
type Redis[T any] struct {
	client redis.UniversalClient
	key    string
}

// NewRedis creates a Redis-backed store for the collection at key.
func NewRedis[T any](client redis.UniversalClient, key string) *Redis[T] {
	return &Redis[T]{client: client, key: key}
}

func (r *Redis[T]) seqKey() string { return r.key + ":seq" }

func (r *Redis[T]) decode(data string) (T, error) {
	var v T
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrUnmarshal, err)
	}
	return v, nil
}

func (r *Redis[T]) encode(v T) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMarshal, err)
	}
	return data, nil
}

// List implements Store
func (r *Redis[T]) List(ctx context.Context) ([]Entry[T], error) {
	all, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]Entry[T], 0, len(all))
	for id, data := range all {
		v, err := r.decode(data)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry[T]{ID: id, Value: v})
	}
	sortEntries(entries)
	return entries, nil
}

// Get implements Store
func (r *Redis[T]) Get(ctx context.Context, id string) (T, error) {
	data, err := r.client.HGet(ctx, r.key, id).Result()
	if err != nil {
		var zero T
		if errors.Is(err, redis.Nil) {
			return zero, ErrNotFound
		}
		return zero, err
	}
	return r.decode(data)
}

// Create implements Store
func (r *Redis[T]) Create(ctx context.Context, v T) (string, error) {
	data, err := r.encode(v)
	if err != nil {
		return "", err
	}
	seq, err := r.client.Incr(ctx, r.seqKey()).Result()
	if err != nil {
		return "", err
	}
	id := strconv.FormatInt(seq, 10)
	if err := r.client.HSet(ctx, r.key, id, data).Err(); err != nil {
		return "", err
	}
	return id, nil
}

// updateScript replaces a hash field only if it exists, so an Update racing
// a Delete cannot bring the record back.
var updateScript = redis.NewScript(`
if redis.call("HEXISTS", KEYS[1], ARGV[1]) == 0 then
	return 0
end
redis.call("HSET", KEYS[1], ARGV[1], ARGV[2])
return 1
`)

// Update implements Store
func (r *Redis[T]) Update(ctx context.Context, id string, v T) error {
	data, err := r.encode(v)
	if err != nil {
		return err
	}
	updated, err := updateScript.Run(ctx, r.client, []string{r.key}, id, data).Int()
	if err != nil {
		return err
	}
	if updated == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete implements Store
func (r *Redis[T]) Delete(ctx context.Context, id string) error {
	n, err := r.client.HDel(ctx, r.key, id).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
