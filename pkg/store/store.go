// Package store keeps the sample application's records, in memory or in
// Redis. Records live in named collections and get sequential string ids.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/dframe-go/dframe/config"
)

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned when no record has the requested id.
	ErrNotFound = errors.New("store: record not found")

	// ErrMarshal is returned when a record cannot be serialized.
	ErrMarshal = errors.New("store: failed to marshal record")

	// ErrUnmarshal is returned when a stored record cannot be decoded.
	ErrUnmarshal = errors.New("store: failed to unmarshal record")
)

// Entry is a stored record with its id.
type Entry[T any] struct {
	ID    string
	Value T
}

// Store is a collection of records of type T.
type Store[T any] interface {
	// List returns every record, ordered by id.
	List(ctx context.Context) ([]Entry[T], error)
	// Get returns ErrNotFound for unknown ids.
	Get(ctx context.Context, id string) (T, error)
	// Create stores v under a new id and returns it.
	Create(ctx context.Context, v T) (string, error)
	// Update replaces an existing record; ErrNotFound if there is none.
	Update(ctx context.Context, id string, v T) error
	// Delete removes a record; ErrNotFound if there is none.
	Delete(ctx context.Context, id string) error
}

// Connect opens a Redis client from the store config and pings it.
func Connect(ctx context.Context, cfg config.RedisConfig) (redis.UniversalClient, error) {
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    cfg.Addrs,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("store: connect to redis %v: %w", cfg.Addrs, err)
	}
	return client, nil
}

// Open returns the collection named collection on the configured driver.
// The returned close func releases the Redis client, if any.
func Open[T any](ctx context.Context, cfg config.StoreConfig, collection string) (Store[T], func() error, error) {
	switch cfg.Driver {
	case "", config.StoreMemory:
		return NewMemory[T](), func() error { return nil }, nil
	case config.StoreRedis:
		client, err := Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return NewRedis[T](client, cfg.Redis.KeyPrefix+collection), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

// sortEntries orders entries numerically by id, falling back to string order
func sortEntries[T any](entries []Entry[T]) {
	sort.Slice(entries, func(i, j int) bool {
		a, errA := strconv.ParseUint(entries[i].ID, 10, 64)
		b, errB := strconv.ParseUint(entries[j].ID, 10, 64)
		if errA == nil && errB == nil {
			return a < b
		}
		return entries[i].ID < entries[j].ID
	})
}
