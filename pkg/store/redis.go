package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// scanBatch is the COUNT hint passed to SCAN.
const scanBatch = 100

// RedisStore keeps each project as a Redis string.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to the server at url (redis://host:port/db) and
// pings it, retrying while the server is unreachable.
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	err = RetryWithBackoff(ctx, func() error {
		return Retryable(client.Ping(ctx).Err())
	})
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Save(ctx context.Context, key string, data []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	return s.client.Set(ctx, storageKey(key), data, 0).Err()
}

func (s *RedisStore) Load(ctx context.Context, key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	data, err := s.client.Get(ctx, storageKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return data, err
}

func (s *RedisStore) List(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	iter := s.client.Scan(ctx, 0, KeyPrefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		k := iter.Val()
		data, err := s.client.Get(ctx, k).Bytes()
		if errors.Is(err, redis.Nil) {
			continue // deleted during the scan
		}
		if err != nil {
			return nil, err
		}
		key, _ := userKey(k)
		entries = append(entries, entryFor(key, data))
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sortEntries(entries)
	return entries, nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	return s.client.Del(ctx, storageKey(key)).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
