package cache

import (
	"context"
	"errors"
	"time"
)

// LayeredCache reads through a fast front cache (usually an [LRUCache])
// to a slower back cache (usually a [FileCache]). Writes go to both.
type LayeredCache struct {
	front Cache
	back  Cache
}

// Layered stacks front over back. Back hits are copied into front without
// a TTL, so front should be bounded.
func Layered(front, back Cache) *LayeredCache {
	return &LayeredCache{front: front, back: back}
}

func (c *LayeredCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if data, ok, err := c.front.Get(ctx, key); err == nil && ok {
		return data, true, nil
	}
	data, ok, err := c.back.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	c.front.Set(ctx, key, data, 0)
	return data, true, nil
}

func (c *LayeredCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return errors.Join(c.front.Set(ctx, key, data, ttl), c.back.Set(ctx, key, data, ttl))
}

func (c *LayeredCache) Delete(ctx context.Context, key string) error {
	return errors.Join(c.front.Delete(ctx, key), c.back.Delete(ctx, key))
}

func (c *LayeredCache) Close() error {
	return errors.Join(c.front.Close(), c.back.Close())
}

var _ Cache = (*LayeredCache)(nil)
