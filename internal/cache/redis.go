package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores JSON values in Redis. It backs the embedding cache, so the
// batch helpers work on float32 vectors.
type Cache struct {
	client *redis.Client
	prefix string
}

func NewCache(client *redis.Client, prefix string) *Cache {
	return &Cache{client: client, prefix: prefix}
}

func (c *Cache) key(k string) string { return c.prefix + k }

// GetVectors looks up many vectors in one round trip. The result is aligned
// with keys; a miss or an undecodable entry leaves a nil slot.
func (c *Cache) GetVectors(ctx context.Context, keys []string) ([][]float32, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}

	vals, err := c.client.MGet(ctx, full...).Result()
	if err != nil {
		return nil, fmt.Errorf("cache mget: %w", err)
	}

	out := make([][]float32, len(keys))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var vec []float32
		if err := json.Unmarshal([]byte(s), &vec); err == nil {
			out[i] = vec
		}
	}
	return out, nil
}

// SetVectors writes vectors in a single pipeline.
func (c *Cache) SetVectors(ctx context.Context, keys []string, vecs [][]float32, ttl time.Duration) error {
	if len(keys) != len(vecs) {
		return fmt.Errorf("cache set vectors: %d keys for %d vectors", len(keys), len(vecs))
	}

	pipe := c.client.Pipeline()
	for i, k := range keys {
		data, err := json.Marshal(vecs[i])
		if err != nil {
			return fmt.Errorf("marshal vector %d: %w", i, err)
		}
		pipe.Set(ctx, c.key(k), data, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache pipeline: %w", err)
	}
	return nil
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
