// Package redis caches resolved links so hot codes skip the registry on
// the redirect path. The cache is best effort: misses and errors both
// fall through to the authoritative store.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/linklite/linklite/internal/domain"
	"github.com/redis/go-redis/v9"
)

type LinkCache struct {
	client *redis.Client
}

func NewLinkCache(client *redis.Client) *LinkCache {
	return &LinkCache{client: client}
}

func (c *LinkCache) Get(ctx context.Context, code string) (*domain.Link, error) {
	data, err := c.client.Get(ctx, cacheKey(code)).Result()
	if err != nil {
		return nil, err
	}

	var link domain.Link
	if err := json.Unmarshal([]byte(data), &link); err != nil {
		return nil, err
	}

	return &link, nil
}

func (c *LinkCache) Set(ctx context.Context, link *domain.Link, ttl time.Duration) error {
	// Histories can be large and the redirect path never needs them.
	slim := link.Clone()
	slim.ClickHistory = nil

	data, err := json.Marshal(slim)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, cacheKey(link.Code), data, ttl).Err()
}

// Invalidate drops the cached entry. Called on activation changes so a
// deactivated link can't keep redirecting from cache.
func (c *LinkCache) Invalidate(ctx context.Context, code string) error {
	return c.client.Del(ctx, cacheKey(code)).Err()
}

func cacheKey(code string) string {
	return fmt.Sprintf("link:%s", code)
}
