package cache

import (
	"context"
	"fmt"
	"time"
)

// ConsumeRefreshToken marks a refresh token ID as spent.
// It returns false if the ID was already consumed, which means the token
// is being replayed. The mark lives as long as the token could be valid.
func (c *Cache) ConsumeRefreshToken(ctx context.Context, tokenID string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = time.Minute
	}

	ok, err := c.client.SetNX(ctx, c.key("refresh", tokenID), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx failed: %w", err)
	}
	return ok, nil
}
