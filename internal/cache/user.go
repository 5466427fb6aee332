package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/webagent/webagent/internal/model"
)

// UserProfileTTL is how long a cached profile is served before reloading.
const UserProfileTTL = 5 * time.Minute

// cachedProfile is the stored form of a profile. Secrets are never cached.
type cachedProfile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GetUserProfile retrieves a cached profile by user ID.
// Returns ErrCacheMiss if not found or the entry is corrupted.
func (c *Cache) GetUserProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	data, err := c.client.Get(ctx, c.key("user", userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	profile, err := decodeProfile(data)
	if err != nil {
		return nil, ErrCacheMiss
	}
	return profile, nil
}

// SetUserProfile caches a profile for UserProfileTTL.
func (c *Cache) SetUserProfile(ctx context.Context, profile *model.UserProfile) error {
	data, err := encodeProfile(profile)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key("user", profile.ID), data, UserProfileTTL).Err()
}

// DeleteUserProfile removes a cached profile.
// Called whenever the user row changes.
func (c *Cache) DeleteUserProfile(ctx context.Context, userID string) error {
	return c.client.Del(ctx, c.key("user", userID)).Err()
}

func encodeProfile(profile *model.UserProfile) ([]byte, error) {
	data, err := json.Marshal(cachedProfile{ID: profile.ID, Name: profile.Name})
	if err != nil {
		return nil, fmt.Errorf("marshal user profile: %w", err)
	}
	return data, nil
}

func decodeProfile(data []byte) (*model.UserProfile, error) {
	var cached cachedProfile
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}
	if cached.ID == "" {
		return nil, errors.New("cached profile without id")
	}
	return &model.UserProfile{ID: cached.ID, Name: cached.Name}, nil
}
