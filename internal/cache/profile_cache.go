package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"order-desk-backend/internal/models"
)

const keyPrefix = "order-desk:profile:"

// ProfileCache stores resolved profiles in Redis so the session middleware
// does not read the profiles table on every request.
type ProfileCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewProfileCache(redisURL string, ttl time.Duration) (*ProfileCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewProfileCacheWithClient(client, ttl), nil
}

func NewProfileCacheWithClient(client *redis.Client, ttl time.Duration) *ProfileCache {
	return &ProfileCache{client: client, ttl: ttl}
}

func Key(id uuid.UUID) string {
	return keyPrefix + id.String()
}

// Get returns nil, nil on a miss.
func (c *ProfileCache) Get(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	data, err := c.client.Get(ctx, Key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var p models.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		// A corrupt entry is a miss; the next Set overwrites it.
		return nil, nil
	}
	return &p, nil
}

func (c *ProfileCache) Set(ctx context.Context, profile *models.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	return c.client.Set(ctx, Key(profile.ID), data, c.ttl).Err()
}

func (c *ProfileCache) Delete(ctx context.Context, id uuid.UUID) error {
	return c.client.Del(ctx, Key(id)).Err()
}

func (c *ProfileCache) Close() error {
	return c.client.Close()
}
