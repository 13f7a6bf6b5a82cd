package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"webpulse/internal/tracking"
)

const (
	keyPrefix = "webpulse:project:"

	// notFoundMarker is cached for unknown projects so repeated probes
	// with bogus tokens don't all reach the database.
	notFoundMarker = "-"
)

// NewRedisClient parses redisURL and verifies the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}

// ProjectCache is a read-through tracking.ConfigStore backed by Redis.
// Redis errors are logged and the lookup falls through to the backing
// store.
type ProjectCache struct {
	client *redis.Client
	store  tracking.ConfigStore
	ttl    time.Duration
	log    zerolog.Logger
}

func NewProjectCache(client *redis.Client, store tracking.ConfigStore, ttl time.Duration, log zerolog.Logger) *ProjectCache {
	return &ProjectCache{client: client, store: store, ttl: ttl, log: log}
}

func cacheKey(realmID, projectID string) string {
	return keyPrefix + realmID + "." + projectID
}

func (c *ProjectCache) LookupProject(ctx context.Context, realmID, projectID string) (tracking.ProjectConfig, error) {
	key := cacheKey(realmID, projectID)

	raw, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		if raw == notFoundMarker {
			return tracking.ProjectConfig{}, tracking.ErrNotFound
		}
		var pc tracking.ProjectConfig
		if err := json.Unmarshal([]byte(raw), &pc); err == nil {
			return pc, nil
		}
		c.log.Warn().Str("key", key).Msg("project cache: undecodable entry, refreshing")
	case errors.Is(err, redis.Nil):
	default:
		c.log.Warn().Err(err).Str("key", key).Msg("project cache: get failed")
	}

	pc, err := c.store.LookupProject(ctx, realmID, projectID)
	if err != nil {
		if errors.Is(err, tracking.ErrNotFound) {
			c.set(ctx, key, notFoundMarker)
		}
		return tracking.ProjectConfig{}, err
	}

	if data, err := json.Marshal(pc); err == nil {
		c.set(ctx, key, string(data))
	}
	return pc, nil
}

// Invalidate drops a cached entry, e.g. after the project is saved.
func (c *ProjectCache) Invalidate(ctx context.Context, realmID, projectID string) error {
	return c.client.Del(ctx, cacheKey(realmID, projectID)).Err()
}

func (c *ProjectCache) set(ctx context.Context, key, value string) {
	if c.ttl <= 0 {
		return
	}
	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("project cache: set failed")
	}
}
