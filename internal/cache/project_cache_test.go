package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webpulse/internal/logger"
	"webpulse/internal/tracking"
)

type countingStore struct {
	configs map[string]tracking.ProjectConfig
	err     error
	calls   int
}

func (s *countingStore) LookupProject(_ context.Context, realmID, projectID string) (tracking.ProjectConfig, error) {
	s.calls++
	if s.err != nil {
		return tracking.ProjectConfig{}, s.err
	}
	pc, ok := s.configs[realmID+"."+projectID]
	if !ok {
		return tracking.ProjectConfig{}, tracking.ErrNotFound
	}
	return pc, nil
}

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func testProject() tracking.ProjectConfig {
	return tracking.ProjectConfig{
		Realm: tracking.Realm{ID: "r1"},
		Project: tracking.Project{
			ID:             "p1",
			RealmID:        "r1",
			AllowedOrigins: []string{"https://site.example.com"},
			Flags:          tracking.FeatureFlags{PageLoads: true, PageClicks: true},
		},
	}
}

func TestProjectCache_ReadThrough(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := &countingStore{configs: map[string]tracking.ProjectConfig{"r1.p1": testProject()}}
	c := NewProjectCache(client, store, time.Minute, logger.Nop())
	ctx := context.Background()

	first, err := c.LookupProject(ctx, "r1", "p1")
	require.NoError(t, err)
	second, err := c.LookupProject(ctx, "r1", "p1")
	require.NoError(t, err)

	assert.Equal(t, testProject(), first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.calls)
	assert.True(t, mr.Exists("webpulse:project:r1.p1"))

	mr.FastForward(2 * time.Minute)
	_, err = c.LookupProject(ctx, "r1", "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, store.calls)
}

func TestProjectCache_NegativeCaching(t *testing.T) {
	_, client := setupTestRedis(t)
	store := &countingStore{configs: map[string]tracking.ProjectConfig{}}
	c := NewProjectCache(client, store, time.Minute, logger.Nop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := c.LookupProject(ctx, "r1", "missing")
		require.ErrorIs(t, err, tracking.ErrNotFound)
	}
	assert.Equal(t, 1, store.calls)
}

func TestProjectCache_Invalidate(t *testing.T) {
	_, client := setupTestRedis(t)
	store := &countingStore{configs: map[string]tracking.ProjectConfig{"r1.p1": testProject()}}
	c := NewProjectCache(client, store, time.Minute, logger.Nop())
	ctx := context.Background()

	_, err := c.LookupProject(ctx, "r1", "p1")
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx, "r1", "p1"))
	_, err = c.LookupProject(ctx, "r1", "p1")
	require.NoError(t, err)

	assert.Equal(t, 2, store.calls)
}

func TestProjectCache_UpstreamErrorsAreNotCached(t *testing.T) {
	_, client := setupTestRedis(t)
	store := &countingStore{err: errors.New("db down")}
	c := NewProjectCache(client, store, time.Minute, logger.Nop())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := c.LookupProject(ctx, "r1", "p1")
		require.Error(t, err)
		assert.NotErrorIs(t, err, tracking.ErrNotFound)
	}
	assert.Equal(t, 2, store.calls)
}

func TestProjectCache_RedisDownFallsThrough(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := &countingStore{configs: map[string]tracking.ProjectConfig{"r1.p1": testProject()}}
	c := NewProjectCache(client, store, time.Minute, logger.Nop())
	mr.Close()

	pc, err := c.LookupProject(context.Background(), "r1", "p1")
	require.NoError(t, err)
	assert.Equal(t, testProject(), pc)
}

func TestProjectCache_CorruptEntryIsRefreshed(t *testing.T) {
	mr, client := setupTestRedis(t)
	require.NoError(t, mr.Set("webpulse:project:r1.p1", "{not json"))
	store := &countingStore{configs: map[string]tracking.ProjectConfig{"r1.p1": testProject()}}
	c := NewProjectCache(client, store, time.Minute, logger.Nop())

	pc, err := c.LookupProject(context.Background(), "r1", "p1")
	require.NoError(t, err)
	assert.Equal(t, testProject(), pc)
	assert.Equal(t, 1, store.calls)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	require.NoError(t, client.Close())

	_, err = NewRedisClient(context.Background(), "not a url")
	assert.Error(t, err)
}
