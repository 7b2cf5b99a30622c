package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remobot/internal/model"
)

func newRedisCache(t *testing.T) (*RedisHistoryCache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redisv9.NewClient(&redisv9.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisHistoryCache(client, time.Minute, 5*time.Second), srv
}

func TestRedisHistoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, srv := newRedisCache(t)

	_, hit, err := c.GetHistory(ctx, 4)
	require.NoError(t, err)
	assert.False(t, hit)

	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	msgs := []model.ChatMessage{
		{ID: 1, ChatID: 4, Role: model.RoleUser, Content: "hola", Timestamp: ts},
		{ID: 2, ChatID: 4, Role: model.RoleAssistant, Content: "¡Hola!", Timestamp: ts},
	}
	require.NoError(t, c.SetHistory(ctx, 4, msgs))
	assert.True(t, srv.Exists("remobot:chat:history:4"))
	assert.Equal(t, time.Minute, srv.TTL("remobot:chat:history:4"))

	got, hit, err := c.GetHistory(ctx, 4)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, msgs, got)

	require.NoError(t, c.DeleteHistory(ctx, 4))
	_, hit, err = c.GetHistory(ctx, 4)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisHistoryCacheEntriesExpire(t *testing.T) {
	ctx := context.Background()
	c, srv := newRedisCache(t)

	require.NoError(t, c.SetHistory(ctx, 5, []model.ChatMessage{{ChatID: 5, Role: model.RoleUser, Content: "x"}}))
	require.NoError(t, c.MarkDirty(ctx, 5))

	dirty, err := c.IsDirty(ctx, 5)
	require.NoError(t, err)
	assert.True(t, dirty)

	srv.FastForward(6 * time.Second)
	dirty, err = c.IsDirty(ctx, 5)
	require.NoError(t, err)
	assert.False(t, dirty)
	_, hit, err := c.GetHistory(ctx, 5)
	require.NoError(t, err)
	assert.True(t, hit)

	srv.FastForward(time.Minute)
	_, hit, err = c.GetHistory(ctx, 5)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisHistoryCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, srv := newRedisCache(t)

	require.NoError(t, srv.Set("remobot:chat:history:6", "not json"))
	_, hit, err := c.GetHistory(ctx, 6)
	assert.Error(t, err)
	assert.False(t, hit)
}

func TestRedisHistoryCacheReportsUnavailableServer(t *testing.T) {
	ctx := context.Background()
	c, srv := newRedisCache(t)
	srv.Close()

	_, _, err := c.GetHistory(ctx, 7)
	assert.Error(t, err)
	_, err = c.IsDirty(ctx, 7)
	assert.Error(t, err)
}
