package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remobot/internal/model"
)

func TestMemoryHistoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryHistoryCache(time.Minute, 20*time.Millisecond)

	_, hit, err := c.GetHistory(ctx, 1)
	require.NoError(t, err)
	assert.False(t, hit)

	msgs := []model.ChatMessage{{ChatID: 1, Role: model.RoleUser, Content: "hola"}}
	require.NoError(t, c.SetHistory(ctx, 1, msgs))
	msgs[0].Content = "mutated"

	got, hit, err := c.GetHistory(ctx, 1)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "hola", got[0].Content)

	require.NoError(t, c.DeleteHistory(ctx, 1))
	_, hit, _ = c.GetHistory(ctx, 1)
	assert.False(t, hit)
}

func TestMemoryHistoryCacheDirtyMarkerExpires(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryHistoryCache(time.Minute, 20*time.Millisecond)

	require.NoError(t, c.MarkDirty(ctx, 3))
	dirty, err := c.IsDirty(ctx, 3)
	require.NoError(t, err)
	assert.True(t, dirty)

	assert.Eventually(t, func() bool {
		dirty, _ := c.IsDirty(ctx, 3)
		return !dirty
	}, time.Second, 10*time.Millisecond)
}
