package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"remobot/internal/model"
)

// MemoryHistoryCache is the in-process stand-in used when Redis is disabled.
type MemoryHistoryCache struct {
	store          *gocache.Cache
	historyTTL     time.Duration
	dirtyMarkerTTL time.Duration
}

func NewMemoryHistoryCache(historyTTL, dirtyMarkerTTL time.Duration) *MemoryHistoryCache {
	if historyTTL <= 0 {
		historyTTL = 60 * time.Second
	}
	if dirtyMarkerTTL <= 0 {
		dirtyMarkerTTL = 5 * time.Second
	}
	return &MemoryHistoryCache{
		store:          gocache.New(historyTTL, 2*historyTTL),
		historyTTL:     historyTTL,
		dirtyMarkerTTL: dirtyMarkerTTL,
	}
}

func (c *MemoryHistoryCache) GetHistory(_ context.Context, chatID uint) ([]model.ChatMessage, bool, error) {
	v, ok := c.store.Get(historyKey(chatID))
	if !ok {
		return nil, false, nil
	}
	cached := v.([]model.ChatMessage)
	out := make([]model.ChatMessage, len(cached))
	copy(out, cached)
	return out, true, nil
}

func (c *MemoryHistoryCache) SetHistory(_ context.Context, chatID uint, messages []model.ChatMessage) error {
	stored := make([]model.ChatMessage, len(messages))
	copy(stored, messages)
	c.store.Set(historyKey(chatID), stored, c.historyTTL)
	return nil
}

func (c *MemoryHistoryCache) DeleteHistory(_ context.Context, chatID uint) error {
	c.store.Delete(historyKey(chatID))
	return nil
}

func (c *MemoryHistoryCache) MarkDirty(_ context.Context, chatID uint) error {
	c.store.Set(dirtyKey(chatID), true, c.dirtyMarkerTTL)
	return nil
}

func (c *MemoryHistoryCache) IsDirty(_ context.Context, chatID uint) (bool, error) {
	_, ok := c.store.Get(dirtyKey(chatID))
	return ok, nil
}
