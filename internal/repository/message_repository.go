package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"remobot/internal/model"
)

type ChatMessageRepository struct {
	db *gorm.DB
}

func NewChatMessageRepository(db *gorm.DB) *ChatMessageRepository {
	return &ChatMessageRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *ChatMessageRepository) WithTx(tx *gorm.DB) *ChatMessageRepository {
	return &ChatMessageRepository{db: tx}
}

// CreateBatch inserts messages in slice order.
func (r *ChatMessageRepository) CreateBatch(ctx context.Context, messages []model.ChatMessage) error {
	if len(messages) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&messages).Error; err != nil {
		return fmt.Errorf("create chat messages failed: %w", err)
	}
	return nil
}

func (r *ChatMessageRepository) ListByChatID(ctx context.Context, chatID uint) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("timestamp ASC").
		Order("id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("list chat messages failed: %w", err)
	}
	return messages, nil
}

func (r *ChatMessageRepository) DeleteByChatID(ctx context.Context, chatID uint) error {
	if err := r.db.WithContext(ctx).Where("chat_id = ?", chatID).Delete(&model.ChatMessage{}).Error; err != nil {
		return fmt.Errorf("delete chat messages failed: %w", err)
	}
	return nil
}

// LatestUserContent returns, per chat id, the content of the newest user
// message. Chats without user messages are absent from the map.
func (r *ChatMessageRepository) LatestUserContent(ctx context.Context, chatIDs []uint) (map[uint]string, error) {
	out := make(map[uint]string, len(chatIDs))
	if len(chatIDs) == 0 {
		return out, nil
	}

	var messages []model.ChatMessage
	err := r.db.WithContext(ctx).
		Select("chat_id", "content").
		Where("chat_id IN ? AND role = ?", chatIDs, model.RoleUser).
		Order("timestamp DESC").
		Order("id DESC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("query latest user messages failed: %w", err)
	}
	for _, m := range messages {
		if _, seen := out[m.ChatID]; !seen {
			out[m.ChatID] = m.Content
		}
	}
	return out, nil
}
