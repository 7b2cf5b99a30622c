package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"remobot/internal/model"
)

type ChatSessionRepository struct {
	db *gorm.DB
}

func NewChatSessionRepository(db *gorm.DB) *ChatSessionRepository {
	return &ChatSessionRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *ChatSessionRepository) WithTx(tx *gorm.DB) *ChatSessionRepository {
	return &ChatSessionRepository{db: tx}
}

func (r *ChatSessionRepository) Create(ctx context.Context, session *model.ChatSession) error {
	session.Username = model.NormalizeUsername(session.Username)
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("create chat session failed: %w", err)
	}
	return nil
}

func (r *ChatSessionRepository) ListByUsername(ctx context.Context, username string) ([]model.ChatSession, error) {
	var sessions []model.ChatSession
	err := r.db.WithContext(ctx).
		Where("username = ?", model.NormalizeUsername(username)).
		Order("created_at DESC").
		Order("id DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("list chat sessions failed: %w", err)
	}
	return sessions, nil
}

func (r *ChatSessionRepository) GetByIDAndUsername(ctx context.Context, id uint, username string) (*model.ChatSession, error) {
	var session model.ChatSession
	err := r.db.WithContext(ctx).
		Where("id = ? AND username = ?", id, model.NormalizeUsername(username)).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get chat session failed: %w", err)
	}
	return &session, nil
}

func (r *ChatSessionRepository) Rename(ctx context.Context, id uint, name string) error {
	err := r.db.WithContext(ctx).
		Model(&model.ChatSession{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"chat_name": name, "updated_at": time.Now()}).Error
	if err != nil {
		return fmt.Errorf("rename chat session failed: %w", err)
	}
	return nil
}

func (r *ChatSessionRepository) Touch(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).
		Model(&model.ChatSession{}).
		Where("id = ?", id).
		Update("updated_at", time.Now()).Error
	if err != nil {
		return fmt.Errorf("touch chat session failed: %w", err)
	}
	return nil
}
