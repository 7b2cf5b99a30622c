package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"remobot/internal/model"
	"remobot/internal/repository"
)

const (
	displayNameLimit = 30
	chatNameLayout   = "02/01/2006 15:04"
)

type HistoryCache interface {
	GetHistory(ctx context.Context, chatID uint) ([]model.ChatMessage, bool, error)
	SetHistory(ctx context.Context, chatID uint, messages []model.ChatMessage) error
	DeleteHistory(ctx context.Context, chatID uint) error
	MarkDirty(ctx context.Context, chatID uint) error
	IsDirty(ctx context.Context, chatID uint) (bool, error)
}

type MessageInput struct {
	Role    string
	Content string
}

// HistoryService stores chat sessions and their ordered messages.
type HistoryService struct {
	db       *gorm.DB
	sessions *repository.ChatSessionRepository
	messages *repository.ChatMessageRepository
	cache    HistoryCache
	now      func() time.Time
	log      *zap.Logger
}

func NewHistoryService(db *gorm.DB, cache HistoryCache, log *zap.Logger) *HistoryService {
	return &HistoryService{
		db:       db,
		sessions: repository.NewChatSessionRepository(db),
		messages: repository.NewChatMessageRepository(db),
		cache:    cache,
		now:      time.Now,
		log:      log.Named("history"),
	}
}

// Save creates a session for username holding messages and returns its id.
// An empty name defaults to "Chat dd/mm/YYYY HH:MM".
func (s *HistoryService) Save(ctx context.Context, username string, messages []MessageInput, name string) (uint, error) {
	session, err := s.Create(ctx, username, messages, name)
	if err != nil {
		return 0, err
	}
	return session.ID, nil
}

// Create is Save returning the stored session, including the name it chose.
func (s *HistoryService) Create(ctx context.Context, username string, messages []MessageInput, name string) (*model.ChatSession, error) {
	owner := model.NormalizeUsername(username)
	if owner == "" {
		return nil, ErrInvalidInput
	}
	if err := validateMessages(messages); err != nil {
		return nil, err
	}

	now := s.now()
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultChatName(now)
	}

	session := &model.ChatSession{Username: owner, ChatName: name, CreatedAt: now, UpdatedAt: now}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.sessions.WithTx(tx).Create(ctx, session); err != nil {
			return err
		}
		return s.messages.WithTx(tx).CreateBatch(ctx, toRows(session.ID, messages, now))
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug("chat saved", zap.Uint("chat_id", session.ID), zap.Int("messages", len(messages)))
	return session, nil
}

// Replace swaps the whole message set of an existing session in one
// transaction.
func (s *HistoryService) Replace(ctx context.Context, username string, chatID uint, messages []MessageInput) error {
	if err := validateMessages(messages); err != nil {
		return err
	}
	if _, err := s.ownedSession(ctx, username, chatID); err != nil {
		return err
	}

	s.invalidate(ctx, chatID)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		msgRepo := s.messages.WithTx(tx)
		if err := msgRepo.DeleteByChatID(ctx, chatID); err != nil {
			return err
		}
		if err := msgRepo.CreateBatch(ctx, toRows(chatID, messages, s.now())); err != nil {
			return err
		}
		return s.sessions.WithTx(tx).Touch(ctx, chatID)
	})
	s.invalidate(ctx, chatID)
	return err
}

// AppendTurn adds one user/assistant pair to an existing session.
func (s *HistoryService) AppendTurn(ctx context.Context, turn model.Turn) error {
	if turn.User.Role != model.RoleUser || turn.Assistant.Role != model.RoleAssistant {
		return ErrInvalidMessages
	}
	if _, err := s.ownedSession(ctx, turn.Username, turn.ChatID); err != nil {
		return err
	}

	rows := []model.ChatMessage{turn.User, turn.Assistant}
	for i := range rows {
		rows[i].ID = 0
		rows[i].ChatID = turn.ChatID
		if rows[i].Timestamp.IsZero() {
			rows[i].Timestamp = s.now()
		}
	}

	s.invalidate(ctx, turn.ChatID)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.messages.WithTx(tx).CreateBatch(ctx, rows); err != nil {
			return err
		}
		return s.sessions.WithTx(tx).Touch(ctx, turn.ChatID)
	})
	s.invalidate(ctx, turn.ChatID)
	return err
}

// List returns username's sessions newest first. The display name is the
// latest user message, truncated, or the chat name when there is none.
func (s *HistoryService) List(ctx context.Context, username string) ([]model.ChatSummary, error) {
	owner := model.NormalizeUsername(username)
	if owner == "" {
		return nil, ErrInvalidInput
	}

	sessions, err := s.sessions.ListByUsername(ctx, owner)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(sessions))
	for _, session := range sessions {
		ids = append(ids, session.ID)
	}
	latest, err := s.messages.LatestUserContent(ctx, ids)
	if err != nil {
		return nil, err
	}

	summaries := make([]model.ChatSummary, 0, len(sessions))
	for _, session := range sessions {
		summaries = append(summaries, model.ChatSummary{
			ID:          session.ID,
			DisplayName: DisplayName(latest[session.ID], session.ChatName),
			CreatedAt:   session.CreatedAt,
		})
	}
	return summaries, nil
}

// Load returns the ordered messages of a session owned by username.
func (s *HistoryService) Load(ctx context.Context, username string, chatID uint) ([]model.ChatMessage, error) {
	if _, err := s.ownedSession(ctx, username, chatID); err != nil {
		return nil, err
	}

	if s.cache != nil {
		dirty, err := s.cache.IsDirty(ctx, chatID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.cache.GetHistory(ctx, chatID); cacheErr == nil && hit {
				return cached, nil
			}
		}
	}

	messages, err := s.messages.ListByChatID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if dirty, err := s.cache.IsDirty(ctx, chatID); err == nil && !dirty {
			if err := s.cache.SetHistory(ctx, chatID, messages); err != nil {
				s.log.Debug("history cache fill failed", zap.Uint("chat_id", chatID), zap.Error(err))
			}
		}
	}
	return messages, nil
}

func (s *HistoryService) Rename(ctx context.Context, username string, chatID uint, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidInput
	}
	if _, err := s.ownedSession(ctx, username, chatID); err != nil {
		return err
	}
	return s.sessions.Rename(ctx, chatID, name)
}

// Exists reports whether chatID belongs to username.
func (s *HistoryService) Exists(ctx context.Context, username string, chatID uint) (bool, error) {
	_, err := s.ownedSession(ctx, username, chatID)
	if errors.Is(err, ErrChatNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *HistoryService) ownedSession(ctx context.Context, username string, chatID uint) (*model.ChatSession, error) {
	owner := model.NormalizeUsername(username)
	if owner == "" || chatID == 0 {
		return nil, ErrInvalidInput
	}
	session, err := s.sessions.GetByIDAndUsername(ctx, chatID, owner)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrChatNotFound
	}
	return session, nil
}

func (s *HistoryService) invalidate(ctx context.Context, chatID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.MarkDirty(ctx, chatID); err != nil {
		s.log.Debug("mark history dirty failed", zap.Uint("chat_id", chatID), zap.Error(err))
	}
	if err := s.cache.DeleteHistory(ctx, chatID); err != nil {
		s.log.Debug("drop cached history failed", zap.Uint("chat_id", chatID), zap.Error(err))
	}
}

func DefaultChatName(t time.Time) string {
	return "Chat " + t.Format(chatNameLayout)
}

// DisplayName shortens the latest user message to 30 runes plus "...".
func DisplayName(latestUserMessage, chatName string) string {
	if latestUserMessage == "" {
		return chatName
	}
	runes := []rune(latestUserMessage)
	if len(runes) > displayNameLimit {
		return string(runes[:displayNameLimit]) + "..."
	}
	return latestUserMessage
}

func validateMessages(messages []MessageInput) error {
	if len(messages) == 0 || len(messages)%2 != 0 {
		return ErrInvalidMessages
	}
	for _, m := range messages {
		if !model.ValidRole(m.Role) {
			return ErrInvalidMessages
		}
	}
	return nil
}

func toRows(chatID uint, messages []MessageInput, ts time.Time) []model.ChatMessage {
	rows := make([]model.ChatMessage, 0, len(messages))
	for _, m := range messages {
		rows = append(rows, model.ChatMessage{
			ChatID:    chatID,
			Role:      m.Role,
			Content:   m.Content,
			Timestamp: ts,
		})
	}
	return rows
}
