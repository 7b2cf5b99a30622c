package app

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"remobot/internal/ai"
	"remobot/internal/model"
)

const emptyReply = "El modelo devolvió una respuesta vacía."

// TurnPublisher hands a finished turn to asynchronous persistence.
type TurnPublisher interface {
	PublishTurn(ctx context.Context, turn model.Turn) error
}

// ChatService runs one conversation turn: generate the reply while streaming
// it to the caller, then persist the user/assistant pair.
type ChatService struct {
	history    *HistoryService
	generators *ai.Registry
	publisher  TurnPublisher
	now        func() time.Time
	log        *zap.Logger
}

type StreamTurnInput struct {
	Username string
	// ChatID zero starts a new session.
	ChatID  uint
	Content string
	Model   string
}

type TurnResult struct {
	ChatID    uint   `json:"chat_id"`
	Created   bool   `json:"created"`
	Reply     string `json:"reply"`
	Generator string `json:"generator"`
}

// NewChatService wires the turn flow. A nil publisher persists turns
// synchronously.
func NewChatService(history *HistoryService, generators *ai.Registry, publisher TurnPublisher, log *zap.Logger) *ChatService {
	return &ChatService{
		history:    history,
		generators: generators,
		publisher:  publisher,
		now:        time.Now,
		log:        log.Named("chat"),
	}
}

func (s *ChatService) Models() []string {
	return s.generators.Names()
}

func (s *ChatService) StreamTurn(ctx context.Context, input StreamTurnInput, onChunk ai.ChunkFunc) (*TurnResult, error) {
	username := model.NormalizeUsername(input.Username)
	if username == "" {
		return nil, ErrInvalidInput
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, ErrMessageEmpty
	}
	if input.ChatID != 0 {
		ok, err := s.history.Exists(ctx, username, input.ChatID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrChatNotFound
		}
	}

	userMessage := model.ChatMessage{Role: model.RoleUser, Content: content, Timestamp: s.now()}

	generator := s.generators.Resolve(input.Model)
	reply, err := generator.Stream(ctx, content, onChunk)
	if err != nil {
		s.log.Info("turn aborted by client", zap.String("username", username), zap.Error(err))
		return nil, err
	}
	if strings.TrimSpace(reply) == "" {
		if err := onChunk(emptyReply); err != nil {
			return nil, err
		}
		reply = emptyReply
	}

	assistantMessage := model.ChatMessage{Role: model.RoleAssistant, Content: reply, Timestamp: s.now()}
	result := &TurnResult{ChatID: input.ChatID, Reply: reply, Generator: generator.Name()}

	// Persistence must survive the client disconnecting right after the
	// last chunk.
	persistCtx := context.WithoutCancel(ctx)

	if input.ChatID == 0 {
		chatID, err := s.history.Save(persistCtx, username, []MessageInput{
			{Role: userMessage.Role, Content: userMessage.Content},
			{Role: assistantMessage.Role, Content: assistantMessage.Content},
		}, "")
		if err != nil {
			return nil, err
		}
		result.ChatID = chatID
		result.Created = true
		return result, nil
	}

	turn := model.Turn{ChatID: input.ChatID, Username: username, User: userMessage, Assistant: assistantMessage}
	if s.publisher != nil {
		err := s.publisher.PublishTurn(persistCtx, turn)
		if err == nil {
			return result, nil
		}
		s.log.Warn("publish turn failed, persisting inline", zap.Uint("chat_id", turn.ChatID), zap.Error(err))
	}
	if err := s.history.AppendTurn(persistCtx, turn); err != nil {
		return nil, err
	}
	return result, nil
}
