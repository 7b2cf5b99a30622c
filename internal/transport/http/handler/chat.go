package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"remobot/internal/app"
	"remobot/internal/model"
	"remobot/internal/transport/http/middleware"
	"remobot/internal/transport/http/response"
)

type ChatHandler struct {
	history *app.HistoryService
	chat    *app.ChatService
}

type MessageRequest struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content"`
}

type SaveChatRequest struct {
	Name     string           `json:"name" binding:"max=128"`
	Messages []MessageRequest `json:"messages" binding:"required,dive"`
}

type ReplaceMessagesRequest struct {
	Messages []MessageRequest `json:"messages" binding:"required,dive"`
}

type RenameChatRequest struct {
	Name string `json:"name" binding:"required,max=128"`
}

type StreamRequest struct {
	ChatID  uint   `json:"chat_id"`
	Content string `json:"content" binding:"required"`
	Model   string `json:"model"`
}

type chatView struct {
	ChatID   uint                `json:"chat_id"`
	Messages []model.ChatMessage `json:"messages"`
}

type doneEvent struct {
	ChatID    uint   `json:"chat_id"`
	Created   bool   `json:"created"`
	Generator string `json:"generator"`
}

func NewChatHandler(history *app.HistoryService, chat *app.ChatService) *ChatHandler {
	return &ChatHandler{history: history, chat: chat}
}

func (h *ChatHandler) List(c *gin.Context) {
	_, username, ok := middleware.Identity(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	summaries, err := h.history.List(c.Request.Context(), username)
	if err != nil {
		h.fail(c, err, "list chats failed")
		return
	}
	response.OK(c, summaries)
}

func (h *ChatHandler) Save(c *gin.Context) {
	_, username, ok := middleware.Identity(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req SaveChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	session, err := h.history.Create(c.Request.Context(), username, toInputs(req.Messages), req.Name)
	if err != nil {
		h.fail(c, err, "save chat failed")
		return
	}
	response.OK(c, gin.H{"chat_id": session.ID, "chat_name": session.ChatName})
}

func (h *ChatHandler) Load(c *gin.Context) {
	_, username, ok := middleware.Identity(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	chatID, ok := chatIDParam(c)
	if !ok {
		return
	}

	messages, err := h.history.Load(c.Request.Context(), username, chatID)
	if err != nil {
		h.fail(c, err, "load chat failed")
		return
	}
	response.OK(c, chatView{ChatID: chatID, Messages: messages})
}

func (h *ChatHandler) Replace(c *gin.Context) {
	_, username, ok := middleware.Identity(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	chatID, ok := chatIDParam(c)
	if !ok {
		return
	}

	var req ReplaceMessagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	if err := h.history.Replace(c.Request.Context(), username, chatID, toInputs(req.Messages)); err != nil {
		h.fail(c, err, "replace messages failed")
		return
	}
	response.OK(c, gin.H{"chat_id": chatID, "messages": len(req.Messages)})
}

func (h *ChatHandler) Rename(c *gin.Context) {
	_, username, ok := middleware.Identity(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	chatID, ok := chatIDParam(c)
	if !ok {
		return
	}

	var req RenameChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	if err := h.history.Rename(c.Request.Context(), username, chatID, req.Name); err != nil {
		h.fail(c, err, "rename chat failed")
		return
	}
	response.OK(c, gin.H{"chat_id": chatID, "chat_name": req.Name})
}

func (h *ChatHandler) Models(c *gin.Context) {
	response.OK(c, gin.H{"models": h.chat.Models()})
}

// Stream runs one turn and relays the reply as server-sent events. Generator
// failures arrive as ordinary text frames; the closing "done" event carries
// the chat id so a new conversation can continue.
func (h *ChatHandler) Stream(c *gin.Context) {
	_, username, ok := middleware.Identity(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req StreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	sse, ok := newSSEWriter(c)
	if !ok {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "stream not supported")
		return
	}

	result, err := h.chat.StreamTurn(c.Request.Context(), app.StreamTurnInput{
		Username: username,
		ChatID:   req.ChatID,
		Content:  req.Content,
		Model:    req.Model,
	}, sse.Data)
	if err != nil {
		if !sse.started {
			h.fail(c, err, "stream failed")
			return
		}
		_ = c.Error(err)
		_ = sse.Event("error", "stream interrupted")
		return
	}

	_ = sse.JSONEvent("done", doneEvent{
		ChatID:    result.ChatID,
		Created:   result.Created,
		Generator: result.Generator,
	})
}

func (h *ChatHandler) fail(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput), errors.Is(err, app.ErrMessageEmpty):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrInvalidMessages):
		response.Error(c, http.StatusBadRequest, response.CodeInvalidMessages, err.Error())
	case errors.Is(err, app.ErrChatNotFound):
		response.Error(c, http.StatusNotFound, response.CodeChatNotFound, err.Error())
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}

func chatIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid chat id")
		return 0, false
	}
	return uint(id), true
}

func toInputs(messages []MessageRequest) []app.MessageInput {
	inputs := make([]app.MessageInput, 0, len(messages))
	for _, m := range messages {
		inputs = append(inputs, app.MessageInput{Role: m.Role, Content: m.Content})
	}
	return inputs
}
