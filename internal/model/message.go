package model

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ChatID    uint      `gorm:"not null;index:idx_chat_messages_order,priority:1" json:"chat_id"`
	Role      string    `gorm:"size:16;not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Timestamp time.Time `gorm:"not null;index:idx_chat_messages_order,priority:2" json:"timestamp"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

// Turn is one user message plus the assistant reply to it.
type Turn struct {
	ChatID    uint        `json:"chat_id"`
	Username  string      `json:"username"`
	User      ChatMessage `json:"user"`
	Assistant ChatMessage `json:"assistant"`
}

func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAssistant
}
