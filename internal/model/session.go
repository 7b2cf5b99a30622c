package model

import "time"

// ChatSession is one saved conversation owned by a single user.
type ChatSession struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:64;not null;index" json:"username"`
	ChatName  string    `gorm:"size:128;not null" json:"chat_name"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ChatSession) TableName() string {
	return "chat_history"
}

// ChatSummary is the sidebar entry of a session.
type ChatSummary struct {
	ID          uint      `json:"id"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}
