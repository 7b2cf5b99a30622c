package model

import (
	"strings"
	"time"
	"unicode"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:64;not null;uniqueIndex" json:"username"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// NormalizeUsername trims the name and capitalizes it: first rune upper case,
// the rest lower case.
func NormalizeUsername(raw string) string {
	runes := []rune(strings.ToLower(strings.TrimSpace(raw)))
	if len(runes) == 0 {
		return ""
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
