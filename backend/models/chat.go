package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ChatSession struct {
	gorm.Model
	UserID   uint           `gorm:"index;not null"`
	Title    string         `gorm:"default:'New chat'"`
	Messages datatypes.JSON // []ChatMessage
}

// ChatMessage is one entry of the session's message list.
type ChatMessage struct {
	Role      string    `json:"role"` // user, assistant
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
