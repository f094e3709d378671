package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Document struct {
	gorm.Model
	UserID     uint `gorm:"index;not null"`
	FileName   string
	StoredName string
	Status     string `gorm:"default:processing"` // processing, ready, failed
	ChunkCount int
	Chunks     []DocumentChunk `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE"`
}

type DocumentChunk struct {
	gorm.Model
	DocumentID uint `gorm:"index;not null"`
	Position   int
	Content    string
	Embedding  datatypes.JSON // []float32, zero vector when embedding failed
}

type GeneratedQuestion struct {
	gorm.Model
	UserID     uint `gorm:"index;not null"`
	DocumentID uint `gorm:"index"`
	Question   string
	Answer     string
}
