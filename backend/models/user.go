package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Name         string
	Email        string `gorm:"unique;not null"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"default:user"` // user, admin
	AvatarURL    string
	Points       int `gorm:"default:0"`
	StreakDays   int `gorm:"default:0"`
	LastActivity *time.Time
}

type LoginHistory struct {
	gorm.Model
	UserID    uint `gorm:"index"`
	LoginTime time.Time
}
