package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Badge struct {
	gorm.Model
	Name        string `gorm:"unique;not null"`
	Description string
	Icon        string
	Points      int
	Criteria    datatypes.JSON // BadgeCriteria descriptor
}

// BadgeCriteria is the {type, count} descriptor stored in Badge.Criteria.
type BadgeCriteria struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// UserBadge records an earned badge. The unique index makes the award
// idempotent per (user, badge) even under concurrent evaluation.
type UserBadge struct {
	gorm.Model
	UserID   uint `gorm:"not null;uniqueIndex:idx_user_badge"`
	BadgeID  uint `gorm:"not null;uniqueIndex:idx_user_badge"`
	EarnedAt time.Time
	Badge    Badge `gorm:"foreignKey:BadgeID"`
}
