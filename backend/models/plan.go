package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type LearningPlan struct {
	gorm.Model
	UserID     uint           `gorm:"index;not null"`
	Title      string         `gorm:"not null"`
	Subjects   datatypes.JSON // array of subject names
	Progress   int            `gorm:"default:0"` // 0-100, recomputed on every milestone mutation
	IsActive   bool           `gorm:"default:true"`
	Milestones []Milestone    `gorm:"foreignKey:PlanID;constraint:OnDelete:CASCADE"`
}

type Milestone struct {
	gorm.Model
	PlanID      uint `gorm:"index;not null"`
	Title       string
	Subject     string
	OrderIndex  int
	IsCompleted bool
	CompletedAt *time.Time
	Courses     []Course `gorm:"foreignKey:MilestoneID;constraint:OnDelete:CASCADE"`
}

type Course struct {
	gorm.Model
	MilestoneID     uint `gorm:"index;not null"`
	Title           string
	Description     string
	Content         string
	DurationMinutes int
	Difficulty      string // beginner, intermediate, advanced
	IsCompleted     bool
	CompletedAt     *time.Time
	VideoID         string
	VideoTitle      string
	Quiz            *Quiz `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
}
