package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Quiz struct {
	gorm.Model
	CourseID     uint `gorm:"index;not null"`
	Title        string
	PassingScore int            `gorm:"default:70"` // 0-100
	IsRequired   bool           `gorm:"default:true"`
	Questions    []QuizQuestion `gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE"`
}

type QuizQuestion struct {
	gorm.Model
	QuizID        uint   `gorm:"index;not null"`
	Type          string // multiple_choice, true_false, short_answer
	Question      string
	Options       datatypes.JSON // answer options for multiple_choice
	CorrectAnswer string
	Points        int `gorm:"default:10"`
}

type QuizAttempt struct {
	gorm.Model
	UserID   uint           `gorm:"index;not null"`
	QuizID   uint           `gorm:"index;not null"`
	Answers  datatypes.JSON // []AttemptAnswer
	Score    int            // 0-100
	IsPassed bool
}

// AttemptAnswer is one scored answer record inside QuizAttempt.Answers.
type AttemptAnswer struct {
	QuestionID uint   `json:"question_id"`
	Answer     string `json:"answer"`
	IsCorrect  bool   `json:"is_correct"`
	Points     int    `json:"points"`
}
