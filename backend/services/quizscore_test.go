package services

import (
	"testing"
	"tutorium/backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func gormModel(id uint) gorm.Model {
	return gorm.Model{ID: id}
}

func TestAnswersEqual(t *testing.T) {
	assert.True(t, AnswersEqual("Paris", "paris"))
	assert.True(t, AnswersEqual("  paris  ", "Paris"))
	assert.True(t, AnswersEqual("PARIS", "Paris"))
	assert.False(t, AnswersEqual("Paris, France", "Paris"))
	assert.False(t, AnswersEqual("", "Paris"))
}

func TestScoreAttempt(t *testing.T) {
	questions := []models.QuizQuestion{
		{Model: gormModel(1), CorrectAnswer: "a", Points: 10},
		{Model: gormModel(2), CorrectAnswer: "true", Points: 10},
		{Model: gormModel(3), CorrectAnswer: "Paris", Points: 10},
	}

	score, records := ScoreAttempt(questions, []SubmittedAnswer{
		{QuestionID: 1, Answer: "a"},
		{QuestionID: 2, Answer: "false"},
		{QuestionID: 3, Answer: " paris "},
	})

	assert.Equal(t, 67, score)
	require.Len(t, records, 3)
	assert.True(t, records[0].IsCorrect)
	assert.False(t, records[1].IsCorrect)
	assert.True(t, records[2].IsCorrect)
}

func TestScoreAttemptOnlyAnsweredQuestionsCount(t *testing.T) {
	questions := []models.QuizQuestion{
		{Model: gormModel(1), CorrectAnswer: "a", Points: 10},
		{Model: gormModel(2), CorrectAnswer: "b", Points: 10},
		{Model: gormModel(3), CorrectAnswer: "c", Points: 10},
	}

	// One correct answer out of one submitted scores 100, not 33.
	score, records := ScoreAttempt(questions, []SubmittedAnswer{
		{QuestionID: 1, Answer: "a"},
	})

	assert.Equal(t, 100, score)
	assert.Len(t, records, 1)
}

func TestScoreAttemptIgnoresUnknownQuestions(t *testing.T) {
	questions := []models.QuizQuestion{
		{Model: gormModel(1), CorrectAnswer: "a", Points: 10},
	}

	score, records := ScoreAttempt(questions, []SubmittedAnswer{
		{QuestionID: 1, Answer: "a"},
		{QuestionID: 99, Answer: "a"},
	})

	assert.Equal(t, 100, score)
	assert.Len(t, records, 1)
}

func TestScoreAttemptZeroTotal(t *testing.T) {
	score, records := ScoreAttempt(nil, nil)
	assert.Equal(t, 0, score)
	assert.Empty(t, records)

	// Questions worth zero points cannot divide by zero.
	questions := []models.QuizQuestion{{Model: gormModel(1), CorrectAnswer: "a", Points: 0}}
	score, _ = ScoreAttempt(questions, []SubmittedAnswer{{QuestionID: 1, Answer: "a"}})
	assert.Equal(t, 0, score)
}
