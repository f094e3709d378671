package services

import (
	"math"
	"strings"
	"tutorium/backend/models"
)

// SubmittedAnswer is one answer in a quiz submission.
type SubmittedAnswer struct {
	QuestionID uint   `json:"question_id"`
	Answer     string `json:"answer"`
}

// AnswersEqual reports whether a submitted answer matches the stored correct
// answer: whitespace-trimmed, case-insensitive exact match for every question
// type. No partial credit, no synonym matching.
func AnswersEqual(submitted, correct string) bool {
	return strings.EqualFold(strings.TrimSpace(submitted), strings.TrimSpace(correct))
}

// ScoreAttempt grades a submission against the quiz questions. Only questions
// that were actually answered contribute to the total; a zero-point total
// scores 0.
func ScoreAttempt(questions []models.QuizQuestion, answers []SubmittedAnswer) (int, []models.AttemptAnswer) {
	byID := make(map[uint]models.QuizQuestion, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	records := make([]models.AttemptAnswer, 0, len(answers))
	earned, total := 0, 0

	for _, answer := range answers {
		question, ok := byID[answer.QuestionID]
		if !ok {
			continue
		}

		correct := AnswersEqual(answer.Answer, question.CorrectAnswer)
		total += question.Points
		if correct {
			earned += question.Points
		}

		records = append(records, models.AttemptAnswer{
			QuestionID: question.ID,
			Answer:     answer.Answer,
			IsCorrect:  correct,
			Points:     question.Points,
		})
	}

	if total == 0 {
		return 0, records
	}
	return int(math.Round(100 * float64(earned) / float64(total))), records
}
