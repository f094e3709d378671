package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
	"tutorium/backend/models"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DefaultCourseCount      = 5
	DefaultCourseDifficulty = "intermediate"
)

type CourseGenOptions struct {
	Count      int      `json:"count"`
	Topics     []string `json:"topics"`
	Difficulty string   `json:"difficulty"`
}

// GeneratedCourse is the JSON contract the prompt asks the model to follow.
// DurationMinutes is a float because models occasionally return fractions or
// garbage; clamping normalizes it.
type GeneratedCourse struct {
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Content         string         `json:"content"`
	DurationMinutes float64        `json:"durationMinutes"`
	Difficulty      string         `json:"difficulty"`
	VideoQuery      string         `json:"videoQuery"`
	Quiz            *GeneratedQuiz `json:"quiz"`
}

type GeneratedQuiz struct {
	Title        string                  `json:"title"`
	PassingScore int                     `json:"passingScore"`
	Questions    []GeneratedQuizQuestion `json:"questions"`
}

type GeneratedQuizQuestion struct {
	Type          string   `json:"type"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Points        int      `json:"points"`
}

// durationRanges maps difficulty to the allowed duration window in minutes.
var durationRanges = map[string][2]int{
	"beginner":     {30, 60},
	"intermediate": {60, 90},
	"advanced":     {90, 150},
}

// ClampDuration forces an AI-suggested duration into the window for the given
// difficulty. Out-of-range and non-finite values are clamped, never rejected.
func ClampDuration(difficulty string, minutes float64) int {
	bounds, ok := durationRanges[strings.ToLower(strings.TrimSpace(difficulty))]
	if !ok {
		bounds = durationRanges[DefaultCourseDifficulty]
	}

	if math.IsNaN(minutes) || math.IsInf(minutes, 0) {
		return bounds[0]
	}
	if minutes < float64(bounds[0]) {
		return bounds[0]
	}
	if minutes > float64(bounds[1]) {
		return bounds[1]
	}
	return int(math.Round(minutes))
}

// BuildCoursePrompt renders the canonical course-generation prompt. The JSON
// contract here is the one ExtractJSONArray and FallbackCourses mirror.
func BuildCoursePrompt(milestoneTitle string, topics []string, count int, difficulty string) string {
	return fmt.Sprintf(`You are an expert tutor building a personalized study plan.
Create %d courses for the milestone %q covering these topics: %s.
Target difficulty: %s.

Respond with a single JSON array and nothing else. Each element must be an object:
{
  "title": "course title",
  "description": "one-paragraph summary",
  "content": "full lesson text in Markdown",
  "durationMinutes": 60,
  "difficulty": %q,
  "videoQuery": "short YouTube search phrase for a supporting video",
  "quiz": {
    "title": "quiz title",
    "passingScore": 70,
    "questions": [3 to 6 objects like
      {"type": "multiple_choice", "question": "...", "options": ["a","b","c","d"], "correctAnswer": "a", "points": 10},
      {"type": "true_false", "question": "...", "options": ["true","false"], "correctAnswer": "true", "points": 10},
      {"type": "short_answer", "question": "...", "options": [], "correctAnswer": "...", "points": 10}
    ]
  }
}`, count, milestoneTitle, strings.Join(topics, ", "), difficulty, difficulty)
}

// BuildReformatPrompt asks the model to re-emit its own previous output as
// strict JSON. Used once, after every local salvage strategy failed.
func BuildReformatPrompt(raw string) string {
	return fmt.Sprintf(`The following text should contain a JSON array of course objects but it is not valid JSON.
Reformat it strictly as a JSON array. Output only the JSON array, with no Markdown fences and no commentary.

%s`, raw)
}

// FallbackCourses synthesizes deterministic course stubs so generation never
// returns empty-handed when the model output is unusable.
func FallbackCourses(topics []string, count int, difficulty string) []GeneratedCourse {
	if count <= 0 {
		count = DefaultCourseCount
	}
	if len(topics) == 0 {
		topics = []string{"General review"}
	}

	courses := make([]GeneratedCourse, 0, count)
	for i := 0; i < count; i++ {
		topic := topics[i%len(topics)]
		courses = append(courses, GeneratedCourse{
			Title:           fmt.Sprintf("Introduction to %s (Part %d)", topic, i+1),
			Description:     fmt.Sprintf("A structured walkthrough of the fundamentals of %s.", topic),
			Content:         fmt.Sprintf("# %s\n\nThis course covers the core concepts of %s. Work through each section and take the quiz at the end.", topic, topic),
			DurationMinutes: float64(durationRanges[normalizeDifficulty(difficulty)][0]),
			Difficulty:      normalizeDifficulty(difficulty),
			Quiz: &GeneratedQuiz{
				Title:        fmt.Sprintf("%s check", topic),
				PassingScore: 70,
				Questions: []GeneratedQuizQuestion{
					{
						Type:          "true_false",
						Question:      fmt.Sprintf("This course is about %s.", topic),
						Options:       []string{"true", "false"},
						CorrectAnswer: "true",
						Points:        10,
					},
					{
						Type:          "short_answer",
						Question:      "Which topic does this course cover?",
						CorrectAnswer: topic,
						Points:        10,
					},
					{
						Type:          "multiple_choice",
						Question:      "How should you finish this course?",
						Options:       []string{"Skip it", "Take the quiz", "Delete the plan"},
						CorrectAnswer: "Take the quiz",
						Points:        10,
					},
				},
			},
		})
	}
	return courses
}

func normalizeDifficulty(difficulty string) string {
	d := strings.ToLower(strings.TrimSpace(difficulty))
	if _, ok := durationRanges[d]; !ok {
		return DefaultCourseDifficulty
	}
	return d
}

// CourseGenerator orchestrates prompt -> model -> salvage -> persist for one
// milestone. Persistence is a single transaction per call: no course row is
// ever committed without its quiz rows.
type CourseGenerator struct {
	DB     *gorm.DB
	AI     *AIClient
	Videos *YouTubeClient
	Log    *zap.Logger
}

func NewCourseGenerator(db *gorm.DB, ai *AIClient, videos *YouTubeClient, log *zap.Logger) *CourseGenerator {
	return &CourseGenerator{DB: db, AI: ai, Videos: videos, Log: log.With(zap.String("service", "coursegen"))}
}

func (g *CourseGenerator) Generate(ctx context.Context, milestone *models.Milestone, opts CourseGenOptions) ([]models.Course, error) {
	if opts.Count <= 0 {
		opts.Count = DefaultCourseCount
	}
	opts.Difficulty = normalizeDifficulty(opts.Difficulty)
	if len(opts.Topics) == 0 {
		opts.Topics = []string{milestone.Subject}
	}

	payloads := g.generatePayloads(ctx, milestone, opts)

	courses := make([]models.Course, 0, len(payloads))
	for _, payload := range payloads {
		courses = append(courses, g.buildCourse(ctx, milestone.ID, payload, opts.Difficulty))
	}

	err := g.DB.Transaction(func(tx *gorm.DB) error {
		for i := range courses {
			if err := tx.Create(&courses[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return courses, nil
}

func (g *CourseGenerator) generatePayloads(ctx context.Context, milestone *models.Milestone, opts CourseGenOptions) []GeneratedCourse {
	prompt := BuildCoursePrompt(milestone.Title, opts.Topics, opts.Count, opts.Difficulty)

	raw, err := g.AI.Generate(ctx, prompt)
	if err != nil {
		g.Log.Warn("generation request failed, using fallback stubs", zap.Error(err))
		return FallbackCourses(opts.Topics, opts.Count, opts.Difficulty)
	}

	var payloads []GeneratedCourse
	if err := ExtractJSONArray(raw, &payloads); err == nil && len(payloads) > 0 {
		return payloads
	}

	// One reformatting round-trip before giving up on the model output.
	reformatted, err := g.AI.Generate(ctx, BuildReformatPrompt(raw))
	if err == nil {
		if err := ExtractJSONArray(reformatted, &payloads); err == nil && len(payloads) > 0 {
			return payloads
		}
	}

	g.Log.Warn("model output unparsable after reformat round-trip, using fallback stubs")
	return FallbackCourses(opts.Topics, opts.Count, opts.Difficulty)
}

func (g *CourseGenerator) buildCourse(ctx context.Context, milestoneID uint, payload GeneratedCourse, defaultDifficulty string) models.Course {
	difficulty := payload.Difficulty
	if _, ok := durationRanges[strings.ToLower(difficulty)]; !ok {
		difficulty = defaultDifficulty
	} else {
		difficulty = strings.ToLower(difficulty)
	}

	course := models.Course{
		MilestoneID:     milestoneID,
		Title:           payload.Title,
		Description:     payload.Description,
		Content:         payload.Content,
		DurationMinutes: ClampDuration(difficulty, payload.DurationMinutes),
		Difficulty:      difficulty,
	}

	if payload.Quiz != nil && len(payload.Quiz.Questions) > 0 {
		course.Quiz = buildQuiz(payload.Quiz)
	}

	if payload.VideoQuery != "" && g.Videos != nil {
		if videos, err := g.Videos.Search(ctx, payload.VideoQuery, 1); err != nil {
			g.Log.Warn("video lookup failed", zap.String("query", payload.VideoQuery), zap.Error(err))
		} else if len(videos) > 0 {
			course.VideoID = videos[0].ID
			course.VideoTitle = videos[0].Title
		}
	}

	return course
}

func buildQuiz(payload *GeneratedQuiz) *models.Quiz {
	passingScore := payload.PassingScore
	if passingScore <= 0 || passingScore > 100 {
		passingScore = 70
	}

	quiz := &models.Quiz{
		Title:        payload.Title,
		PassingScore: passingScore,
		IsRequired:   true,
	}

	for _, q := range payload.Questions {
		points := q.Points
		if points <= 0 {
			points = 10
		}
		options, _ := json.Marshal(q.Options)
		quiz.Questions = append(quiz.Questions, models.QuizQuestion{
			Type:          normalizeQuestionType(q.Type),
			Question:      q.Question,
			Options:       datatypes.JSON(options),
			CorrectAnswer: q.CorrectAnswer,
			Points:        points,
		})
	}

	return quiz
}

func normalizeQuestionType(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "multiple_choice", "multiple-choice", "mcq":
		return "multiple_choice"
	case "true_false", "true-false", "boolean":
		return "true_false"
	default:
		return "short_answer"
	}
}

// stampCompleted is shared by the manual and quiz-pass completion paths.
func stampCompleted(course *models.Course) {
	now := time.Now()
	course.IsCompleted = true
	course.CompletedAt = &now
}
