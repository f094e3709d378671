package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"tutorium/backend/config"
	"tutorium/backend/models"
	"tutorium/backend/routes"
	"tutorium/backend/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.LoginHistory{},
		&models.ChatSession{},
		&models.LearningPlan{},
		&models.Milestone{},
		&models.Course{},
		&models.Quiz{},
		&models.QuizQuestion{},
		&models.QuizAttempt{},
		&models.Badge{},
		&models.UserBadge{},
		&models.Document{},
		&models.DocumentChunk{},
		&models.GeneratedQuestion{},
	)
	require.NoError(t, err)

	cfg := &config.Config{
		JWTSecret:       "testsecret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		AITimeout:       time.Second,
		SMTPFrom:        "no-reply@tutorium.app",
		UploadDir:       t.TempDir(),
	}
	log := zap.NewNop()

	// No provider keys and no Redis: the AI client reports unavailability,
	// course generation uses fallback stubs, and the leaderboard and token
	// store degrade to SQL and stateless JWTs.
	ai := services.NewAIClient(cfg, log)
	videos := services.NewYouTubeClient(cfg)
	mailer := services.NewMailer(cfg, log)
	leaderboard := services.NewLeaderboard(db, nil, log)
	gamification := services.NewGamification(db, log, leaderboard, mailer)

	app := fiber.New()
	routes.SetupRoutes(app, routes.Deps{
		DB:           db,
		Cfg:          cfg,
		Log:          log,
		AI:           ai,
		Videos:       videos,
		Gamification: gamification,
		Leaderboard:  leaderboard,
		Generator:    services.NewCourseGenerator(db, ai, videos, log),
		Ingestor:     services.NewDocumentIngestor(db, ai, log),
		Tokens:       services.NewTokenStore(nil, cfg.RefreshTokenTTL),
		Mailer:       mailer,
	})

	return app, db
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var parsed map[string]interface{}
	if len(raw) > 0 && strings.HasPrefix(strings.TrimSpace(string(raw)), "{") {
		require.NoError(t, json.Unmarshal(raw, &parsed))
	}
	return resp, parsed
}

func registerUser(t *testing.T, app *fiber.App, email string) (accessToken, refreshToken string) {
	t.Helper()

	resp, body := doJSON(t, app, "POST", "/api/auth/register", "", map[string]string{
		"name":     "Test User",
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.NotEmpty(t, body["access_token"])
	require.NotEmpty(t, body["refresh_token"])
	return body["access_token"].(string), body["refresh_token"].(string)
}

func TestRegisterValidation(t *testing.T) {
	app, _ := newTestApp(t)

	resp, _ := doJSON(t, app, "POST", "/api/auth/register", "", map[string]string{
		"name":     "",
		"email":    "not-an-email",
		"password": "short",
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	app, _ := newTestApp(t)
	registerUser(t, app, "ada@example.com")

	resp, _ := doJSON(t, app, "POST", "/api/auth/register", "", map[string]string{
		"name":     "Ada Again",
		"email":    "ada@example.com",
		"password": "password123",
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestLogin(t *testing.T) {
	app, _ := newTestApp(t)
	registerUser(t, app, "ada@example.com")

	resp, body := doJSON(t, app, "POST", "/api/auth/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": "password123",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["access_token"])

	user := body["user"].(map[string]interface{})
	assert.EqualValues(t, 1, user["streak_days"])

	resp, _ = doJSON(t, app, "POST", "/api/auth/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRefreshRotation(t *testing.T) {
	app, _ := newTestApp(t)
	access, refresh := registerUser(t, app, "ada@example.com")

	resp, body := doJSON(t, app, "POST", "/api/auth/refresh", "", map[string]string{
		"refresh_token": refresh,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["access_token"])
	assert.NotEmpty(t, body["refresh_token"])

	// An access token is not accepted where a refresh token is expected.
	resp, _ = doJSON(t, app, "POST", "/api/auth/refresh", "", map[string]string{
		"refresh_token": access,
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app, _ := newTestApp(t)

	resp, _ := doJSON(t, app, "GET", "/api/plans/", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, app, "GET", "/api/plans/", "garbage-token", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestPlanProgressLifecycle(t *testing.T) {
	app, _ := newTestApp(t)
	token, _ := registerUser(t, app, "ada@example.com")

	resp, body := doJSON(t, app, "POST", "/api/plans/", token, map[string]interface{}{
		"title":    "Learn math",
		"subjects": []string{"algebra", "geometry"},
		"milestones": []map[string]interface{}{
			{"title": "Algebra basics", "subject": "algebra", "order_index": 0},
			{"title": "Geometry basics", "subject": "geometry", "order_index": 1},
		},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	plan := body["data"].(map[string]interface{})
	planID := int(plan["ID"].(float64))
	milestones := plan["Milestones"].([]interface{})
	require.Len(t, milestones, 2)
	firstMilestoneID := int(milestones[0].(map[string]interface{})["ID"].(float64))
	secondMilestoneID := int(milestones[1].(map[string]interface{})["ID"].(float64))
	assert.EqualValues(t, 0, plan["Progress"])

	resp, body = doJSON(t, app, "PUT",
		fmt.Sprintf("/api/plans/%d/milestones/%d", planID, firstMilestoneID), token,
		map[string]interface{}{"is_completed": true})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 50, body["data"].(map[string]interface{})["progress"])

	resp, body = doJSON(t, app, "PUT",
		fmt.Sprintf("/api/plans/%d/milestones/%d", planID, secondMilestoneID), token,
		map[string]interface{}{"is_completed": true})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 100, body["data"].(map[string]interface{})["progress"])

	// Removing a completed milestone recomputes from what is left.
	resp, body = doJSON(t, app, "DELETE",
		fmt.Sprintf("/api/plans/%d/milestones/%d", planID, secondMilestoneID), token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 100, body["data"].(map[string]interface{})["progress"])
}

func TestPlanOwnershipIsolation(t *testing.T) {
	app, _ := newTestApp(t)
	owner, _ := registerUser(t, app, "ada@example.com")
	intruder, _ := registerUser(t, app, "eve@example.com")

	resp, body := doJSON(t, app, "POST", "/api/plans/", owner, map[string]interface{}{
		"title": "Private plan",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	planID := int(body["data"].(map[string]interface{})["ID"].(float64))

	// A foreign plan reads as not found, never as forbidden.
	resp, _ = doJSON(t, app, "GET", fmt.Sprintf("/api/plans/%d", planID), intruder, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, app, "DELETE", fmt.Sprintf("/api/plans/%d", planID), intruder, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestCourseGenerationFallback(t *testing.T) {
	app, _ := newTestApp(t)
	token, _ := registerUser(t, app, "ada@example.com")

	resp, body := doJSON(t, app, "POST", "/api/plans/", token, map[string]interface{}{
		"title": "Learn algebra",
		"milestones": []map[string]interface{}{
			{"title": "Algebra", "subject": "algebra", "order_index": 0},
		},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	plan := body["data"].(map[string]interface{})
	planID := int(plan["ID"].(float64))
	milestoneID := int(plan["Milestones"].([]interface{})[0].(map[string]interface{})["ID"].(float64))

	// Without a provider the generator falls back to deterministic stubs.
	resp, body = doJSON(t, app, "POST",
		fmt.Sprintf("/api/plans/%d/milestones/%d/courses/generate", planID, milestoneID), token,
		map[string]interface{}{"count": 2, "topics": []string{"Algebra"}, "difficulty": "beginner"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	courses := body["data"].([]interface{})
	require.Len(t, courses, 2)
	for _, raw := range courses {
		course := raw.(map[string]interface{})
		assert.Equal(t, "beginner", course["Difficulty"])
		assert.EqualValues(t, 30, course["DurationMinutes"])
	}
}

func TestMilestoneCompletionDerivedFromCourses(t *testing.T) {
	app, _ := newTestApp(t)
	token, _ := registerUser(t, app, "ada@example.com")

	resp, body := doJSON(t, app, "POST", "/api/plans/", token, map[string]interface{}{
		"title": "Learn algebra",
		"milestones": []map[string]interface{}{
			{"title": "Algebra", "subject": "algebra", "order_index": 0},
		},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	plan := body["data"].(map[string]interface{})
	planID := int(plan["ID"].(float64))
	milestoneID := int(plan["Milestones"].([]interface{})[0].(map[string]interface{})["ID"].(float64))

	resp, body = doJSON(t, app, "POST",
		fmt.Sprintf("/api/plans/%d/milestones/%d/courses/generate", planID, milestoneID), token,
		map[string]interface{}{"count": 2, "topics": []string{"Algebra"}})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	courses := body["data"].([]interface{})
	require.Len(t, courses, 2)

	// A milestone with incomplete courses cannot be flagged complete by hand.
	resp, _ = doJSON(t, app, "PUT",
		fmt.Sprintf("/api/plans/%d/milestones/%d", planID, milestoneID), token,
		map[string]interface{}{"is_completed": true})
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	resp, body = doJSON(t, app, "GET", fmt.Sprintf("/api/plans/%d", planID), token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	plan = body["data"].(map[string]interface{})
	assert.EqualValues(t, 0, plan["Progress"])
	milestone := plan["Milestones"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, false, milestone["IsCompleted"])

	// Once every course is done the manual flag is accepted.
	for _, raw := range courses {
		courseID := int(raw.(map[string]interface{})["ID"].(float64))
		resp, _ = doJSON(t, app, "POST",
			fmt.Sprintf("/api/plans/%d/courses/%d/complete", planID, courseID), token, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
	resp, _ = doJSON(t, app, "PUT",
		fmt.Sprintf("/api/plans/%d/milestones/%d", planID, milestoneID), token,
		map[string]interface{}{"is_completed": true})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestQuizAttemptCompletesCourse(t *testing.T) {
	app, _ := newTestApp(t)
	token, _ := registerUser(t, app, "ada@example.com")

	resp, body := doJSON(t, app, "POST", "/api/plans/", token, map[string]interface{}{
		"title": "Learn algebra",
		"milestones": []map[string]interface{}{
			{"title": "Algebra", "subject": "Algebra", "order_index": 0},
		},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	plan := body["data"].(map[string]interface{})
	planID := int(plan["ID"].(float64))
	milestoneID := int(plan["Milestones"].([]interface{})[0].(map[string]interface{})["ID"].(float64))

	resp, body = doJSON(t, app, "POST",
		fmt.Sprintf("/api/plans/%d/milestones/%d/courses/generate", planID, milestoneID), token,
		map[string]interface{}{"count": 1, "topics": []string{"Algebra"}})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	courseID := int(body["data"].([]interface{})[0].(map[string]interface{})["ID"].(float64))

	resp, body = doJSON(t, app, "GET",
		fmt.Sprintf("/api/plans/%d/courses/%d", planID, courseID), token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	course := body["data"].(map[string]interface{})
	quiz := course["Quiz"].(map[string]interface{})
	quizID := int(quiz["ID"].(float64))
	questions := quiz["Questions"].([]interface{})
	require.NotEmpty(t, questions)

	answers := make([]map[string]interface{}, 0, len(questions))
	for _, raw := range questions {
		q := raw.(map[string]interface{})
		answers = append(answers, map[string]interface{}{
			"question_id": int(q["ID"].(float64)),
			"answer":      q["CorrectAnswer"],
		})
	}

	resp, body = doJSON(t, app, "POST",
		fmt.Sprintf("/api/quizzes/%d/attempts", quizID), token,
		map[string]interface{}{"answers": answers})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	result := body["data"].(map[string]interface{})
	assert.EqualValues(t, 100, result["score"])
	assert.Equal(t, true, result["is_passed"])

	// Passing the required quiz completed the only course, which completed
	// the only milestone, which completed the plan.
	resp, body = doJSON(t, app, "GET", fmt.Sprintf("/api/plans/%d", planID), token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 100, body["data"].(map[string]interface{})["Progress"])
}

func TestChatMessagesPersistWhenAIUnavailable(t *testing.T) {
	app, _ := newTestApp(t)
	token, _ := registerUser(t, app, "ada@example.com")

	resp, body := doJSON(t, app, "POST", "/api/chats/", token, map[string]string{"title": "Homework help"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	chatID := int(body["data"].(map[string]interface{})["ID"].(float64))

	// No provider configured: the endpoint reports 503 but the user's
	// message is persisted with a correlation id for the log line.
	resp, body = doJSON(t, app, "POST",
		fmt.Sprintf("/api/chats/%d/messages", chatID), token,
		map[string]string{"content": "What is a derivative?"})
	require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	assert.NotEmpty(t, body["correlation_id"])

	resp, body = doJSON(t, app, "GET", fmt.Sprintf("/api/chats/%d", chatID), token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var messages []models.ChatMessage
	rawMessages := body["data"].(map[string]interface{})["Messages"]
	encoded, err := json.Marshal(rawMessages)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(encoded, &messages))
	require.Len(t, messages, 1)
	assert.Equal(t, "user", messages[0].Role)
	assert.Equal(t, "What is a derivative?", messages[0].Content)
}

func TestGamificationStatsAndSeed(t *testing.T) {
	app, db := newTestApp(t)
	token, _ := registerUser(t, app, "ada@example.com")

	resp, _ := doJSON(t, app, "POST", "/api/plans/", token, map[string]interface{}{"title": "Plan"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, app, "GET", "/api/gamification/stats", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	stats := body["data"].(map[string]interface{})
	assert.EqualValues(t, 20, stats["points"]) // plan creation award
	assert.EqualValues(t, 1, stats["plans_created"])

	// Seeding is admin only.
	resp, _ = doJSON(t, app, "POST", "/api/gamification/seed", token, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	require.NoError(t, db.Model(&models.User{}).Where("email = ?", "ada@example.com").Update("role", "admin").Error)

	resp, body = doJSON(t, app, "POST", "/api/auth/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": "password123",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	adminToken := body["access_token"].(string)

	resp, body = doJSON(t, app, "POST", "/api/gamification/seed", adminToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Greater(t, body["data"].(map[string]interface{})["badge_count"].(float64), float64(0))
}

func TestLeaderboardFallsBackToSQL(t *testing.T) {
	app, _ := newTestApp(t)
	first, _ := registerUser(t, app, "ada@example.com")
	second, _ := registerUser(t, app, "bob@example.com")

	// Two plans for ada, one for bob.
	for _, req := range []struct {
		token string
		title string
	}{
		{first, "Plan A"},
		{first, "Plan B"},
		{second, "Plan C"},
	} {
		resp, _ := doJSON(t, app, "POST", "/api/plans/", req.token, map[string]interface{}{"title": req.title})
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	}

	resp, body := doJSON(t, app, "GET", "/api/gamification/leaderboard?limit=5", first, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	entries := body["data"].([]interface{})
	require.Len(t, entries, 2)
	top := entries[0].(map[string]interface{})
	assert.Equal(t, "Test User", top["name"])
	assert.EqualValues(t, 40, top["points"])
}

func TestAIGenerateUnavailable(t *testing.T) {
	app, _ := newTestApp(t)
	token, _ := registerUser(t, app, "ada@example.com")

	resp, _ := doJSON(t, app, "POST", "/api/ai/generate", token, map[string]string{"prompt": ""})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, body := doJSON(t, app, "POST", "/api/ai/generate", token, map[string]string{"prompt": "Explain limits"})
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	assert.NotEmpty(t, body["correlation_id"])
}

func TestVideoSearchNotConfigured(t *testing.T) {
	app, _ := newTestApp(t)
	token, _ := registerUser(t, app, "ada@example.com")

	resp, _ := doJSON(t, app, "GET", "/api/videos/search?q=calculus", token, nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	resp, _ = doJSON(t, app, "GET", "/api/videos/search", token, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func multipartUpload(t *testing.T, app *fiber.App, path, token, fileName string, content []byte) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestUploadValidation(t *testing.T) {
	app, _ := newTestApp(t)
	token, _ := registerUser(t, app, "ada@example.com")

	resp := multipartUpload(t, app, "/api/upload/avatar", token, "notes.exe", []byte("binary"))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// A PDF is not an avatar.
	resp = multipartUpload(t, app, "/api/upload/avatar", token, "notes.pdf", []byte("pdf-bytes"))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = multipartUpload(t, app, "/api/upload/unknown", token, "avatar.png", []byte("png-bytes"))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = multipartUpload(t, app, "/api/upload/avatar", token, "avatar.png", []byte("png-bytes"))
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
}

func TestDocumentUploadRejectsNonPDF(t *testing.T) {
	app, _ := newTestApp(t)
	token, _ := registerUser(t, app, "ada@example.com")

	resp := multipartUpload(t, app, "/api/documents/upload", token, "notes.txt", []byte("plain text"))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGenerateQuestionsRejectsBadID(t *testing.T) {
	app, _ := newTestApp(t)
	token, _ := registerUser(t, app, "ada@example.com")

	resp, _ := doJSON(t, app, "POST", "/api/documents/abc/questions", token,
		map[string]interface{}{"count": 3})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHealthEndpoints(t *testing.T) {
	app, _ := newTestApp(t)

	resp, _ := doJSON(t, app, "GET", "/healthz", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, "GET", "/readyz", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
