package routes

import (
	"tutorium/backend/config"
	"tutorium/backend/controllers"
	"tutorium/backend/middleware"
	"tutorium/backend/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps carries everything the route handlers need.
type Deps struct {
	DB           *gorm.DB
	Cfg          *config.Config
	Log          *zap.Logger
	AI           *services.AIClient
	Videos       *services.YouTubeClient
	Gamification *services.Gamification
	Leaderboard  *services.Leaderboard
	Generator    *services.CourseGenerator
	Ingestor     *services.DocumentIngestor
	Tokens       *services.TokenStore
	Mailer       *services.Mailer
}

func SetupRoutes(app *fiber.App, d Deps) {
	// Health routes
	healthController := controllers.NewHealthController(d.DB, d.Log)
	app.Get("/healthz", healthController.Live)
	app.Get("/readyz", healthController.Ready)

	// Auth routes
	authController := controllers.NewAuthController(d.DB, d.Cfg, d.Gamification, d.Tokens, d.Mailer, d.Log)
	app.Post("/api/auth/register", authController.Register)
	app.Post("/api/auth/login", authController.Login)
	app.Post("/api/auth/refresh", authController.Refresh)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(d.Cfg)
	adminMiddleware := middleware.AdminMiddleware(d.Cfg)

	app.Post("/api/auth/users/:id/promote", authMiddleware, adminMiddleware, authController.PromoteUser)

	// User routes
	userController := controllers.NewUserController(d.DB, d.Cfg)
	app.Get("/api/user/profile", authMiddleware, userController.GetProfile)
	app.Put("/api/user/profile", authMiddleware, userController.UpdateProfile)
	app.Get("/api/user/activity", authMiddleware, userController.GetUserActivity)

	// Chat routes
	chatController := controllers.NewChatController(d.DB, d.Cfg, d.AI, d.Gamification, d.Log)
	chats := app.Group("/api/chats", authMiddleware)
	chats.Post("/", chatController.CreateChat)
	chats.Get("/", chatController.GetChats)
	chats.Get("/:id", chatController.GetChat)
	chats.Put("/:id", chatController.UpdateChat)
	chats.Delete("/:id", chatController.DeleteChat)
	chats.Post("/:id/messages", chatController.AddMessage)

	// Learning plan routes
	plansController := controllers.NewPlansController(d.DB, d.Cfg, d.Gamification, d.Log)
	plans := app.Group("/api/plans", authMiddleware)
	plans.Post("/", plansController.CreatePlan)
	plans.Get("/", plansController.GetPlans)
	plans.Get("/:id", plansController.GetPlan)
	plans.Put("/:id", plansController.UpdatePlan)
	plans.Delete("/:id", plansController.DeletePlan)
	plans.Post("/:id/milestones", plansController.AddMilestone)
	plans.Put("/:id/milestones/:mid", plansController.UpdateMilestone)
	plans.Delete("/:id/milestones/:mid", plansController.RemoveMilestone)

	// Course and quiz routes
	coursesController := controllers.NewCoursesController(d.DB, d.Cfg, d.Generator, d.Gamification, d.Log)
	plans.Post("/:id/milestones/:mid/courses/generate", coursesController.GenerateCourses)
	plans.Get("/:id/courses/:cid", coursesController.GetCourse)
	plans.Post("/:id/courses/:cid/complete", coursesController.CompleteCourse)
	quizzes := app.Group("/api/quizzes", authMiddleware)
	quizzes.Post("/:id/attempts", coursesController.SubmitQuizAttempt)

	// Gamification routes
	gamificationController := controllers.NewGamificationController(d.DB, d.Cfg, d.Gamification, d.Leaderboard, d.Log)
	gamification := app.Group("/api/gamification", authMiddleware)
	gamification.Get("/stats", gamificationController.GetStats)
	gamification.Get("/leaderboard", gamificationController.GetLeaderboard)
	gamification.Post("/seed", adminMiddleware, gamificationController.SeedBadges)

	// Document routes
	documentsController := controllers.NewDocumentsController(d.DB, d.Cfg, d.Ingestor, d.AI, d.Gamification, d.Log)
	documents := app.Group("/api/documents", authMiddleware)
	documents.Post("/upload", documentsController.UploadDocument)
	documents.Get("/", documentsController.ListDocuments)
	documents.Post("/:id/questions", documentsController.GenerateQuestions)

	// AI routes
	aiController := controllers.NewAIController(d.Cfg, d.AI, d.Log)
	ai := app.Group("/api/ai", authMiddleware)
	ai.Post("/generate", aiController.Generate)
	ai.Post("/stream", aiController.Stream)

	// Video routes
	videosController := controllers.NewVideosController(d.Cfg, d.Videos, d.Log)
	app.Get("/api/videos/search", authMiddleware, videosController.Search)

	// Upload routes
	uploadController := controllers.NewUploadController(d.Cfg, d.Log)
	app.Post("/api/upload/:kind", authMiddleware, uploadController.Upload)
	app.Static("/uploads", d.Cfg.UploadDir)
}
