package main

import (
	"log"
	"tutorium/backend/config"
	"tutorium/backend/middleware"
	"tutorium/backend/routes"
	"tutorium/backend/services"
	"tutorium/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Initialize database
	db, err := utils.InitDB(cfg)
	if err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}

	// Initialize logger
	logger := utils.InitLogger()
	defer logger.Sync()

	// Redis is optional; services degrade to SQL and stateless tokens
	// when no client is configured.
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
	}

	// Services
	ai := services.NewAIClient(cfg, logger)
	videos := services.NewYouTubeClient(cfg)
	mailer := services.NewMailer(cfg, logger)
	leaderboard := services.NewLeaderboard(db, redisClient, logger)
	gamification := services.NewGamification(db, logger, leaderboard, mailer)
	generator := services.NewCourseGenerator(db, ai, videos, logger)
	ingestor := services.NewDocumentIngestor(db, ai, logger)
	tokens := services.NewTokenStore(redisClient, cfg.RefreshTokenTTL)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: 25 * 1024 * 1024,
	})

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.LoggingMiddleware(logger))

	// Setup routes
	routes.SetupRoutes(app, routes.Deps{
		DB:           db,
		Cfg:          cfg,
		Log:          logger,
		AI:           ai,
		Videos:       videos,
		Gamification: gamification,
		Leaderboard:  leaderboard,
		Generator:    generator,
		Ingestor:     ingestor,
		Tokens:       tokens,
		Mailer:       mailer,
	})

	// Start server
	log.Fatal(app.Listen(":" + cfg.ServerPort))
}
