package controllers

import (
	"strconv"
	"tutorium/backend/config"
	"tutorium/backend/models"
	"tutorium/backend/services"
	"tutorium/backend/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gofiber/fiber/v2"
)

type GamificationController struct {
	DB           *gorm.DB
	Cfg          *config.Config
	Gamification *services.Gamification
	Leaderboard  *services.Leaderboard
	Log          *zap.Logger
}

func NewGamificationController(db *gorm.DB, cfg *config.Config, gamification *services.Gamification, leaderboard *services.Leaderboard, log *zap.Logger) *GamificationController {
	return &GamificationController{DB: db, Cfg: cfg, Gamification: gamification, Leaderboard: leaderboard, Log: log}
}

// GetStats godoc
// @Summary Get the user's gamification stats
// @Description Points, streak, badges earned, and per-criteria aggregates
// @Tags gamification
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /gamification/stats [get]
func (gc *GamificationController) GetStats(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, gc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var user models.User
	if err := gc.DB.First(&user, userID).Error; err != nil {
		return utils.NotFound(c, "User not found")
	}

	var earned []models.UserBadge
	gc.DB.Where("user_id = ?", userID).Preload("Badge").Order("earned_at DESC").Find(&earned)

	var quizAttempts, plansCreated int64
	gc.DB.Model(&models.QuizAttempt{}).Where("user_id = ?", userID).Count(&quizAttempts)
	gc.DB.Model(&models.LearningPlan{}).Where("user_id = ?", userID).Count(&plansCreated)

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"points":        user.Points,
		"streak_days":   user.StreakDays,
		"last_activity": user.LastActivity,
		"badges":        earned,
		"quiz_attempts": quizAttempts,
		"plans_created": plansCreated,
	})
}

// GetLeaderboard godoc
// @Summary Get the points leaderboard
// @Tags gamification
// @Produce json
// @Param limit query int false "Number of entries" default(10)
// @Success 200 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /gamification/leaderboard [get]
func (gc *GamificationController) GetLeaderboard(c *fiber.Ctx) error {
	if _, err := utils.ExtractUserIDFromToken(c, gc.Cfg); err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	entries, err := gc.Leaderboard.Top(c.Context(), limit)
	if err != nil {
		return utils.InternalServerError(c, "Could not load leaderboard")
	}

	return utils.Success(c, fiber.StatusOK, entries)
}

// SeedBadges godoc
// @Summary Seed the badge catalog
// @Description Idempotent upsert of the fixed badge catalog, admin only
// @Tags gamification
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /gamification/seed [post]
func (gc *GamificationController) SeedBadges(c *fiber.Ctx) error {
	if err := gc.Gamification.SeedBadges(); err != nil {
		return utils.InternalServerError(c, "Could not seed badges")
	}

	var count int64
	gc.DB.Model(&models.Badge{}).Count(&count)

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"badge_count": count,
	})
}
