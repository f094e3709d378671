package controllers

import (
	"strconv"
	"strings"
	"time"
	"tutorium/backend/config"
	"tutorium/backend/models"
	"tutorium/backend/utils"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewUserController(db *gorm.DB, cfg *config.Config) *UserController {
	return &UserController{DB: db, Cfg: cfg}
}

// GetProfile godoc
// @Summary Get user profile
// @Description Returns authenticated user's profile with gamification stats
// @Tags users
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/profile [get]
func (uc *UserController) GetProfile(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, uc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var user models.User
	if err := uc.DB.First(&user, userID).Error; err != nil {
		return utils.NotFound(c, "User not found")
	}

	var activePlans []models.LearningPlan
	uc.DB.Where("user_id = ? AND is_active = ?", userID, true).
		Order("updated_at DESC").
		Limit(3).
		Find(&activePlans)

	var badgeCount int64
	uc.DB.Model(&models.UserBadge{}).Where("user_id = ?", userID).Count(&badgeCount)

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"id":            user.ID,
		"name":          user.Name,
		"email":         user.Email,
		"role":          user.Role,
		"avatar_url":    user.AvatarURL,
		"points":        user.Points,
		"streak_days":   user.StreakDays,
		"last_activity": user.LastActivity,
		"created_at":    user.CreatedAt,
		"badge_count":   badgeCount,
		"active_plans":  activePlans,
	})
}

// UpdateProfile godoc
// @Summary Update user profile
// @Description Updates name, avatar, email, or password
// @Tags users
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/profile [put]
func (uc *UserController) UpdateProfile(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, uc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var input struct {
		Name        string `json:"name"`
		Email       string `json:"email"`
		AvatarURL   string `json:"avatar_url"`
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	var user models.User
	if err := uc.DB.First(&user, userID).Error; err != nil {
		return utils.NotFound(c, "User not found")
	}

	if input.Name != "" {
		user.Name = strings.TrimSpace(input.Name)
	}
	if input.AvatarURL != "" {
		user.AvatarURL = input.AvatarURL
	}

	if input.Email != "" && input.Email != user.Email {
		var existingUser models.User
		if err := uc.DB.Where("email = ?", strings.ToLower(input.Email)).First(&existingUser).Error; err == nil {
			if existingUser.ID != user.ID {
				return utils.BadRequest(c, "Email already taken")
			}
		}
		user.Email = strings.ToLower(strings.TrimSpace(input.Email))
	}

	if input.NewPassword != "" {
		if input.OldPassword == "" {
			return utils.BadRequest(c, "Old password is required to set new password")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.OldPassword)); err != nil {
			return utils.Unauthorized(c, "Invalid old password")
		}
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return utils.InternalServerError(c, "Could not hash password")
		}
		user.PasswordHash = string(hashedPassword)
	}

	if err := uc.DB.Save(&user).Error; err != nil {
		return utils.InternalServerError(c, "Could not update user")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message": "Profile updated successfully",
	})
}

// GetUserActivity godoc
// @Summary Get user activity
// @Description Returns login history and quiz activity for the last N days
// @Tags users
// @Accept json
// @Produce json
// @Param days query int false "Number of days to look back" default(7)
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/activity [get]
func (uc *UserController) GetUserActivity(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, uc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	days, _ := strconv.Atoi(c.Query("days", "7"))
	if days < 1 {
		days = 7
	}
	since := time.Now().AddDate(0, 0, -days)

	var logins []models.LoginHistory
	if err := uc.DB.Where("user_id = ? AND login_time >= ?", userID, since).
		Order("login_time DESC").
		Find(&logins).Error; err != nil {
		return utils.InternalServerError(c, "Failed to fetch login history")
	}

	var quizActivity []struct {
		Date     string  `json:"date"`
		Attempts int     `json:"attempts"`
		AvgScore float64 `json:"avg_score"`
	}

	uc.DB.Raw(`
		SELECT
			DATE(created_at) as date,
			COUNT(*) as attempts,
			AVG(score) as avg_score
		FROM quiz_attempts
		WHERE user_id = ? AND created_at >= ?
		GROUP BY DATE(created_at)
		ORDER BY date DESC
	`, userID, since).Scan(&quizActivity)

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"logins":        logins,
		"quiz_activity": quizActivity,
		"period_days":   days,
	})
}
