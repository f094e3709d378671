package controllers

import (
	"errors"
	"strconv"
	"strings"
	"time"
	"tutorium/backend/config"
	"tutorium/backend/models"
	"tutorium/backend/services"
	"tutorium/backend/utils"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/gofiber/fiber/v2"
)

type AuthController struct {
	DB           *gorm.DB
	Cfg          *config.Config
	Gamification *services.Gamification
	Tokens       *services.TokenStore
	Mailer       *services.Mailer
	Log          *zap.Logger
}

func NewAuthController(db *gorm.DB, cfg *config.Config, gamification *services.Gamification, tokens *services.TokenStore, mailer *services.Mailer, log *zap.Logger) *AuthController {
	return &AuthController{DB: db, Cfg: cfg, Gamification: gamification, Tokens: tokens, Mailer: mailer, Log: log}
}

// Register godoc
// @Summary Register a new user
// @Description Creates a new user account and returns a token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body map[string]interface{} true "Signup data"
// @Success 201 {object} map[string]interface{}
// @Failure 409 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Router /auth/register [post]
func (ac *AuthController) Register(c *fiber.Ctx) error {
	type RegisterInput struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	var input RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	fieldErrors := map[string]string{}
	if strings.TrimSpace(input.Name) == "" {
		fieldErrors["name"] = "name is required"
	}
	if strings.TrimSpace(input.Email) == "" || !strings.Contains(input.Email, "@") {
		fieldErrors["email"] = "a valid email is required"
	}
	if len(input.Password) < 8 {
		fieldErrors["password"] = "password must be at least 8 characters"
	}
	if len(fieldErrors) > 0 {
		return utils.ValidationError(c, fieldErrors)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return utils.InternalServerError(c, "Could not hash password")
	}

	now := time.Now()
	user := models.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: string(hashedPassword),
		Role:         "user",
		StreakDays:   1,
		LastActivity: &now,
	}

	if err := ac.DB.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(strings.ToLower(err.Error()), "unique") || strings.Contains(strings.ToLower(err.Error()), "duplicate") {
			return utils.Conflict(c, "Email is already registered")
		}
		return utils.InternalServerError(c, "Could not create user")
	}

	pair, err := ac.issuePair(c, &user)
	if err != nil {
		return utils.InternalServerError(c, "Could not generate tokens")
	}

	// Welcome email is best-effort.
	if err := ac.Mailer.SendWelcome(user.Email, user.Name); err != nil {
		ac.Log.Warn("welcome email failed", zap.String("email", user.Email), zap.Error(err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"user":          userSummary(&user),
	})
}

// Login godoc
// @Summary User login
// @Description Authenticate user, update streak, and return a token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body map[string]interface{} true "Login credentials"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Router /auth/login [post]
func (ac *AuthController) Login(c *fiber.Ctx) error {
	type LoginInput struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	var input LoginInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	var user models.User
	if err := ac.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(input.Email))).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Unauthorized(c, "Invalid credentials")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return utils.Unauthorized(c, "Invalid credentials")
	}

	if err := ac.Gamification.UpdateStreak(&user); err != nil {
		return utils.InternalServerError(c, "Could not update streak")
	}
	ac.DB.Create(&models.LoginHistory{UserID: user.ID, LoginTime: time.Now()})

	// Streak badges may have unlocked on this login.
	if _, err := ac.Gamification.CheckAndAwardBadges(user.ID); err != nil {
		ac.Log.Warn("badge evaluation failed", zap.Uint("user_id", user.ID), zap.Error(err))
	}

	pair, err := ac.issuePair(c, &user)
	if err != nil {
		return utils.InternalServerError(c, "Could not generate tokens")
	}

	return c.JSON(fiber.Map{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"user":          userSummary(&user),
	})
}

// Refresh godoc
// @Summary Rotate a refresh token
// @Description Verifies the refresh token and returns a new token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body map[string]interface{} true "Refresh token"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Router /auth/refresh [post]
func (ac *AuthController) Refresh(c *fiber.Ctx) error {
	type RefreshInput struct {
		RefreshToken string `json:"refresh_token"`
	}

	var input RefreshInput
	if err := c.BodyParser(&input); err != nil || input.RefreshToken == "" {
		return utils.BadRequest(c, "Missing refresh token")
	}

	claims, err := utils.VerifyToken(input.RefreshToken, utils.TokenTypeRefresh, ac.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Invalid refresh token")
	}

	known, err := ac.Tokens.Check(c.Context(), input.RefreshToken)
	if err != nil {
		ac.Log.Warn("token store check failed", zap.Error(err))
	} else if !known {
		return utils.Unauthorized(c, "Refresh token has been revoked")
	}

	var user models.User
	if err := ac.DB.First(&user, claims.UserID).Error; err != nil {
		return utils.Unauthorized(c, "Unknown user")
	}

	if err := ac.Tokens.Delete(c.Context(), input.RefreshToken); err != nil {
		ac.Log.Warn("token store delete failed", zap.Error(err))
	}

	pair, err := ac.issuePair(c, &user)
	if err != nil {
		return utils.InternalServerError(c, "Could not generate tokens")
	}

	return c.JSON(fiber.Map{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

// PromoteUser godoc
// @Summary Promote a user to admin
// @Tags auth
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /auth/users/{id}/promote [post]
func (ac *AuthController) PromoteUser(c *fiber.Ctx) error {
	targetID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid user ID")
	}

	var user models.User
	if err := ac.DB.First(&user, targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "User not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if err := ac.DB.Model(&user).Update("role", "admin").Error; err != nil {
		return utils.InternalServerError(c, "Could not update user")
	}

	return c.JSON(fiber.Map{"id": user.ID, "role": "admin"})
}

func (ac *AuthController) issuePair(c *fiber.Ctx, user *models.User) (utils.TokenPair, error) {
	pair, err := utils.GenerateTokenPair(user.ID, user.Role, ac.Cfg)
	if err != nil {
		return utils.TokenPair{}, err
	}
	if err := ac.Tokens.Save(c.Context(), user.ID, pair.RefreshToken); err != nil {
		ac.Log.Warn("token store save failed", zap.Error(err))
	}
	return pair, nil
}

func userSummary(user *models.User) fiber.Map {
	return fiber.Map{
		"id":          user.ID,
		"name":        user.Name,
		"email":       user.Email,
		"role":        user.Role,
		"points":      user.Points,
		"streak_days": user.StreakDays,
		"avatar_url":  user.AvatarURL,
	}
}
