package controllers

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"
	"tutorium/backend/config"
	"tutorium/backend/models"
	"tutorium/backend/services"
	"tutorium/backend/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/gofiber/fiber/v2"
)

type ChatController struct {
	DB           *gorm.DB
	Cfg          *config.Config
	AI           *services.AIClient
	Gamification *services.Gamification
	Log          *zap.Logger
}

func NewChatController(db *gorm.DB, cfg *config.Config, ai *services.AIClient, gamification *services.Gamification, log *zap.Logger) *ChatController {
	return &ChatController{DB: db, Cfg: cfg, AI: ai, Gamification: gamification, Log: log}
}

// CreateChat godoc
// @Summary Create a chat session
// @Tags chats
// @Accept json
// @Produce json
// @Success 201 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /chats [post]
func (cc *ChatController) CreateChat(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var input struct {
		Title string `json:"title"`
	}
	// An empty body is fine; the session just gets the default title.
	_ = c.BodyParser(&input)
	if strings.TrimSpace(input.Title) == "" {
		input.Title = "New chat"
	}

	session := models.ChatSession{
		UserID:   userID,
		Title:    strings.TrimSpace(input.Title),
		Messages: datatypes.JSON([]byte("[]")),
	}
	if err := cc.DB.Create(&session).Error; err != nil {
		return utils.InternalServerError(c, "Could not create chat")
	}

	if _, err := cc.Gamification.CheckAndAwardBadges(userID); err != nil {
		cc.Log.Warn("badge evaluation failed", zap.Uint("user_id", userID), zap.Error(err))
	}

	return utils.Created(c, session)
}

// GetChats godoc
// @Summary List chat sessions
// @Tags chats
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /chats [get]
func (cc *ChatController) GetChats(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var sessions []models.ChatSession
	cc.DB.Where("user_id = ?", userID).Order("updated_at DESC").Find(&sessions)

	return utils.Success(c, fiber.StatusOK, sessions)
}

// GetChat godoc
// @Summary Get one chat session with its messages
// @Tags chats
// @Produce json
// @Param id path int true "Chat ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /chats/{id} [get]
func (cc *ChatController) GetChat(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	session, err := cc.ownedChat(c, userID)
	if err != nil {
		return err
	}

	return utils.Success(c, fiber.StatusOK, session)
}

// UpdateChat godoc
// @Summary Rename a chat session
// @Tags chats
// @Accept json
// @Produce json
// @Param id path int true "Chat ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /chats/{id} [put]
func (cc *ChatController) UpdateChat(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	session, err := cc.ownedChat(c, userID)
	if err != nil {
		return err
	}

	var input struct {
		Title string `json:"title"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if strings.TrimSpace(input.Title) == "" {
		return utils.ValidationError(c, map[string]string{"title": "title is required"})
	}

	if err := cc.DB.Model(session).Update("title", strings.TrimSpace(input.Title)).Error; err != nil {
		return utils.InternalServerError(c, "Could not update chat")
	}

	return utils.Success(c, fiber.StatusOK, session)
}

// DeleteChat godoc
// @Summary Delete a chat session
// @Tags chats
// @Param id path int true "Chat ID"
// @Success 204
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /chats/{id} [delete]
func (cc *ChatController) DeleteChat(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	session, err := cc.ownedChat(c, userID)
	if err != nil {
		return err
	}

	if err := cc.DB.Delete(session).Error; err != nil {
		return utils.InternalServerError(c, "Could not delete chat")
	}

	return utils.NoContent(c)
}

// AddMessage godoc
// @Summary Add a message and get the tutor's reply
// @Description Appends the user message, asks the AI proxy for a reply, and appends it
// @Tags chats
// @Accept json
// @Produce json
// @Param id path int true "Chat ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /chats/{id}/messages [post]
func (cc *ChatController) AddMessage(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	session, err := cc.ownedChat(c, userID)
	if err != nil {
		return err
	}

	var input struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if strings.TrimSpace(input.Content) == "" {
		return utils.ValidationError(c, map[string]string{"content": "content is required"})
	}

	var messages []models.ChatMessage
	if len(session.Messages) > 0 {
		if err := json.Unmarshal(session.Messages, &messages); err != nil {
			messages = nil
		}
	}

	messages = append(messages, models.ChatMessage{
		Role:      "user",
		Content:   input.Content,
		Timestamp: time.Now(),
	})

	reply, genErr := cc.AI.Generate(c.Context(), buildChatPrompt(messages))
	if genErr == nil {
		messages = append(messages, models.ChatMessage{
			Role:      "assistant",
			Content:   reply,
			Timestamp: time.Now(),
		})
	}

	encoded, err := json.Marshal(messages)
	if err != nil {
		return utils.InternalServerError(c, "Could not encode messages")
	}
	if err := cc.DB.Model(session).Update("messages", datatypes.JSON(encoded)).Error; err != nil {
		return utils.InternalServerError(c, "Could not save messages")
	}

	if genErr != nil {
		// The user message was persisted; report the upstream failure.
		correlationID := uuid.NewString()
		cc.Log.Error("chat reply generation failed",
			zap.String("correlation_id", correlationID),
			zap.Uint("chat_id", session.ID), zap.Error(genErr))
		return utils.ServiceUnavailable(c, "Tutor is unavailable right now", correlationID)
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"reply":    reply,
		"messages": messages,
	})
}

// ownedChat fetches the chat by id filtered by owner. A foreign chat is
// indistinguishable from a missing one.
func (cc *ChatController) ownedChat(c *fiber.Ctx, userID uint) (*models.ChatSession, error) {
	chatID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return nil, utils.BadRequest(c, "Invalid chat ID")
	}

	var session models.ChatSession
	if err := cc.DB.Where("id = ? AND user_id = ?", chatID, userID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFound(c, "Chat not found")
		}
		return nil, utils.InternalServerError(c, "Could not query database")
	}
	return &session, nil
}

// buildChatPrompt flattens the running conversation into a single tutoring
// prompt for the text-generation proxy.
func buildChatPrompt(messages []models.ChatMessage) string {
	var sb strings.Builder
	sb.WriteString("You are a patient personal tutor. Continue the conversation with a concise, helpful reply.\n\n")

	// Only the most recent exchanges matter for context.
	start := 0
	if len(messages) > 20 {
		start = len(messages) - 20
	}
	for _, msg := range messages[start:] {
		sb.WriteString(msg.Role)
		sb.WriteString(": ")
		sb.WriteString(msg.Content)
		sb.WriteString("\n")
	}
	sb.WriteString("assistant:")
	return sb.String()
}
