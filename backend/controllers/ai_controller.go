package controllers

import (
	"bufio"
	"context"
	"strings"
	"tutorium/backend/config"
	"tutorium/backend/services"
	"tutorium/backend/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gofiber/fiber/v2"
)

type AIController struct {
	Cfg *config.Config
	AI  *services.AIClient
	Log *zap.Logger
}

func NewAIController(cfg *config.Config, ai *services.AIClient, log *zap.Logger) *AIController {
	return &AIController{Cfg: cfg, AI: ai, Log: log}
}

type generateInput struct {
	Prompt string `json:"prompt"`
}

// Generate godoc
// @Summary Generate text from a prompt
// @Description Proxies the prompt to the configured AI provider and returns the full response
// @Tags ai
// @Accept json
// @Produce json
// @Param input body generateInput true "Prompt"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /ai/generate [post]
func (ac *AIController) Generate(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, ac.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var input generateInput
	if err := c.BodyParser(&input); err != nil || strings.TrimSpace(input.Prompt) == "" {
		return utils.BadRequest(c, "Prompt is required")
	}

	text, err := ac.AI.Generate(c.Context(), input.Prompt)
	if err != nil {
		correlationID := uuid.NewString()
		ac.Log.Error("ai generation failed",
			zap.String("correlation_id", correlationID),
			zap.Uint("user_id", userID),
			zap.Error(err))
		return utils.ServiceUnavailable(c, "AI generation is temporarily unavailable", correlationID)
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"text": text,
	})
}

// Stream godoc
// @Summary Stream generated text
// @Description Returns the generated response as a chunked plain-text stream
// @Tags ai
// @Accept json
// @Produce plain
// @Param input body generateInput true "Prompt"
// @Success 200 {string} string
// @Failure 400 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /ai/stream [post]
func (ac *AIController) Stream(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, ac.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var input generateInput
	if err := c.BodyParser(&input); err != nil || strings.TrimSpace(input.Prompt) == "" {
		return utils.BadRequest(c, "Prompt is required")
	}

	// Generate before committing to a streaming response so provider
	// failures still map to a proper error status.
	text, err := ac.AI.Generate(context.Background(), input.Prompt)
	if err != nil {
		correlationID := uuid.NewString()
		ac.Log.Error("ai stream failed",
			zap.String("correlation_id", correlationID),
			zap.Uint("user_id", userID),
			zap.Error(err))
		return utils.ServiceUnavailable(c, "AI generation is temporarily unavailable", correlationID)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		for _, chunk := range splitStreamChunks(text, 64) {
			if _, err := w.WriteString(chunk); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	})
	return nil
}

// splitStreamChunks breaks text into pieces of roughly size runes, cutting
// on word boundaries where possible.
func splitStreamChunks(text string, size int) []string {
	words := strings.SplitAfter(text, " ")
	var chunks []string
	var current strings.Builder
	for _, word := range words {
		current.WriteString(word)
		if current.Len() >= size {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
