package controllers

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"tutorium/backend/config"
	"tutorium/backend/models"
	"tutorium/backend/services"
	"tutorium/backend/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gofiber/fiber/v2"
)

// MaxDocumentBytes caps uploaded documents at 20 MB.
const MaxDocumentBytes = 20 << 20

type DocumentsController struct {
	DB           *gorm.DB
	Cfg          *config.Config
	Ingestor     *services.DocumentIngestor
	AI           *services.AIClient
	Gamification *services.Gamification
	Log          *zap.Logger
}

func NewDocumentsController(db *gorm.DB, cfg *config.Config, ingestor *services.DocumentIngestor, ai *services.AIClient, gamification *services.Gamification, log *zap.Logger) *DocumentsController {
	return &DocumentsController{DB: db, Cfg: cfg, Ingestor: ingestor, AI: ai, Gamification: gamification, Log: log}
}

// UploadDocument godoc
// @Summary Upload a PDF document
// @Description Stores the file, extracts its text, and indexes it into chunks
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PDF file"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /documents/upload [post]
func (dc *DocumentsController) UploadDocument(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, dc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.BadRequest(c, "File is required")
	}
	if fileHeader.Size > MaxDocumentBytes {
		return utils.BadRequest(c, "File is too large")
	}
	if !strings.EqualFold(filepath.Ext(fileHeader.Filename), ".pdf") {
		return utils.BadRequest(c, "Only PDF files are supported")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return utils.InternalServerError(c, "Could not read file")
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, MaxDocumentBytes+1))
	if err != nil {
		return utils.InternalServerError(c, "Could not read file")
	}

	storedName := uuid.NewString() + ".pdf"
	if err := os.MkdirAll(dc.Cfg.UploadDir, 0o755); err != nil {
		return utils.InternalServerError(c, "Could not store file")
	}
	if err := os.WriteFile(filepath.Join(dc.Cfg.UploadDir, storedName), data, 0o644); err != nil {
		return utils.InternalServerError(c, "Could not store file")
	}

	doc, err := dc.Ingestor.Ingest(c.Context(), userID, fileHeader.Filename, storedName, data)
	if err != nil {
		correlationID := uuid.NewString()
		dc.Log.Error("document ingest failed",
			zap.String("correlation_id", correlationID),
			zap.Uint("user_id", userID),
			zap.Error(err))
		return utils.BadRequest(c, "Could not extract text from the document")
	}

	return utils.Success(c, fiber.StatusCreated, fiber.Map{
		"id":          doc.ID,
		"file_name":   doc.FileName,
		"status":      doc.Status,
		"chunk_count": doc.ChunkCount,
	})
}

// ListDocuments godoc
// @Summary List the user's documents
// @Tags documents
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /documents [get]
func (dc *DocumentsController) ListDocuments(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, dc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var docs []models.Document
	if err := dc.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&docs).Error; err != nil {
		return utils.InternalServerError(c, "Could not fetch documents")
	}

	return utils.Success(c, fiber.StatusOK, docs)
}

// GenerateQuestions godoc
// @Summary Generate study questions from a document
// @Description Retrieves the most relevant chunks for the topic and asks the AI for question/answer pairs
// @Tags documents
// @Accept json
// @Produce json
// @Param id path int true "Document ID"
// @Success 201 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /documents/{id}/questions [post]
func (dc *DocumentsController) GenerateQuestions(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, dc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	docID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid document ID")
	}

	var doc models.Document
	if err := dc.DB.Where("id = ? AND user_id = ?", docID, userID).First(&doc).Error; err != nil {
		return utils.NotFound(c, "Document not found")
	}
	if doc.Status != "ready" {
		return utils.BadRequest(c, "Document is not ready yet")
	}

	var input struct {
		Topic string `json:"topic"`
		Count int    `json:"count"`
	}
	_ = c.BodyParser(&input) // an empty body falls back to the whole document
	if input.Count <= 0 || input.Count > 20 {
		input.Count = 5
	}

	var chunks []models.DocumentChunk
	if err := dc.DB.Where("document_id = ?", doc.ID).Order("position ASC").Find(&chunks).Error; err != nil {
		return utils.InternalServerError(c, "Could not load document content")
	}
	if len(chunks) == 0 {
		return utils.BadRequest(c, "Document has no indexed content")
	}

	context := dc.selectContext(c, chunks, input.Topic)

	prompt := buildQuestionPrompt(context, input.Topic, input.Count)
	raw, err := dc.AI.Generate(c.Context(), prompt)
	if err != nil {
		correlationID := uuid.NewString()
		dc.Log.Error("question generation failed",
			zap.String("correlation_id", correlationID),
			zap.Uint("document_id", doc.ID),
			zap.Error(err))
		return utils.ServiceUnavailable(c, "Question generation is temporarily unavailable", correlationID)
	}

	var pairs []struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
	}
	if err := services.ExtractJSONArray(raw, &pairs); err != nil {
		reformatted, rerr := dc.AI.Generate(c.Context(), services.BuildReformatPrompt(raw))
		if rerr != nil || services.ExtractJSONArray(reformatted, &pairs) != nil {
			correlationID := uuid.NewString()
			dc.Log.Error("question response unparsable",
				zap.String("correlation_id", correlationID),
				zap.Uint("document_id", doc.ID))
			return utils.ServiceUnavailable(c, "Question generation is temporarily unavailable", correlationID)
		}
	}

	questions := make([]models.GeneratedQuestion, 0, len(pairs))
	for _, p := range pairs {
		if strings.TrimSpace(p.Question) == "" {
			continue
		}
		questions = append(questions, models.GeneratedQuestion{
			UserID:     userID,
			DocumentID: doc.ID,
			Question:   strings.TrimSpace(p.Question),
			Answer:     strings.TrimSpace(p.Answer),
		})
	}
	if len(questions) == 0 {
		correlationID := uuid.NewString()
		return utils.ServiceUnavailable(c, "Question generation is temporarily unavailable", correlationID)
	}
	if err := dc.DB.Create(&questions).Error; err != nil {
		return utils.InternalServerError(c, "Could not save questions")
	}

	if _, err := dc.Gamification.CheckAndAwardBadges(userID); err != nil {
		dc.Log.Warn("badge check failed", zap.Uint("user_id", userID), zap.Error(err))
	}

	return utils.Success(c, fiber.StatusCreated, questions)
}

// selectContext picks the chunks to feed the prompt. With a topic and a
// working embedder it ranks chunks by similarity; otherwise it takes the
// leading chunks in document order.
func (dc *DocumentsController) selectContext(c *fiber.Ctx, chunks []models.DocumentChunk, topic string) string {
	const maxContextChunks = 6

	selected := chunks
	if topic != "" {
		if query, err := dc.AI.Embed(c.Context(), topic); err == nil {
			scored := services.TopChunks(chunks, query, maxContextChunks, 0.1)
			if len(scored) > 0 {
				selected = make([]models.DocumentChunk, 0, len(scored))
				for _, s := range scored {
					selected = append(selected, s.Chunk)
				}
			}
		} else {
			dc.Log.Warn("topic embedding failed", zap.Error(err))
		}
	}
	if len(selected) > maxContextChunks {
		selected = selected[:maxContextChunks]
	}

	var b strings.Builder
	for _, chunk := range selected {
		b.WriteString(chunk.Content)
		b.WriteString("\n\n")
	}
	return b.String()
}

func buildQuestionPrompt(context, topic string, count int) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Create %d study questions with answers based on the following material.\n", count))
	if topic != "" {
		b.WriteString(fmt.Sprintf("Focus on the topic: %s.\n", topic))
	}
	b.WriteString("Respond with ONLY a JSON array, no prose and no code fences:\n")
	b.WriteString(`[{"question": "...", "answer": "..."}]` + "\n\n")
	b.WriteString("Material:\n")
	b.WriteString(context)
	return b.String()
}
