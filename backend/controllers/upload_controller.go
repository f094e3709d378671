package controllers

import (
	"os"
	"path/filepath"
	"strings"
	"tutorium/backend/config"
	"tutorium/backend/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gofiber/fiber/v2"
)

// MaxUploadBytes caps generic uploads at 5 MB.
const MaxUploadBytes = 5 << 20

// uploadKinds maps the upload kind to its allowed file extensions.
var uploadKinds = map[string]map[string]bool{
	"avatar": {
		".png":  true,
		".jpg":  true,
		".jpeg": true,
		".gif":  true,
		".webp": true,
	},
	"document": {
		".pdf": true,
	},
}

type UploadController struct {
	Cfg *config.Config
	Log *zap.Logger
}

func NewUploadController(cfg *config.Config, log *zap.Logger) *UploadController {
	return &UploadController{Cfg: cfg, Log: log}
}

// Upload godoc
// @Summary Upload a file
// @Description Stores an avatar image or PDF document under a random name and returns its public path
// @Tags upload
// @Accept multipart/form-data
// @Produce json
// @Param kind path string true "Upload kind" Enums(avatar, document)
// @Param file formData file true "File"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /upload/{kind} [post]
func (uc *UploadController) Upload(c *fiber.Ctx) error {
	if _, err := utils.ExtractUserIDFromToken(c, uc.Cfg); err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	allowed, ok := uploadKinds[c.Params("kind")]
	if !ok {
		return utils.BadRequest(c, "Unknown upload kind")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.BadRequest(c, "File is required")
	}
	if fileHeader.Size > MaxUploadBytes {
		return utils.BadRequest(c, "File is too large")
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowed[ext] {
		return utils.BadRequest(c, "Unsupported file type")
	}

	if err := os.MkdirAll(uc.Cfg.UploadDir, 0o755); err != nil {
		return utils.InternalServerError(c, "Could not store file")
	}

	storedName := uuid.NewString() + ext
	if err := c.SaveFile(fileHeader, filepath.Join(uc.Cfg.UploadDir, storedName)); err != nil {
		uc.Log.Error("file save failed", zap.String("name", fileHeader.Filename), zap.Error(err))
		return utils.InternalServerError(c, "Could not store file")
	}

	return utils.Success(c, fiber.StatusCreated, fiber.Map{
		"file_name": fileHeader.Filename,
		"path":      "/uploads/" + storedName,
	})
}
