package controllers

import (
	"errors"
	"strconv"
	"strings"
	"tutorium/backend/config"
	"tutorium/backend/services"
	"tutorium/backend/utils"

	"go.uber.org/zap"

	"github.com/gofiber/fiber/v2"
)

type VideosController struct {
	Cfg    *config.Config
	Videos *services.YouTubeClient
	Log    *zap.Logger
}

func NewVideosController(cfg *config.Config, videos *services.YouTubeClient, log *zap.Logger) *VideosController {
	return &VideosController{Cfg: cfg, Videos: videos, Log: log}
}

// Search godoc
// @Summary Search YouTube videos
// @Description Proxies a search query to the YouTube Data API
// @Tags videos
// @Produce json
// @Param q query string true "Search query"
// @Param limit query int false "Max results" default(5)
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /videos/search [get]
func (vc *VideosController) Search(c *fiber.Ctx) error {
	if _, err := utils.ExtractUserIDFromToken(c, vc.Cfg); err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		return utils.BadRequest(c, "Query is required")
	}

	limit, _ := strconv.Atoi(c.Query("limit", "5"))
	if limit <= 0 || limit > 25 {
		limit = 5
	}

	results, err := vc.Videos.Search(c.Context(), query, limit)
	if err != nil {
		if errors.Is(err, services.ErrNoVideoKey) {
			return utils.Error(c, fiber.StatusServiceUnavailable, fiber.NewError(fiber.StatusServiceUnavailable, "Video search is not configured"))
		}
		vc.Log.Error("video search failed", zap.String("query", query), zap.Error(err))
		return utils.Error(c, fiber.StatusBadGateway, fiber.NewError(fiber.StatusBadGateway, "Video search failed"))
	}

	return utils.Success(c, fiber.StatusOK, results)
}
