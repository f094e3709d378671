package controllers

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gofiber/fiber/v2"
)

type HealthController struct {
	DB  *gorm.DB
	Log *zap.Logger
}

func NewHealthController(db *gorm.DB, log *zap.Logger) *HealthController {
	return &HealthController{DB: db, Log: log}
}

// Live reports that the process is up.
func (hc *HealthController) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Ready reports whether the database is reachable.
func (hc *HealthController) Ready(c *fiber.Ctx) error {
	sqlDB, err := hc.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Context())
	}
	if err != nil {
		hc.Log.Warn("readiness check failed", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
	}
	return c.JSON(fiber.Map{"status": "ready"})
}
