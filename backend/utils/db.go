package utils

import (
	"fmt"
	"tutorium/backend/config"
	"tutorium/backend/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func InitDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate runs AutoMigrate for every model. The unique indexes created here
// (user email, badge name, (user, badge) pair) are what the application relies
// on for idempotent writes.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.LoginHistory{},
		&models.ChatSession{},
		&models.LearningPlan{},
		&models.Milestone{},
		&models.Course{},
		&models.Quiz{},
		&models.QuizQuestion{},
		&models.QuizAttempt{},
		&models.Badge{},
		&models.UserBadge{},
		&models.Document{},
		&models.DocumentChunk{},
		&models.GeneratedQuestion{},
	)
}
