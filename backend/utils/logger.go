package utils

import (
	"os"

	"go.uber.org/zap"
)

// InitLogger builds the process-wide structured logger. LOG_ENV=development
// switches to the human-readable console encoder.
func InitLogger() *zap.Logger {
	var logger *zap.Logger
	var err error

	if os.Getenv("LOG_ENV") == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}

	return logger
}
