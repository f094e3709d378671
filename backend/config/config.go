package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	ServerPort string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// Primary text-generation provider (Gemini-shaped API).
	GeminiAPIKey  string
	GeminiBaseURL string
	GeminiModel   string

	// Fallback text-generation provider (OpenAI-shaped API),
	// also used for embeddings.
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	OpenAIModel    string
	EmbeddingModel string

	AITimeout time.Duration

	YouTubeAPIKey string

	RedisAddr     string
	RedisPassword string

	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	UploadDir string
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, using environment variables")
	}

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "tutorium"),
		ServerPort: getEnv("SERVER_PORT", "8080"),

		JWTSecret:       getEnv("JWT_SECRET", "secret"),
		AccessTokenTTL:  getCountEnv("ACCESS_TOKEN_TTL_MIN", 15) * time.Minute,
		RefreshTokenTTL: getCountEnv("REFRESH_TOKEN_TTL_HOURS", 7*24) * time.Hour,

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-1.5-flash"),

		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", "https://api.openai.com"),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),

		AITimeout: getCountEnv("AI_TIMEOUT_SECONDS", 30) * time.Second,

		YouTubeAPIKey: getEnv("YOUTUBE_API_KEY", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		SMTPHost: getEnv("SMTP_HOST", ""),
		SMTPPort: getEnv("SMTP_PORT", "587"),
		SMTPUser: getEnv("SMTP_USER", ""),
		SMTPPass: getEnv("SMTP_PASS", ""),
		SMTPFrom: getEnv("SMTP_FROM", "no-reply@tutorium.app"),

		UploadDir: getEnv("UPLOAD_DIR", "./uploads"),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getCountEnv(key string, defaultValue int) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed)
		}
	}
	return time.Duration(defaultValue)
}
