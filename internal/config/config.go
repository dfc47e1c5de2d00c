package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	Engine  EngineConfig
	Session SessionConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	MaxUploadMB        int
}

type EngineConfig struct {
	BaseURL        string
	TimeoutSeconds int
}

type SessionConfig struct {
	TTLMinutes   int
	PurgeMinutes int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			MaxUploadMB:        getEnvAsInt("MAX_UPLOAD_MB", 25),
		},
		Engine: EngineConfig{
			BaseURL:        getEnv("ENGINE_BASE_URL", "http://localhost:8000"),
			TimeoutSeconds: getEnvAsInt("ENGINE_TIMEOUT_SECONDS", 120),
		},
		Session: SessionConfig{
			TTLMinutes:   getEnvAsInt("SESSION_TTL_MINUTES", 60),
			PurgeMinutes: getEnvAsInt("SESSION_PURGE_MINUTES", 10),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
