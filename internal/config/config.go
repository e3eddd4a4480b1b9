package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL        string
	Port               string
	AdminSecret        string
	AdminSecretHash    string
	JWTSecret          string
	TokenTTL           time.Duration
	CORSAllowedOrigins []string
	ImportBatchSize    int
	ImportMaxRows      int
	ImportMaxFileBytes int64
	ColumnMapFile      string
	LogLevel           string
	LogFormat          string
}

// Load reads the environment, after merging a .env file when one exists.
// Nothing here is mandatory: missing secrets fall back to ephemeral values
// inside the auth package.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		Port:            getEnv("PORT", "8081"),
		AdminSecret:     strings.TrimSpace(os.Getenv("ADMIN_SECRET")),
		AdminSecretHash: strings.TrimSpace(os.Getenv("ADMIN_SECRET_HASH")),
		JWTSecret:       strings.TrimSpace(os.Getenv("JWT_SECRET")),
		TokenTTL:        time.Duration(getEnvInt("TOKEN_TTL_HOURS", 24)) * time.Hour,
		CORSAllowedOrigins: getEnvCSV("CORS_ORIGINS", []string{
			"http://localhost:4200",
			"http://localhost:3000",
		}),
		ImportBatchSize:    getEnvInt("IMPORT_BATCH_SIZE", 500),
		ImportMaxRows:      getEnvInt("IMPORT_MAX_ROWS", 50000),
		ImportMaxFileBytes: int64(getEnvInt("IMPORT_MAX_FILE_MB", 25)) * 1024 * 1024,
		ColumnMapFile:      os.Getenv("COLUMN_MAP_FILE"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
	}
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getEnvCSV(key string, fallback []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return fallback
	}
	return result
}
