package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"mediagrab/internal/model"

	"github.com/joho/godotenv"
)

// Load loads configuration from environment variables
func Load() *model.Config {
	godotenv.Load()

	return &model.Config{
		Server: model.ServerConfig{
			Port:    getEnvInt("SERVER_PORT", 8080),
			Host:    getEnvStr("SERVER_HOST", "0.0.0.0"),
			Timeout: getEnvInt("SERVER_TIMEOUT", 300),
		},
		Catalog: model.CatalogConfig{
			BaseURL: getEnvStr("CATALOG_API_BASE_URL", "https://www.googleapis.com/youtube/v3"),
			APIKey:  getEnvStr("YOUTUBE_API_KEY", ""),
			Timeout: getEnvInt("CATALOG_API_TIMEOUT", 15),
		},
		Pipeline: model.PipelineConfig{
			YtdlpPath: getEnvStr("YTDLP_PATH", "yt-dlp"),
			Timeout:   getEnvInt("PIPELINE_TIMEOUT", 1800),
		},
		Storage: model.StorageConfig{
			WorkspaceRoot:   getEnvStr("WORKSPACE_ROOT", filepath.Join(os.TempDir(), "mediagrab")),
			JobTTLSeconds:   getEnvInt("JOB_TTL_SECONDS", 3600),
			CleanupInterval: getEnvInt("STORAGE_CLEANUP_INTERVAL", 600),
		},
		Logging: model.LoggingConfig{
			Level:    getEnvStr("LOG_LEVEL", "info"),
			FilePath: getEnvStr("LOG_FILE", "./log/app.log"),
		},
		Security: model.SecurityConfig{
			AllowedDomains: strings.Split(getEnvStr("ALLOWED_DOMAINS", "youtube.com,youtu.be"), ","),
			MaxTitleLength: getEnvInt("MAX_TITLE_LENGTH", 150),
		},
	}
}

func getEnvStr(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	valStr := getEnvStr(key, "")
	if val, err := strconv.Atoi(valStr); err == nil {
		return val
	}
	return defaultVal
}
