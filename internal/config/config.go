package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Telegram
	BotToken   string
	WebhookURL string

	// Database
	DatabaseURL string

	// Redis (optional; enables the multi-process gate backend)
	RedisURL string

	// Downloader
	YtDlpPath       string
	TempDir         string
	DownloadTimeout time.Duration

	// Validation thresholds
	MaxDurationSeconds    float64
	MaxFilesizeBytes      int64
	MaxVideoPlaylistItems int
	MaxImagePlaylistItems int

	// Cache retention
	CacheTTLDays       int
	CachePruneInterval time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:        getEnvOrDefault("PORT", "8080"),
		Env:         getEnvOrDefault("ENV", "development"),
		BotToken:    mustGetEnv("BOT_TOKEN"),
		WebhookURL:  getEnvOrDefault("WEBHOOK_URL", ""),
		DatabaseURL: mustGetEnv("DATABASE_URL"),
		RedisURL:    getEnvOrDefault("REDIS_URL", ""),

		YtDlpPath:       getEnvOrDefault("YTDLP_PATH", "yt-dlp"),
		TempDir:         getEnvOrDefault("TEMP_DIR", os.TempDir()),
		DownloadTimeout: time.Duration(getEnvAsIntOrDefault("DOWNLOAD_TIMEOUT_SECONDS", 300)) * time.Second,

		MaxDurationSeconds:    float64(getEnvAsIntOrDefault("MAX_DURATION_SECONDS", 1800)),
		MaxFilesizeBytes:      int64(getEnvAsIntOrDefault("MAX_FILESIZE_MB", 500)) * 1024 * 1024,
		MaxVideoPlaylistItems: getEnvAsIntOrDefault("MAX_VIDEO_PLAYLIST_ITEMS", 5),
		MaxImagePlaylistItems: getEnvAsIntOrDefault("MAX_IMAGE_PLAYLIST_ITEMS", 10),

		CacheTTLDays:       getEnvAsIntOrDefault("CACHE_TTL_DAYS", 30),
		CachePruneInterval: time.Duration(getEnvAsIntOrDefault("CACHE_PRUNE_INTERVAL_MINUTES", 360)) * time.Minute,
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
