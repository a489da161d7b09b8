package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendREST = "rest"
	BackendSDK  = "sdk"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	StoragePath string
	GeoIPDBPath string

	GenAIBackend     string
	GeminiAPIKey     string
	GeminiBaseURL    string
	GeminiImageModel string
	GeminiVideoModel string
	GeminiChatModel  string
	GeminiTipModel   string

	PollInterval     time.Duration
	MaxPollDuration  time.Duration
	SelectionTimeout time.Duration
	SessionIdle      time.Duration
	MaxImageBytes    int
	MaxImageDim      int

	CORSAllowedOrigins []string
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RateLimitPerMin    int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
// A database is optional; without DATABASE_URL keys live in memory and job history is not kept.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		StoragePath: getEnv("STORAGE_PATH", "./data"),
		GeoIPDBPath: os.Getenv("GEOIP_DB_PATH"),

		GenAIBackend:     strings.ToLower(getEnv("GENAI_BACKEND", BackendREST)),
		GeminiAPIKey:     strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiBaseURL:    getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiImageModel: getEnv("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),
		GeminiVideoModel: getEnv("GEMINI_VIDEO_MODEL", "veo-3.1-fast-generate-preview"),
		GeminiChatModel:  getEnv("GEMINI_CHAT_MODEL", "gemini-3-pro-preview"),
		GeminiTipModel:   getEnv("GEMINI_TIP_MODEL", "gemini-2.5-flash-lite"),

		PollInterval:     time.Second * time.Duration(getEnvInt("STUDIO_POLL_INTERVAL_SECONDS", 5)),
		MaxPollDuration:  time.Minute * time.Duration(getEnvInt("STUDIO_MAX_POLL_MINUTES", 10)),
		SelectionTimeout: time.Second * time.Duration(getEnvInt("STUDIO_SELECTION_TIMEOUT_SECONDS", 120)),
		SessionIdle:      time.Minute * time.Duration(getEnvInt("STUDIO_SESSION_IDLE_MINUTES", 30)),
		MaxImageBytes:    getEnvInt("STUDIO_MAX_IMAGE_BYTES", 10<<20),
		MaxImageDim:      getEnvInt("STUDIO_MAX_IMAGE_DIMENSION", 2048),

		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 30)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 60)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	switch cfg.GenAIBackend {
	case BackendREST, BackendSDK:
	default:
		return nil, fmt.Errorf("GENAI_BACKEND must be %q or %q, got %q", BackendREST, BackendSDK, cfg.GenAIBackend)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
