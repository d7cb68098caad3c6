package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment
// variables. Secrets are intentionally absent: provider and upload
// credentials flow through the credentials source so rotation takes effect
// without a restart.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	UploadURL    string
	UploadFolder string

	ProviderChain []string

	GeminiBaseURL string
	GeminiModel   string
	OpenAIBaseURL string
	OpenAIModel   string
	QwenBaseURL   string
	QwenModel     string

	ProviderTimeout time.Duration
	UploadTimeout   time.Duration

	CacheTTL        time.Duration
	CacheMaxEntries int

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		UploadURL:    getEnv("UPLOAD_URL", "https://api.cloudinary.com/v1_1/demo/image/upload"),
		UploadFolder: getEnv("UPLOAD_FOLDER", "generated"),

		ProviderChain: splitList(getEnv("PROVIDER_CHAIN", "gemini,openai,qwen")),

		GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiModel:   getEnv("GEMINI_IMAGE_MODEL", "imagen-3.0-generate-002"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:   getEnv("OPENAI_IMAGE_MODEL", "gpt-image-1"),
		QwenBaseURL:   getEnv("QWEN_BASE_URL", "https://dashscope-intl.aliyuncs.com/api/v1"),
		QwenModel:     getEnv("QWEN_IMAGE_MODEL", "qwen-image-plus"),

		ProviderTimeout: time.Second * time.Duration(getEnvInt("PROVIDER_TIMEOUT_SECONDS", 60)),
		UploadTimeout:   time.Second * time.Duration(getEnvInt("UPLOAD_TIMEOUT_SECONDS", 120)),

		CacheTTL:        time.Second * time.Duration(getEnvInt("CACHE_TTL_SECONDS", 3600)),
		CacheMaxEntries: getEnvInt("CACHE_MAX_ENTRIES", 512),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 180)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if len(cfg.ProviderChain) == 0 {
		return nil, fmt.Errorf("PROVIDER_CHAIN must name at least one provider")
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
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
