package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Token
	TokenSecret string
	TokenMaxAge time.Duration

	// Rate Limit
	RateLimitGeneral int
	RateLimitItemReg int

	// Upload
	MaxUploadSize      int64
	ImageUploadTimeout time.Duration

	// Image Store
	ImageStoreBackend string // "local" または "s3"
	LocalImageDir     string
	LocalImageBaseURL string
	S3Bucket          string
	S3Region          string
	S3AccessKey       string
	S3SecretKey       string
	S3Endpoint        string
	S3PublicBaseURL   string

	// Suggest
	AnthropicAPIKey string
	AnthropicModel  string

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.TokenSecret = os.Getenv("TOKEN_SECRET")
	if cfg.TokenSecret == "" {
		missing = append(missing, "TOKEN_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.TokenMaxAge = getEnvDuration("TOKEN_MAX_AGE", 24*time.Hour)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitItemReg = getEnvInt("RATE_LIMIT_ITEM_REG", 10)
	cfg.MaxUploadSize = getEnvInt64("MAX_UPLOAD_SIZE", 10485760)
	cfg.ImageUploadTimeout = getEnvDuration("IMAGE_UPLOAD_TIMEOUT", 30*time.Second)
	cfg.ImageStoreBackend = getEnvString("IMAGE_STORE_BACKEND", "local")
	cfg.LocalImageDir = getEnvString("LOCAL_IMAGE_DIR", "uploads")
	cfg.LocalImageBaseURL = getEnvString("LOCAL_IMAGE_BASE_URL", "/uploads")
	cfg.S3Bucket = getEnvString("S3_BUCKET", "")
	cfg.S3Region = getEnvString("S3_REGION", "us-east-1")
	cfg.S3AccessKey = getEnvString("S3_ACCESS_KEY", "")
	cfg.S3SecretKey = getEnvString("S3_SECRET_KEY", "")
	cfg.S3Endpoint = getEnvString("S3_ENDPOINT", "")
	cfg.S3PublicBaseURL = getEnvString("S3_PUBLIC_BASE_URL", "")
	cfg.AnthropicAPIKey = getEnvString("ANTHROPIC_API_KEY", "")
	cfg.AnthropicModel = getEnvString("ANTHROPIC_MODEL", "claude-3-5-haiku-latest")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:5173")

	// s3バックエンドの場合はバケット指定が必須
	if cfg.ImageStoreBackend == "s3" && cfg.S3Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is required when IMAGE_STORE_BACKEND=s3")
	}

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
