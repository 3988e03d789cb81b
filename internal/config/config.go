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

	// JWT
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// OTP
	OTPCooldown   time.Duration
	OTPExpiration time.Duration
	OTPLength     int

	// WhatsApp
	WhatsAppAPIURL  string
	WhatsAppToken   string
	WhatsAppTimeout time.Duration

	// Dispatch
	DispatchInterval       time.Duration
	DispatchBatchSize      int
	DispatchMaxConcurrency int

	// Rate Limit
	RateLimitGeneral int
	RateLimitOTP     int

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

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	cfg.WhatsAppAPIURL = os.Getenv("WHATSAPP_API_URL")
	if cfg.WhatsAppAPIURL == "" {
		missing = append(missing, "WHATSAPP_API_URL")
	}

	cfg.WhatsAppToken = os.Getenv("WHATSAPP_API_TOKEN")
	if cfg.WhatsAppToken == "" {
		missing = append(missing, "WHATSAPP_API_TOKEN")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.AccessTokenTTL = getEnvDuration("ACCESS_TOKEN_TTL", 15*time.Minute)
	cfg.RefreshTokenTTL = getEnvDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour)
	cfg.OTPCooldown = getEnvDuration("OTP_COOLDOWN", time.Minute)
	cfg.OTPExpiration = getEnvDuration("OTP_EXPIRATION", 5*time.Minute)
	cfg.OTPLength = getEnvInt("OTP_LENGTH", 6)
	cfg.WhatsAppTimeout = getEnvDuration("WHATSAPP_TIMEOUT", 10*time.Second)
	cfg.DispatchInterval = getEnvDuration("DISPATCH_INTERVAL", time.Minute)
	cfg.DispatchBatchSize = getEnvInt("DISPATCH_BATCH_SIZE", 50)
	cfg.DispatchMaxConcurrency = getEnvInt("DISPATCH_MAX_CONCURRENCY", 5)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitOTP = getEnvInt("RATE_LIMIT_OTP", 5)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

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
