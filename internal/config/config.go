package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all process configuration, populated from environment variables
type Config struct {
	Port        int
	DatabaseURL string // postgres connection string; empty means sqlite
	DBPath      string // sqlite file path

	JWTSecret string
	JWTTTL    time.Duration

	TelegramBotToken string // empty disables the bot
	LinkCodeTTL      time.Duration

	NotificationStartHour int
	NotificationEndHour   int
}

// Load reads configuration from the environment, loading .env first if present
func Load() (*Config, error) {
	// .env отсутствует в продакшене - это не ошибка
	_ = godotenv.Load()

	secret := os.Getenv("JWT_SECRET")
	if len(secret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be set and at least 32 characters")
	}

	cfg := &Config{
		Port:                  envInt("PORT", 3333),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		DBPath:                envString("DB_PATH", "data/swipevocab.db"),
		JWTSecret:             secret,
		JWTTTL:                time.Duration(envInt("JWT_TTL_MINUTES", 60)) * time.Minute,
		TelegramBotToken:      os.Getenv("TELEGRAM_BOT_TOKEN"),
		LinkCodeTTL:           time.Duration(envInt("LINK_CODE_TTL_SECONDS", 120)) * time.Second,
		NotificationStartHour: envInt("NOTIFICATION_START_HOUR", 8),
		NotificationEndHour:   envInt("NOTIFICATION_END_HOUR", 22),
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid PORT value: %d", cfg.Port)
	}

	return cfg, nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
