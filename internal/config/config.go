package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	SMTP    SMTPConfig
	Search  SearchConfig
	Profile ProfileConfig
	Notify  NotifyConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	SessionStore       string // "memory" or "redis"
	SessionTTLMinutes  int
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type SearchConfig struct {
	BaseURL        string
	IndexID        string
	APIKey         string
	TimeoutSeconds int
}

type ProfileConfig struct {
	BaseURL        string
	APIKey         string
	TimeoutSeconds int
}

type NotifyConfig struct {
	TopicName string
	Broker    string // "memory" or "nats"
	PageSize  int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			SessionStore:       getEnv("SESSION_STORE", "memory"),
			SessionTTLMinutes:  getEnvAsInt("SESSION_TTL_MINUTES", 60),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "Doc Support"),
		},
		Search: SearchConfig{
			BaseURL:        getEnv("SEARCH_BASE_URL", "http://localhost:8080"),
			IndexID:        getEnv("SEARCH_INDEX_ID", ""),
			APIKey:         getEnv("SEARCH_API_KEY", ""),
			TimeoutSeconds: getEnvAsInt("SEARCH_TIMEOUT_SECONDS", 10),
		},
		Profile: ProfileConfig{
			BaseURL:        getEnv("PROFILE_BASE_URL", "http://localhost:8081"),
			APIKey:         getEnv("PROFILE_API_KEY", ""),
			TimeoutSeconds: getEnvAsInt("PROFILE_TIMEOUT_SECONDS", 10),
		},
		Notify: NotifyConfig{
			TopicName: getEnv("NOTIFY_TOPIC_NAME", "DocSupportNotifications"),
			Broker:    getEnv("NOTIFY_BROKER", "memory"),
			PageSize:  getEnvAsInt("NOTIFY_PAGE_SIZE", 100),
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
