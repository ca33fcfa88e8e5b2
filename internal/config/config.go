package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURI   string
	TelegramToken string

	AIAPIKey  string
	AIBaseURL string
	AIModel   string

	GoogleClientID     string
	GoogleClientSecret string

	WebServerAddr string
	PublicURL     string

	LogLevel  string
	LogPretty bool
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env file is optional in production
	}

	cfg := &Config{
		DatabaseURI:        os.Getenv("DATABASE_URI"),
		TelegramToken:      os.Getenv("TELEGRAM_TOKEN"),
		AIAPIKey:           os.Getenv("AI_API_KEY"),
		AIBaseURL:          getEnvOrDefault("AI_BASE_URL", "https://openrouter.ai/api/v1"),
		AIModel:            getEnvOrDefault("AI_MODEL", "openai/gpt-4o-mini"),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		WebServerAddr:      getEnvOrDefault("WEB_SERVER_ADDR", ":8080"),
		PublicURL:          os.Getenv("PUBLIC_URL"),
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
		LogPretty:          os.Getenv("LOG_PRETTY") == "true",
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("DATABASE_URI is required")
	}
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	return cfg, nil
}

// CalendarEnabled reports whether the Google OAuth client is configured.
// Without it the bot runs fine, just without the calendar mirror.
func (c *Config) CalendarEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.PublicURL != ""
}

// OAuthRedirectURL is where Google sends the user back after consent.
func (c *Config) OAuthRedirectURL() string {
	return c.PublicURL + "/oauth/callback"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
