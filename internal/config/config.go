package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port              int
	LogLevel          string
	NatsURL           string
	NatsToken         string
	DatabaseURL       string
	AnthropicAPIKey   string
	AnthropicModel    string
	CalendarURL       string
	CalendarAPIKey    string
	CalendarEventType string
	Timezone          string
}

func Load() Config {
	return Config{
		Port:              envInt("FRONTDESK_PORT", 8760),
		LogLevel:          envStr("LOG_LEVEL", "info"),
		NatsURL:           envStr("NATS_URL", "nats://hermes:4222"),
		NatsToken:         envStr("NATS_TOKEN", ""),
		DatabaseURL:       envStr("DATABASE_URL", ""),
		AnthropicAPIKey:   envStr("ANTHROPIC_API_KEY", ""),
		AnthropicModel:    envStr("FRONTDESK_MODEL", "claude-sonnet-4-20250514"),
		CalendarURL:       envStr("CALENDAR_URL", "http://calendar:8720"),
		CalendarAPIKey:    envStr("CALENDAR_API_KEY", ""),
		CalendarEventType: envStr("CALENDAR_EVENT_TYPE", "consultation-15"),
		Timezone:          envStr("FRONTDESK_TIMEZONE", "America/New_York"),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
