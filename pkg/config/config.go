package config

import (
	"log/slog"
	"os"
	"strconv"
)

// Config holds every recognized environment option, resolved once at startup.
type Config struct {
	StripeSecretKey string
	SMTPHost        string
	SMTPPort        int
	EmailUser       string
	EmailPass       string
	AlertEmail      string
	Port            string
	OTLPEndpoint    string
	LogLevel        slog.Level
}

// Load reads the environment. AlertEmail falls back to EmailUser when
// ALERT_EMAIL is unset.
func Load() Config {
	cfg := Config{
		StripeSecretKey: os.Getenv("STRIPE_SECRET_KEY"),
		SMTPHost:        env("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:        envInt("SMTP_PORT", 587),
		EmailUser:       os.Getenv("EMAIL_USER"),
		EmailPass:       os.Getenv("EMAIL_PASS"),
		Port:            env("PORT", "3000"),
		OTLPEndpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		LogLevel:        level(env("LOG_LEVEL", "info")),
	}
	cfg.AlertEmail = env("ALERT_EMAIL", cfg.EmailUser)
	return cfg
}

// StripeConfigured reports whether the processor credential is present. It is
// a presence check only, the key is not verified against the API.
func (c Config) StripeConfigured() bool {
	return c.StripeSecretKey != ""
}

func (c Config) EmailConfigured() bool {
	return c.EmailUser != "" && c.EmailPass != ""
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func level(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
