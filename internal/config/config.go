package config

import (
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

const (
	defaultPort       = "8080"
	defaultDataDir    = "./DB"
	defaultMaxMatches = 5
)

// Load reads configuration from environment variables and .env file.
func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Info("No .env file found, reading from environment variables")
	}

	getEnvDefault := func(key, fallback string) string {
		if value, ok := os.LookupEnv(key); ok && value != "" {
			return value
		}
		return fallback
	}

	cfg := Config{
		DataDir:           getEnvDefault("DATA_DIR", defaultDataDir),
		Port:              getEnvDefault("PORT", defaultPort),
		DefaultMaxMatches: parseInt("DEFAULT_MAX_MATCHES", getEnvDefault("DEFAULT_MAX_MATCHES", ""), defaultMaxMatches),
		ArchiveInterval:   parseDuration("ARCHIVE_INTERVAL", getEnvDefault("ARCHIVE_INTERVAL", "")),
		Slack: SlackConfig{
			Token:         getEnvDefault("SLACK_BOT_TOKEN", ""),
			ChannelID:     getEnvDefault("SLACK_CHANNEL_ID", ""),
			SigningSecret: getEnvDefault("SLACK_SIGNING_SECRET", ""),
		},
		Turso: TursoConfig{
			URLTemplate: getEnvDefault("TURSO_URL_TEMPLATE", ""),
			AuthToken:   getEnvDefault("TURSO_AUTH_TOKEN", ""),
		},
		ProjectID: getEnvDefault("GCP_PROJECT", ""),
	}

	// A remote store without a token cannot authenticate, so refuse to start.
	if cfg.Turso.URLTemplate != "" && cfg.Turso.AuthToken == "" {
		log.Fatalf("Error: TURSO_AUTH_TOKEN is required when TURSO_URL_TEMPLATE is set.")
	}
	if cfg.Slack.SigningSecret == "" {
		log.Warn("SLACK_SIGNING_SECRET is not set, slash commands will be rejected")
	}
	return cfg
}

func parseInt(key, raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Warn("Invalid integer in environment, using default", "key", key, "value", raw, "default", fallback)
		return fallback
	}
	return v
}

// parseDuration returns 0 (disabled) for an empty or malformed value.
func parseDuration(key, raw string) time.Duration {
	if raw == "" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Warn("Invalid duration in environment, archiver disabled", "key", key, "value", raw)
		return 0
	}
	return d
}
