package config

import "time"

// Config holds all configuration for the application.
type Config struct {
	DataDir           string
	Port              string
	DefaultMaxMatches int
	ArchiveInterval   time.Duration
	Slack             SlackConfig
	Turso             TursoConfig
	ProjectID         string
}

type SlackConfig struct {
	Token     string
	ChannelID string
	// SigningSecret verifies slash command requests. Without it every
	// command request is rejected.
	SigningSecret string
}

// TursoConfig points batch stores at remote libSQL databases. URLTemplate
// must contain a single %s which is replaced by the batch key.
type TursoConfig struct {
	URLTemplate string
	AuthToken   string
}

// SlackEnabled reports whether notifications should be posted to Slack.
func (c Config) SlackEnabled() bool {
	return c.Slack.Token != "" && c.Slack.ChannelID != ""
}
