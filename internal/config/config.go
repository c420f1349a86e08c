package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix                  = "BARBRIDGE"
	defaultHTTPAddress         = "0.0.0.0:8080"
	defaultDatabasePath        = "barbridge.db"
	defaultLogLevel            = "info"
	defaultGoogleEndpoint      = "https://www.googleapis.com/calendar/v3"
	defaultReminderLeadMinutes = 15
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress         string
	SigningSecret       string
	DatabasePath        string
	LogLevel            string
	GoogleEndpoint      string
	ChatWebhookURL      string
	ReminderLeadMinutes int
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("google.calendar_endpoint", defaultGoogleEndpoint)
	configViper.SetDefault("notifications.reminder_lead_minutes", defaultReminderLeadMinutes)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:         configViper.GetString("http.address"),
		SigningSecret:       configViper.GetString("auth.signing_secret"),
		DatabasePath:        configViper.GetString("database.path"),
		LogLevel:            configViper.GetString("log.level"),
		GoogleEndpoint:      configViper.GetString("google.calendar_endpoint"),
		ChatWebhookURL:      configViper.GetString("chat.webhook_url"),
		ReminderLeadMinutes: configViper.GetInt("notifications.reminder_lead_minutes"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.SigningSecret) == "" {
		return fmt.Errorf("auth.signing_secret is required")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if strings.TrimSpace(c.GoogleEndpoint) == "" {
		return fmt.Errorf("google.calendar_endpoint is required")
	}
	if c.ReminderLeadMinutes <= 0 {
		return fmt.Errorf("notifications.reminder_lead_minutes must be positive")
	}
	return nil
}
