package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix                = "CLIPSTREAM"
	defaultHTTPAddress       = "0.0.0.0:8080"
	defaultDatabasePath      = "clipstream.db"
	defaultLogLevel          = "info"
	defaultMediaDir          = "media"
	defaultMediaPublicURL    = "/media"
	defaultAccessTTLMinutes  = 30
	defaultRefreshTTLHours   = 240
	defaultShutdownGraceSecs = 10
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress    string
	DatabasePath   string
	SigningSecret  string
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
	MediaDir       string
	MediaPublicURL string
	LogLevel       string
	ShutdownGrace  time.Duration
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
	configViper.SetDefault("media.dir", defaultMediaDir)
	configViper.SetDefault("media.public_url", defaultMediaPublicURL)
	configViper.SetDefault("auth.access_ttl_minutes", defaultAccessTTLMinutes)
	configViper.SetDefault("auth.refresh_ttl_hours", defaultRefreshTTLHours)
	configViper.SetDefault("http.shutdown_grace_seconds", defaultShutdownGraceSecs)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:    configViper.GetString("http.address"),
		DatabasePath:   configViper.GetString("database.path"),
		SigningSecret:  configViper.GetString("auth.signing_secret"),
		AccessTTL:      time.Duration(configViper.GetInt("auth.access_ttl_minutes")) * time.Minute,
		RefreshTTL:     time.Duration(configViper.GetInt("auth.refresh_ttl_hours")) * time.Hour,
		MediaDir:       configViper.GetString("media.dir"),
		MediaPublicURL: configViper.GetString("media.public_url"),
		LogLevel:       configViper.GetString("log.level"),
		ShutdownGrace:  time.Duration(configViper.GetInt("http.shutdown_grace_seconds")) * time.Second,
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
	if strings.TrimSpace(c.MediaDir) == "" {
		return fmt.Errorf("media.dir is required")
	}
	if c.AccessTTL <= 0 {
		return fmt.Errorf("auth.access_ttl_minutes must be positive")
	}
	if c.RefreshTTL <= 0 {
		return fmt.Errorf("auth.refresh_ttl_hours must be positive")
	}
	return nil
}
