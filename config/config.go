// Package config loads the router's environment-driven configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete process configuration, bound directly from
// environment variables — there is no config file for this service.
type Config struct {
	Port           string        `mapstructure:"port"`
	DatabaseURL    string        `mapstructure:"database_url"`
	CORSOrigins    []string      `mapstructure:"cors_origins"`
	WebhookSecret  string        `mapstructure:"webhook_secret"`
	JWTSecret      string        `mapstructure:"jwt_secret"`
	LogLevel       string        `mapstructure:"log_level"`
	LogFormat      string        `mapstructure:"log_format"`
	BusinessTZ     string        `mapstructure:"business_tz"`
	ShutdownGrace  time.Duration `mapstructure:"shutdown_grace"`
}

// Load binds the flat environment surface this service reads and
// returns the resolved configuration. Unlike a multi-subsystem config
// tree, there is nothing here to read from a file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindEnv(v)

	cfg := &Config{
		Port:          v.GetString("port"),
		DatabaseURL:   v.GetString("database_url"),
		WebhookSecret: v.GetString("webhook_secret"),
		JWTSecret:     v.GetString("jwt_secret"),
		LogLevel:      v.GetString("log_level"),
		LogFormat:     v.GetString("log_format"),
		BusinessTZ:    v.GetString("business_tz"),
		ShutdownGrace: v.GetDuration("shutdown_grace"),
	}

	if raw := v.GetString("cors_origins"); raw != "" {
		for _, origin := range strings.Split(raw, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
			}
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("config: DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("config: JWT_SECRET is required")
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("business_tz", "UTC")
	v.SetDefault("shutdown_grace", "10s")
}

func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("port", "PORT")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("cors_origins", "CORS_ORIGINS")
	_ = v.BindEnv("webhook_secret", "WEBHOOK_SECRET")
	_ = v.BindEnv("jwt_secret", "JWT_SECRET")
	_ = v.BindEnv("log_level", "LOG_LEVEL")
	_ = v.BindEnv("log_format", "LOG_FORMAT")
	_ = v.BindEnv("business_tz", "BUSINESS_TZ")
	_ = v.BindEnv("shutdown_grace", "SHUTDOWN_GRACE")
}
