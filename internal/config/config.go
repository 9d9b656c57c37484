// Package config loads application settings from defaults, an optional
// config file and the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds every setting of the service.
type Config struct {
	AppPort       string        `mapstructure:"APP_PORT" validate:"required"`
	DBDriver      string        `mapstructure:"DB_DRIVER" validate:"oneof=sqlite postgres"`
	DatabaseDSN   string        `mapstructure:"DATABASE_DSN" validate:"required"`
	JWTSecret     string        `mapstructure:"JWT_SECRET" validate:"required,min=16"`
	SessionTTL    time.Duration `mapstructure:"SESSION_TTL" validate:"gt=0"`
	CookieSecure  bool          `mapstructure:"COOKIE_SECURE"`
	RabbitMQURL   string        `mapstructure:"RABBITMQ_URL" validate:"omitempty,url"`
	RabbitMQQueue string        `mapstructure:"RABBITMQ_QUEUE" validate:"required"`
	LogLevel      string        `mapstructure:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	RequestLog    bool          `mapstructure:"REQUEST_LOG"`
	AdminUsername string        `mapstructure:"ADMIN_USERNAME"`
	AdminPassword string        `mapstructure:"ADMIN_PASSWORD" validate:"required_with=AdminUsername"`
	ReadTimeout   time.Duration `mapstructure:"READ_TIMEOUT"`
	WriteTimeout  time.Duration `mapstructure:"WRITE_TIMEOUT"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "shoppinglist.db?_foreign_keys=on")
	v.SetDefault("JWT_SECRET", "change-me-in-production-please")
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_QUEUE", "shoppinglist_events")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("REQUEST_LOG", true)
	v.SetDefault("ADMIN_USERNAME", "")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("READ_TIMEOUT", "10s")
	v.SetDefault("WRITE_TIMEOUT", "10s")
}

// Load reads the configuration. path names an optional config file (any
// format viper understands); environment variables override both.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// SlogLevel maps LogLevel to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
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

// EventsEnabled reports whether list events go to RabbitMQ.
func (c *Config) EventsEnabled() bool {
	return c.RabbitMQURL != ""
}
