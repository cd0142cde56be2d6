// Package config loads server configuration from defaults, an optional
// config.yaml and MENTOR_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Engine   EngineConfig   `mapstructure:"engine" validate:"required"`
}

type ServerConfig struct {
	Port           string   `mapstructure:"port" validate:"required,numeric"`
	AllowedOrigins []string `mapstructure:"allowed_origins" validate:"min=1"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host" validate:"required"`
	Port         int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	User         string `mapstructure:"user" validate:"required"`
	Password     string `mapstructure:"password"`
	Name         string `mapstructure:"name" validate:"required"`
	SSLMode      string `mapstructure:"sslmode" validate:"oneof=disable require verify-ca verify-full"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"min=1"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"min=0"`
}

// DSN renders the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// devJWTSecret is the signing key used when none is configured. It is
// public, so tokens signed with it are only fit for local development.
const devJWTSecret = "exam-mentor-dev-signing-key"

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret" validate:"required,min=16"`
	TokenTTL  time.Duration `mapstructure:"token_ttl" validate:"required"`
}

// UsesDevSecret reports whether tokens are signed with the built-in
// development key.
func (a AuthConfig) UsesDevSecret() bool {
	return a.JWTSecret == devJWTSecret
}

type EngineConfig struct {
	DefaultDailyMinutes int  `mapstructure:"default_daily_minutes" validate:"min=15,max=180"`
	ReviewQueueLimit    int  `mapstructure:"review_queue_limit" validate:"min=1,max=200"`
	PlanWorker          bool `mapstructure:"plan_worker"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "mentor_user")
	v.SetDefault("database.password", "mentor_password")
	v.SetDefault("database.name", "exam_mentor")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("auth.jwt_secret", devJWTSecret)
	v.SetDefault("auth.token_ttl", "72h")

	v.SetDefault("engine.default_daily_minutes", 45)
	v.SetDefault("engine.review_queue_limit", 20)
	v.SetDefault("engine.plan_worker", true)
}

// Load reads configuration. Environment variables win over config.yaml,
// which wins over defaults. The plain PORT variable is honored for
// platforms that inject it.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		log.Println("[config] config.yaml not found, using environment and defaults")
	}

	v.SetEnvPrefix("MENTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("server.port", "MENTOR_SERVER_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Auth.UsesDevSecret() {
		log.Println("[config] WARN: auth.jwt_secret is the built-in development key; set MENTOR_AUTH_JWT_SECRET")
	}
	return &cfg, nil
}
