// Package config loads the service configuration from defaults, an optional
// YAML file and CITYINFO_* environment variables, in increasing precedence.
package config

import (
	"fmt"
	"log/slog"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Mail     MailConfig     `mapstructure:"mail"`
	Files    FilesConfig    `mapstructure:"files"`
}

type ServerConfig struct {
	Port      int    `mapstructure:"port" validate:"gt=0,lt=65536"`
	LogLevel  string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" validate:"oneof=text json"`

	// StrictNegotiation answers an unsupported Accept header with 406 instead
	// of falling back to JSON.
	StrictNegotiation  bool     `mapstructure:"strict_negotiation"`
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
}

// Addr is the listen address for net/http.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// SlogLevel converts LogLevel; validation has already restricted its values.
func (s ServerConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

type DatabaseConfig struct {
	ConnectionString string `mapstructure:"connection_string" validate:"required"`
	Seed             bool   `mapstructure:"seed"`
}

type AuthConfig struct {
	Secret        string        `mapstructure:"secret" validate:"required,min=16"`
	Issuer        string        `mapstructure:"issuer" validate:"required"`
	Audience      string        `mapstructure:"audience" validate:"required"`
	TokenLifetime time.Duration `mapstructure:"token_lifetime" validate:"gt=0"`

	// RateLimit is requests per minute per client IP on the authenticate
	// endpoint. Zero disables limiting.
	RateLimit int `mapstructure:"rate_limit" validate:"gte=0"`

	// EnforceCityMatch makes listing points of interest require that the
	// caller's city claim names the requested city.
	EnforceCityMatch bool `mapstructure:"enforce_city_match"`

	DemoUser DemoUserConfig `mapstructure:"demo_user"`

	// Users switches authentication from the demo verifier to bcrypt checks
	// against these records.
	Users []UserConfig `mapstructure:"users" validate:"dive"`
}

// DemoUserConfig is the identity every login receives while no users are
// configured.
type DemoUserConfig struct {
	ID        int64  `mapstructure:"id"`
	FirstName string `mapstructure:"first_name"`
	LastName  string `mapstructure:"last_name"`
	City      string `mapstructure:"city"`
}

type UserConfig struct {
	UserName     string `mapstructure:"user_name" validate:"required"`
	PasswordHash string `mapstructure:"password_hash" validate:"required"`
	ID           int64  `mapstructure:"id"`
	FirstName    string `mapstructure:"first_name"`
	LastName     string `mapstructure:"last_name"`
	City         string `mapstructure:"city"`
}

type MailConfig struct {
	Mode string `mapstructure:"mode" validate:"oneof=local cloud"`
	To   string `mapstructure:"to" validate:"required,email"`
	From string `mapstructure:"from" validate:"required,email"`
}

type FilesConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}
