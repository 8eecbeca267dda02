// Package config loads and validates application configuration from config
// files and environment variables.
package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	SRS      SRSConfig      `mapstructure:"srs"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// SRSConfig exposes the tunable parameters of the scheduling algorithm.
// Zero values fall back to the algorithm defaults; only the ceiling is
// expected to be adjusted in practice.
type SRSConfig struct {
	MaxEaseFactor             float64 `mapstructure:"max_ease_factor"              validate:"omitempty,gt=1.3"`
	LapseEasePenalty          float64 `mapstructure:"lapse_ease_penalty"           validate:"omitempty,gt=0"`
	LapseIntervalDays         int     `mapstructure:"lapse_interval_days"          validate:"omitempty,gte=1"`
	FirstSuccessIntervalDays  int     `mapstructure:"first_success_interval_days"  validate:"omitempty,gte=1"`
	SecondSuccessIntervalDays int     `mapstructure:"second_success_interval_days" validate:"omitempty,gte=1"`
}
