package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// envPrefix is prepended to every sandbox environment variable
const envPrefix = "SANDBOX"

// Config holds all configuration for the sandbox backend
type Config struct {
	// HTTP Configuration
	HTTP HTTPConfig `envconfig:"HTTP"`

	// Database Configuration
	Database DatabaseConfig `envconfig:"DATABASE"`

	// Session Configuration
	Session SessionConfig `envconfig:"SESSION"`

	// Admin seeding
	Admin AdminConfig `envconfig:"ADMIN"`

	// Logging Configuration
	Logging LoggingConfig `envconfig:"LOG"`
}

// HTTPConfig holds listener and cookie settings
type HTTPConfig struct {
	ListenAddress  string   `envconfig:"LISTEN_ADDRESS" default:":8000"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	SecureCookies  bool     `envconfig:"SECURE_COOKIES" default:"false"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string `envconfig:"URL" default:"postmat-sandbox.sqlite"`
}

// SessionConfig controls auth_token lifetime and cleanup
type SessionConfig struct {
	TTL           time.Duration `envconfig:"TTL" default:"168h"`
	SweepSchedule string        `envconfig:"SWEEP_SCHEDULE" default:"@every 10m"`
}

// AdminConfig seeds an admin account on startup when both fields are set
type AdminConfig struct {
	Email    string `envconfig:"EMAIL"`
	Password string `envconfig:"PASSWORD"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string `envconfig:"LEVEL" default:"info"`
	Format string `envconfig:"FORMAT" default:"json"` // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	cfg := new(Config)
	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if cfg.Session.TTL <= 0 {
		return nil, fmt.Errorf("%s_SESSION_TTL must be positive, got %s", envPrefix, cfg.Session.TTL)
	}

	return cfg, nil
}

// ShouldSeedAdmin reports whether an admin account should be created on startup
func (c *Config) ShouldSeedAdmin() bool {
	return c.Admin.Email != "" && c.Admin.Password != ""
}
