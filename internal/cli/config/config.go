package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const ConfigFileName = "postmat.json"

// ErrNotFound is returned when no postmat.json exists in the directory tree
var ErrNotFound = errors.New("postmat.json not found")

// Server represents a postmat API server
type Server struct {
	URL   string `json:"url" validate:"required,http_url"`
	Alias string `json:"alias" validate:"required"`
}

// Config represents the CLI configuration file
type Config struct {
	Servers []Server `json:"servers" validate:"dive"`
}

// Env holds the POSTMAT_* environment overrides
type Env struct {
	APIURL   string        `envconfig:"API_URL"`
	Email    string        `envconfig:"EMAIL"`
	Password string        `envconfig:"PASSWORD"`
	Timeout  time.Duration `envconfig:"TIMEOUT" default:"30s"`
	LogLevel string        `envconfig:"LOG_LEVEL" default:"warn"`
}

// LoadEnv reads the POSTMAT_* environment variables, after loading .env and
// .env.local from the working directory. Variables already set win.
func LoadEnv() (*Env, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	var env Env
	if err := envconfig.Process("POSTMAT", &env); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if env.Timeout <= 0 {
		return nil, fmt.Errorf("POSTMAT_TIMEOUT must be positive, got %s", env.Timeout)
	}
	env.APIURL = strings.TrimRight(env.APIURL, "/")
	return &env, nil
}

// DefaultConfig returns a configuration pointing at a local API
func DefaultConfig(url string) *Config {
	return &Config{
		Servers: []Server{
			{
				URL:   strings.TrimRight(url, "/"),
				Alias: "default",
			},
		},
	}
}

// Validate checks every configured server
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid %s: failed '%s' check", fe.Namespace(), fe.Tag())
		}
		return err
	}

	seen := make(map[string]bool, len(c.Servers))
	for _, server := range c.Servers {
		if seen[server.Alias] {
			return fmt.Errorf("duplicate server alias '%s'", server.Alias)
		}
		seen[server.Alias] = true
	}
	return nil
}

// FindConfigFile searches for postmat.json in current directory and parent directories
func FindConfigFile() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	dir := currentDir
	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%w in %s or any parent directory", ErrNotFound, currentDir)
}

// Load reads and validates the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	for i := range cfg.Servers {
		cfg.Servers[i].URL = strings.TrimRight(cfg.Servers[i].URL, "/")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return &cfg, nil
}

// LoadFromCurrentDir loads config from current directory or parent directories
func LoadFromCurrentDir() (*Config, error) {
	configPath, err := FindConfigFile()
	if err != nil {
		return nil, err
	}

	return Load(configPath)
}

// Save writes the configuration to a file
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetServerByAlias returns a server by its alias
func (c *Config) GetServerByAlias(alias string) (*Server, error) {
	for i := range c.Servers {
		if c.Servers[i].Alias == alias {
			return &c.Servers[i], nil
		}
	}
	return nil, fmt.Errorf("server with alias '%s' not found", alias)
}

// GetServerByURLOrAlias finds a server by URL or alias
func (c *Config) GetServerByURLOrAlias(urlOrAlias string) (*Server, error) {
	trimmed := strings.TrimRight(urlOrAlias, "/")
	for i := range c.Servers {
		if c.Servers[i].URL == trimmed {
			return &c.Servers[i], nil
		}
	}
	return c.GetServerByAlias(urlOrAlias)
}

// GetDefaultServer returns the first server in the list
func (c *Config) GetDefaultServer() (*Server, error) {
	if len(c.Servers) == 0 {
		return nil, fmt.Errorf("no servers configured in postmat.json")
	}
	return &c.Servers[0], nil
}
