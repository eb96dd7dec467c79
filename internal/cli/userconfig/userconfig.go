package userconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	configDirName  = "postmat"
	configFileName = "config.json"
)

// UserConfig represents the user's local configuration stored in ~/.config/postmat/config.json
type UserConfig struct {
	SelectedServerURL string `json:"selected_server_url"`
	// LoggedIn is keyed by server URL
	LoggedIn map[string]bool `json:"logged_in,omitempty"`
}

// GetConfigPath returns the path to the user config file
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".config", configDirName)
	return filepath.Join(configDir, configFileName), nil
}

// Load reads the user configuration file
func Load() (*UserConfig, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return &UserConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user config file: %w", err)
	}

	var cfg UserConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the user configuration to a file
func Save(cfg *UserConfig) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal user config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write user config file: %w", err)
	}

	return nil
}

// SetSelectedServer updates the selected server URL and saves the config
func SetSelectedServer(serverURL string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	cfg.SelectedServerURL = serverURL
	return Save(cfg)
}

// GetSelectedServer returns the selected server URL, or empty string if not set
func GetSelectedServer() (string, error) {
	cfg, err := Load()
	if err != nil {
		return "", err
	}

	return cfg.SelectedServerURL, nil
}

// IsLoggedIn reports the stored logged-in flag for a server
func IsLoggedIn(serverURL string) (bool, error) {
	cfg, err := Load()
	if err != nil {
		return false, err
	}

	return cfg.LoggedIn[serverURL], nil
}

// SetLoggedIn stores the logged-in flag for a server. A false flag is
// removed rather than stored.
func SetLoggedIn(serverURL string, loggedIn bool) error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	if loggedIn {
		if cfg.LoggedIn == nil {
			cfg.LoggedIn = make(map[string]bool)
		}
		cfg.LoggedIn[serverURL] = true
	} else {
		delete(cfg.LoggedIn, serverURL)
	}
	return Save(cfg)
}

// Flag is the logged-in flag of one server, usable as the API client's session flag
type Flag struct {
	ServerURL string
}

func (f Flag) SetLoggedIn(loggedIn bool) error {
	return SetLoggedIn(f.ServerURL, loggedIn)
}

func (f Flag) IsLoggedIn() (bool, error) {
	return IsLoggedIn(f.ServerURL)
}
