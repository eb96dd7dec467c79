package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zalando/go-keyring"
)

const (
	service = "postmat-cli"
)

// ErrNotAuthenticated is returned when no session is stored for a server
var ErrNotAuthenticated = errors.New("not authenticated. Please run 'postmat login' first")

// StoredCookie is a session cookie as kept in the keychain
type StoredCookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Expires time.Time `json:"expires,omitempty"`
}

// Expired reports whether the cookie has an expiry in the past
func (c StoredCookie) Expired(now time.Time) bool {
	return !c.Expires.IsZero() && !c.Expires.After(now)
}

// getKeyringKey returns a unique key for storing session cookies per server
func getKeyringKey(serverURL string) string {
	return fmt.Sprintf("cookies-%s", serverURL)
}

// SaveCookies persists the session cookies securely in the OS keychain/credential manager
func SaveCookies(serverURL string, cookies []StoredCookie) error {
	data, err := json.Marshal(cookies)
	if err != nil {
		return fmt.Errorf("failed to encode cookies: %w", err)
	}

	key := getKeyringKey(serverURL)
	if err := keyring.Set(service, key, string(data)); err != nil {
		return fmt.Errorf("failed to save cookies: %w", err)
	}
	return nil
}

// LoadCookies retrieves the session cookies from the OS keychain/credential manager
func LoadCookies(serverURL string) ([]StoredCookie, error) {
	key := getKeyringKey(serverURL)
	data, err := keyring.Get(service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("failed to load cookies: %w", err)
	}

	var cookies []StoredCookie
	if err := json.Unmarshal([]byte(data), &cookies); err != nil {
		return nil, fmt.Errorf("failed to decode stored cookies: %w", err)
	}
	return cookies, nil
}

// DeleteCookies removes the session cookies from the OS keychain/credential manager
func DeleteCookies(serverURL string) error {
	key := getKeyringKey(serverURL)
	if err := keyring.Delete(service, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete cookies: %w", err)
	}
	return nil
}

// SessionStore defines the interface for cookie storage operations
// This allows us to swap the keyring in tests
type SessionStore interface {
	SaveCookies(serverURL string, cookies []StoredCookie) error
	LoadCookies(serverURL string) ([]StoredCookie, error)
	DeleteCookies(serverURL string) error
}

// keyringStore implements SessionStore using the OS keyring
type keyringStore struct{}

var Default SessionStore = &keyringStore{}

func (k *keyringStore) SaveCookies(serverURL string, cookies []StoredCookie) error {
	return SaveCookies(serverURL, cookies)
}

func (k *keyringStore) LoadCookies(serverURL string) ([]StoredCookie, error) {
	return LoadCookies(serverURL)
}

func (k *keyringStore) DeleteCookies(serverURL string) error {
	return DeleteCookies(serverURL)
}
